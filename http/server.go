package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/freekieb7/hearth/static"
	"github.com/puzpuzpuz/xsync/v3"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const DefaultBacklog = 10

var ErrServerClosed = errors.New("http: server closed")

type Server struct {
	Name   string
	Router Router
	Logger *slog.Logger

	Limits Limits
	// IdleTimeout bounds the wait for the next request on a connection.
	// Zero means wait forever.
	IdleTimeout time.Duration
	Backlog     int

	Tracer      trace.Tracer
	Instruments *Instruments

	// live connections: stored by the accept loop, deleted by their own
	// goroutine, closed by shutdown and counted by ActiveConns
	conns *xsync.MapOf[net.Conn, struct{}]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewServer returns a server for the files under root: GET serves files,
// HEAD, POST and PUT get the generic response, anything else 501.
func NewServer(name, root string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	instruments, err := NewInstruments(defaultMeter())
	if err != nil {
		return nil, err
	}

	s := &Server{
		Name:        name,
		Router:      NewRouter(),
		Logger:      logger,
		Limits:      DefaultLimits(),
		Backlog:     DefaultBacklog,
		Tracer:      defaultTracer(),
		Instruments: instruments,
		conns:       xsync.NewMapOf[net.Conn, struct{}](),
	}

	s.Router.Use(TelemetryMiddleware(s.Tracer, instruments), RecoverMiddleware())

	s.Router.GET(StaticHandler(static.NewResolver(root, logger)))
	s.Router.HEAD(HeadHandler)
	s.Router.POST(GenericHandler)
	s.Router.PUT(GenericHandler)

	return s, nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := Listen(addr, s.Backlog)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener and serves each one on its own
// goroutine. It returns ErrServerClosed once ctx is cancelled or Shutdown
// is called, after every connection goroutine has returned.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	defer close(done)

	s.mu.Lock()
	if s.conns == nil {
		s.conns = xsync.NewMapOf[net.Conn, struct{}]()
	}
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	handler := s.Router.Handler()
	logger := s.logger()
	s.instruments()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-groupCtx.Done()
		listener.Close()
		s.closeConns()
		return nil
	})

	group.Go(func() error {
		var delay time.Duration
		for {
			conn, err := listener.Accept()
			if err != nil {
				if groupCtx.Err() != nil {
					return ErrServerClosed
				}
				if errors.Is(err, net.ErrClosed) {
					return err
				}

				// back off on errors such as running out of file descriptors
				if delay == 0 {
					delay = 5 * time.Millisecond
				} else if delay *= 2; delay > time.Second {
					delay = time.Second
				}
				logger.Error("failed to accept connection", "error", err, "retry_in", delay)
				select {
				case <-time.After(delay):
				case <-groupCtx.Done():
				}
				continue
			}
			delay = 0

			s.conns.Store(conn, struct{}{})
			group.Go(func() error {
				defer s.conns.Delete(conn)
				s.serveConn(groupCtx, conn, handler)
				return nil
			})
		}
	})

	logger.Info("listening", "server", s.Name, "addr", listener.Addr().String())
	return group.Wait()
}

// Shutdown stops the accept loop, closes every live connection and waits
// for their goroutines, or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveConns reports how many connections are being served.
func (s *Server) ActiveConns() int {
	s.mu.Lock()
	conns := s.conns
	s.mu.Unlock()

	if conns == nil {
		return 0
	}
	return conns.Size()
}

func (s *Server) closeConns() {
	s.conns.Range(func(conn net.Conn, _ struct{}) bool {
		conn.Close()
		return true
	})
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Server) instruments() *Instruments {
	if s.Instruments == nil {
		instruments, err := NewInstruments(defaultMeter())
		if err != nil {
			panic(err)
		}
		s.Instruments = instruments
	}
	return s.Instruments
}
