package http

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type connState uint8

const (
	stateAwaitingRequest connState = iota
	stateDispatching
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateAwaitingRequest:
		return "awaiting-request"
	case stateDispatching:
		return "dispatching"
	default:
		return "closed"
	}
}

// connection drives one accepted socket. Nothing in it is shared with
// other connections.
type connection struct {
	id          uuid.UUID
	conn        net.Conn
	handler     Handler
	logger      *slog.Logger
	limits      Limits
	idleTimeout time.Duration
	instruments *Instruments

	buf []byte
	n   int
	bw  *bufio.Writer

	reqCtx RequestCtx
}

// ServeConn runs the request loop on conn until the peer goes away, a
// request is malformed, either side asks for Connection: close, or ctx is
// cancelled. conn is always closed on return.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	s.serveConn(ctx, conn, s.Router.Handler())
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	limits := s.Limits.withDefaults()
	id := uuid.New()
	logger := s.logger().With("conn_id", id.String(), "remote", remoteAddr(conn))

	c := &connection{
		id:          id,
		conn:        conn,
		handler:     handler,
		logger:      logger,
		limits:      limits,
		idleTimeout: s.IdleTimeout,
		instruments: s.instruments(),
		buf:         make([]byte, limits.ReadBufferSize),
		bw:          bufio.NewWriterSize(conn, limits.ReadBufferSize),
	}

	c.instruments.ActiveConns.Add(ctx, 1)
	defer c.instruments.ActiveConns.Add(context.WithoutCancel(ctx), -1)

	logger.DebugContext(ctx, "connection accepted")
	c.run(ctx)

	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.DebugContext(ctx, "closing connection failed", "error", err)
	}
	logger.DebugContext(ctx, "connection closed")
}

func (c *connection) run(ctx context.Context) {
	state := stateAwaitingRequest
	for state != stateClosed {
		switch state {
		case stateAwaitingRequest:
			state = c.awaitRequest(ctx)
		case stateDispatching:
			state = c.dispatch(ctx)
		}
	}
}

// awaitRequest performs exactly one blocking read and parses the request
// line and headers out of it.
func (c *connection) awaitRequest(ctx context.Context) connState {
	if ctx.Err() != nil {
		return stateClosed
	}

	// TODO: pick a non-zero default idle timeout. With IdleTimeout == 0 a
	// silent peer holds its goroutine until shutdown.
	if c.idleTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
	}

	n, err := c.conn.Read(c.buf)
	if n <= 0 {
		switch {
		case err == nil, errors.Is(err, io.EOF):
			c.logger.DebugContext(ctx, "client disconnected")
		case errors.Is(err, net.ErrClosed), ctx.Err() != nil:
			c.logger.DebugContext(ctx, "connection closed during shutdown")
		case errors.Is(err, os.ErrDeadlineExceeded):
			c.logger.InfoContext(ctx, "idle timeout", "timeout", c.idleTimeout)
		default:
			c.logger.ErrorContext(ctx, "read error", "error", err)
		}
		return stateClosed
	}
	c.n = n

	c.reqCtx.Reset(ctx, c.id, c.conn, c.logger)
	if err := c.reqCtx.Request.Parse(c.buf[:n], c.limits); err != nil {
		c.logger.WarnContext(ctx, "could not extract a valid path, sending 400", "error", err, "bytes", n)

		c.reqCtx.KeepAlive = false
		c.reqCtx.Response.WithError(StatusBadRequest)
		c.instruments.Requests.Add(ctx, 1, metric.WithAttributes(
			attribute.Int("http.response.status_code", int(StatusBadRequest)),
		))
		c.write(ctx)
		return stateClosed
	}

	return stateDispatching
}

// dispatch reads the body, runs the handler and writes the response.
func (c *connection) dispatch(ctx context.Context) connState {
	reqCtx := &c.reqCtx
	req := &reqCtx.Request

	if v, ok := req.Header(headerConnection); ok && equalFold(v, connectionClose) {
		reqCtx.KeepAlive = false
	}

	body := ReadBody(c.conn, req, c.buf, c.n, c.limits)
	if req.BodyTruncated {
		c.logger.WarnContext(ctx, "request body too large, skipping body read",
			"method", req.Method,
			"path", req.Path,
			"content_length", req.ContentLength,
			"max_body_size", c.limits.MaxBodySize,
		)
	}
	if req.Method == MethodPost || req.Method == MethodPut {
		req.Body = body
	}

	c.handler(reqCtx)
	c.write(ctx)

	if reqCtx.KeepAlive {
		return stateAwaitingRequest
	}
	return stateClosed
}

// write sends the current response. A failed write is logged and otherwise
// ignored; the keep-alive decision does not depend on it.
func (c *connection) write(ctx context.Context) {
	reqCtx := &c.reqCtx
	res := &reqCtx.Response

	if err := res.WriteTo(c.bw, reqCtx.KeepAlive); err != nil {
		c.logger.ErrorContext(ctx, "error writing response data",
			"status", res.Status,
			"error", err,
		)
		c.bw.Reset(c.conn)
		return
	}

	encoding := res.ContentEncoding
	if encoding == "" {
		encoding = "identity"
	}
	c.logger.InfoContext(ctx, "response sent",
		"method", reqCtx.Request.Method,
		"path", reqCtx.Request.Path,
		"status", res.Status,
		"bytes", res.Written,
		"content_length", len(res.Body),
		"encoding", encoding,
		"keep_alive", reqCtx.KeepAlive,
	)
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
