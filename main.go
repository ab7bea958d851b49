package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freekieb7/hearth/config"
	"github.com/freekieb7/hearth/http"
	"github.com/freekieb7/hearth/telemetry"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const name = "github.com/freekieb7/hearth"

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context) (err error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry.Exporter, cfg.Telemetry.ServiceName, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = errors.Join(err, shutdownTelemetry(ctx))
	}()

	var logger *slog.Logger
	if cfg.Telemetry.Exporter == telemetry.ExporterNone {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	} else {
		logger = otelslog.NewLogger(name)
	}

	if cfg.PortArgRejected {
		logger.Warn("invalid port argument, using default", "arg", os.Args[1], "port", cfg.Port)
	}

	server, err := http.NewServer(cfg.Telemetry.ServiceName, cfg.Root, logger)
	if err != nil {
		return err
	}
	server.Limits = cfg.Limits()
	server.IdleTimeout = cfg.IdleTimeout
	server.Backlog = cfg.Backlog

	serverErrCh := make(chan error, 1)

	go func() {
		logger.Info("serving", "addr", cfg.Addr(), "root", cfg.Root)
		serverErrCh <- server.ListenAndServe(ctx, cfg.Addr())
	}()

	select {
	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		stop()
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-serverErrCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
