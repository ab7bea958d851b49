package http

import (
	"context"
	"log/slog"
	"net"

	"github.com/google/uuid"
)

// RequestCtx carries one request/response cycle of a connection. The
// connection driver reuses it across cycles, so handlers must not retain it.
type RequestCtx struct {
	context.Context

	ConnID    uuid.UUID
	Conn      net.Conn
	Logger    *slog.Logger
	KeepAlive bool

	Request  Request
	Response Response
}

func (reqCtx *RequestCtx) Reset(ctx context.Context, connID uuid.UUID, conn net.Conn, logger *slog.Logger) {
	reqCtx.Context = ctx
	reqCtx.ConnID = connID
	reqCtx.Conn = conn
	reqCtx.Logger = logger
	reqCtx.KeepAlive = true
	reqCtx.Response.Reset()
}
