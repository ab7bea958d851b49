package http

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Middleware func(next Handler) Handler

// RecoverMiddleware turns a panicking handler into a 500 response.
func RecoverMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx *RequestCtx) {
			defer func() {
				if recovered := recover(); recovered != nil {
					ctx.Logger.ErrorContext(ctx, "handler panic",
						"method", ctx.Request.Method,
						"path", ctx.Request.Path,
						"panic", fmt.Sprint(recovered),
					)

					ctx.Response.OmitBody = ctx.Request.Method == MethodHead
					ctx.Response.WithError(StatusInternalServerError)
				}
			}()

			next(ctx)
		}
	}
}

// TelemetryMiddleware opens a server span per request and records the
// request count and response size once the handler has produced a response.
func TelemetryMiddleware(tracer trace.Tracer, instruments *Instruments) Middleware {
	return func(next Handler) Handler {
		return func(ctx *RequestCtx) {
			parent := ctx.Context
			spanCtx, span := tracer.Start(parent, "HTTP "+ctx.Request.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", ctx.Request.Method),
					attribute.String("url.path", ctx.Request.Path),
					attribute.String("hearth.connection.id", ctx.ConnID.String()),
				),
			)
			defer span.End()

			ctx.Context = spanCtx
			next(ctx)
			ctx.Context = parent

			res := &ctx.Response
			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", ctx.Request.Method),
				attribute.Int("http.response.status_code", int(res.Status)),
			}
			span.SetAttributes(
				attribute.Int("http.response.status_code", int(res.Status)),
				attribute.Int("http.response.body.size", len(res.Body)),
				attribute.Bool("http.request.body.truncated", ctx.Request.BodyTruncated),
			)
			if res.ContentEncoding != "" {
				span.SetAttributes(attribute.String("http.response.content_encoding", res.ContentEncoding))
			}
			if res.Status >= StatusInternalServerError {
				span.SetStatus(codes.Error, StatusText(res.Status))
			}

			instruments.Requests.Add(spanCtx, 1, metric.WithAttributes(attrs...))
			instruments.ResponseSize.Record(spanCtx, int64(len(res.Body)), metric.WithAttributes(attrs...))
		}
	}
}
