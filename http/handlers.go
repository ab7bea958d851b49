package http

import (
	"errors"

	"github.com/freekieb7/hearth/static"
)

// StaticHandler serves files through resolver, gzipping when negotiated.
func StaticHandler(resolver *static.Resolver) Handler {
	return func(ctx *RequestCtx) {
		acceptEncoding, _ := ctx.Request.Header(headerAcceptEncoding)

		resource, err := resolver.Resolve(ctx.Request.Path, acceptEncoding)
		if err != nil {
			status := statusForResolveError(err)
			if status == StatusInternalServerError {
				ctx.Logger.ErrorContext(ctx, "serving file failed", "path", ctx.Request.Path, "error", err)
			}
			ctx.Response.WithError(status)
			return
		}

		ctx.Response.WithStatus(StatusOK).WithBody(resource.ContentType, resource.Body)
		ctx.Response.ContentEncoding = resource.ContentEncoding
	}
}

func statusForResolveError(err error) uint16 {
	switch {
	case errors.Is(err, static.ErrForbidden):
		return StatusForbidden
	case errors.Is(err, static.ErrNotFound):
		return StatusNotFound
	default:
		return StatusInternalServerError
	}
}

// GenericHandler answers 200 and echoes the request body, or a fixed
// placeholder when there is none.
func GenericHandler(ctx *RequestCtx) {
	body := ctx.Request.Body
	if len(body) == 0 {
		body = placeholderBody
	}

	ctx.Response.WithStatus(StatusOK).WithBody(contentTypeHTML, body)
}

// HeadHandler is GenericHandler without the body on the wire.
func HeadHandler(ctx *RequestCtx) {
	GenericHandler(ctx)
	ctx.Response.OmitBody = true
}

func NotImplementedHandler(ctx *RequestCtx) {
	ctx.Response.WithError(StatusNotImplemented)
}
