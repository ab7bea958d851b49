package http

// Handler fills ctx.Response for ctx.Request. The connection driver writes
// the response once the handler returns.
type Handler func(ctx *RequestCtx)

type Route struct {
	Method  string
	Handler Handler
}

// Router dispatches on the request method alone; every path is served by
// the method's handler.
type Router struct {
	Routes     []Route
	Middleware []Middleware
	Fallback   Handler
}

func NewRouter() Router {
	return Router{
		Routes:   make([]Route, 0),
		Fallback: NotImplementedHandler,
	}
}

func (router *Router) GET(handler Handler) {
	router.Handle(MethodGet, handler)
}

func (router *Router) HEAD(handler Handler) {
	router.Handle(MethodHead, handler)
}

func (router *Router) POST(handler Handler) {
	router.Handle(MethodPost, handler)
}

func (router *Router) PUT(handler Handler) {
	router.Handle(MethodPut, handler)
}

// Handle registers handler for method. A later registration for the same
// method replaces the earlier one.
func (router *Router) Handle(method string, handler Handler) {
	for i := range router.Routes {
		if router.Routes[i].Method == method {
			router.Routes[i].Handler = handler
			return
		}
	}

	router.Routes = append(router.Routes, Route{
		Method:  method,
		Handler: handler,
	})
}

func (router *Router) Use(middleware ...Middleware) {
	router.Middleware = append(router.Middleware, middleware...)
}

// Handler resolves the method table into a single handler wrapped in the
// router's middleware. The first middleware added is the outermost.
func (router *Router) Handler() Handler {
	routes := make([]Route, len(router.Routes))
	copy(routes, router.Routes)

	fallback := router.Fallback
	if fallback == nil {
		fallback = NotImplementedHandler
	}

	var handler Handler = func(ctx *RequestCtx) {
		for _, route := range routes {
			if route.Method == ctx.Request.Method {
				route.Handler(ctx)
				return
			}
		}

		fallback(ctx)
	}

	for i := len(router.Middleware) - 1; i >= 0; i-- {
		handler = router.Middleware[i](handler)
	}

	return handler
}
