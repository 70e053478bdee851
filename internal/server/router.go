package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// ChiRouter implements [Router] on a chi mux.
//
// chi requires middleware to be added before the first route; call [ChiRouter.Use] first.
type ChiRouter struct {
	mux *chi.Mux
}

// NewRouter creates a [ChiRouter] with request IDs, real IP extraction and panic recovery installed.
func NewRouter() *ChiRouter {
	mux := chi.NewRouter()
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(chimiddleware.Recoverer)
	return &ChiRouter{mux: mux}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
func (r *ChiRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.mux.Use(m)
	}
}

// Handle registers a handler for the specified HTTP method and path.
//
// Other methods on the same path get 405 Method Not Allowed.
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

// HandleWith registers a handler wrapped in middleware that applies to this route only.
func (r *ChiRouter) HandleWith(method, path string, handler http.Handler, middleware ...Middleware) {
	mws := make([]func(http.Handler) http.Handler, 0, len(middleware))
	for _, m := range middleware {
		mws = append(mws, m)
	}
	r.mux.With(mws...).Method(method, path, handler)
}

// Handler registers a custom Handler implementation for every method.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *ChiRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Handle(route, handler)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
