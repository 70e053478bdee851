// Package server provides HTTP routing, middleware, and the lifecycle of the dashboard server.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [ChiRouter] implementation uses a chi mux internally and always installs request IDs, real IP
// extraction and panic recovery ahead of any middleware added with [ChiRouter.Use].
//
// # Middleware
//
//   - [RequestLogger] logs every request with its route pattern, status and duration
//   - [Metrics] records request counts and latencies by route pattern
//   - [LoginRateLimit] throttles login attempts per client IP
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Server
//
// [Server.Serve] runs until its context is canceled and then shuts down gracefully.
package server
