// Package httpserver runs an http.Handler with graceful, context-driven shutdown
// and provides liveness/readiness probe handlers.
//
// Run blocks until its context is done (or the listener fails), then calls
// Shutdown with the configured timeout. Request contexts derive from the Run
// context, so streaming handlers return when the process is stopping.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
package httpserver
