// Package httpserver runs an http.Handler with graceful shutdown, configurable
// timeouts and structured logging.
//
// Run binds the listener, fires start hooks and blocks until the context is
// canceled, SIGINT/SIGTERM arrives or Shutdown is called. Request contexts
// derive from the Run context, so long-lived handlers such as WebSocket
// streams end when the server stops. Listen failures wrap ErrStart and
// shutdown failures wrap ErrShutdown.
//
//	r := chi.NewRouter()
//	r.Get("/healthz", httpserver.HealthCheckHandler(log))
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
