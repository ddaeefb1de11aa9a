// Package shutdown provides graceful shutdown for restkit-server.
//
// A Handler waits for SIGINT or SIGTERM (or the end of a context), then runs
// the registered hooks in reverse order under one timeout. SIGHUP runs the
// reload functions instead.
//
// Usage:
//
//	h := shutdown.NewHandler(15 * time.Second)
//	h.OnShutdown("http server", srv.Shutdown)
//	h.OnReload(reloadConfig)
//	err := h.Wait(ctx)
package shutdown
