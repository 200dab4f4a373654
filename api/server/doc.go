// Package server runs an API handler behind the common HTTP plumbing: access
// logging, CORS, liveness and readiness probes, drain/undrain, optional pprof
// and a separate Prometheus listener.
//
//	srv, err := server.New(cfg, oraclehandler.NewHandler(...))
//	srv.RunInBackground()
//	defer srv.Shutdown()
package server
