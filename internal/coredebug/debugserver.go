// Package coredebug serves profiling endpoints for long replays.
package coredebug

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"

	"go.uber.org/zap"
)

// StartDebugServer starts a debug server in a background goroutine,
// accepting connections on the given listener.
// The server is shut down when ctx finishes.
func StartDebugServer(ctx context.Context, log *zap.Logger, ln net.Listener) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Redirect the browser to the /debug/pprof root.
	mux.Handle("/", http.RedirectHandler("/debug/pprof/", http.StatusSeeOther))

	srv := &http.Server{
		Handler:  mux,
		ErrorLog: zap.NewStdLog(log),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug server stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		srv.Close()
	}()
}
