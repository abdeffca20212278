package pprofserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
)

func Handle(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
}

// Launch a standard pprof server at ipv6 loopback address ::1 and given port.
// Listening on loopback keeps the diagnostics off the open network.
func Launch(port string, logger *slog.Logger) {
	go func() {
		mux := http.NewServeMux()
		Handle(mux)
		addr := fmt.Sprintf("[::1]%s", port)
		logger.Info("starting pprof server", "addr", addr)
		err := http.ListenAndServe(addr, mux)
		logger.Error(err.Error())
		os.Exit(0)
	}()
}
