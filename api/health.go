package api

import (
	"net/http"
	"os"
)

// liveness reports that the process is alive.
func (s *Server) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness reports whether the data directory is reachable, which is the
// only external dependency the store has.
func (s *Server) readiness(w http.ResponseWriter, _ *http.Request) {
	if s.cfg == nil || s.cfg.DataDir == "" {
		http.Error(w, "data directory not configured", http.StatusServiceUnavailable)
		return
	}
	if err := os.MkdirAll(s.cfg.DataDir, 0o750); err != nil {
		s.logger.Error("readiness check failed", "error", err)
		http.Error(w, "data directory not writable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
