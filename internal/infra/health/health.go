package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// Probe backs the liveness and readiness endpoints.
type Probe struct {
	ready atomic.Bool
}

func New() *Probe { return &Probe{} }

// SetReady marks readiness state
func (p *Probe) SetReady(v bool) { p.ready.Store(v) }

func (p *Probe) Ready() bool { return p.ready.Load() }

// Healthz is a simple liveness probe
func (p *Probe) Healthz(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

// Readyz turns ready once the store has been prepared at startup.
func (p *Probe) Readyz(w http.ResponseWriter, r *http.Request) {
	if p.Ready() {
		writeStatus(w, http.StatusOK, "ready")
		return
	}
	writeStatus(w, http.StatusServiceUnavailable, "not ready")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
