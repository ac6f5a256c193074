package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/atlastours/agency-api/internal/core"
)

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for readiness/liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// Pinger is the slice of database/sql.DB used by the readiness check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ReadyHandlers reports readiness of the backing stores. Either dependency
// may be nil when the deployment runs without it.
type ReadyHandlers struct {
	DB    Pinger
	Cache core.CacheRepository
}

// Ready handles the readiness endpoint.
// GET /readyz.
func (h *ReadyHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.Cache != nil {
		if err := h.Cache.Health(ctx); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		} else {
			checks["cache"] = "ok"
		}
	}

	code := http.StatusOK
	status := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		status = "degraded"
	}
	WriteJSON(w, code, map[string]any{"status": status, "checks": checks})
}
