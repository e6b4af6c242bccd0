package renderapi

import (
	"context"
	"net/http"
	"time"

	"cosmos/internal/httpkit"
)

// Health reports liveness; ?deep=true adds dependency checks.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	health := map[string]any{
		"status":  "ok",
		"service": "cosmos-api",
		"version": "0.1.0",
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := h.deepHealthCheck(ctx)
		health["checks"] = checks

		for _, check := range checks {
			if check["status"] != "ok" {
				health["status"] = "degraded"
				log.Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}

func (h *Handler) deepHealthCheck(ctx context.Context) map[string]map[string]any {
	checks := make(map[string]map[string]any)
	if h.db != nil {
		checks["postgres"] = ping(ctx, h.db)
	}
	if h.redis != nil {
		checks["redis"] = ping(ctx, h.redis)
	}
	if h.sp != nil {
		checks["storage"] = map[string]any{
			"status":   "ok",
			"provider": h.sp.Provider(),
		}
	}
	return checks
}

func ping(ctx context.Context, p Pinger) map[string]any {
	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.Ping(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}
