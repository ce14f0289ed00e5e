package http

import (
	"net/http"
	"time"

	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/internal/gateway/store"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/oidc"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the database, the inference server, and the identity provider key cache
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	llm service.LLM,
	keys *oidc.KeyCache,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database:  "ok",
			Inference: "ok",
			Identity:  "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !llm.Healthy(r.Context()) {
			checks.Inference = "error: inference server unreachable"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// keys is nil in introspection mode; the key cache isn't a
		// dependency then.
		if keys != nil && !keys.Ready() {
			// A cold cache warms on the first verification, so this
			// degrades readiness without taking the probe down.
			if _, err := keys.Keys(r.Context()); err != nil {
				checks.Identity = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
