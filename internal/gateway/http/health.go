package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/registry"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store"
	"github.com/aussiebroadwan/m2mgate/pkg/httpx"
	"github.com/aussiebroadwan/m2mgate/pkg/jwtx"
	"github.com/aussiebroadwan/m2mgate/pkg/m2msdk"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness check returning status, uptime and version. Always 200 while the process runs.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	m2msdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, m2msdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness check covering the database, the client registry and the signing secret.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	m2msdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	m2msdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	reg *registry.Registry,
	signer jwtx.Signer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"registry": "ok",
			"signer":   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		degrade := func(check, msg string) {
			checks[check] = "error: " + msg
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := st.Ping(r.Context()); err != nil {
			degrade("database", err.Error())
		}
		if reg == nil || reg.Len() == 0 {
			degrade("registry", "no clients configured")
		}
		if signer == nil {
			degrade("signer", "not configured")
		} else if err := signer.Validate(); err != nil {
			degrade("signer", err.Error())
		}

		httpx.WriteJSON(w, statusCode, m2msdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
