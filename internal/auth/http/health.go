package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency whose connectivity can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	Started time.Time
	Version string
	DB      Pinger
	Tokens  Pinger // nil when tokens share the database
	Keys    interface{ IsReady() bool }
}

func (h *HealthHandler) response(status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.Started).Round(time.Second).String(),
		Version: h.Version,
		Checks:  checks,
	}
}

// HandleLivez handles GET /livez
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the process serves requests.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Router			/livez [get]
func (h *HealthHandler) HandleLivez(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.response("ok", nil))
}

// HandleReadyz handles GET /readyz
//
//	@Summary		Readiness probe
//	@Description	Checks the database, the token store when it is separate, and that signing keys are loaded.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse	"degraded"
//	@Router			/readyz [get]
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	ok := true
	probe := func(p Pinger) string {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			ok = false
			return "error: " + err.Error()
		}
		return "ok"
	}

	checks := &authsdk.HealthChecks{Database: probe(h.DB), Signer: "ok"}
	if h.Tokens != nil {
		checks.Tokens = probe(h.Tokens)
	}
	if !h.Keys.IsReady() {
		checks.Signer = "error: no signing keys loaded"
		ok = false
	}

	if !ok {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, h.response("degraded", checks))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.response("ok", checks))
}
