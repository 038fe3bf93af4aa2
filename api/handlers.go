package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Crowley723/mattermost-update-notifier/auth"
	"github.com/Crowley723/mattermost-update-notifier/providers"
	"github.com/Crowley723/mattermost-update-notifier/utils"
)

func handleHealthGET(ctx *providers.AppContext) {
	ctx.WriteJSON(http.StatusOK, HealthResponse{
		Hostname:  utils.GetHostname(),
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(ctx.StartedAt).Seconds(),
	})
}

// handleJWKSGET publishes the key that verifies status API tokens
func handleJWKSGET(ctx *providers.AppContext) {
	if ctx.Verifier == nil {
		ctx.SetJSONError(http.StatusNotFound, "no signing key configured")
		return
	}

	jwks, err := auth.JWKS(ctx.Verifier.PublicKey())
	if err != nil {
		ctx.Logger.Error("failed to build jwks", "err", err)
		ctx.SetJSONError(http.StatusInternalServerError, "Internal server error")
		return
	}

	ctx.Response.Header().Set("Cache-Control", "public, max-age=3600")
	ctx.WriteJSON(http.StatusOK, jwks)
}

func handleStatusGET(ctx *providers.AppContext) {
	if ctx.Status == nil {
		ctx.SetJSONError(http.StatusServiceUnavailable, "monitor not running")
		return
	}

	resp := StatusResponse{
		Hostname: utils.GetHostname(),
		Snapshot: ctx.Status.Status(),
	}
	if ctx.Claims != nil {
		resp.Subject = ctx.Claims.Subject
	}
	ctx.WriteJSON(http.StatusOK, resp)
}

func metricsHandler(ctx *providers.AppContext) http.Handler {
	return promhttp.HandlerFor(ctx.Gatherer, promhttp.HandlerOpts{
		ErrorLog: slogErrorLogger{ctx: ctx},
	})
}

type slogErrorLogger struct {
	ctx *providers.AppContext
}

func (l slogErrorLogger) Println(v ...any) {
	l.ctx.Logger.Error("metrics handler error", "err", v)
}
