package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Crowley723/mattermost-update-notifier/auth"
	"github.com/Crowley723/mattermost-update-notifier/providers"
)

// RequireToken wraps a handler requiring a valid bearer token
func RequireToken(handler providers.AppHandler) http.HandlerFunc {
	return providers.Wrap(func(ctx *providers.AppContext) {
		if ctx.Verifier == nil {
			ctx.SetJSONError(http.StatusServiceUnavailable, "token verification is not configured")
			return
		}

		header := ctx.Request.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			ctx.Response.Header().Set("WWW-Authenticate", `Bearer realm="update-notifier"`)
			ctx.SetJSONError(http.StatusUnauthorized, "bearer token required")
			return
		}

		claims, err := ctx.Verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				ctx.Logger.Error("token verification failed", "err", err)
			}
			ctx.Logger.Warn("rejected api request",
				"path", ctx.Request.URL.Path,
				"client_ip", GetClientIP(ctx.Request, ctx.Config.API.TrustedProxies),
				"err", err)
			ctx.Response.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			ctx.SetJSONError(http.StatusUnauthorized, "invalid token")
			return
		}

		ctx.Claims = claims
		handler(ctx)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every request once it completes.
func RequestLogger(baseCtx *providers.AppContext, trustedProxies []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			baseCtx.Logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"client_ip", GetClientIP(r, trustedProxies),
				"duration", time.Since(start))
		})
	}
}
