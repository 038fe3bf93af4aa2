package providers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Crowley723/mattermost-update-notifier/auth"
	"github.com/Crowley723/mattermost-update-notifier/config"
	"github.com/Crowley723/mattermost-update-notifier/monitor"
)

// StatusProvider exposes the outcome of the most recent cycle.
type StatusProvider interface {
	Status() monitor.Snapshot
}

type AppContext struct {
	context.Context
	Config    *config.Config
	Logger    *slog.Logger
	Status    StatusProvider
	Verifier  *auth.Verifier
	Gatherer  prometheus.Gatherer
	StartedAt time.Time
	Claims    *auth.Claims
	Request   *http.Request
	Response  http.ResponseWriter
}

type contextKey string

const appContextKey contextKey = "appContext"

type AppHandler func(*AppContext)

// AppContextMiddleware injects AppContext into the request context
func AppContextMiddleware(baseCtx *AppContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestCtx := &AppContext{
				Context:   r.Context(),
				Config:    baseCtx.Config,
				Logger:    baseCtx.Logger,
				Status:    baseCtx.Status,
				Verifier:  baseCtx.Verifier,
				Gatherer:  baseCtx.Gatherer,
				StartedAt: baseCtx.StartedAt,
				Request:   r,
				Response:  w,
			}
			ctx := context.WithValue(r.Context(), appContextKey, requestCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Wrap converts an AppHandler to http.HandlerFunc
func Wrap(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appCtx := GetAppContext(r)
		if appCtx == nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		handler(appCtx)
	}
}

func NewAppContext(ctx context.Context, cfg *config.Config, logger *slog.Logger, status StatusProvider, verifier *auth.Verifier, gatherer prometheus.Gatherer) *AppContext {
	return &AppContext{
		Context:   ctx,
		Config:    cfg,
		Logger:    logger,
		Status:    status,
		Verifier:  verifier,
		Gatherer:  gatherer,
		StartedAt: time.Now(),
	}
}

// GetAppContext retrieves AppContext from request
func GetAppContext(r *http.Request) *AppContext {
	if ctx, ok := r.Context().Value(appContextKey).(*AppContext); ok {
		return ctx
	}
	return nil
}

func (ctx *AppContext) WriteJSON(status int, data any) {
	ctx.Response.Header().Set("Content-Type", "application/json")
	ctx.Response.WriteHeader(status)
	if err := json.NewEncoder(ctx.Response).Encode(data); err != nil {
		ctx.Logger.Error("failed to encode json", "error", err)
	}
}

func (ctx *AppContext) SetJSONError(status int, message string) {
	ctx.WriteJSON(status, map[string]string{
		"error": message,
	})
}

func (ctx *AppContext) SetJSONStatus(status int, message string) {
	ctx.WriteJSON(status, map[string]string{
		"status": message,
	})
}
