package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Crowley723/mattermost-update-notifier/providers"
)

// NewHandler builds the routed handler for the status API.
func NewHandler(appCtx *providers.AppContext) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", providers.Wrap(handleHealthGET))
	mux.HandleFunc("GET /jwks.json", providers.Wrap(handleJWKSGET))
	mux.HandleFunc("GET /api/status", RequireToken(handleStatusGET))
	if appCtx.Gatherer != nil {
		mux.Handle("GET /metrics", metricsHandler(appCtx))
	}

	handler := providers.AppContextMiddleware(appCtx)(mux)
	return RequestLogger(appCtx, appCtx.Config.API.TrustedProxies)(handler)
}

// StartServer serves the status API until ctx is cancelled.
func StartServer(ctx context.Context, appCtx *providers.AppContext) error {
	address := appCtx.Config.API.Address

	server := &http.Server{
		Addr:              address,
		Handler:           NewHandler(appCtx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	appCtx.Logger.Info("Listening on address", "addr", address)

	done := make(chan error, 1)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	appCtx.Logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appCtx.Logger.Error("graceful shutdown failed", "err", err)
		return err
	}

	return <-done
}
