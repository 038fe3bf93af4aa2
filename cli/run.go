package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Crowley723/mattermost-update-notifier/api"
	"github.com/Crowley723/mattermost-update-notifier/auth"
	"github.com/Crowley723/mattermost-update-notifier/config"
	"github.com/Crowley723/mattermost-update-notifier/instances"
	"github.com/Crowley723/mattermost-update-notifier/providers"
	"github.com/Crowley723/mattermost-update-notifier/utils"
)

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the polling loop until interrupted",
		Long: `Run the polling loop. The first cycle starts after monitor.startup_delay and
then repeats every monitor.polling_interval until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runNotifier(ctx, rootOpts, cmd)
		},
	}
}

func runNotifier(ctx context.Context, rootOpts *RootOptions, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := setupLogger(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closer.Close()

	a := newApp(cfg, logger)

	if err := prepareState(a); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.monitor.Start(ctx)
		return nil
	})

	if cfg.API.Enabled {
		verifier, err := auth.LoadVerifier(cfg)
		if err != nil {
			logger.Warn("status api tokens disabled, no usable signing key", "err", err)
		}

		appCtx := providers.NewAppContext(ctx, cfg, logger, a.monitor, verifier, a.prom)
		g.Go(func() error {
			return api.StartServer(ctx, appCtx)
		})
	}

	err = g.Wait()
	logger.Info("update notifier stopped")
	return err
}

func setupLogger(cfg *config.Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	logger, closer, err := NewLogger(cfg.Logging, console)
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With("host", utils.GetHostname())
	slog.SetDefault(logger)
	return logger, closer, nil
}

// prepareState refuses to start without a registry file. Legacy ordinal state
// is migrated by the first successful registry read.
func prepareState(a *app) error {
	list, err := a.registry.List()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("instances file %s does not exist: %w", a.registry.Path(), err)
	case errors.Is(err, instances.ErrRegistryUnavailable):
		a.logger.Error("instance registry is invalid, cycles will fail until it is fixed",
			"path", a.registry.Path(),
			"err", err)
		return nil
	case err != nil:
		return err
	}

	a.logger.Info("instance registry loaded",
		"path", a.registry.Path(),
		"instances", len(list))
	return nil
}
