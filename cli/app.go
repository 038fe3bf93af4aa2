package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Crowley723/mattermost-update-notifier/alert"
	"github.com/Crowley723/mattermost-update-notifier/config"
	"github.com/Crowley723/mattermost-update-notifier/gate"
	"github.com/Crowley723/mattermost-update-notifier/instances"
	"github.com/Crowley723/mattermost-update-notifier/metrics"
	"github.com/Crowley723/mattermost-update-notifier/monitor"
	"github.com/Crowley723/mattermost-update-notifier/source"
	"github.com/Crowley723/mattermost-update-notifier/state"
)

// app wires the components shared by run, check and status.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *migratingRegistry
	store    *state.FileStore
	probe    *monitor.Probe
	prom     *prometheus.Registry
	monitor  *monitor.Monitor
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	client := &http.Client{Timeout: cfg.Monitor.TimeoutDuration()}
	policy := cfg.Retry.Policy()

	prom := prometheus.NewRegistry()
	prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := state.NewFileStore(cfg.Storage.StateDir, logger)
	registry := &migratingRegistry{
		FileRegistry: instances.NewFileRegistry(cfg.Storage.InstancesFile),
		store:        store,
		legacyDir:    cfg.Storage.LegacyDir,
		logger:       logger,
	}
	probe := monitor.NewProbe(client, policy, logger)

	m := monitor.New(cfg, logger, monitor.Dependencies{
		Registry: registry,
		Source:   source.NewReleasePage(cfg.Source.URL, cfg.Source.UserAgent, client, policy, logger),
		Prober:   probe,
		Gate:     gate.New(store),
		Notifier: alert.NewWebhook(client, policy, logger, cfg.Notify.Username, cfg.Notify.IconURL),
		Metrics:  metrics.New(prom),
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		store:    store,
		probe:    probe,
		prom:     prom,
		monitor:  m,
	}
}

// migratingRegistry moves legacy ordinal state files on the first List that
// returns a valid registry, so a daemon started with a broken registry still
// migrates once the file is fixed.
type migratingRegistry struct {
	*instances.FileRegistry
	store     *state.FileStore
	legacyDir string
	logger    *slog.Logger

	mu   sync.Mutex
	done bool
}

func (r *migratingRegistry) List() ([]instances.Instance, error) {
	list, err := r.FileRegistry.List()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done || r.legacyDir == "" {
		return list, nil
	}

	names := make([]string, 0, len(list))
	for _, inst := range list {
		names = append(names, inst.Name)
	}

	migrated, err := r.store.MigrateOrdinal(r.legacyDir, names)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate legacy state: %w", err)
	}
	if migrated > 0 {
		r.logger.Info("legacy state migrated",
			"files", migrated,
			"from", r.legacyDir,
			"to", r.store.Dir())
	}
	r.done = true

	return list, nil
}
