package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/Crowley723/mattermost-update-notifier/alert"
	"github.com/Crowley723/mattermost-update-notifier/config"
	"github.com/Crowley723/mattermost-update-notifier/gate"
	"github.com/Crowley723/mattermost-update-notifier/instances"
	"github.com/Crowley723/mattermost-update-notifier/source"
)

func New(cfg *config.Config, logger *slog.Logger, deps Dependencies) *Monitor {
	workers := cfg.Monitor.Workers
	if workers < 1 {
		workers = 1
	}

	return &Monitor{
		registry:        deps.Registry,
		source:          deps.Source,
		prober:          deps.Prober,
		gate:            deps.Gate,
		notifier:        deps.Notifier,
		metrics:         deps.Metrics,
		logger:          logger,
		pollingInterval: cfg.Monitor.PollingIntervalDuration(),
		startupDelay:    cfg.Monitor.StartupDelayDuration(),
		workers:         workers,
		releaseNotesURL: cfg.Source.ReleaseNotesURL,
		statusMap:       make(map[string]InstanceStatus),
	}
}

// Start blocks until ctx is cancelled. The first cycle runs after the startup delay.
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("starting monitor loop",
		"interval", m.pollingInterval,
		"startup_delay", m.startupDelay,
		"workers", m.workers)

	m.setNextCycle(time.Now().Add(m.startupDelay))
	delay := time.NewTimer(m.startupDelay)
	select {
	case <-ctx.Done():
		delay.Stop()
		m.logger.Info("monitor loop stopped")
		return
	case <-delay.C:
	}

	ticker := time.NewTicker(m.pollingInterval)
	defer ticker.Stop()

	m.runSafely(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor loop stopped")
			return
		case <-ticker.C:
			m.runSafely(ctx)
		}
	}
}

func (m *Monitor) runSafely(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("cycle panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
		m.setNextCycle(time.Now().Add(m.pollingInterval))
	}()

	_ = m.RunCycle(ctx)
}

// RunCycle performs one full pass over the registry. A registry or source
// failure ends the cycle before any instance is probed or any state is written.
func (m *Monitor) RunCycle(ctx context.Context) CycleResult {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	result := CycleResult{
		ID:        xid.New().String(),
		StartedAt: time.Now(),
	}
	logger := m.logger.With("cycle", result.ID)

	list, err := m.registry.List()
	if err != nil {
		return m.finish(logger, result, err)
	}
	result.Instances = len(list)
	if len(list) == 0 {
		logger.Info("registry is empty, nothing to check")
		return m.finish(logger, result, nil)
	}

	release, err := m.source.FetchLatest(ctx)
	if err != nil {
		return m.finish(logger, result, err)
	}
	result.Latest = release.Version.String()
	result.DownloadURL = release.DownloadURL
	m.metrics.LatestVersion(result.Latest)

	logger.Info("latest release found",
		"version", result.Latest,
		"url", release.DownloadURL,
		"instances", len(list))

	statuses := m.forEach(ctx, list, func(ctx context.Context, inst instances.Instance) InstanceStatus {
		return m.checkInstance(ctx, logger, inst, release, false)
	})
	for _, status := range statuses {
		tally(&result, status)
	}

	m.storeStatuses(statuses)
	return m.finish(logger, result, nil)
}

// Preview probes and evaluates every instance without sending or committing.
func (m *Monitor) Preview(ctx context.Context) (source.Release, []InstanceStatus, error) {
	list, err := m.registry.List()
	if err != nil {
		return source.Release{}, nil, err
	}
	if len(list) == 0 {
		return source.Release{}, nil, nil
	}

	release, err := m.source.FetchLatest(ctx)
	if err != nil {
		return source.Release{}, nil, err
	}

	logger := m.logger.With("preview", true)
	statuses := m.forEach(ctx, list, func(ctx context.Context, inst instances.Instance) InstanceStatus {
		return m.checkInstance(ctx, logger, inst, release, true)
	})

	sortStatuses(statuses)
	return release, statuses, nil
}

// forEach runs fn for every instance on at most m.workers goroutines and
// collects the results. Instances not yet started when ctx is cancelled are
// reported as skipped. Started work runs on a context that ignores
// cancellation and relies on client timeouts instead.
func (m *Monitor) forEach(ctx context.Context, list []instances.Instance, fn func(context.Context, instances.Instance) InstanceStatus) []InstanceStatus {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		statuses = make([]InstanceStatus, 0, len(list))
	)
	g.SetLimit(m.workers)

	record := func(status InstanceStatus) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, status)
	}
	skipped := func(inst instances.Instance) InstanceStatus {
		return InstanceStatus{Name: inst.Name, Skipped: true, Error: "shutting down", CheckedAt: time.Now()}
	}

	detached := context.WithoutCancel(ctx)
	for _, inst := range list {
		if ctx.Err() != nil {
			record(skipped(inst))
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				record(skipped(inst))
				return nil
			}
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("instance check panicked",
						"instance", inst.Name,
						"panic", r,
						"stack", string(debug.Stack()))
					record(InstanceStatus{Name: inst.Name, Skipped: true, Error: fmt.Sprintf("panic: %v", r), CheckedAt: time.Now()})
				}
			}()
			record(fn(detached, inst))
			return nil
		})
	}
	_ = g.Wait()

	return statuses
}

func (m *Monitor) checkInstance(ctx context.Context, logger *slog.Logger, inst instances.Instance, release source.Release, dryRun bool) InstanceStatus {
	logger = logger.With("instance", inst.Name)
	status := InstanceStatus{Name: inst.Name}

	installed, err := m.prober.FetchInstalled(ctx, inst)
	m.metrics.Probe(err == nil)
	if err != nil {
		logger.Warn("skipping instance, probe failed", "error", err)
		status.Error = err.Error()
		status.CheckedAt = time.Now()
		return status
	}
	status.Installed = installed.String()

	decision, lastNotified, err := m.gate.Evaluate(inst.Name, release.Version, installed)
	if err != nil {
		logger.Warn("skipping instance, evaluation failed", "error", err)
		status.Error = err.Error()
		status.CheckedAt = time.Now()
		return status
	}
	status.Decision = decision.String()
	status.LastNotified = lastNotified.String()
	m.metrics.Decision(decision.String())

	logger.Debug("instance evaluated",
		"installed", installed,
		"latest", release.Version,
		"last_notified", lastNotified,
		"decision", decision)

	if decision != gate.Notify || dryRun {
		status.CheckedAt = time.Now()
		return status
	}

	msg := alert.Message{
		Text:    alert.FormatMessage(release.Version, installed, release.DownloadURL, m.releaseNotesURL),
		Channel: inst.Channel,
	}
	outcome, err := m.notifier.Send(ctx, inst.URL, msg)
	m.metrics.Notification(err == nil)
	if err != nil {
		logger.Warn("notification not delivered, will retry next cycle", "error", err)
		status.Error = err.Error()
		status.CheckedAt = time.Now()
		return status
	}

	if err := m.gate.Commit(inst.Name, release.Version); err != nil {
		logger.Error("notification delivered but state not saved", "error", err)
		status.Error = err.Error()
	}
	status.Notified = true
	status.CheckedAt = time.Now()

	logger.Info("update notification sent",
		"latest", release.Version,
		"installed", installed,
		"status_code", outcome.StatusCode)
	return status
}

func tally(result *CycleResult, status InstanceStatus) {
	if status.Skipped {
		result.Skipped++
		return
	}
	if status.Installed == "" {
		result.ProbeFailures++
		return
	}

	result.Probed++
	switch status.Decision {
	case gate.UpToDate.String():
		result.UpToDate++
	case gate.PendingButNotified.String():
		result.Pending++
	case gate.Notify.String():
		if status.Notified {
			result.Notified++
		} else if status.Error != "" {
			result.DeliveryFailures++
		}
	default:
		result.Skipped++
	}
}

func (m *Monitor) finish(logger *slog.Logger, result CycleResult, err error) CycleResult {
	result.FinishedAt = time.Now()
	duration := result.FinishedAt.Sub(result.StartedAt)

	if err != nil {
		result.Failed = true
		result.Err = err
		result.Error = err.Error()

		reason := "cycle failed"
		switch {
		case errors.Is(err, instances.ErrRegistryUnavailable):
			reason = "cycle failed, registry unavailable"
		case errors.Is(err, source.ErrSourceUnavailable), errors.Is(err, source.ErrParseFailure):
			reason = "cycle failed, latest release unknown"
		}
		logger.Error(reason, "error", err, "duration", duration)
	} else {
		logger.Info("cycle complete",
			"duration", duration,
			"latest", result.Latest,
			"instances", result.Instances,
			"probed", result.Probed,
			"probe_failures", result.ProbeFailures,
			"up_to_date", result.UpToDate,
			"pending", result.Pending,
			"notified", result.Notified,
			"delivery_failures", result.DeliveryFailures,
			"skipped", result.Skipped)
	}

	m.metrics.CycleFinished(result.Failed, duration)

	m.mu.Lock()
	last := result
	m.lastCycle = &last
	m.mu.Unlock()

	return result
}

func (m *Monitor) storeStatuses(statuses []InstanceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statusMap = make(map[string]InstanceStatus, len(statuses))
	for _, s := range statuses {
		m.statusMap[s.Name] = s
	}
}

func (m *Monitor) setNextCycle(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCycle = t
}

func (m *Monitor) Status() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := Snapshot{
		Instances: make([]InstanceStatus, 0, len(m.statusMap)),
		NextCycle: m.nextCycle,
	}
	if m.lastCycle != nil {
		last := *m.lastCycle
		snapshot.LastCycle = &last
	}
	for _, s := range m.statusMap {
		snapshot.Instances = append(snapshot.Instances, s)
	}
	sortStatuses(snapshot.Instances)
	return snapshot
}

func sortStatuses(s []InstanceStatus) {
	slices.SortFunc(s, func(a, b InstanceStatus) int {
		return strings.Compare(a.Name, b.Name)
	})
}

func (r CycleResult) String() string {
	if r.Failed {
		return fmt.Sprintf("cycle %s failed: %s", r.ID, r.Error)
	}
	return fmt.Sprintf("cycle %s: latest %s, %d instances, %d probed, %d up to date, %d pending, %d notified, %d probe failures, %d delivery failures",
		r.ID, r.Latest, r.Instances, r.Probed, r.UpToDate, r.Pending, r.Notified, r.ProbeFailures, r.DeliveryFailures)
}
