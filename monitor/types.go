package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Crowley723/mattermost-update-notifier/alert"
	"github.com/Crowley723/mattermost-update-notifier/gate"
	"github.com/Crowley723/mattermost-update-notifier/instances"
	"github.com/Crowley723/mattermost-update-notifier/metrics"
	"github.com/Crowley723/mattermost-update-notifier/source"
	"github.com/Crowley723/mattermost-update-notifier/version"
)

// Registry lists the instances to evaluate. It is re-read on every cycle.
type Registry interface {
	List() ([]instances.Instance, error)
}

// Prober fetches the version an instance currently runs.
type Prober interface {
	FetchInstalled(ctx context.Context, inst instances.Instance) (version.Version, error)
}

type InstanceStatus struct {
	Name         string    `json:"name"`
	Installed    string    `json:"installed,omitempty"`
	LastNotified string    `json:"last_notified,omitempty"`
	Decision     string    `json:"decision,omitempty"`
	Notified     bool      `json:"notified"`
	Skipped      bool      `json:"skipped,omitempty"`
	Error        string    `json:"error,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

type CycleResult struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	Latest           string    `json:"latest,omitempty"`
	DownloadURL      string    `json:"download_url,omitempty"`
	Instances        int       `json:"instances"`
	Probed           int       `json:"probed"`
	ProbeFailures    int       `json:"probe_failures"`
	UpToDate         int       `json:"up_to_date"`
	Pending          int       `json:"pending"`
	Notified         int       `json:"notified"`
	DeliveryFailures int       `json:"delivery_failures"`
	Skipped          int       `json:"skipped"`
	Failed           bool      `json:"failed"`
	Error            string    `json:"error,omitempty"`

	Err error `json:"-"`
}

// Snapshot is what the status API serves.
type Snapshot struct {
	LastCycle *CycleResult     `json:"last_cycle,omitempty"`
	Instances []InstanceStatus `json:"instances"`
	NextCycle time.Time        `json:"next_cycle,omitzero"`
}

type Dependencies struct {
	Registry Registry
	Source   source.VersionSource
	Prober   Prober
	Gate     *gate.Gate
	Notifier alert.Notifier
	Metrics  *metrics.Metrics
}

type Monitor struct {
	registry Registry
	source   source.VersionSource
	prober   Prober
	gate     *gate.Gate
	notifier alert.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	pollingInterval time.Duration
	startupDelay    time.Duration
	workers         int
	releaseNotesURL string

	cycleMu   sync.Mutex
	mu        sync.RWMutex
	lastCycle *CycleResult
	statusMap map[string]InstanceStatus
	nextCycle time.Time
}
