package api

import (
	"time"

	"github.com/Crowley723/mattermost-update-notifier/monitor"
)

type HealthResponse struct {
	Hostname  string    `json:"hostname"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

type StatusResponse struct {
	Hostname string `json:"hostname"`
	Subject  string `json:"subject,omitempty"`
	monitor.Snapshot
}
