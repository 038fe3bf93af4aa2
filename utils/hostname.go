package utils

import (
	"log/slog"
	"os"
)

// GetHostname prefers $HOSTNAME so containers report their service name.
func GetHostname() string {
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		return hostname
	}

	hostname, err := os.Hostname()
	if err != nil {
		slog.Warn("unable to determine hostname", "error", err)
		return "unknown"
	}
	return hostname
}
