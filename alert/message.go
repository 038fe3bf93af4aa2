package alert

import (
	"strings"

	"github.com/Crowley723/mattermost-update-notifier/version"
)

// Message is the notification for a single instance.
type Message struct {
	Text    string
	Channel string
}

// FormatMessage builds the update announcement. Markdown is rendered by the receiving server.
func FormatMessage(latest, installed version.Version, downloadURL, releaseNotesURL string) string {
	var b strings.Builder

	b.WriteString("New Mattermost version found!\n")
	b.WriteString("Latest version: " + latest.String() + "\n")
	b.WriteString("Former version: " + installed.String() + "\n")
	b.WriteString("Download URL: " + downloadURL + "\n")
	if releaseNotesURL != "" {
		b.WriteString("[Release notes](" + releaseNotesURL + ")\n")
	}

	return b.String()
}
