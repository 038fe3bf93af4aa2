// Package gate decides, per instance, whether a release has to be announced and
// records announcements once they were delivered.
package gate

import (
	"fmt"

	"github.com/Crowley723/mattermost-update-notifier/version"
)

type Decision int

const (
	// UpToDate means the installed version is not older than the latest release.
	UpToDate Decision = iota
	// PendingButNotified means an update exists but this exact release was already announced.
	PendingButNotified
	// Notify means the latest release has to be announced.
	Notify
)

func (d Decision) String() string {
	switch d {
	case UpToDate:
		return "UP_TO_DATE"
	case PendingButNotified:
		return "PENDING_BUT_NOTIFIED"
	case Notify:
		return "NOTIFY"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Store persists the last notified version per instance name.
// Load must return version.Zero for an instance without a record.
type Store interface {
	Load(name string) (version.Version, error)
	Save(name string, v version.Version) error
}

type Gate struct {
	store Store
}

func New(store Store) *Gate {
	return &Gate{store: store}
}

// Evaluate never writes; calling it repeatedly with the same inputs and no
// Commit in between yields the same decision.
func (g *Gate) Evaluate(name string, latest, installed version.Version) (Decision, version.Version, error) {
	if !latest.IsValid() || !installed.IsValid() {
		return UpToDate, version.Version{}, fmt.Errorf("%w: latest and installed versions are required", version.ErrParse)
	}

	lastNotified, err := g.store.Load(name)
	if err != nil {
		return UpToDate, version.Version{}, err
	}

	switch {
	case latest.LessThanOrEqual(installed):
		return UpToDate, lastNotified, nil
	case latest.LessThanOrEqual(lastNotified):
		return PendingButNotified, lastNotified, nil
	default:
		return Notify, lastNotified, nil
	}
}

// Commit records latest as announced. Call it only after a successful delivery.
func (g *Gate) Commit(name string, latest version.Version) error {
	if !latest.IsValid() {
		return fmt.Errorf("%w: cannot commit an empty version", version.ErrParse)
	}
	return g.store.Save(name, latest)
}
