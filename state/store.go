package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Crowley723/mattermost-update-notifier/utils"
	"github.com/Crowley723/mattermost-update-notifier/version"
)

const (
	stateFileExt      = ".txt"
	fmtLegacyFileName = "lastversion%d.txt"
)

// namespace seeds the uuid v5 file names derived from instance names.
var namespace = uuid.MustParse("5b0e7cb4-6f41-4c39-9a57-3f0c1e2d8a90")

// FileStore keeps one plain-text file per instance holding the last notified
// version. A missing file means the instance was never notified.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{dir: dir, logger: logger}
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the state file of the named instance.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, uuid.NewSHA1(namespace, []byte(name)).String()+stateFileExt)
}

// Load returns the last notified version, or version.Zero when there is no record.
func (s *FileStore) Load(name string) (version.Version, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return version.Zero(), nil
		}
		return version.Version{}, fmt.Errorf("failed to read state for %s: %w", name, err)
	}

	v, err := version.Parse(string(data))
	if err != nil {
		return version.Version{}, fmt.Errorf("corrupt state for %s: %w", name, err)
	}

	return v, nil
}

// Save replaces the record of the named instance.
func (s *FileStore) Save(name string, v version.Version) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("unable to create state directory: %w", err)
	}

	if err := utils.WriteFileAtomic(context.Background(), s.Path(name), []byte(v.String())); err != nil {
		return fmt.Errorf("failed to write state for %s: %w", name, err)
	}

	return nil
}

// Rename moves the record of oldName to newName, replacing any record newName
// already had. Nothing happens when oldName was never notified.
func (s *FileStore) Rename(oldName, newName string) error {
	if oldName == newName {
		return nil
	}

	if _, err := os.Stat(s.Path(oldName)); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v, err := s.Load(oldName)
	if err != nil {
		return err
	}

	if err := s.Save(newName, v); err != nil {
		return err
	}

	if err := os.Remove(s.Path(oldName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove state for %s: %w", oldName, err)
	}

	s.logger.Info("moved instance state",
		"from", oldName,
		"to", newName,
		"last_notified", v.String())
	return nil
}

// MigrateOrdinal moves legacy files from legacyDir, keyed by 1-based registry
// position, to the name keyed layout. The registry order at the time of
// migration decides which instance inherits which file. Existing name keyed
// records are never overwritten.
func (s *FileStore) MigrateOrdinal(legacyDir string, names []string) (int, error) {
	migrated := 0

	for i, name := range names {
		legacy := filepath.Join(legacyDir, fmt.Sprintf(fmtLegacyFileName, i+1))

		data, err := os.ReadFile(legacy)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return migrated, fmt.Errorf("failed to read legacy state %s: %w", legacy, err)
		}

		if _, err := os.Stat(s.Path(name)); err == nil {
			s.logger.Warn("legacy state ignored, instance already has a record",
				"instance", name,
				"file", legacy)
			continue
		}

		v, err := version.Parse(strings.TrimSpace(string(data)))
		if err != nil {
			s.logger.Warn("legacy state is not a valid version, skipping",
				"instance", name,
				"file", legacy,
				"error", err)
			continue
		}

		if err := s.Save(name, v); err != nil {
			return migrated, err
		}

		if err := os.Remove(legacy); err != nil {
			return migrated, fmt.Errorf("failed to remove legacy state %s: %w", legacy, err)
		}

		s.logger.Info("migrated legacy state",
			"instance", name,
			"file", legacy,
			"last_notified", v.String())
		migrated++
	}

	return migrated, nil
}
