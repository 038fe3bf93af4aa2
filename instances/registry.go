package instances

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/Crowley723/mattermost-update-notifier/utils"
)

// ErrRegistryUnavailable covers a missing, unreadable or structurally invalid registry file.
var ErrRegistryUnavailable = errors.New("instance registry unavailable")

var (
	ErrInstanceExists   = errors.New("instance already exists")
	ErrInstanceNotFound = errors.New("instance not found")
)

// FileRegistry reads the ordered instance list from a JSON file. The file is
// re-read on every List so edits take effect on the next cycle.
type FileRegistry struct {
	path string
	mu   sync.RWMutex
}

func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{path: path}
}

func (r *FileRegistry) Path() string {
	return r.path
}

func (r *FileRegistry) List() ([]Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return LoadRegistry(r.path)
}

// Add appends inst after validating it and checking that the name is unused.
func (r *FileRegistry) Add(inst Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst = normalize(inst)
	if err := validateInstance(0, inst); err != nil {
		return err
	}

	list, err := LoadRegistry(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		list = []Instance{}
	}

	for _, existing := range list {
		if existing.Name == inst.Name {
			return fmt.Errorf("%w: %s", ErrInstanceExists, inst.Name)
		}
	}

	return SaveRegistry(r.path, append(list, inst))
}

// Get returns the instance called name.
func (r *FileRegistry) Get(name string) (Instance, error) {
	list, err := r.List()
	if err != nil {
		return Instance{}, err
	}

	for _, inst := range list {
		if inst.Name == name {
			return inst, nil
		}
	}
	return Instance{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, name)
}

// Update replaces the instance called name with inst at the same position.
// inst may carry a new name as long as no other instance uses it.
func (r *FileRegistry) Update(name string, inst Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst = normalize(inst)
	if err := validateInstance(0, inst); err != nil {
		return err
	}

	list, err := LoadRegistry(r.path)
	if err != nil {
		return err
	}

	idx := -1
	for i, existing := range list {
		switch existing.Name {
		case name:
			idx = i
		case inst.Name:
			return fmt.Errorf("%w: %s", ErrInstanceExists, inst.Name)
		}
	}

	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, name)
	}

	list[idx] = inst
	return SaveRegistry(r.path, list)
}

// Remove deletes the instance called name.
func (r *FileRegistry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := LoadRegistry(r.path)
	if err != nil {
		return err
	}

	kept := make([]Instance, 0, len(list))
	for _, inst := range list {
		if inst.Name != name {
			kept = append(kept, inst)
		}
	}

	if len(kept) == len(list) {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, name)
	}

	return SaveRegistry(r.path, kept)
}

// LoadRegistry parses and validates the registry file at path. Every error it
// returns wraps ErrRegistryUnavailable; a missing file also wraps os.ErrNotExist.
func LoadRegistry(path string) ([]Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read instances file: %w", ErrRegistryUnavailable, err)
	}

	var raw []rawInstance
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse instances file: %w", ErrRegistryUnavailable, err)
	}

	if raw == nil {
		return nil, fmt.Errorf("%w: instances file must contain a list", ErrRegistryUnavailable)
	}

	var result *multierror.Error
	list := make([]Instance, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, r := range raw {
		inst := normalize(Instance{
			Name:    deref(r.Name),
			API:     deref(r.API),
			URL:     deref(r.URL),
			Channel: deref(r.Channel),
		})

		if err := validateInstance(i, inst); err != nil {
			result = multierror.Append(result, err)
			continue
		}

		if _, ok := seen[inst.Name]; ok {
			result = multierror.Append(result, fmt.Errorf(fmtErrDuplicate, i, inst.Name))
			continue
		}
		seen[inst.Name] = struct{}{}

		list = append(list, inst)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}

	return list, nil
}

// SaveRegistry writes list to path through a temporary file and a rename.
func SaveRegistry(path string, list []Instance) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("unable to create registry directory: %w", err)
	}

	if list == nil {
		list = []Instance{}
	}

	data, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	return utils.WriteFileAtomic(context.Background(), path, data)
}

func validateInstance(index int, inst Instance) error {
	var result *multierror.Error

	if inst.Name == "" {
		result = multierror.Append(result, fmt.Errorf(fmtErrMissingField, index, "name"))
	}
	if inst.API == "" {
		result = multierror.Append(result, fmt.Errorf(fmtErrMissingField, index, "api"))
	}
	if inst.URL == "" {
		result = multierror.Append(result, fmt.Errorf(fmtErrMissingField, index, "url"))
	}

	return result.ErrorOrNil()
}

func normalize(inst Instance) Instance {
	inst.Name = strings.TrimSpace(inst.Name)
	inst.API = strings.TrimSpace(inst.API)
	inst.URL = strings.TrimSpace(inst.URL)
	inst.Channel = strings.TrimSpace(inst.Channel)
	return inst
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
