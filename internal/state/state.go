package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"jilai-deployer/internal/models"
)

/**
 * Addresses known from earlier runs on one network
 * @property {string} network - Network the addresses live on
 * @property {string} run_id - Run that last wrote the file
 * @property {map[string]string} modules - Module name to address
 */
type ResumeState struct {
	Network   string            `yaml:"network"`
	RunID     string            `yaml:"run_id,omitempty"`
	UpdatedAt time.Time         `yaml:"updated_at,omitempty"`
	Modules   map[string]string `yaml:"modules"`
}

func New(network string) *ResumeState {
	return &ResumeState{Network: network, Modules: map[string]string{}}
}

func (s *ResumeState) Address(module string) (string, bool) {
	if s == nil {
		return "", false
	}
	addr, ok := s.Modules[module]
	return addr, ok && addr != ""
}

// Names returns the recorded module names in sorted order.
func (s *ResumeState) Names() []string {
	names := make([]string, 0, len(s.Modules))
	for n := range s.Modules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PathFor returns <dir>/<network>.yaml.
func PathFor(dir, network string) string {
	return filepath.Join(dir, network+".yaml")
}

/**
 * Read a resume state file
 * @param {string} path - YAML file path
 * @returns {*ResumeState} Parsed state, an empty state if the file does not exist
 * @throws
 * - *models.ConfigurationError for unreadable or malformed files
 */
func Load(path string) (*ResumeState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ResumeState{Modules: map[string]string{}}, nil
	}
	if err != nil {
		return nil, &models.ConfigurationError{Reason: "read resume state", Err: err}
	}
	var s ResumeState
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &models.ConfigurationError{Reason: fmt.Sprintf("parse resume state %s", path), Err: err}
	}
	if s.Modules == nil {
		s.Modules = map[string]string{}
	}
	return &s, nil
}

// File persists a ResumeState after every recorded module.
type File struct {
	mu    sync.Mutex
	path  string
	state *ResumeState
}

func NewFile(path string, s *ResumeState) *File {
	return &File{path: path, state: s}
}

func (f *File) Path() string {
	return f.path
}

// Record stores the module address and rewrites the file atomically.
func (f *File) Record(runID string, m models.DeployedModule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Modules[m.Name] = m.Address
	f.state.RunID = runID
	f.state.UpdatedAt = time.Now().UTC()
	return Save(f.path, f.state)
}

func Save(path string, s *ResumeState) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal resume state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write resume state: %w", err)
	}
	return os.Rename(tmp, path)
}
