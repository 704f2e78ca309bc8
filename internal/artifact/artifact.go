/*
Package artifact describes what a packaging run produced and records it.
*/
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oarkflow/stagepack/internal/platform"
)

// Kind represents the type of artifact
type Kind string

const (
	// KindDirectory is a verified staging tree handed to an external
	// installer tool.
	KindDirectory Kind = "directory"
	// KindImage is a compressed disk image.
	KindImage Kind = "image"
	// KindArchive is a compressed tarball.
	KindArchive Kind = "archive"
	// KindChecksum is a checksum sidecar file.
	KindChecksum Kind = "checksum"
)

// Handle is the result of a packaging run.
type Handle struct {
	// Name of the artifact (file or directory base name)
	Name string `json:"name"`

	// Path to the artifact
	Path string `json:"path"`

	Kind     Kind              `json:"kind"`
	Platform platform.Platform `json:"platform"`

	// Checksum is the hex digest of the artifact file, when computed.
	Checksum string `json:"checksum,omitempty"`

	// RunID identifies the pipeline run that produced the artifact.
	RunID string `json:"run_id,omitempty"`

	// Extra holds additional metadata
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// NewHandle returns a handle named after the base of path.
func NewHandle(path string, kind Kind, p platform.Platform) Handle {
	return Handle{
		Name:     filepath.Base(path),
		Path:     path,
		Kind:     kind,
		Platform: p,
	}
}

// IsFile reports whether the artifact is a single file that can be
// checksummed.
func (h Handle) IsFile() bool {
	return h.Kind == KindImage || h.Kind == KindArchive || h.Kind == KindChecksum
}

func (h Handle) String() string {
	return fmt.Sprintf("%s (%s, %s)", h.Path, h.Kind, h.Platform)
}

// Manager manages artifacts
type Manager struct {
	artifacts []Handle
	mu        sync.RWMutex
}

// NewManager creates a new artifact manager
func NewManager() *Manager {
	return &Manager{
		artifacts: make([]Handle, 0),
	}
}

// Add adds an artifact
func (m *Manager) Add(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts = append(m.artifacts, h)
}

// All returns all artifacts
func (m *Manager) All() []Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Handle, len(m.artifacts))
	copy(result, m.artifacts)
	return result
}

// FilterFunc is a function that filters artifacts
type FilterFunc func(Handle) bool

// Filter returns artifacts matching every filter.
func (m *Manager) Filter(filters ...FilterFunc) []Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Handle, 0)
	for _, a := range m.artifacts {
		match := true
		for _, f := range filters {
			if !f(a) {
				match = false
				break
			}
		}
		if match {
			result = append(result, a)
		}
	}
	return result
}

// ByKind returns a filter for artifact kind
func ByKind(k Kind) FilterFunc {
	return func(h Handle) bool {
		return h.Kind == k
	}
}

// Save saves artifacts to a JSON file
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m.artifacts, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Load loads artifacts from a JSON file
func (m *Manager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &m.artifacts)
}
