package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patrickkfkan/imagefap-dl/pkg/logger"
)

// Manager handles everything under the output root: directory creation,
// existence checks for skip-on-rerun, and sidecar writes. Image bytes
// themselves are committed by the download client; the manager only
// decides where they go and whether they are already there.
type Manager struct {
	root      string
	overwrite bool
	logger    logger.Logger
}

// NewManager creates a manager rooted at root, creating the directory
// if needed. With overwrite disabled, existing destination files are
// reported as skippable.
func NewManager(root string, overwrite bool, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	return &Manager{root: abs, overwrite: overwrite, logger: log}, nil
}

// Root returns the absolute output root.
func (m *Manager) Root() string {
	return m.root
}

// Overwrite reports whether existing files are replaced instead of
// skipped.
func (m *Manager) Overwrite() bool {
	return m.overwrite
}

// EnsureDir creates (if needed) and returns the absolute path of a
// directory given by path segments under the root.
func (m *Manager) EnsureDir(segments ...string) (string, error) {
	dir := filepath.Join(append([]string{m.root}, segments...)...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}

// Exists reports whether a regular file exists at path.
func (m *Manager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ShouldSkip reports whether a download to path should be skipped
// because the file is already there and overwriting is disabled.
func (m *Manager) ShouldSkip(path string) bool {
	return !m.overwrite && m.Exists(path)
}

// WriteJSON marshals v with indentation and commits it to path via a
// temporary file and rename, so a reader never sees a half-written
// sidecar.
func (m *Manager) WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return m.WriteFile(path, append(data, '\n'))
}

// WriteFile commits data to path via a temporary file and rename.
func (m *Manager) WriteFile(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move %s into place: %w", tempPath, err)
	}

	m.logger.DebugWithFields("wrote file", map[string]interface{}{
		"path":  path,
		"bytes": len(data),
	})
	return nil
}
