// Package artifacts provides a filesystem-based implementation of the
// ArtifactStore interface.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Static errors.
var (
	ErrRootEmpty  = errors.New("store root cannot be empty")
	ErrKeyEmpty   = errors.New("artifact key cannot be empty")
	ErrKeyInvalid = errors.New("artifact key must be a plain filename")
)

// FSStore implements the core.ArtifactStore interface on a local directory.
// Keys are plain filenames; the store refuses keys that would escape its
// root.
type FSStore struct {
	root string
}

// New creates an FSStore rooted at the given directory, creating it if
// needed.
func New(root string) (*FSStore, error) {
	if root == "" {
		return nil, ErrRootEmpty
	}

	err := os.MkdirAll(root, dirPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create store root %s: %w", root, err)
	}

	return &FSStore{root: root}, nil
}

// Save writes data under the given key, replacing any existing artifact.
func (s *FSStore) Save(ctx context.Context, key string, data []byte) error {
	path, err := s.resolve(ctx, key)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, data, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", key, err)
	}

	return nil
}

// Load reads the artifact stored under the given key.
func (s *FSStore) Load(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", key, err)
	}

	return data, nil
}

// Exists reports whether an artifact is stored under the given key.
func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.resolve(ctx, key)
	if err != nil {
		return false, err
	}

	_, statErr := os.Stat(path)
	if statErr == nil {
		return true, nil
	}

	if os.IsNotExist(statErr) {
		return false, nil
	}

	return false, fmt.Errorf("failed to stat artifact %s: %w", key, statErr)
}

// Path returns the absolute location an artifact key maps to. The file may
// or may not exist.
func (s *FSStore) Path(key string) string {
	return filepath.Join(s.root, key)
}

// resolve validates a key and maps it onto the store root.
func (s *FSStore) resolve(ctx context.Context, key string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("store operation cancelled: %w", ctx.Err())
	default:
	}

	if key == "" {
		return "", ErrKeyEmpty
	}

	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrKeyInvalid, key)
	}

	return filepath.Join(s.root, key), nil
}
