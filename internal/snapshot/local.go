package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalProvider writes snapshots under a directory on the local filesystem.
// Useful for development and for the scrape one-shot command.
type LocalProvider struct {
	root string
}

// NewLocalProvider ensures the root directory exists.
func NewLocalProvider(root string) (*LocalProvider, error) {
	if root == "" {
		return nil, fmt.Errorf("snapshot directory must be set")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &LocalProvider{root: root}, nil
}

// Save writes the snapshot to root/objectName, creating parent directories.
func (l *LocalProvider) Save(_ context.Context, objectName string, data []byte) error {
	target := filepath.Join(l.root, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create snapshot subdir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", target, err)
	}
	return nil
}

// Close does nothing for the local filesystem.
func (*LocalProvider) Close() error { return nil }
