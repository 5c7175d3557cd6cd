// Package snapshot persists raw fetched listing pages so extraction
// regressions can be debugged against the exact HTML a run saw.
package snapshot

import "context"

// Provider writes raw page snapshots to some blob backend.
type Provider interface {
	// Save stores data under the given object name.
	Save(ctx context.Context, objectName string, data []byte) error
	// Close releases backend resources.
	Close() error
}

// NoOpProvider discards snapshots. Used when snapshotting is disabled.
type NoOpProvider struct{}

// Save does nothing.
func (NoOpProvider) Save(context.Context, string, []byte) error { return nil }

// Close does nothing.
func (NoOpProvider) Close() error { return nil }
