// Package publisher emits run-completion events so downstream consumers
// (site rebuilds, notification bots) can react to fresh show data.
package publisher

import "context"

// Provider publishes pipeline events. Implementations: Pub/Sub for
// deployments, memory for tests, noop when events are disabled.
type Provider interface {
	// Publish serializes the payload and publishes it, returning the
	// backend message ID.
	Publish(ctx context.Context, payload any) (string, error)
	// Close releases backend resources.
	Close() error
}

// NoOpProvider discards events.
type NoOpProvider struct{}

// Publish does nothing.
func (NoOpProvider) Publish(context.Context, any) (string, error) { return "", nil }

// Close does nothing.
func (NoOpProvider) Close() error { return nil }
