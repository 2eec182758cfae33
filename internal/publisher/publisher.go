// Package publisher defines the interface used to announce freshly
// ingested bill text to downstream consumers.
package publisher

import "context"

// Publisher delivers a payload to a named topic and returns the broker's
// message id.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// NoOp drops every message. It backs runs with notifications disabled.
type NoOp struct{}

// Publish does nothing and reports success.
func (NoOp) Publish(_ context.Context, _ string, _ any) (string, error) {
	return "", nil
}
