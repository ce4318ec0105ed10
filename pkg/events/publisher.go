package events

import "context"

// EventPublisher delivers invocation events.
type EventPublisher interface {
	PublishInvoked(ctx context.Context, event *InvocationEvent) error
}

// NoOpPublisher drops every event. It is the default when NATS is disabled.
type NoOpPublisher struct{}

// PublishInvoked is a no-op.
func (p *NoOpPublisher) PublishInvoked(_ context.Context, _ *InvocationEvent) error {
	return nil
}

// CallbackPublisher hands each event to a function (for testing and in-process hooks).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *InvocationEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *InvocationEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishInvoked calls the callback.
func (p *CallbackPublisher) PublishInvoked(ctx context.Context, event *InvocationEvent) error {
	return p.callback(ctx, event)
}
