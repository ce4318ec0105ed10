package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// Subject overrides the base invocation subject (INVOKED_SUBJECT).
	Subject string
}

// CommsPublisher publishes invocation events to NATS.
type CommsPublisher struct {
	nc      *comms.Conn
	subject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	subject := commsutil.SubjectInvoked
	if opts != nil && opts.Subject != "" {
		subject = opts.Subject
	}
	return &CommsPublisher{nc: nc, subject: subject}
}

// PublishInvoked publishes event to the per-action subject and then to the base subject.
func (p *CommsPublisher) PublishInvoked(_ context.Context, event *InvocationEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granular := commsutil.BuildInvokedSubject(p.subject, event.Resource, event.Action)
	for _, subject := range []string{granular, p.subject} {
		if err := p.nc.Publish(subject, data); err != nil {
			return fmt.Errorf("%s - failed to publish to %s: %w", commsPublisherLogPrefix, subject, err)
		}
	}

	slog.Debug(fmt.Sprintf("%s - published invocation of %s.%s", commsPublisherLogPrefix, event.Resource, event.Action))
	return nil
}
