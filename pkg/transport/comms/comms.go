// Package comms serves dispatch requests and event envelopes over NATS request/reply.
package comms

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/commsutil"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/transport/event"
)

const logPrefix = "comms:comms"

// Transport is the transport name stamped on requests received over NATS.
const Transport = "comms"

// Options configures the subjects a Subscriber listens on.
type Options struct {
	DispatchSubject string
	EventSubject    string
	// Timeout bounds each message. Zero means 25s.
	Timeout time.Duration
}

// Subscriber answers structured requests on DispatchSubject and event envelopes on
// EventSubject.
type Subscriber struct {
	nc         *nats.Conn
	dispatcher *dispatcher.Dispatcher
	events     *event.Handler
	opts       Options
	subs       []*nats.Subscription
}

// NewSubscriber creates a Subscriber. Subjects left empty fall back to the defaults.
func NewSubscriber(nc *nats.Conn, d *dispatcher.Dispatcher, opts Options) *Subscriber {
	if opts.DispatchSubject == "" {
		opts.DispatchSubject = commsutil.SubjectDispatch
	}
	if opts.EventSubject == "" {
		opts.EventSubject = commsutil.SubjectEvent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	return &Subscriber{nc: nc, dispatcher: d, events: event.NewHandler(d), opts: opts}
}

// Start subscribes both subjects. Per-message contexts derive from ctx.
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.nc.Subscribe(s.opts.DispatchSubject, s.handleDispatch(ctx))
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, s.opts.DispatchSubject, err)
	}
	s.subs = append(s.subs, sub)
	slog.Info(fmt.Sprintf("%s - subscribed to %s", logPrefix, s.opts.DispatchSubject))

	sub, err = s.nc.Subscribe(s.opts.EventSubject, s.handleEvent(ctx))
	if err != nil {
		s.Stop()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, s.opts.EventSubject, err)
	}
	s.subs = append(s.subs, sub)
	slog.Info(fmt.Sprintf("%s - subscribed to %s", logPrefix, s.opts.EventSubject))

	return s.nc.Flush()
}

// Stop unsubscribes everything Start subscribed.
func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to unsubscribe %s: %v", logPrefix, sub.Subject, err))
		}
	}
	s.subs = nil
}

func (s *Subscriber) handleDispatch(ctx context.Context) nats.MsgHandler {
	return func(msg *nats.Msg) {
		reqCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()

		resp := s.dispatcher.DispatchBytes(reqCtx, msg.Data, Transport)
		if err := commsutil.Respond(msg, resp); err != nil {
			slog.Error(fmt.Sprintf("%s - %v", logPrefix, err))
		}
	}
}

func (s *Subscriber) handleEvent(ctx context.Context) nats.MsgHandler {
	return func(msg *nats.Msg) {
		reqCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()

		resp := s.events.HandleRaw(reqCtx, msg.Data)
		if err := commsutil.Respond(msg, resp); err != nil {
			slog.Error(fmt.Sprintf("%s - %v", logPrefix, err))
		}
	}
}
