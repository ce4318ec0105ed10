// Package commsutil holds NATS connection helpers, the JSON codec and subject names.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// Connect opens a NATS connection named name. Extra options are applied after the defaults.
func Connect(url, name string, extra ...comms.Option) (*comms.Conn, error) {
	slog.Info(fmt.Sprintf("%s - connecting to NATS at %s as %s", logPrefix, url, name))

	opts := []comms.Option{
		comms.Name(name),
		comms.Timeout(10 * time.Second),
		comms.ReconnectWait(2 * time.Second),
		comms.MaxReconnects(60),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			if err != nil {
				slog.Warn(fmt.Sprintf("%s - disconnected: %v", logPrefix, err))
			}
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(*comms.Conn) {
			slog.Debug(fmt.Sprintf("%s - connection closed", logPrefix))
		}),
	}
	opts = append(opts, extra...)

	nc, err := comms.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - connected to %s", logPrefix, nc.ConnectedUrl()))
	return nc, nil
}

// Close drains nc so in-flight replies are delivered, falling back to Close on error.
func Close(nc *comms.Conn) {
	if nc == nil || nc.IsClosed() {
		return
	}
	if err := nc.Drain(); err != nil {
		slog.Warn(fmt.Sprintf("%s - drain failed, closing: %v", logPrefix, err))
		nc.Close()
	}
}
