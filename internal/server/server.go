// Package server runs snowbird: the HTTP API and, when enabled, the NATS transport.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zack-klein/api.zacharyjklein.com/internal/app"
	"github.com/zack-klein/api.zacharyjklein.com/internal/config"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/transport/comms"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/transport/httpapi"
)

const (
	logPrefix = "server:server"

	shutdownTimeout = 10 * time.Second
)

// SetupLogging installs the default text logger at the configured level.
func SetupLogging(cfg *config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))
}

// Run starts the server, blocks until a shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	SetupLogging(cfg)

	slog.Info(fmt.Sprintf("%s - Starting snowbird", logPrefix))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := SetupTracing(ctx, cfg.COMMSName, cfg.TraceStdout, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn(fmt.Sprintf("%s - trace flush failed: %v", logPrefix, err))
		}
	}()

	rt, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			slog.Warn(fmt.Sprintf("%s - close failed: %v", logPrefix, err))
		}
	}()

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("%s - failed to listen on %s: %w", logPrefix, cfg.Addr(), err)
	}

	err = Serve(ctx, rt, ln)
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return err
}

// Serve serves rt on ln, plus the NATS subjects when rt has a connection, until ctx is
// done or a transport fails.
func Serve(ctx context.Context, rt *app.Runtime, ln net.Listener) error {
	inst, err := Start(ctx, rt, ln)
	if err != nil {
		return err
	}
	return inst.Wait()
}

// Instance is a started server. Wait blocks until it has shut down.
type Instance struct {
	group *errgroup.Group
	sub   *comms.Subscriber
}

// Start subscribes the NATS subjects (when rt has a connection) before returning, then
// serves HTTP on ln in the background until ctx is done or a transport fails. Requests sent
// after Start returns are answered.
func Start(ctx context.Context, rt *app.Runtime, ln net.Listener) (*Instance, error) {
	cfg := rt.Config
	g, gctx := errgroup.WithContext(ctx)
	inst := &Instance{group: g}

	api := httpapi.NewServer(rt.Dispatcher, httpapi.WithTimeout(cfg.RequestTimeout))
	httpServer := &http.Server{
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if rt.Conn != nil {
		inst.sub = comms.NewSubscriber(rt.Conn, rt.Dispatcher, comms.Options{
			DispatchSubject: cfg.DispatchSubject,
			EventSubject:    cfg.EventSubject,
			Timeout:         cfg.RequestTimeout,
		})
		if err := inst.sub.Start(gctx); err != nil {
			_ = ln.Close()
			return nil, err
		}
	}

	g.Go(func() error {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, ln.Addr()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s - HTTP server error: %w", logPrefix, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info(fmt.Sprintf("%s - shutting down", logPrefix))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	slog.Info(fmt.Sprintf("%s - snowbird is ready", logPrefix))
	return inst, nil
}

// Wait blocks until every transport has stopped and returns the first error.
func (i *Instance) Wait() error {
	err := i.group.Wait()
	if i.sub != nil {
		i.sub.Stop()
	}
	return err
}
