// Package app builds the snowbird runtime from config: database, blob storage, manifest,
// registry and dispatcher. cmd/snowbird and cmd/sb share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/zack-klein/api.zacharyjklein.com/internal/config"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/blob"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/bootstrap"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/commsutil"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/db"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/events"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/whatsmybill"
)

const logPrefix = "app:app"

// Runtime is everything a transport needs to serve requests.
type Runtime struct {
	Config     *config.Config
	DB         *db.DB
	Blob       *blob.Router
	Manifest   *bootstrap.Manifest
	Conn       *comms.Conn
	Dispatcher *dispatcher.Dispatcher

	closers []func() error
}

// Option adjusts how the runtime is built.
type Option func(*options)

type options struct {
	backends  map[string]blob.Backend
	publisher events.EventPublisher
	costs     whatsmybill.CostSource
	dispatch  []dispatcher.Option
}

// WithBlobBackend registers b for scheme, replacing the configured backend.
func WithBlobBackend(scheme string, b blob.Backend) Option {
	return func(o *options) { o.backends[scheme] = b }
}

// WithPublisher overrides the invocation event publisher chosen from config.
func WithPublisher(p events.EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithCostSource overrides the AWS Cost Explorer client.
func WithCostSource(c whatsmybill.CostSource) Option {
	return func(o *options) { o.costs = c }
}

// WithDispatcherOptions passes extra options to the dispatcher.
func WithDispatcherOptions(opts ...dispatcher.Option) Option {
	return func(o *options) { o.dispatch = append(o.dispatch, opts...) }
}

// New builds the runtime. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	o := &options{backends: make(map[string]blob.Backend)}
	for _, opt := range opts {
		opt(o)
	}

	rt := &Runtime{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close()
		}
	}()

	var err error

	// Step 1: manifest
	rt.Manifest, err = bootstrap.LoadManifest(cfg.CloudProvider, cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load manifest: %w", logPrefix, err)
	}

	// Step 2: database (a missing postgres database is created by `snowbird ensure-db`)
	rt.DB, err = db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to open database: %w", logPrefix, err)
	}
	rt.closers = append(rt.closers, rt.DB.Close)

	if cfg.RunMigrations {
		migrations, err := rt.DB.Migrations(cfg.MigrationPath)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := rt.DB.RunMigrations(ctx, migrations); err != nil {
			return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
	}

	// Step 3: blob storage
	rt.Blob = rt.newBlobRouter(ctx, o.backends)

	// Step 4: NATS, only when the comms transport is on
	publisher := o.publisher
	if cfg.COMMSEnabled {
		rt.Conn, err = commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error { commsutil.Close(rt.Conn); return nil })
		if publisher == nil {
			publisher = events.NewCommsPublisher(rt.Conn, &events.CommsPublisherOpts{Subject: cfg.InvokedSubject})
		}
	}

	// Step 5: resources
	costs := o.costs
	if costs == nil && cfg.CloudProvider == "aws" {
		ce, err := whatsmybill.NewCostExplorer(ctx)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - cost explorer unavailable: %v", logPrefix, err))
		} else {
			costs = ce
		}
	}

	reg, err := resources.Build(resources.Deps{
		Todos:        db.NewTodoRepository(rt.DB),
		HealthChecks: db.NewHealthCheckRepository(rt.DB),
		Blob:         rt.Blob,
		Costs:        costs,
		BillWebhook:  cfg.BillWebhook,
	}, rt.Manifest)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to build registry: %w", logPrefix, err)
	}

	dispatchOpts := []dispatcher.Option{dispatcher.WithPublisher(publisher)}
	rt.Dispatcher = dispatcher.NewDispatcher(reg, append(dispatchOpts, o.dispatch...)...)

	slog.Info(fmt.Sprintf("%s - runtime ready with %d resources", logPrefix, len(reg.Resources())))
	ok = true
	return rt, nil
}

// newBlobRouter always serves mem:// and file://. s3:// and gs:// are added when enabled
// and their clients can be built; failures only disable that scheme.
func (rt *Runtime) newBlobRouter(ctx context.Context, overrides map[string]blob.Backend) *blob.Router {
	cfg := rt.Config
	router := blob.NewRouter()
	router.Handle("mem", blob.NewMemBackend())
	router.Handle("file", blob.NewFileBackend(cfg.BlobLocalRoot))

	if cfg.S3Enabled && overrides["s3"] == nil {
		s3b, err := blob.NewS3BackendFromEnv(ctx, cfg.S3Region)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - s3 storage disabled: %v", logPrefix, err))
		} else {
			router.Handle("s3", s3b)
		}
	}
	if cfg.GCSEnabled && overrides["gs"] == nil {
		gcs, err := blob.NewGCSBackend(ctx)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - gcs storage disabled: %v", logPrefix, err))
		} else {
			router.Handle("gs", gcs)
			rt.closers = append(rt.closers, gcs.Close)
		}
	}

	for scheme, b := range overrides {
		router.Handle(scheme, b)
	}
	return router
}

// Close releases everything New opened, newest first.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
