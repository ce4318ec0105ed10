package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/events"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/semver"
)

const (
	logPrefix  = "dispatcher:dispatch"
	tracerName = "github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
)

// Dispatcher resolves, binds and invokes structured requests against a registry.
type Dispatcher struct {
	registry  *registry.Registry
	publisher events.EventPublisher
	tracer    trace.Tracer
	onSuccess []func(ctx context.Context, req *Request, result interface{})
	onFailure []func(ctx context.Context, req *Request, err error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPublisher sets the invocation event publisher. Default is a no-op.
func WithPublisher(p events.EventPublisher) Option {
	return func(d *Dispatcher) {
		if p != nil {
			d.publisher = p
		}
	}
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithOnSuccess registers a hook called after each successful invocation.
func WithOnSuccess(fn func(ctx context.Context, req *Request, result interface{})) Option {
	return func(d *Dispatcher) { d.onSuccess = append(d.onSuccess, fn) }
}

// WithOnFailure registers a hook called after each failed dispatch, resolution errors
// included.
func WithOnFailure(fn func(ctx context.Context, req *Request, err error)) Option {
	return func(d *Dispatcher) { d.onFailure = append(d.onFailure, fn) }
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  reg,
		publisher: &events.NoOpPublisher{},
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *registry.Registry {
	return d.registry
}

// Dispatch runs req and wraps the outcome. It never panics.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	result, err := d.Call(ctx, req)
	if err != nil {
		return NewErrorResponse(req.ID, err)
	}
	return NewResultResponse(req.ID, result)
}

// DispatchMap is the in-process entry point: m must look like a structured request.
func (d *Dispatcher) DispatchMap(ctx context.Context, m map[string]interface{}) *Response {
	req, err := RequestFromMap(m)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - malformed inproc request: %v", logPrefix, err))
		return NewErrorResponse("", err)
	}
	req.Transport = "inproc"
	return d.Dispatch(ctx, req)
}

// DispatchBytes decodes a JSON request and dispatches it.
func (d *Dispatcher) DispatchBytes(ctx context.Context, data []byte, transport string) *Response {
	req, err := DecodeRequest(data)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - malformed %s request: %v", logPrefix, transport, err))
		return NewErrorResponse("", err)
	}
	req.Transport = transport
	return d.Dispatch(ctx, req)
}

// Call resolves, binds and invokes req, returning the raw result. Execution failures and
// panics come back as ACTION_EXECUTION_ERROR; everything else keeps its resolution or
// binding code.
func (d *Dispatcher) Call(ctx context.Context, req *Request) (result interface{}, err error) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "dispatch "+req.Resource+"."+req.Action,
		trace.WithAttributes(
			attribute.String("snowbird.resource", req.Resource),
			attribute.String("snowbird.action", req.Action),
			attribute.String("snowbird.transport", req.Transport),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("snowbird.error_code", registry.CodeOf(err)))
		}
		span.End()
		d.finish(ctx, req, start, result, err)
	}()

	slog.Debug(fmt.Sprintf("%s - resource=%s action=%s transport=%s", logPrefix, req.Resource, req.Action, req.Transport))

	res, action, err := d.registry.ResolveAction(req.Resource, req.Action)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(req, res); err != nil {
		return nil, err
	}
	args, err := Bind(action, req.Params)
	if err != nil {
		return nil, err
	}
	return d.invoke(ctx, req, action, args)
}

func (d *Dispatcher) invoke(ctx context.Context, req *Request, action *registry.Action, args registry.Args) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - %s.%s panicked: %v", logPrefix, req.Resource, req.Action, r))
			result, err = nil, registry.ErrActionExecution(req.Resource, req.Action, fmt.Errorf("panic: %v", r))
		}
	}()

	result, err = Invoke(ctx, action, args)
	if err != nil {
		// typed getters inside the action report bad caller input, not a broken action
		var regErr *registry.RegistryError
		if errors.As(err, &regErr) && regErr.Code == registry.CodeInvalidParameter {
			return nil, regErr
		}
		return nil, registry.ErrActionExecution(req.Resource, req.Action, err)
	}
	return result, nil
}

func checkVersion(req *Request, res *registry.Resource) error {
	if req.Version == "" {
		return nil
	}
	ok, err := semver.Satisfies(res.Version, req.Version)
	if err != nil {
		return &registry.RegistryError{
			Code:    registry.CodeMalformedRequest,
			Message: err.Error(),
			Details: map[string]string{"version": req.Version},
		}
	}
	if !ok {
		return &registry.RegistryError{
			Code:    registry.CodeVersionMismatch,
			Message: fmt.Sprintf("Resource %s is version %q, which does not satisfy %q", req.Resource, res.Version, req.Version),
			Details: map[string]string{"resource": req.Resource, "version": res.Version, "range": req.Version},
		}
	}
	return nil
}

func (d *Dispatcher) finish(ctx context.Context, req *Request, start time.Time, result interface{}, err error) {
	elapsed := time.Since(start)
	event := &events.InvocationEvent{
		Resource:   req.Resource,
		Action:     req.Action,
		Ok:         err == nil,
		DurationMs: elapsed.Milliseconds(),
		Transport:  req.Transport,
		Timestamp:  start.UTC().Format(time.RFC3339),
	}

	if err != nil {
		event.Code = registry.CodeOf(err)
		event.Message = err.Error()
		if registry.IsClientError(event.Code) {
			slog.Info(fmt.Sprintf("%s - %s.%s rejected: %v", logPrefix, req.Resource, req.Action, err))
		} else {
			slog.Error(fmt.Sprintf("%s - %s.%s failed after %s: %v", logPrefix, req.Resource, req.Action, elapsed, err))
		}
		for _, fn := range d.onFailure {
			fn(ctx, req, err)
		}
	} else {
		slog.Debug(fmt.Sprintf("%s - %s.%s ok in %s", logPrefix, req.Resource, req.Action, elapsed))
		for _, fn := range d.onSuccess {
			fn(ctx, req, result)
		}
	}

	if perr := d.publisher.PublishInvoked(ctx, event); perr != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish invocation event: %v", logPrefix, perr))
	}
}
