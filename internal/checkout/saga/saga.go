// Package saga runs an ordered list of steps, each paired with the action that
// undoes it. When a step fails, the steps before it are compensated in reverse.
package saga

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

const tracerName = "storefront/checkout/saga"

// Step is one forward action and its optional compensation.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// CompensationHook observes each compensation; err is nil on success.
type CompensationHook func(ctx context.Context, step string, err error)

type Option func(*Saga)

// WithCompensationHook registers a callback run after every compensation.
func WithCompensationHook(hook CompensationHook) Option {
	return func(s *Saga) { s.onCompensate = hook }
}

// WithTracer overrides the global otel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Saga) { s.tracer = tracer }
}

type Saga struct {
	name         string
	steps        []Step
	tracer       trace.Tracer
	onCompensate CompensationHook
}

func New(name string, opts ...Option) *Saga {
	s := &Saga{name: name, tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a step. Steps run in the order they were added.
func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// StepError is returned when a forward action fails. It unwraps to the
// action's error; compensation failures are kept apart so they never replace it.
type StepError struct {
	Step         string
	Err          error
	Compensation error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes the steps. Compensations run on a context detached from the
// caller's cancellation so a disconnected client cannot strand half a checkout.
func (s *Saga) Run(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "saga."+s.name)
	defer span.End()

	for i, step := range s.steps {
		if err := s.runAction(ctx, step); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, step.Name)
			return &StepError{
				Step:         step.Name,
				Err:          err,
				Compensation: s.compensate(context.WithoutCancel(ctx), s.steps[:i]),
			}
		}
	}
	return nil
}

func (s *Saga) runAction(ctx context.Context, step Step) error {
	ctx, span := s.tracer.Start(ctx, "saga.action."+step.Name,
		trace.WithAttributes(attribute.String("saga.name", s.name), attribute.String("saga.step", step.Name)))
	defer span.End()

	if err := step.Action(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "action failed")
		return err
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, done []Step) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}

		stepCtx, span := s.tracer.Start(ctx, "saga.compensate."+step.Name,
			trace.WithAttributes(attribute.String("saga.name", s.name), attribute.String("saga.step", step.Name)))
		err := step.Compensate(stepCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "compensation failed")
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
		}
		span.End()

		if s.onCompensate != nil {
			s.onCompensate(ctx, step.Name, err)
		}
	}
	return multierr.Combine(errs...)
}
