package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type recorder struct {
	calls []string
}

func (r *recorder) step(name string, actionErr, compErr error) Step {
	return Step{
		Name: name,
		Action: func(context.Context) error {
			r.calls = append(r.calls, "do:"+name)
			return actionErr
		},
		Compensate: func(context.Context) error {
			r.calls = append(r.calls, "undo:"+name)
			return compErr
		},
	}
}

func TestRunAllStepsSucceed(t *testing.T) {
	rec := &recorder{}
	err := New("checkout").
		Add(rec.step("a", nil, nil)).
		Add(rec.step("b", nil, nil)).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"do:a", "do:b"}, rec.calls)
}

func TestRunCompensatesInReverse(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("gateway down")

	var hooked []string
	err := New("checkout", WithCompensationHook(func(_ context.Context, step string, err error) {
		hooked = append(hooked, step)
	})).
		Add(rec.step("a", nil, nil)).
		Add(rec.step("b", nil, nil)).
		Add(rec.step("c", boom, nil)).
		Add(rec.step("d", nil, nil)).
		Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"do:a", "do:b", "do:c", "undo:b", "undo:a"}, rec.calls)
	assert.Equal(t, []string{"b", "a"}, hooked)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "c", stepErr.Step)
	assert.NoError(t, stepErr.Compensation)
}

func TestCompensationFailureDoesNotMaskOriginal(t *testing.T) {
	rec := &recorder{}
	original := errors.New("link failed")
	cancelErr := errors.New("cancel failed")
	deleteErr := errors.New("delete failed")

	err := New("checkout").
		Add(rec.step("create_order", nil, deleteErr)).
		Add(rec.step("create_intent", nil, cancelErr)).
		Add(rec.step("link", original, nil)).
		Run(context.Background())

	assert.ErrorIs(t, err, original)
	assert.NotErrorIs(t, err, cancelErr)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	compErrs := multierr.Errors(stepErr.Compensation)
	require.Len(t, compErrs, 2)
	assert.ErrorIs(t, compErrs[0], cancelErr)
	assert.ErrorIs(t, compErrs[1], deleteErr)
	assert.Equal(t, []string{"do:create_order", "do:create_intent", "do:link", "undo:create_intent", "undo:create_order"}, rec.calls)
}

func TestCompensationIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var compCtxErr error

	err := New("checkout").
		Add(Step{
			Name:   "a",
			Action: func(context.Context) error { return nil },
			Compensate: func(ctx context.Context) error {
				compCtxErr = ctx.Err()
				return nil
			},
		}).
		Add(Step{
			Name: "b",
			Action: func(context.Context) error {
				cancel()
				return context.Canceled
			},
		}).
		Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, compCtxErr)
}

func TestStepsWithoutCompensationAreSkipped(t *testing.T) {
	rec := &recorder{}
	err := New("checkout").
		Add(Step{Name: "read", Action: func(context.Context) error { return nil }}).
		Add(rec.step("write", errors.New("x"), nil)).
		Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{"do:write"}, rec.calls)
}
