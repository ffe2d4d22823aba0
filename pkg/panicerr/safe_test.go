package panicerr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, Run(ctx, func(context.Context) error { return nil }))

	want := errors.New("failed")
	assert.ErrorIs(t, Run(ctx, func(context.Context) error { return want }), want)

	err := Run(ctx, func(context.Context) error { panic("disk on fire") })
	assert.ErrorContains(t, err, "disk on fire")
}

func TestGo(t *testing.T) {
	err := <-Go(context.Background(), func(context.Context) error { panic("late") })
	assert.ErrorContains(t, err, "late")
}
