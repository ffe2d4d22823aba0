package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// Run calls fn and converts a panic into an error carrying the recovered
// value and its stack.
func Run(ctx context.Context, fn func(context.Context) error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() {
		err = fn(ctx)
	})
	if r := catcher.Recovered(); r != nil {
		return r.AsError()
	}
	return err
}

// Go runs fn on its own goroutine and reports its error, or its panic as an
// error, on the returned channel.
func Go(ctx context.Context, fn func(context.Context) error) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- Run(ctx, fn)
	}()
	return ch
}
