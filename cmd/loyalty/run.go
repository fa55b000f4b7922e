package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
)

// run drives the fx application: start, wait for a signal or an internal
// shutdown, then stop with a fresh context so teardown survives the
// already-cancelled signal context.
func run(ctx context.Context, app *fx.App) {
	if err := app.Start(ctx); err != nil {
		fail(fmt.Errorf("start loyalty service: %w", err))
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	if err := app.Stop(context.Background()); err != nil {
		fail(fmt.Errorf("stop loyalty service: %w", err))
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
