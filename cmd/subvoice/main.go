package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"subvoice/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode reports 0 on success, 130 after an interrupt, 2 for bad input or
// configuration, and 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled), errors.Is(err, services.ErrCancelled):
		fmt.Fprintln(os.Stderr, "interrupted")
		return 130
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConfiguration):
		fmt.Fprintln(os.Stderr, err)
		return 2
	default:
		if stage, ok := services.StageOf(err); ok {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", stage, err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
}
