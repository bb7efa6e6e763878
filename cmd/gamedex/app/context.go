package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Context creates a context cancelled on interrupt or termination
// signals, enabling graceful shutdown.
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ExitOnError prints the error to stderr and exits non-zero.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
