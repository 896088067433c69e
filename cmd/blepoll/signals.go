//go:build darwin || linux

package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, unix.SIGTERM)
}
