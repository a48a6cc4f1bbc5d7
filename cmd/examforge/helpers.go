package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// signalContext returns a context canceled on SIGINT/SIGTERM so a run can
// stop cleanly between API calls.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func passFail(value bool) string {
	if value {
		return "pass"
	}
	return "FAIL"
}
