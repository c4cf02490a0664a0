//go:build deadlock

// Package syncutil provides the locks guarding the printer endpoint.
// This file is compiled with -tags=deadlock and reports lock-order
// inversions and locks held longer than the exchange budget.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

func init() {
	// a full fiscal document holds the session lock for many exchanges
	deadlock.Opts.DeadlockTimeout = 2 * time.Minute
}

// Mutex wraps deadlock.Mutex
type Mutex struct {
	deadlock.Mutex
}

// RWMutex wraps deadlock.RWMutex
type RWMutex struct {
	deadlock.RWMutex
}
