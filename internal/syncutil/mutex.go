//go:build !deadlock

// Package syncutil provides the locks guarding the printer endpoint.
// Build with -tags=deadlock to swap in github.com/sasha-s/go-deadlock.
package syncutil

import "sync"

// Mutex wraps sync.Mutex
type Mutex struct {
	sync.Mutex
}

// RWMutex wraps sync.RWMutex
type RWMutex struct {
	sync.RWMutex
}
