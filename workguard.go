// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "sync"

// WorkGuard holds one unit of "work" on an Executor's Context alive,
// preventing Run from returning due to zero work count while the guard is
// held. Release is idempotent and safe to call from any goroutine.
type WorkGuard struct {
	executor Executor
	once     sync.Once
}

// NewWorkGuard increments the work count on executor's Context and returns
// a guard that decrements it exactly once, on the first Release call.
func NewWorkGuard(executor Executor) *WorkGuard {
	executor.OnWorkStarted()
	return &WorkGuard{executor: executor}
}

// Release decrements the work count. Calling it more than once, or on a
// nil *WorkGuard, is a no-op.
func (g *WorkGuard) Release() {
	if g == nil {
		return
	}
	g.once.Do(func() {
		g.executor.OnWorkFinished()
	})
}
