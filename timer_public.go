// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"sync"
	"time"
)

// Timer is a single-shot deadline-driven waitable object bound to a
// Context. Setting a new expiry cancels the most recently armed wait. The
// Timer tracks only that one wait: each AsyncWait call arms a new wait, and
// a wait armed by an earlier AsyncWait call is reached by neither Cancel
// nor a new expiry; it fires at its deadline or is aborted when the
// Context is closed.
type Timer struct {
	ctx *Context

	mu      sync.Mutex
	pending *timerOp
}

// NewTimer creates a Timer bound to ctx. The Timer has no expiry set until
// ExpiresAfter or ExpiresAt is called.
func NewTimer(ctx *Context) *Timer {
	return &Timer{ctx: ctx}
}

// ExpiresAfter schedules the timer to fire d from now, canceling (with
// ErrAborted) any wait already pending on this Timer.
func (t *Timer) ExpiresAfter(d time.Duration) {
	t.ExpiresAt(t.ctx.clock.Now().Add(d))
}

// ExpiresAt schedules the timer to fire at deadline, canceling (with
// ErrAborted) any wait already pending on this Timer. Setting an expiry
// does not itself start waiting; AsyncWait/Wait arm the actual handler.
func (t *Timer) ExpiresAt(deadline time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelPendingLocked()
	t.pending = &timerOp{deadline: deadline, index: -1}
}

// Cancel cancels the most recently armed wait on this Timer if it is still
// pending, posting its handler with ErrAborted. Returns the number of waits
// canceled (0 or 1).
func (t *Timer) Cancel() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelPendingLocked()
}

func (t *Timer) cancelPendingLocked() int {
	if t.pending == nil {
		return 0
	}
	op := t.pending
	t.pending = nil
	if op.index < 0 && op.fire == nil {
		// Expiry was set but AsyncWait/Wait never armed it; nothing queued.
		return 0
	}
	if t.ctx.timers.cancel(op) {
		return 1
	}
	return 0
}

// AsyncWait arms the timer's currently configured deadline and invokes fn
// on the context's executor when it expires or is canceled. fn receives
// ErrAborted if the timer or its Context is canceled/destroyed first.
func (t *Timer) AsyncWait(fn func(err error)) {
	t.mu.Lock()
	deadline := t.ctx.clock.Now()
	if t.pending != nil {
		deadline = t.pending.deadline
	}
	op := t.ctx.timers.schedule(deadline, func(res AttemptResult) {
		fn(res.Err)
	})
	t.pending = op
	t.mu.Unlock()
}

// Wait blocks the calling goroutine until the timer's configured deadline
// elapses or it is canceled, returning any resulting error.
func (t *Timer) Wait() error {
	done := make(chan error, 1)
	t.AsyncWait(func(err error) { done <- err })
	return <-done
}
