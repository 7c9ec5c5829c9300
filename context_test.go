// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := NewContext()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

// S1: a single timer wait completes exactly once, no earlier than its
// deadline, and run() returns having invoked exactly one handler.
func TestContextRunEchoTimer(t *testing.T) {
	ctx := newTestContext(t)

	start := time.Now()
	timer := NewTimer(ctx)
	timer.ExpiresAfter(100 * time.Millisecond)

	var calls int32
	var resultErr error
	timer.AsyncWait(func(err error) {
		atomic.AddInt32(&calls, 1)
		resultErr = err
	})

	n, err := ctx.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.NoError(t, resultErr)

	elapsed := time.Since(start)
	require.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	require.LessOrEqual(t, elapsed, 500*time.Millisecond)
	require.False(t, ctx.workRemaining())
}

// S6: destroying a context with a pending timer wait invokes its handler
// exactly once with the aborted error before Close returns.
func TestContextCloseCancelsPendingTimer(t *testing.T) {
	ctx, err := NewContext()
	require.NoError(t, err)

	timer := NewTimer(ctx)
	timer.ExpiresAfter(60 * time.Second)

	var calls int32
	var resultErr error
	timer.AsyncWait(func(err error) {
		atomic.AddInt32(&calls, 1)
		resultErr = err
	})

	require.NoError(t, ctx.Close())

	// Close drains the aborted completion itself; the handler has already
	// run by the time Close returns, with no further pumping required.
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.True(t, Aborted(resultErr))
}

// P4: once Stop takes effect, every subsequent run* call returns 0
// immediately without blocking.
func TestContextStopMakesRunReturnImmediately(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		n, err := ctx.Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, 0, n)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after Stop")
	}

	n, err := ctx.RunOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

// P5: restart after stop allows run to resume pumping further work.
func TestContextRestartResumesPumping(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Stop()
	require.NoError(t, ctx.Restart())

	var ran atomic.Bool
	ctx.Executor().Post(func() { ran.Store(true) })

	n, err := ctx.RunOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, ran.Load())
}

// Calling Run from within a handler already pumping the same Context is
// rejected rather than deadlocking or recursing unboundedly.
func TestContextReentrantRunRejected(t *testing.T) {
	ctx := newTestContext(t)

	var reentrantErr error
	ctx.Executor().Post(func() {
		_, reentrantErr = ctx.RunOne(context.Background())
	})

	n, err := ctx.RunOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.ErrorIs(t, reentrantErr, ErrReentrantRun)
}

// P6: a work guard held for the duration of Run prevents it from returning
// until released, even though no timers or I/O objects are outstanding.
func TestContextWorkGuardKeepsRunAlive(t *testing.T) {
	ctx := newTestContext(t)
	guard := NewWorkGuard(ctx.Executor())

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_, _ = ctx.Run(context.Background())
	}()

	select {
	case <-runDone:
		t.Fatal("Run returned while a work guard was still held")
	case <-time.After(100 * time.Millisecond):
	}

	guard.Release()

	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the work guard was released")
	}
}

// Restart must fail while a pumping thread is still inside Run.
func TestContextRestartWhileRunningFails(t *testing.T) {
	ctx := newTestContext(t)
	guard := NewWorkGuard(ctx.Executor())

	runStarted := make(chan struct{})
	ctx.Executor().Post(func() { close(runStarted) })

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_, _ = ctx.Run(context.Background())
	}()
	<-runStarted

	require.ErrorIs(t, ctx.Restart(), ErrRestartWhileRunning)

	ctx.Stop()
	<-runDone
	guard.Release()

	require.NoError(t, ctx.Restart())
}
