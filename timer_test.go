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

// P7: timers never expire before their deadline, and (given an otherwise
// idle context) fire promptly after it.
func TestTimerExpiresNoEarlierThanDeadline(t *testing.T) {
	ctx := newTestContext(t)

	const delay = 80 * time.Millisecond
	start := time.Now()
	timer := NewTimer(ctx)
	timer.ExpiresAfter(delay)

	var fireTime time.Time
	timer.AsyncWait(func(err error) {
		fireTime = time.Now()
		require.NoError(t, err)
	})

	n, err := ctx.RunOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.GreaterOrEqual(t, fireTime.Sub(start), delay)
	require.LessOrEqual(t, fireTime.Sub(start), delay+300*time.Millisecond)
}

// S2: canceling a pending wait before it fires delivers aborted exactly
// once, and Cancel reports one wait removed.
func TestTimerCancelBeforeFire(t *testing.T) {
	ctx := newTestContext(t)

	timer := NewTimer(ctx)
	timer.ExpiresAfter(150 * time.Millisecond)

	var calls int32
	var resultErr error
	timer.AsyncWait(func(err error) {
		atomic.AddInt32(&calls, 1)
		resultErr = err
	})

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, timer.Cancel())

	n, err := ctx.RunOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.True(t, Aborted(resultErr))

	// A second Cancel is a no-op: idempotent, never double-delivers.
	require.Equal(t, 0, timer.Cancel())
}

// Re-arming a Timer's deadline cancels whichever wait was previously
// pending on it.
func TestTimerExpiresAtCancelsPriorWait(t *testing.T) {
	ctx := newTestContext(t)

	timer := NewTimer(ctx)
	timer.ExpiresAfter(time.Hour)

	var firstErr error
	timer.AsyncWait(func(err error) { firstErr = err })

	timer.ExpiresAfter(20 * time.Millisecond)
	var secondErr error
	var secondCalls int32
	timer.AsyncWait(func(err error) {
		atomic.AddInt32(&secondCalls, 1)
		secondErr = err
	})

	n, err := ctx.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.True(t, Aborted(firstErr))
	require.Equal(t, int32(1), atomic.LoadInt32(&secondCalls))
	require.NoError(t, secondErr)
}

// Timer.Wait blocks the calling goroutine until the deadline, driven by a
// concurrent Run on another goroutine. A work guard keeps that Run from
// returning before Wait has armed the timer.
func TestTimerWaitBlocksUntilDeadline(t *testing.T) {
	ctx := newTestContext(t)
	guard := NewWorkGuard(ctx.Executor())

	runErrCh := make(chan error, 1)
	go func() {
		_, err := ctx.Run(context.Background())
		runErrCh <- err
	}()

	timer := NewTimer(ctx)
	timer.ExpiresAfter(30 * time.Millisecond)
	require.NoError(t, timer.Wait())
	guard.Release()

	ctx.Stop()
	require.NoError(t, <-runErrCh)
}
