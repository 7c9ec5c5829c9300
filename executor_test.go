// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// P10: a chain of recursive Dispatch calls on the context executor is
// bounded by the configured max inline depth, beyond which it degrades to
// Post (runs on a later pump iteration rather than growing the stack
// without limit).
func TestContextExecutorDispatchDepthBound(t *testing.T) {
	const maxDepth = 8
	ctx, err := NewContext(WithMaxInlineDepth(maxDepth))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	exec := ctx.Executor()

	var inlineRun int
	var stackDepth, maxObservedStack int
	var recurse func(depth int)
	recurse = func(depth int) {
		stackDepth++
		if stackDepth > maxObservedStack {
			maxObservedStack = stackDepth
		}
		defer func() { stackDepth-- }()

		inlineRun++
		if inlineRun >= 4*maxDepth {
			return
		}
		exec.Dispatch(func() { recurse(depth + 1) })
	}

	done := make(chan struct{})
	exec.Post(func() {
		recurse(1)
		close(done)
	})

	for {
		n, err := ctx.RunOne(context.Background())
		require.NoError(t, err)
		select {
		case <-done:
			goto finished
		default:
		}
		if n == 0 {
			t.Fatal("pumping stalled before recursion completed")
		}
	}
finished:
	// Drain any handlers Dispatch degraded to Post that fired after the
	// depth-bounded inline chain returned.
	for {
		n, err := ctx.Poll()
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}

	require.LessOrEqual(t, maxObservedStack, maxDepth+1)
	require.GreaterOrEqual(t, inlineRun, 4*maxDepth)
}

// Dispatch called from a goroutine not currently pumping the context always
// behaves like Post: it never runs inline on the caller's own goroutine.
func TestContextExecutorDispatchFromOutsideBehavesLikePost(t *testing.T) {
	ctx := newTestContext(t)
	exec := ctx.Executor()

	var ranInline bool
	exec.Dispatch(func() { ranInline = true })
	require.False(t, ranInline)

	n, err := ctx.RunOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, ranInline)
}
