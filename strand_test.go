// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// P2 (scaled-down S5): handlers posted through the same strand from many
// concurrently pumping threads execute in strict submission order, with no
// external locking around the shared accumulator.
func TestStrandPreservesSubmissionOrder(t *testing.T) {
	ctx := newTestContext(t)
	strand := NewStrand(ctx)

	const n = 2000
	var order []int
	done := make(chan struct{})

	for i := 0; i < n; i++ {
		i := i
		strand.Post(func() { order = append(order, i) })
	}
	strand.Post(func() { close(done) })

	const threads = 4
	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		go func() {
			defer wg.Done()
			_, _ = ctx.Run(context.Background())
		}()
	}

	<-done
	ctx.Stop()
	wg.Wait()

	require.Len(t, order, n)
	for i, v := range order {
		require.Equal(t, i, v)
	}
}

// Dispatch runs inline when already on the goroutine currently draining
// the strand, and via Post otherwise.
func TestStrandDispatchInlineWhenHeld(t *testing.T) {
	ctx := newTestContext(t)
	strand := NewStrand(ctx)

	var ranInline bool
	strand.Post(func() {
		strand.Dispatch(func() { ranInline = true })
	})

	n, err := ctx.Run(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 1)
	require.True(t, ranInline)
}

// A Strand value is a shallow handle: copies observe the same serialization
// guarantee over the same underlying queue.
func TestStrandIsAShallowCopyableHandle(t *testing.T) {
	ctx := newTestContext(t)
	original := NewStrand(ctx)
	handle := *original

	var order []int
	original.Post(func() { order = append(order, 1) })
	handle.Post(func() { order = append(order, 2) })

	_, err := ctx.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, order)
}
