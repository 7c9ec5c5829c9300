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
	"golang.org/x/sys/unix"
)

// countingAllocator tracks every buffer it has handed out, so tests can
// assert a composed operation routes all of its scratch allocations through
// exactly the allocator associated with the final handler.
type countingAllocator struct {
	mu   sync.Mutex
	gets int
	puts int
}

func (a *countingAllocator) Get(size int) []byte {
	a.mu.Lock()
	a.gets++
	a.mu.Unlock()
	return make([]byte, size)
}

func (a *countingAllocator) Put(buf []byte) {
	a.mu.Lock()
	a.puts++
	a.mu.Unlock()
}

// S4: a read-until composed operation reassembles a delimiter split across
// two peer writes, handing back exactly the delimited prefix and leaving
// any trailing bytes for a subsequent read.
func TestAsyncReadUntilReassemblesSplitWrite(t *testing.T) {
	ctx := newTestContext(t)
	reader, writer := newSocketPair(t, ctx)

	alloc := &countingAllocator{}
	reader.SetAllocator(alloc)

	var gotData []byte
	var gotErr error
	AsyncReadUntil(reader, '\n', func(data []byte, err error) {
		gotData = append([]byte(nil), data...)
		gotErr = err
	})

	_, err := unix.Write(writer.NativeHandle(), []byte("hel"))
	require.NoError(t, err)

	n, err := ctx.RunOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Nil(t, gotData)

	_, err = unix.Write(writer.NativeHandle(), []byte("lo\nworld"))
	require.NoError(t, err)

	n, err = ctx.RunOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, gotErr)
	require.Equal(t, "hello\n", string(gotData))

	// P9: every scratch chunk AsyncReadUntil requested came from, and was
	// returned to, the socket's associated allocator.
	alloc.mu.Lock()
	require.Greater(t, alloc.gets, 0)
	require.Equal(t, alloc.gets, alloc.puts)
	alloc.mu.Unlock()

	// The trailing bytes past the delimiter were never consumed by
	// AsyncReadUntil; they remain observable to a subsequent read.
	var trailing []byte
	buf := make([]byte, 16)
	reader.AsyncReadSome(buf, func(n int, err error) {
		trailing = append([]byte(nil), buf[:n]...)
		require.NoError(t, err)
	})
	n, err = ctx.RunOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "world", string(trailing))
}

// AsyncWrite drives AsyncWriteSome until the whole buffer has been
// transferred, even when the underlying socket would only accept it in
// multiple non-blocking writes.
func TestAsyncWriteTransfersWholeBuffer(t *testing.T) {
	ctx := newTestContext(t)
	a, b := newSocketPair(t, ctx)

	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i)
	}

	var total int
	var sendErr error
	AsyncWrite(a, payload, func(n int, err error) {
		total = n
		sendErr = err
	})

	// Drain the peer concurrently so the writer's buffer never permanently
	// fills while AsyncWrite is still pumping.
	received := make([]byte, 0, len(payload))
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		buf := make([]byte, 4096)
		for len(received) < len(payload) {
			m, rerr := unix.Read(b.NativeHandle(), buf)
			if rerr == unix.EAGAIN {
				continue
			}
			if rerr != nil {
				return
			}
			received = append(received, buf[:m]...)
		}
	}()

	for total == 0 && sendErr == nil {
		n, err := ctx.RunOne(context.Background())
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}

	<-readDone
	require.NoError(t, sendErr)
	require.Equal(t, len(payload), total)
	require.Equal(t, payload, received)
}
