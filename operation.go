// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Allocator is the associated allocator concept: every operation's scratch
// buffer is obtained from, and returned to, the allocator carried by the
// final handler. Composed operations must propagate the same Allocator to
// every intermediate primitive op they drive.
type Allocator interface {
	Get(size int) []byte
	Put(buf []byte)
}

// pooledAllocator is the default Allocator, backed by a sync.Pool bucketed
// by a single common scratch size; buffers smaller than requested are
// reallocated rather than grown, buffers larger are reused as-is.
type pooledAllocator struct {
	pool sync.Pool
}

func newPooledAllocator() *pooledAllocator {
	return &pooledAllocator{
		pool: sync.Pool{New: func() any { return make([]byte, 0, 4096) }},
	}
}

func (a *pooledAllocator) Get(size int) []byte {
	buf := a.pool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}

func (a *pooledAllocator) Put(buf []byte) {
	a.pool.Put(buf[:0]) //nolint:staticcheck // intentional cap reuse
}

// DefaultAllocator is the package-wide default Allocator used by I/O
// objects and composed operations that are not given one explicitly.
var DefaultAllocator Allocator = newPooledAllocator()

// readOp is the Operation driving a single non-blocking read(2) attempt.
type readOp struct {
	fd   int
	buf  []byte
	done func(n int, err error)
}

func (op *readOp) Attempt() AttemptResult {
	n, err := unix.Read(op.fd, op.buf)
	switch {
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		return AttemptResult{Status: AttemptInProgress}
	case err != nil:
		return AttemptResult{Status: AttemptDone, Err: NewOSError(err)}
	case n == 0:
		return AttemptResult{Status: AttemptDone, Err: ErrEOF}
	default:
		return AttemptResult{Status: AttemptDone, N: n}
	}
}

func (op *readOp) Complete(res AttemptResult) {
	op.done(res.N, res.Err)
}

// writeOp is the Operation driving a single non-blocking write(2) attempt.
type writeOp struct {
	fd   int
	buf  []byte
	done func(n int, err error)
}

func (op *writeOp) Attempt() AttemptResult {
	n, err := unix.Write(op.fd, op.buf)
	switch {
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		return AttemptResult{Status: AttemptInProgress}
	case err != nil:
		return AttemptResult{Status: AttemptDone, Err: NewOSError(err)}
	default:
		return AttemptResult{Status: AttemptDone, N: n}
	}
}

func (op *writeOp) Complete(res AttemptResult) {
	op.done(res.N, res.Err)
}

// connectOp completes when the descriptor becomes writable; the final
// SO_ERROR read determines success/failure, matching the standard
// non-blocking connect(2) protocol.
type connectOp struct {
	fd   int
	done func(err error)
}

func (op *connectOp) Attempt() AttemptResult {
	errno, err := unix.GetsockoptInt(op.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return AttemptResult{Status: AttemptDone, Err: NewOSError(err)}
	}
	if errno != 0 {
		return AttemptResult{Status: AttemptDone, Err: NewOSError(unix.Errno(errno))}
	}
	return AttemptResult{Status: AttemptDone}
}

func (op *connectOp) Complete(res AttemptResult) {
	op.done(res.Err)
}
