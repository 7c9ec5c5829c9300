// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ioObject is the base every concrete async I/O object (StreamSocket,
// listeners, pipes) embeds. It couples the object to its Context and, via
// the Reactor, to its per-descriptor operation queues. Construction
// registers the descriptor; Close cancels every pending operation and
// deregisters it. Copying an ioObject is prohibited by convention —
// concrete types embed it by pointer, never by value, and expose no way to
// duplicate one with an outstanding operation.
type ioObject struct {
	ctx      *Context
	fd       int
	executor Executor
	closed   atomic.Bool
	regID    uint64
}

// newIOObject registers fd with ctx's Reactor and returns the base
// embeddable by a concrete I/O object type.
func newIOObject(ctx *Context, fd int) (*ioObject, error) {
	if err := ctx.Reactor.RegisterDescriptor(fd); err != nil {
		return nil, err
	}
	o := &ioObject{ctx: ctx, fd: fd, executor: ctx.Executor()}
	o.regID = ctx.registry.register(o)
	return o, nil
}

// Context returns the Context this object is bound to.
func (o *ioObject) Context() *Context { return o.ctx }

// NativeHandle returns the underlying OS descriptor. The caller must not
// close it directly; use Close so the reactor's bookkeeping stays
// consistent.
func (o *ioObject) NativeHandle() int { return o.fd }

// SetExecutor reassigns the object's associated executor (e.g. to a
// Strand), affecting every AsyncXxx call made afterward.
func (o *ioObject) SetExecutor(e Executor) { o.executor = e }

// Cancel cancels every operation currently pending on this object's
// descriptor, invoking each handler with ErrAborted through the object's
// associated executor. It does not close the descriptor.
func (o *ioObject) Cancel() {
	o.ctx.Reactor.CancelOps(o.fd)
}

// Close cancels all pending operations, deregisters the descriptor from
// the reactor, and closes the underlying OS handle. Idempotent: calling it
// more than once after the first is a no-op.
func (o *ioObject) Close() error {
	if !o.closed.CompareAndSwap(false, true) {
		return nil
	}
	o.ctx.registry.unregister(o.regID)
	o.ctx.Reactor.DeregisterDescriptor(o.fd)
	return unix.Close(o.fd)
}
