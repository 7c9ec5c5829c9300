// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "golang.org/x/sys/unix"

// StreamSocket is a concrete I/O object over a connected (or connecting)
// stream socket descriptor, exercising the base ioObject plus the
// primitive async operations composed.go builds read/write/read-until on
// top of.
type StreamSocket struct {
	*ioObject
	allocator Allocator

	// pending holds bytes already read off the wire by a composed operation
	// (AsyncReadUntil) past the data it actually consumed. AsyncReadSome
	// drains this before ever touching the descriptor again, so composed
	// operations never silently discard over-read bytes.
	pending []byte
}

// NewStreamSocket wraps an already-open stream socket descriptor fd,
// registering it with ctx's Reactor. The caller must have already put fd
// in non-blocking mode (e.g. via unix.SetNonblock).
func NewStreamSocket(ctx *Context, fd int) (*StreamSocket, error) {
	base, err := newIOObject(ctx, fd)
	if err != nil {
		return nil, err
	}
	return &StreamSocket{ioObject: base, allocator: DefaultAllocator}, nil
}

// Assign rebinds a closed StreamSocket to a new descriptor, registering it
// with the reactor. Fails if the socket currently holds an open descriptor.
func (s *StreamSocket) Assign(fd int) error {
	if !s.closed.Load() {
		return ErrFDAlreadyRegistered
	}
	if err := s.ctx.Reactor.RegisterDescriptor(fd); err != nil {
		return err
	}
	s.fd = fd
	s.regID = s.ctx.registry.register(s.ioObject)
	s.closed.Store(false)
	s.pending = nil
	return nil
}

// SetAllocator overrides the Allocator used for this socket's composed
// operations (AsyncRead, AsyncReadUntil, ...). Defaults to DefaultAllocator.
func (s *StreamSocket) SetAllocator(a Allocator) { s.allocator = a }

// AsyncReadSome starts a single non-blocking read of up to len(buf) bytes,
// invoking fn(n, err) through the socket's associated executor exactly
// once. A zero-byte, nil-error result never occurs: an orderly close
// reports ErrEOF. Bytes a composed operation (AsyncReadUntil) previously
// read past its delimiter are served from that buffer first, without
// touching the descriptor.
func (s *StreamSocket) AsyncReadSome(buf []byte, fn func(n int, err error)) {
	if len(s.pending) > 0 {
		n := copy(buf, s.pending)
		s.pending = s.pending[n:]
		guard := NewWorkGuard(s.executor)
		s.executor.Dispatch(func() {
			defer guard.Release()
			fn(n, nil)
		})
		return
	}

	guard := NewWorkGuard(s.executor)
	op := &readOp{
		fd:  s.fd,
		buf: buf,
		done: func(n int, err error) {
			defer guard.Release()
			s.executor.Dispatch(func() { fn(n, err) })
		},
	}
	if err := s.ctx.Reactor.StartOp(s.fd, dirRead, op); err != nil {
		guard.Release()
		s.executor.Dispatch(func() { fn(0, err) })
	}
}

// AsyncWriteSome starts a single non-blocking write of up to len(buf)
// bytes, invoking fn(n, err) through the socket's associated executor
// exactly once.
func (s *StreamSocket) AsyncWriteSome(buf []byte, fn func(n int, err error)) {
	guard := NewWorkGuard(s.executor)
	op := &writeOp{
		fd:  s.fd,
		buf: buf,
		done: func(n int, err error) {
			defer guard.Release()
			s.executor.Dispatch(func() { fn(n, err) })
		},
	}
	if err := s.ctx.Reactor.StartOp(s.fd, dirWrite, op); err != nil {
		guard.Release()
		s.executor.Dispatch(func() { fn(0, err) })
	}
}

// AsyncConnect waits for a non-blocking connect(2) already in progress on
// the socket's descriptor, invoking fn(err) through the socket's associated
// executor once the descriptor is writable, with the result read from
// SO_ERROR. It does not issue connect(2) itself: the caller makes the
// initial non-blocking connect call and uses AsyncConnect when that call
// reports EINPROGRESS.
func (s *StreamSocket) AsyncConnect(fn func(err error)) {
	guard := NewWorkGuard(s.executor)
	op := &connectOp{
		fd: s.fd,
		done: func(err error) {
			defer guard.Release()
			s.executor.Dispatch(func() { fn(err) })
		},
	}
	if err := s.ctx.Reactor.StartOp(s.fd, dirWrite, op); err != nil {
		guard.Release()
		s.executor.Dispatch(func() { fn(err) })
	}
}

// SetNonblock is a convenience wrapper for preparing a raw descriptor
// before handing it to NewStreamSocket or Assign.
func SetNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}
