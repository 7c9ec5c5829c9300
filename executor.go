// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "sync"

// Handler is the type-erased invocable every completion ultimately becomes
// before reaching an Executor. Typed callbacks (func(error) for timers and
// connect, func(n int, err error) with the byte count first for byte-moving
// operations) are adapted to Handler at the point they're handed to
// Dispatch, Post or Defer.
type Handler func()

// Executor is a value-semantic handle to something that can run Handlers:
// a Context (the default associated executor for any I/O object) or a
// Strand layered over one. Dispatch/Post/Defer differ only in *when* the
// handler runs; OnWorkStarted/OnWorkFinished bracket outstanding work so
// Run knows when it may return.
type Executor interface {
	// Dispatch runs h immediately if the calling goroutine is already
	// executing inside this executor (the pumping goroutine for a Context,
	// or the goroutine currently draining a Strand); otherwise it behaves
	// like Post.
	Dispatch(h Handler)
	// Post always enqueues h to the executor's task queue; it never runs
	// inline, regardless of caller.
	Post(h Handler)
	// Defer behaves like Post, but hints that h continues a chain on the
	// same goroutine if the implementation can arrange it cheaply.
	Defer(h Handler)
	// OnWorkStarted records one more outstanding reason to keep running.
	OnWorkStarted()
	// OnWorkFinished releases one reason recorded by OnWorkStarted.
	OnWorkFinished()
}

// contextExecutor is the Executor backed directly by a Context's task
// queue. It is the default associated executor for any I/O object or Timer
// constructed against that Context.
type contextExecutor struct {
	ctx *Context

	depthMu sync.Mutex
	depth   map[uint64]int
}

// Executor returns the Context's own Executor, i.e. the default associated
// executor new I/O objects and timers pick up unless reassigned to a
// Strand.
func (c *Context) Executor() Executor {
	return &contextExecutor{ctx: c, depth: make(map[uint64]int)}
}

func (e *contextExecutor) Dispatch(h Handler) {
	gid := currentGoroutineID()
	e.ctx.pumpingMu.Lock()
	_, onPumpingThread := e.ctx.pumping[gid]
	e.ctx.pumpingMu.Unlock()
	if !onPumpingThread {
		e.Post(h)
		return
	}

	e.depthMu.Lock()
	d := e.depth[gid]
	if d >= e.ctx.maxInlineDepth {
		e.depthMu.Unlock()
		e.Post(h)
		return
	}
	e.depth[gid] = d + 1
	e.depthMu.Unlock()

	defer func() {
		e.depthMu.Lock()
		e.depth[gid]--
		if e.depth[gid] <= 0 {
			delete(e.depth, gid)
		}
		e.depthMu.Unlock()
	}()
	h()
}

func (e *contextExecutor) Post(h Handler) {
	e.ctx.tasks.Push(func() { h() })
	e.ctx.wake.Interrupt()
}

// Defer behaves like Post for the Context executor: the task queue is
// already FIFO-drained in one batch per pump iteration, so a deferred task
// naturally continues on the same pumping thread once queued.
func (e *contextExecutor) Defer(h Handler) { e.Post(h) }

func (e *contextExecutor) OnWorkStarted() { e.ctx.addWork(1) }

func (e *contextExecutor) OnWorkFinished() { e.ctx.addWork(-1) }
