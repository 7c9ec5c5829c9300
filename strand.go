// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "sync"

// strandState is the shared state backing a Strand handle. Strand values
// are shallow copyable handles over this pointer, so copying a Strand never
// duplicates its queue or lock.
type strandState struct {
	ctx *Context

	mu      sync.Mutex
	queue   []Handler
	locked  bool
	running uint64 // goroutine id currently draining this strand, 0 if none

	batchSize int
}

// Strand is a serial sub-executor: handlers posted through the same Strand
// never run concurrently with each other and always run in submission
// order, regardless of how many threads are pumping the parent Context.
type Strand struct {
	state *strandState
}

// NewStrand creates a Strand layered over parent, draining at most
// parent's configured batch size worth of handlers per trampoline turn.
func NewStrand(parent *Context) *Strand {
	return &Strand{state: &strandState{ctx: parent, batchSize: parent.strandBatchSize}}
}

func (s *Strand) Dispatch(h Handler) {
	gid := currentGoroutineID()
	s.state.mu.Lock()
	insideStrand := s.state.locked && s.state.running == gid
	s.state.mu.Unlock()
	if insideStrand {
		h()
		return
	}
	s.Post(h)
}

func (s *Strand) Post(h Handler) {
	st := s.state
	st.mu.Lock()
	st.queue = append(st.queue, h)
	needTrampoline := !st.locked
	if needTrampoline {
		st.locked = true
	}
	st.mu.Unlock()

	if needTrampoline {
		st.ctx.Executor().Post(func() { st.drain() })
	}
}

// Defer behaves like Post: the strand's own FIFO already preserves
// submission order within a single trampoline turn.
func (s *Strand) Defer(h Handler) { s.Post(h) }

func (s *Strand) OnWorkStarted() { s.state.ctx.addWork(1) }

func (s *Strand) OnWorkFinished() { s.state.ctx.addWork(-1) }

// drain runs as a trampoline task on the parent Context: it marks this
// goroutine as the one currently holding the strand, pops and runs queued
// handlers up to batchSize, then either unlocks (queue empty) or
// re-submits itself to the parent so other context work gets a turn.
func (st *strandState) drain() {
	gid := currentGoroutineID()
	st.mu.Lock()
	st.running = gid
	st.mu.Unlock()

	ran := 0
	for ran < st.batchSize {
		st.mu.Lock()
		if len(st.queue) == 0 {
			st.locked = false
			st.running = 0
			st.mu.Unlock()
			return
		}
		h := st.queue[0]
		st.queue = st.queue[1:]
		st.mu.Unlock()

		h()
		ran++
	}

	st.mu.Lock()
	st.running = 0
	stillHasWork := len(st.queue) > 0
	if !stillHasWork {
		st.locked = false
	}
	st.mu.Unlock()
	if stillHasWork {
		st.ctx.Executor().Post(func() { st.drain() })
	}
}

var _ Executor = (*Strand)(nil)
