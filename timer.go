// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"container/heap"
	"sync"
	"time"
)

// timerOp is the Operation-like record a timer queue schedules. Unlike
// reactor operations it carries no syscall attempt: expiry is purely a
// function of deadline vs. now, so expireDue hands fire straight to the
// task queue.
type timerOp struct {
	deadline time.Time
	seq      uint64 // submission order, breaks deadline ties
	index    int    // heap.Interface bookkeeping
	canceled bool
	fire     func(res AttemptResult)
}

type timerHeap []*timerOp

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	op := x.(*timerOp)
	op.index = len(*h)
	*h = append(*h, op)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	op := old[n-1]
	old[n-1] = nil
	op.index = -1
	*h = old[:n-1]
	return op
}

// timerQueue is the deadline-ordered set of pending timer operations. The
// minimum deadline is always at the heap root; Reactor wait bounds are
// derived from nextDeadline.
type timerQueue struct {
	mu      sync.Mutex
	h       timerHeap
	nextSeq uint64
	enqueue func(task func())
	wake    *wakeup
	addWork func(int64)
	log     *componentLogger
}

func newTimerQueue(enqueue func(task func()), wake *wakeup, addWork func(int64), log *componentLogger) *timerQueue {
	return &timerQueue{enqueue: enqueue, wake: wake, addWork: addWork, log: log}
}

// schedule inserts op, counts it as a reason to keep running, and, if it
// becomes the new minimum deadline, interrupts the wake-up primitive so a
// blocked reactor wait recomputes its bound.
func (q *timerQueue) schedule(deadline time.Time, fire func(res AttemptResult)) *timerOp {
	q.mu.Lock()
	op := &timerOp{deadline: deadline, seq: q.nextSeq, fire: fire}
	q.nextSeq++
	heap.Push(&q.h, op)
	isMin := q.h[0] == op
	q.mu.Unlock()

	q.addWork(1)
	if isMin {
		q.wake.Interrupt()
	}
	logDebug(q.log, "timer scheduled")
	return op
}

// cancel removes op if still pending. Returns whether it was found and
// removed; a timer already fired or already canceled is a no-op, matching
// the idempotent cancellation contract shared with the reactor.
func (q *timerQueue) cancel(op *timerOp) bool {
	q.mu.Lock()
	if op.index < 0 || op.canceled {
		q.mu.Unlock()
		return false
	}
	op.canceled = true
	heap.Remove(&q.h, op.index)
	q.mu.Unlock()

	q.enqueue(func() {
		op.fire(AttemptResult{Status: AttemptDone, Err: ErrAborted})
		q.addWork(-1)
	})
	return true
}

// expireDue pops every node with deadline <= now, transfers each to the
// task queue with a success result, and returns the count popped.
func (q *timerQueue) expireDue(now time.Time) int {
	var due []*timerOp
	q.mu.Lock()
	for len(q.h) > 0 && !q.h[0].deadline.After(now) {
		op := heap.Pop(&q.h).(*timerOp)
		op.canceled = true
		due = append(due, op)
	}
	q.mu.Unlock()

	for _, op := range due {
		fire := op.fire
		q.enqueue(func() {
			fire(AttemptResult{Status: AttemptDone})
			q.addWork(-1)
		})
	}
	return len(due)
}

// nextDeadline returns the minimum pending deadline and true, or the zero
// time and false if the queue is empty.
func (q *timerQueue) nextDeadline() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return time.Time{}, false
	}
	return q.h[0].deadline, true
}

// waitBound computes the reactor wait bound given the current time: the
// time until the next deadline, clamped to zero, or -1 (wait forever) if no
// timer is pending.
func (q *timerQueue) waitBound(now time.Time) time.Duration {
	d, ok := q.nextDeadline()
	if !ok {
		return -1
	}
	return saturatingSub(d, now)
}

// cancelAll cancels every pending timer, used during context teardown.
func (q *timerQueue) cancelAll() {
	q.mu.Lock()
	all := make([]*timerOp, len(q.h))
	copy(all, q.h)
	for _, op := range all {
		op.canceled = true
	}
	q.h = q.h[:0]
	q.mu.Unlock()

	for _, op := range all {
		fire := op.fire
		q.enqueue(func() {
			fire(AttemptResult{Status: AttemptDone, Err: ErrAborted})
			q.addWork(-1)
		})
	}
}

// len reports the number of pending timers, for tests and diagnostics.
func (q *timerQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}
