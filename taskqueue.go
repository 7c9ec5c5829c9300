// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "sync"

// chunkSize is the number of tasks per node in the chunked linked-list used
// by taskQueue. Chunking amortizes allocation and gives better cache
// locality than a task-per-node list.
const chunkSize = 128

// chunkPool recycles exhausted chunks to avoid GC churn under sustained
// submission throughput.
var chunkPool = sync.Pool{New: func() any { return &taskChunk{} }}

type taskChunk struct {
	tasks   [chunkSize]func()
	next    *taskChunk
	readPos int
	pos     int
}

func newTaskChunk() *taskChunk {
	c := chunkPool.Get().(*taskChunk)
	c.pos, c.readPos, c.next = 0, 0, nil
	return c
}

func returnTaskChunk(c *taskChunk) {
	for i := 0; i < c.pos; i++ {
		c.tasks[i] = nil
	}
	c.pos, c.readPos, c.next = 0, 0, nil
	chunkPool.Put(c)
}

// taskQueue is the MPSC ready-task queue: a FIFO of type-erased invocables
// fed by any number of producer goroutines and drained by whichever
// goroutine is currently pumping the Context. It locks internally, since its
// producers span the reactor, the timer queue, strands and arbitrary
// application goroutines calling Post/Dispatch.
type taskQueue struct {
	mu         sync.Mutex
	head, tail *taskChunk
	length     int
}

func newTaskQueue() *taskQueue { return &taskQueue{} }

// Push appends task to the tail of the queue.
func (q *taskQueue) Push(task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tail == nil {
		q.tail = newTaskChunk()
		q.head = q.tail
	}
	if q.tail.pos == chunkSize {
		next := newTaskChunk()
		q.tail.next = next
		q.tail = next
	}
	q.tail.tasks[q.tail.pos] = task
	q.tail.pos++
	q.length++
}

// pop removes and returns the head task, or (nil, false) if empty. CALLER
// MUST HOLD q.mu.
func (q *taskQueue) pop() (func(), bool) {
	if q.head == nil || q.head.readPos >= q.head.pos {
		if q.head != nil && q.head == q.tail {
			q.head.pos, q.head.readPos = 0, 0
		}
		return nil, false
	}
	task := q.head.tasks[q.head.readPos]
	q.head.tasks[q.head.readPos] = nil
	q.head.readPos++
	q.length--
	if q.head.readPos >= q.head.pos && q.head != q.tail {
		old := q.head
		q.head = q.head.next
		returnTaskChunk(old)
	}
	return task, true
}

// PopBatch removes up to max tasks and returns them as a freshly allocated
// slice (nil if none were ready).
func (q *taskQueue) PopBatch(max int) []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	var dst []func()
	for len(dst) < max {
		t, ok := q.pop()
		if !ok {
			break
		}
		dst = append(dst, t)
	}
	return dst
}

// Len returns the queue length.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}

// Empty reports whether the queue currently holds no tasks.
func (q *taskQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length == 0
}
