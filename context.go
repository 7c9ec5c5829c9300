// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

const defaultTaskBatch = 256

// Context owns the reactor, timer queue, task queue and wake-up primitive
// for a single pumping domain. Applications construct one, register I/O
// objects and timers against it, then call Run (or one of its variants) on
// one or more goroutines to drive completions.
type Context struct {
	state *runState
	tasks *taskQueue

	Reactor  *Reactor
	timers   *timerQueue
	wake     *wakeup
	clock    clock
	registry *registry

	workCount atomic.Int64

	pumpingMu sync.Mutex
	pumping   map[uint64]struct{}

	maxInlineDepth  int
	strandBatchSize int
	taskBatch       int

	log     *Logger
	clog    *componentLogger
	backend reactorBackend

	closeOnce sync.Once
}

// NewContext constructs a Context and its owned Reactor, timer queue and
// wake-up primitive, ready to be driven by Run/RunOne/Poll/PollOne.
func NewContext(opts ...ContextOption) (*Context, error) {
	cfg := resolveContextOptions(opts)

	c := &Context{
		state:           newRunState(),
		tasks:           newTaskQueue(),
		clock:           cfg.clock,
		pumping:         make(map[uint64]struct{}),
		maxInlineDepth:  cfg.maxInlineDepth,
		strandBatchSize: cfg.strandBatchSize,
		taskBatch:       cfg.taskBatch,
		log:             cfg.logger,
		backend:         cfg.backend,
		registry:        newRegistry(),
	}
	c.clog = newComponentLogger(c.log, "context")

	wake, err := newWakeup()
	if err != nil {
		return nil, err
	}
	c.wake = wake

	reactor, err := NewReactor(c.enqueueReady, c.backend, newComponentLogger(c.log, "reactor"))
	if err != nil {
		_ = wake.Close()
		return nil, err
	}
	if err := reactor.WatchWake(wake.readFD); err != nil {
		_ = reactor.Close()
		_ = wake.Close()
		return nil, err
	}
	c.Reactor = reactor
	c.timers = newTimerQueue(c.enqueueReady, wake, c.addWork, newComponentLogger(c.log, "timer"))

	return c, nil
}

// enqueueReady pushes task onto the ready queue and interrupts the wake
// primitive so a blocked reactor wait returns to drain it.
func (c *Context) enqueueReady(task func()) {
	c.tasks.Push(task)
	c.workDone() // op/timer completion transfers; their work is counted by the submitter (a WorkGuard for I/O ops, addWork for timers)
	c.wake.Interrupt()
}

// workDone is a placeholder hook kept distinct from the public work-count
// API; enqueueing a completion does not itself alter the work count. I/O
// operations hold a WorkGuard until their completion runs, and the timer
// queue adjusts the count through addWork when a timer is scheduled and
// when its fire or cancel task runs.
func (c *Context) workDone() {}

// addWork adjusts the work count and interrupts the wake-up primitive so a
// thread blocked in the reactor wait re-evaluates whether work remains
// (relevant when the count has just dropped to zero).
func (c *Context) addWork(delta int64) {
	c.workCount.Add(delta)
	c.wake.Interrupt()
}

func (c *Context) workRemaining() bool { return c.workCount.Load() > 0 }

// Stop sets the stopped flag and interrupts the wake primitive; every
// Run/RunOne/Poll/PollOne on every thread returns as soon as it reaches the
// next pump point.
func (c *Context) Stop() {
	for {
		cur := c.state.Load()
		if cur == stateStopped {
			return
		}
		if c.state.TryTransition(cur, stateStopped) {
			c.wake.Interrupt()
			return
		}
	}
}

// Restart clears the stopped flag so Run may be called again. It must not
// be called while any thread is inside Run/RunOne/Poll/PollOne.
func (c *Context) Restart() error {
	c.pumpingMu.Lock()
	n := len(c.pumping)
	c.pumpingMu.Unlock()
	if n > 0 {
		return ErrRestartWhileRunning
	}
	if c.state.Load() != stateStopped {
		return nil
	}
	c.state.Store(stateAwake)
	return nil
}

// enterPump registers the calling goroutine as pumping this Context,
// failing with ErrReentrantRun if it already is (directly, or via a nested
// Run/RunOne/Poll/PollOne call from inside a handler).
func (c *Context) enterPump() (func(), error) {
	gid := currentGoroutineID()
	c.pumpingMu.Lock()
	if _, reentrant := c.pumping[gid]; reentrant {
		c.pumpingMu.Unlock()
		return nil, ErrReentrantRun
	}
	c.pumping[gid] = struct{}{}
	c.pumpingMu.Unlock()
	return func() {
		c.pumpingMu.Lock()
		delete(c.pumping, gid)
		c.pumpingMu.Unlock()
	}, nil
}

// Run pumps handlers until the work count reaches zero or Stop is called,
// or until stdctx is done. Returns the number of handlers invoked on the
// calling goroutine.
func (c *Context) Run(stdctx context.Context) (int, error) {
	return c.pump(stdctx, true, false)
}

// RunOne pumps exactly one handler, blocking as needed; returns 1, or 0 if
// no work remained (or the context stopped / stdctx finished first).
func (c *Context) RunOne(stdctx context.Context) (int, error) {
	return c.pump(stdctx, true, true)
}

// Poll performs only already-ready work without blocking in the reactor
// wait, returning the number of handlers invoked.
func (c *Context) Poll() (int, error) {
	return c.pump(context.Background(), false, false)
}

// PollOne performs at most one already-ready handler without blocking.
func (c *Context) PollOne() (int, error) {
	return c.pump(context.Background(), false, true)
}

func (c *Context) pump(stdctx context.Context, blocking, once bool) (int, error) {
	leave, err := c.enterPump()
	if err != nil {
		return 0, err
	}
	defer leave()

	var stop chan struct{}
	if blocking && stdctx.Done() != nil {
		stop = make(chan struct{})
		go func() {
			select {
			case <-stdctx.Done():
				c.wake.Interrupt()
			case <-stop:
			}
		}()
		defer close(stop)
	}

	limit := c.taskBatch
	if once {
		limit = 1
	}

	total := 0
	for {
		if c.state.Load() == stateStopped {
			return total, nil
		}
		select {
		case <-stdctx.Done():
			return total, stdctx.Err()
		default:
		}
		if blocking && !c.workRemaining() && c.tasks.Empty() {
			return total, nil
		}

		n, _ := c.tick(blocking, limit)
		total += n
		if once && n > 0 {
			return total, nil
		}
		if !blocking {
			return total, nil
		}
	}
}

// tick runs a single pump iteration: run up to limit ready tasks; if none
// were ready, wait in the reactor bounded by the next timer deadline (a
// zero bound when not blocking), expire due timers, then run up to limit of
// the tasks now ready. Returns the number of handlers invoked and whether
// any handler ran or any timer expired this iteration.
func (c *Context) tick(blocking bool, limit int) (int, bool) {
	batch := c.tasks.PopBatch(limit)
	if len(batch) > 0 {
		for _, task := range batch {
			task()
		}
		return len(batch), true
	}

	now := c.clock.Now()
	bound := c.timers.waitBound(now)
	if !blocking {
		bound = 0
	}

	c.markSleeping()
	_, err := c.Reactor.RunOnce(bound)
	c.markAwake()
	if err != nil {
		logErr(c.clog, "reactor wait failed", err)
	}
	c.wake.Drain()

	expired := c.timers.expireDue(c.clock.Now())

	batch = c.tasks.PopBatch(limit)
	if len(batch) > 0 {
		for _, task := range batch {
			task()
		}
		return len(batch), true
	}
	return 0, expired > 0
}

// markSleeping and markAwake update the diagnostic run-state for whichever
// thread is about to block in (or has returned from) the reactor wait. With
// multiple threads pumping the same Context the state reflects only the
// most recent transition, so it is advisory rather than authoritative;
// Restart detects threads inside run* through the pumping set, not this
// value, and Stop only checks for stateStopped.
func (c *Context) markSleeping() {
	for {
		cur := c.state.Load()
		if cur == stateStopped {
			return
		}
		if c.state.TryTransition(cur, stateSleeping) {
			return
		}
	}
}

func (c *Context) markAwake() {
	for {
		cur := c.state.Load()
		if cur == stateStopped {
			return
		}
		if c.state.TryTransition(cur, stateRunning) {
			return
		}
	}
}

// Close cancels every still-live I/O object registered against this
// Context (so their handlers are invoked with ErrAborted rather than never
// at all), cancels every pending timer, drains every resulting completion
// so each handler has actually run before Close returns, and tears down the
// reactor and wake-up primitive. The Context must not be pumping.
func (c *Context) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.registry.cancelAll()
		c.timers.cancelAll()
		c.drainReady()
		err = c.Reactor.Close()
		_ = c.wake.Close()
	})
	return err
}

// drainReady runs every task currently queued, including any a handler
// itself enqueues (e.g. Dispatch degrading to Post because the closing
// goroutine is not registered as pumping), until none remain. Used by Close
// so teardown never returns with an aborted completion still unrun.
func (c *Context) drainReady() {
	for {
		batch := c.tasks.PopBatch(c.taskBatch)
		if len(batch) == 0 {
			return
		}
		for _, task := range batch {
			task()
		}
	}
}

// currentGoroutineID extracts the calling goroutine's numeric id by parsing
// its runtime.Stack header, the same technique used by Go runtimes that
// need goroutine-affinity checks without cgo or linkname tricks.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
