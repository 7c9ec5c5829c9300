// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "github.com/joeycumines/logiface"

const (
	defaultMaxInlineDepth  = 32
	defaultStrandBatchSize = 64
)

// contextOptions holds configuration options for Context creation.
type contextOptions struct {
	logger          *Logger
	maxInlineDepth  int
	strandBatchSize int
	taskBatch       int
	backend         reactorBackend
	clock           clock
}

// ContextOption configures a Context instance.
type ContextOption interface {
	applyContext(*contextOptions)
}

// contextOptionFunc implements ContextOption.
type contextOptionFunc struct {
	fn func(*contextOptions)
}

func (o *contextOptionFunc) applyContext(opts *contextOptions) { o.fn(opts) }

// WithLogger attaches a structured logger used by the timer queue when a
// timer is scheduled (Debug) and by the Context when a reactor wait fails
// (Err). The Reactor and Strand do not log. Without this option the Context
// runs silent.
func WithLogger(log *Logger) ContextOption {
	return &contextOptionFunc{func(opts *contextOptions) {
		opts.logger = log
	}}
}

// WithMaxInlineDepth bounds how many nested Dispatch calls an Executor will
// run inline before degrading to Post, preventing unbounded stack growth
// from recursive composed operations.
func WithMaxInlineDepth(depth int) ContextOption {
	return &contextOptionFunc{func(opts *contextOptions) {
		if depth > 0 {
			opts.maxInlineDepth = depth
		}
	}}
}

// WithStrandBatchSize bounds how many queued invocables a Strand's
// trampoline runs before yielding back to the pumping thread, so one
// flooded strand can't starve the rest of the Context.
func WithStrandBatchSize(n int) ContextOption {
	return &contextOptionFunc{func(opts *contextOptions) {
		if n > 0 {
			opts.strandBatchSize = n
		}
	}}
}

// WithReactorBackend forces a specific reactorBackend instead of the
// platform default, primarily so portability (poll(2) fallback) can be
// exercised on platforms that also have a native epoll/kqueue backend.
func WithReactorBackend(backend reactorBackend) ContextOption {
	return &contextOptionFunc{func(opts *contextOptions) {
		opts.backend = backend
	}}
}

// WithTaskBatch bounds how many ready tasks a single pump iteration drains
// from the queue before yielding (to the reactor wait, or back to the
// caller for Poll/PollOne), so one flooded queue can't starve timer
// expiry/reactor readiness checks indefinitely.
func WithTaskBatch(n int) ContextOption {
	return &contextOptionFunc{func(opts *contextOptions) {
		if n > 0 {
			opts.taskBatch = n
		}
	}}
}

// WithClock overrides the Context's time source, used by tests to inject a
// fake clock without touching the real one. Any value implementing
// Now() time.Time satisfies this; realClock is the only implementation this
// package itself provides.
func WithClock(c clock) ContextOption {
	return &contextOptionFunc{func(opts *contextOptions) {
		if c != nil {
			opts.clock = c
		}
	}}
}

// resolveContextOptions applies ContextOption instances over the defaults.
func resolveContextOptions(opts []ContextOption) *contextOptions {
	cfg := &contextOptions{
		maxInlineDepth:  defaultMaxInlineDepth,
		strandBatchSize: defaultStrandBatchSize,
		taskBatch:       defaultTaskBatch,
		clock:           realClock{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyContext(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = NewDefaultLogger(logiface.LevelDisabled)
	}
	return cfg
}
