// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "sync/atomic"

// contextState is a value of the Context run-control state machine.
//
//	StateAwake   --Run()-->        StateRunning
//	StateRunning --stop point-->   StateSleeping   (blocked in reactor wait)
//	StateSleeping --readiness/wake--> StateRunning
//	StateRunning/StateSleeping --Stop()--> StateStopped
//	StateStopped --Restart()--> StateAwake
//
// Terminal teardown (the context object itself being discarded) has no
// dedicated state; StateStopped with no references is simply garbage.
type contextState uint32

const (
	// stateAwake indicates the context has been created, or restarted, but
	// has no thread currently inside run*.
	stateAwake contextState = iota
	// stateRunning indicates a thread is actively draining tasks/timers.
	stateRunning
	// stateSleeping indicates a thread is blocked inside the reactor wait.
	stateSleeping
	// stateStopped indicates Stop() has taken effect; run* returns 0 until
	// Restart() clears this.
	stateStopped
)

func (s contextState) String() string {
	switch s {
	case stateAwake:
		return "awake"
	case stateRunning:
		return "running"
	case stateSleeping:
		return "sleeping"
	case stateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// runState is a lock-free, cache-line-padded state holder for the Context.
type runState struct {
	_ [64]byte
	v atomic.Uint32
	_ [60]byte
}

func newRunState() *runState {
	s := &runState{}
	s.v.Store(uint32(stateAwake))
	return s
}

func (s *runState) Load() contextState { return contextState(s.v.Load()) }

func (s *runState) Store(v contextState) { s.v.Store(uint32(v)) }

// TryTransition performs a CAS from `from` to `to`, returning whether it
// succeeded. Used for the temporary Running/Sleeping states.
func (s *runState) TryTransition(from, to contextState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
