// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "sync/atomic"

// wakeup is the cross-goroutine wake-up primitive: level-triggered from the
// reactor's point of view, edge-coalescing in practice. Interrupt() from any
// thread guarantees that the next (or an in-progress) reactor wait returns
// promptly; multiple interrupts observed while the pumping thread is not
// waiting collapse into a single readiness event.
type wakeup struct {
	readFD, writeFD int
	pending         atomic.Bool
}

// newWakeup creates the OS-level signaling object and returns it unarmed.
func newWakeup() (*wakeup, error) {
	r, w, err := createWakeFD()
	if err != nil {
		return nil, err
	}
	return &wakeup{readFD: r, writeFD: w}, nil
}

// Interrupt signals the wakeup. Safe to call from any goroutine, including
// concurrently with itself; excess interrupts before the pumping thread
// drains are harmless — they just collapse into the single pending flag.
func (w *wakeup) Interrupt() {
	if w.pending.CompareAndSwap(false, true) {
		_ = writeWakeFD(w.writeFD)
	}
}

// Drain must be called by the pumping thread after the reactor wait
// returns, before it re-arms, so the signal doesn't immediately re-fire.
func (w *wakeup) Drain() {
	drainWakeFD(w.readFD)
	w.pending.Store(false)
}

// Close releases the underlying OS resources.
func (w *wakeup) Close() error {
	return closeWakeFD(w.readFD, w.writeFD)
}
