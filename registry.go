// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"sync"
	"weak"

	"golang.org/x/exp/slices"
)

// registry tracks live I/O objects via weak pointers, so a Context can
// cancel every outstanding operation at teardown without itself keeping
// objects the application has already dropped alive. Registered ids are
// also kept in a ring that scavenge walks in batches, dropping entries for
// GC'd or explicitly closed objects. Nothing in this package calls
// scavenge, so entries for collected objects stay in the map and every
// registered id stays in the ring.
type registry struct {
	mu   sync.RWMutex
	data map[uint64]weak.Pointer[ioObject]
	ring []uint64
	head int

	nextID uint64

	scavengeMu sync.Mutex
}

func newRegistry() *registry {
	return &registry{
		data:   make(map[uint64]weak.Pointer[ioObject]),
		ring:   make([]uint64, 0, 256),
		nextID: 1,
	}
}

// register records o and returns its registry id, used later to
// unregister it on Close.
func (r *registry) register(o *ioObject) uint64 {
	wp := weak.Make(o)

	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.data[id] = wp
	r.ring = append(r.ring, id)
	return id
}

// unregister drops o's entry immediately; called from ioObject.Close so a
// cleanly closed object isn't revisited by a later scavenge or CancelAll.
func (r *registry) unregister(id uint64) {
	r.mu.Lock()
	delete(r.data, id)
	r.mu.Unlock()
}

// scavenge checks up to batchSize ring entries, dropping any whose weak
// pointer has been collected. Entries for objects still alive are left in
// place; only dead-entry bookkeeping is reclaimed here.
func (r *registry) scavenge(batchSize int) {
	if batchSize <= 0 {
		return
	}
	r.scavengeMu.Lock()
	defer r.scavengeMu.Unlock()

	r.mu.RLock()
	ringLen := len(r.ring)
	if ringLen == 0 {
		r.mu.RUnlock()
		return
	}
	start := r.head
	end := start + batchSize
	if end > ringLen {
		end = ringLen
	}
	ids := append([]uint64(nil), r.ring[start:end]...)
	r.mu.RUnlock()

	var dead []uint64
	r.mu.RLock()
	for _, id := range ids {
		wp, ok := r.data[id]
		if !ok || wp.Value() == nil {
			dead = append(dead, id)
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	for _, id := range dead {
		delete(r.data, id)
	}
	nextHead := end
	if nextHead >= len(r.ring) {
		nextHead = 0
		r.ring = slices.DeleteFunc(r.ring, func(id uint64) bool {
			_, alive := r.data[id]
			return !alive
		})
	}
	r.head = nextHead
	r.mu.Unlock()
}

// cancelAll calls Cancel on every live entry, used during Context teardown
// so no handler is left un-invoked. It does not close the objects'
// descriptors.
func (r *registry) cancelAll() {
	r.mu.RLock()
	wps := make([]weak.Pointer[ioObject], 0, len(r.data))
	for _, wp := range r.data {
		wps = append(wps, wp)
	}
	r.mu.RUnlock()

	for _, wp := range wps {
		if o := wp.Value(); o != nil {
			o.Cancel()
		}
	}
}
