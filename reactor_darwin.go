//go:build darwin

// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "golang.org/x/sys/unix"

// kqueueBackend is the Darwin/BSD reactorBackend. wait is safe to call
// concurrently from multiple pumping goroutines because each call uses its
// own stack-local event buffer rather than a field shared across calls.
type kqueueBackend struct {
	kq int
}

func newDefaultBackend() reactorBackend { return &kqueueBackend{kq: -1} }

func (b *kqueueBackend) init() error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	b.kq = kq
	return nil
}

func (b *kqueueBackend) close() error {
	if b.kq < 0 {
		return nil
	}
	return unix.Close(b.kq)
}

func (b *kqueueBackend) add(fd int, ev ioEvents) error {
	return b.apply(fd, ev, unix.EV_ADD|unix.EV_ENABLE)
}

func (b *kqueueBackend) modify(fd int, ev ioEvents) error {
	// kqueue has no single "replace interest" verb; delete both filters
	// then re-add whichever are still wanted. Harmless no-ops (ENOENT) on
	// filters that were never registered are ignored.
	_, _ = unix.Kevent(b.kq, []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}, nil, nil)
	if ev == 0 {
		return nil
	}
	return b.apply(fd, ev, unix.EV_ADD|unix.EV_ENABLE)
}

func (b *kqueueBackend) remove(fd int) error {
	_, err := unix.Kevent(b.kq, []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}, nil, nil)
	return err
}

func (b *kqueueBackend) apply(fd int, ev ioEvents, flags uint16) error {
	var kevs []unix.Kevent_t
	if ev&evRead != 0 {
		kevs = append(kevs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if ev&evWrite != 0 {
		kevs = append(kevs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	if len(kevs) == 0 {
		return nil
	}
	_, err := unix.Kevent(b.kq, kevs, nil, nil)
	return err
}

func (b *kqueueBackend) wait(timeoutMs int, cb func(fd int, events ioEvents)) error {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64((timeoutMs % 1000) * 1000000),
		}
	}
	var eventBuf [256]unix.Kevent_t
	n, err := unix.Kevent(b.kq, nil, eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := 0; i < n; i++ {
		cb(int(eventBuf[i].Ident), fromKevent(&eventBuf[i]))
	}
	return nil
}

func fromKevent(kev *unix.Kevent_t) ioEvents {
	var ev ioEvents
	switch kev.Filter {
	case unix.EVFILT_READ:
		ev |= evRead
	case unix.EVFILT_WRITE:
		ev |= evWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		ev |= evError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		ev |= evHangup
	}
	return ev
}
