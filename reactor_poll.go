//go:build !linux && !darwin && !windows

// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"sync"

	"golang.org/x/sys/unix"
)

// pollBackend is the portable poll(2) fallback for unix platforms without a
// readiness-list syscall (no epoll, no kqueue). Unlike epoll/kqueue it has
// no persistent kernel-side registration, so it keeps its own interest set
// and rebuilds the pollfd slice on every wait call.
type pollBackend struct {
	mu  sync.Mutex
	fds map[int]ioEvents
}

func newDefaultBackend() reactorBackend { return newPollBackend() }

func newPollBackend() *pollBackend {
	return &pollBackend{fds: make(map[int]ioEvents)}
}

func (b *pollBackend) init() error { return nil }

func (b *pollBackend) close() error { return nil }

func (b *pollBackend) add(fd int, ev ioEvents) error {
	b.mu.Lock()
	b.fds[fd] = ev
	b.mu.Unlock()
	return nil
}

func (b *pollBackend) modify(fd int, ev ioEvents) error {
	b.mu.Lock()
	if ev == 0 {
		delete(b.fds, fd)
	} else {
		b.fds[fd] = ev
	}
	b.mu.Unlock()
	return nil
}

func (b *pollBackend) remove(fd int) error {
	b.mu.Lock()
	delete(b.fds, fd)
	b.mu.Unlock()
	return nil
}

func (b *pollBackend) wait(timeoutMs int, cb func(fd int, events ioEvents)) error {
	b.mu.Lock()
	pfds := make([]unix.PollFd, 0, len(b.fds))
	for fd, ev := range b.fds {
		pfds = append(pfds, unix.PollFd{Fd: int32(fd), Events: toPollBits(ev)})
	}
	b.mu.Unlock()

	if len(pfds) == 0 {
		// Nothing registered; sleep for the bound so timers/tasks submitted
		// concurrently still observe roughly the requested wait, then
		// return with no readiness.
		if timeoutMs != 0 {
			_, _ = unix.Poll(nil, timeoutMs)
		}
		return nil
	}

	n, err := unix.Poll(pfds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	if n == 0 {
		return nil
	}
	for _, pfd := range pfds {
		if pfd.Revents == 0 {
			continue
		}
		cb(int(pfd.Fd), fromPollBits(pfd.Revents))
	}
	return nil
}

func toPollBits(ev ioEvents) int16 {
	var bits int16
	if ev&evRead != 0 {
		bits |= unix.POLLIN
	}
	if ev&evWrite != 0 {
		bits |= unix.POLLOUT
	}
	return bits
}

func fromPollBits(bits int16) ioEvents {
	var ev ioEvents
	if bits&unix.POLLIN != 0 {
		ev |= evRead
	}
	if bits&unix.POLLOUT != 0 {
		ev |= evWrite
	}
	if bits&unix.POLLERR != 0 {
		ev |= evError
	}
	if bits&(unix.POLLHUP|unix.POLLNVAL) != 0 {
		ev |= evHangup
	}
	return ev
}
