//go:build linux

// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"golang.org/x/sys/unix"
)

// epollBackend is the Linux reactorBackend, built on
// epoll_create1/epoll_ctl/epoll_wait, reporting raw readiness to the
// portable Reactor rather than dispatching a per-fd callback itself. add,
// modify, and remove are serialized by epoll_ctl itself needing no
// additional locking here; wait is safe to call concurrently from multiple
// pumping goroutines because each call uses its own stack-local event
// buffer rather than a field shared across calls.
type epollBackend struct {
	epfd int
}

func newDefaultBackend() reactorBackend { return &epollBackend{epfd: -1} }

func (b *epollBackend) init() error {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	b.epfd = fd
	return nil
}

func (b *epollBackend) close() error {
	if b.epfd < 0 {
		return nil
	}
	return unix.Close(b.epfd)
}

func (b *epollBackend) add(fd int, ev ioEvents) error {
	e := unix.EpollEvent{Events: toEpollBits(ev), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, &e)
}

func (b *epollBackend) modify(fd int, ev ioEvents) error {
	if ev == 0 {
		return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}
	e := unix.EpollEvent{Events: toEpollBits(ev), Fd: int32(fd)}
	err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, &e)
	if err == unix.ENOENT {
		// An earlier modify to zero interest removed fd from the set.
		err = unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, &e)
	}
	return err
}

func (b *epollBackend) remove(fd int) error {
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (b *epollBackend) wait(timeoutMs int, cb func(fd int, events ioEvents)) error {
	var eventBuf [256]unix.EpollEvent
	n, err := unix.EpollWait(b.epfd, eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := 0; i < n; i++ {
		cb(int(eventBuf[i].Fd), fromEpollBits(eventBuf[i].Events))
	}
	return nil
}

func toEpollBits(ev ioEvents) uint32 {
	var bits uint32
	if ev&evRead != 0 {
		bits |= unix.EPOLLIN
	}
	if ev&evWrite != 0 {
		bits |= unix.EPOLLOUT
	}
	return bits
}

func fromEpollBits(bits uint32) ioEvents {
	var ev ioEvents
	if bits&unix.EPOLLIN != 0 {
		ev |= evRead
	}
	if bits&unix.EPOLLOUT != 0 {
		ev |= evWrite
	}
	if bits&unix.EPOLLERR != 0 {
		ev |= evError
	}
	if bits&unix.EPOLLHUP != 0 {
		ev |= evHangup
	}
	return ev
}
