//go:build linux

// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "golang.org/x/sys/unix"

// tryEventfd attempts the Linux-native eventfd wake primitive: a single fd
// serving as both read and write end, coalescing writes into one counter
// increment.
func tryEventfd() (fd int, ok bool) {
	n, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, false
	}
	return n, true
}
