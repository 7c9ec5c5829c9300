//go:build !windows

// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "golang.org/x/sys/unix"

// createWakeFD creates the platform wake primitive. On Linux this is a
// single nonblocking eventfd used as both ends; elsewhere (no eventfd) it
// is a nonblocking, close-on-exec self-pipe built from the portable
// pipe(2)+fcntl sequence rather than Linux-only pipe2(2).
func createWakeFD() (readFD, writeFD int, err error) {
	if fd, ok := tryEventfd(); ok {
		return fd, fd, nil
	}
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fds[0])
			_ = unix.Close(fds[1])
			return -1, -1, err
		}
		unix.CloseOnExec(fd)
	}
	return fds[0], fds[1], nil
}

func writeWakeFD(fd int) error {
	var one [8]byte
	one[0] = 1
	_, err := unix.Write(fd, one[:])
	return err
}

func drainWakeFD(fd int) {
	var buf [64]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err != nil {
			return
		}
	}
}

func closeWakeFD(readFD, writeFD int) error {
	err := unix.Close(readFD)
	if writeFD != readFD {
		if err2 := unix.Close(writeFD); err == nil {
			err = err2
		}
	}
	return err
}
