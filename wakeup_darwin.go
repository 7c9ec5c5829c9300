//go:build darwin

// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

// tryEventfd always fails on Darwin: eventfd is a Linux-only facility, so
// createWakeFD (wakeup_unix.go) falls back to a self-pipe.
func tryEventfd() (fd int, ok bool) { return -1, false }
