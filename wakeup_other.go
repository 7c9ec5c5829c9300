//go:build !linux && !darwin && !windows

// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

// tryEventfd always fails on platforms without a Linux-style eventfd (the
// BSDs, Solaris, etc.); createWakeFD falls back to a self-pipe.
func tryEventfd() (fd int, ok bool) { return -1, false }
