// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import "bytes"

// AsyncWrite drives AsyncWriteSome in a loop until every byte of buf has
// been written or an error/EOF occurs, then invokes fn exactly once with
// the total transferred and the terminating error (nil on full success).
// Each re-entry reuses the socket's associated executor, matching the
// final handler's association for every intermediate write.
func AsyncWrite(s *StreamSocket, buf []byte, fn func(n int, err error)) {
	total := 0
	var step func(n int, err error)
	step = func(n int, err error) {
		total += n
		if err != nil {
			fn(total, err)
			return
		}
		if total >= len(buf) {
			fn(total, nil)
			return
		}
		s.AsyncWriteSome(buf[total:], step)
	}
	s.AsyncWriteSome(buf, step)
}

// AsyncRead drives AsyncReadSome in a loop until buf is completely filled
// or an error/EOF occurs, then invokes fn exactly once.
func AsyncRead(s *StreamSocket, buf []byte, fn func(n int, err error)) {
	total := 0
	var step func(n int, err error)
	step = func(n int, err error) {
		total += n
		if err != nil {
			fn(total, err)
			return
		}
		if total >= len(buf) {
			fn(total, nil)
			return
		}
		s.AsyncReadSome(buf[total:], step)
	}
	s.AsyncReadSome(buf, step)
}

// AsyncTransferAtLeast drives AsyncReadSome until at least minBytes have
// been transferred into buf, the buffer is exhausted, or an error/EOF
// occurs. minBytes > len(buf) is treated as len(buf).
func AsyncTransferAtLeast(s *StreamSocket, buf []byte, minBytes int, fn func(n int, err error)) {
	if minBytes > len(buf) {
		minBytes = len(buf)
	}
	total := 0
	var step func(n int, err error)
	step = func(n int, err error) {
		total += n
		if err != nil {
			fn(total, err)
			return
		}
		if total >= minBytes || total >= len(buf) {
			fn(total, nil)
			return
		}
		s.AsyncReadSome(buf[total:], step)
	}
	s.AsyncReadSome(buf, step)
}

// AsyncReadUntil accumulates bytes from s, read into a chunk obtained from
// the socket's associated Allocator, until delim is found in the accumulated
// data, an error/EOF occurs, or the accumulated data reaches
// maxReadUntilBuffer. fn is invoked exactly once: when delim is found, with
// the bytes up to and including it and a nil error (bytes read past it are
// kept for the socket's next read); otherwise with every byte accumulated
// so far and the terminating error.
func AsyncReadUntil(s *StreamSocket, delim byte, fn func(data []byte, err error)) {
	const (
		chunkSize          = 4096
		maxReadUntilBuffer = 1 << 20
	)
	// Any bytes a prior composed read already pulled off the wire past its
	// own delimiter take priority over a fresh syscall read.
	acc := append(make([]byte, 0, chunkSize), s.pending...)
	s.pending = nil

	finishWithoutRead := func(idx int) {
		if rest := acc[idx+1:]; len(rest) > 0 {
			s.pending = append([]byte(nil), rest...)
		}
		fn(acc[:idx+1], nil)
	}
	if idx := bytes.IndexByte(acc, delim); idx >= 0 {
		finishWithoutRead(idx)
		return
	}

	var step func(n int, err error)
	chunk := s.allocator.Get(chunkSize)

	finish := func(data []byte, err error) {
		s.allocator.Put(chunk)
		fn(data, err)
	}

	step = func(n int, err error) {
		acc = append(acc, chunk[:n]...)
		if idx := bytes.IndexByte(acc, delim); idx >= 0 {
			if rest := acc[idx+1:]; len(rest) > 0 {
				s.pending = append([]byte(nil), rest...)
			}
			finish(acc[:idx+1], nil)
			return
		}
		if err != nil {
			finish(acc, err)
			return
		}
		if len(acc) >= maxReadUntilBuffer {
			finish(acc, ErrReadUntilTooLarge)
			return
		}
		s.AsyncReadSome(chunk, step)
	}
	s.AsyncReadSome(chunk, step)
}
