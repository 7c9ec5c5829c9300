// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package proactor

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger type used throughout the package. It is
// a logiface.Logger fronting a stumpy JSON writer, the same pairing the
// rest of this author's utility modules ship support for.
type Logger = logiface.Logger[*stumpy.Event]

// NewDefaultLogger builds a stumpy-backed Logger writing JSON lines to
// stdOrStderr-equivalent os.Stderr semantics inherited from stumpy's
// default writer, at the given minimum level.
func NewDefaultLogger(level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithLevel(level),
		stumpy.L.WithStumpy(),
	)
}

// componentLogger is a thin, nil-safe wrapper so every internal component
// (Reactor, timer queue, Strand) can log without a nil check at each call
// site when the Context was constructed without WithLogger.
type componentLogger struct {
	log  *Logger
	name string
}

func newComponentLogger(log *Logger, name string) *componentLogger {
	return &componentLogger{log: log, name: name}
}

func (c *componentLogger) Debug() *logiface.Builder[*stumpy.Event] {
	if c == nil || c.log == nil {
		return nil
	}
	return c.log.Debug().Str("component", c.name)
}

func (c *componentLogger) Err() *logiface.Builder[*stumpy.Event] {
	if c == nil || c.log == nil {
		return nil
	}
	return c.log.Err().Str("component", c.name)
}

// logDebug logs msg at Debug level. Safe to call with disabled or absent
// logging: logiface.Builder methods are nil-receiver safe.
func logDebug(c *componentLogger, msg string) {
	c.Debug().Log(msg)
}

func logErr(c *componentLogger, msg string, err error) {
	c.Err().Err(err).Log(msg)
}
