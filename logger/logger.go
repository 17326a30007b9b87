// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package logger provides the small leveled logger used throughout this
// module, in place of a bare *log.Logger.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger wraps the standard logger with an always-on Warn/Info level and a
// Debug level gated by the LUDPNET_TRACE environment variable, the way
// syncthing gates its own per-package debug output on STTRACE.
type Logger struct {
	debug bool
	l     *log.Logger
}

// Default is shared by packages that don't need a distinct prefix.
var Default = New("ludpnet")

// New returns a Logger that writes to stderr with the given prefix and
// enables Debug output if facility appears in LUDPNET_TRACE (or it is "all").
func New(facility string) *Logger {
	trace := os.Getenv("LUDPNET_TRACE")
	return &Logger{
		debug: trace == "all" || strings.Contains(trace, facility),
		l:     log.New(os.Stderr, facility+": ", log.Lmicroseconds|log.Lshortfile),
	}
}

func (l *Logger) IsDebug() bool { return l.debug }

func (l *Logger) Debugf(format string, vals ...interface{}) {
	if l.debug {
		l.l.Output(2, "DEBUG: "+fmt.Sprintf(format, vals...))
	}
}

func (l *Logger) Debugln(vals ...interface{}) {
	if l.debug {
		l.l.Output(2, "DEBUG: "+fmt.Sprintln(vals...))
	}
}

func (l *Logger) Infof(format string, vals ...interface{}) {
	l.l.Output(2, "INFO: "+fmt.Sprintf(format, vals...))
}

func (l *Logger) Warnf(format string, vals ...interface{}) {
	l.l.Output(2, "WARNING: "+fmt.Sprintf(format, vals...))
}

func (l *Logger) Warnln(vals ...interface{}) {
	l.l.Output(2, "WARNING: "+fmt.Sprintln(vals...))
}
