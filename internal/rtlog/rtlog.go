// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rtlog is the runtime's internal diagnostic logger: a thin
// leveled wrapper over the standard log package, in the same style
// ogleproxy and the ptrace demo configure their own *log.Logger
// (log.SetFlags(0); log.SetPrefix(...)) rather than reaching for a
// structured-logging library. Output is gated by GLAS_DEBUG so a
// production embedder pays nothing for it by default.
package rtlog

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

type Level int32

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

var level int32 = int32(levelFromEnv())

func levelFromEnv() Level {
	switch os.Getenv("GLAS_DEBUG") {
	case "", "0":
		return LevelOff
	case "1":
		return LevelError
	case "2":
		return LevelWarn
	case "3":
		return LevelInfo
	default:
		return LevelDebug
	}
}

var std = log.New(os.Stderr, "glas: ", log.Ltime|log.Lmicroseconds)

// SetLevel overrides the level derived from GLAS_DEBUG; tests use this
// to turn on logging deterministically rather than depending on the
// environment.
func SetLevel(l Level) { atomic.StoreInt32(&level, int32(l)) }

func enabled(l Level) bool { return Level(atomic.LoadInt32(&level)) >= l }

func Debugf(format string, args ...interface{}) {
	if enabled(LevelDebug) {
		std.Output(2, "DEBUG "+fmt.Sprintf(format, args...))
	}
}

func Infof(format string, args ...interface{}) {
	if enabled(LevelInfo) {
		std.Output(2, "INFO  "+fmt.Sprintf(format, args...))
	}
}

func Warnf(format string, args ...interface{}) {
	if enabled(LevelWarn) {
		std.Output(2, "WARN  "+fmt.Sprintf(format, args...))
	}
}

func Errorf(format string, args ...interface{}) {
	if enabled(LevelError) {
		std.Output(2, "ERROR "+fmt.Sprintf(format, args...))
	}
}
