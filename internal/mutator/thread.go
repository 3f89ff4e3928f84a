// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mutator implements the thread/step coordinator's client-side
// half (spec.md §4.4.1): the DONE/IDLE/BUSY/WAIT state machine each
// host thread drives as it does work between GC checkpoints, layered
// over package gc's Coordinator (the collector-side half of the same
// rendezvous).
package mutator

import (
	"sync/atomic"

	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/gc"
)

// State is a mutator thread's position in the DONE/IDLE/BUSY/WAIT
// machine (spec.md §4.4.1). WAIT is folded into gc.Coordinator's
// internal cond-variable block in EnterBusy, but we still surface it
// here so a caller inspecting State() mid-call sees the same picture
// the C prototype's semaphore-based implementation would show.
type State int32

const (
	Done State = iota
	Idle
	Busy
	Wait
)

func (s State) String() string {
	switch s {
	case Done:
		return "done"
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	case Wait:
		return "wait"
	default:
		return "state(?)"
	}
}

// RootProvider supplies the cell pointers a Thread's working state
// currently holds live -- its data stack, stash, and anything else the
// higher layers (package step, package glas) root through it. This
// plays the role spec.md §3.4's "root descriptor" (pointer plus a
// static offset array) plays in the C prototype; Go's GC already makes
// direct field offsets unnecessary; a descriptor is immutable once
// registered so the collector scans without synchronizing with thread
// internals, and a closure-free interface method gives the same
// property without unsafe offset arithmetic.
type RootProvider interface {
	Roots() []cell.Ref
}

// Thread is the collector's view of one mutator: a state, a
// registration with the shared gc.Coordinator, and the root provider
// the collector consults when this thread's BUSY roots need scanning.
type Thread struct {
	coord   *gc.Coordinator
	handle  *gc.ThreadHandle
	roots   RootProvider
	state   int32 // atomic State
}

// NewThread registers a fresh mutator thread with the shared
// coordinator. The thread starts IDLE, as the C prototype's
// glas_thread_new does before the caller's first step begins.
func NewThread(coord *gc.Coordinator, roots RootProvider) *Thread {
	t := &Thread{
		coord:  coord,
		handle: coord.Register(),
		roots:  roots,
		state:  int32(Idle),
	}
	return t
}

func (t *Thread) State() State { return State(atomic.LoadInt32(&t.state)) }

// EnterBusy performs the IDLE->BUSY transition (spec.md §4.4.1 table
// row 1): if the collector has requested a stop, this call blocks
// (the WAIT condition) until the collector releases it at the
// BUSY->MARK transition, then proceeds to BUSY.
func (t *Thread) EnterBusy() {
	if t.coord.Phase().StopRequested() {
		atomic.StoreInt32(&t.state, int32(Wait))
	}
	t.handle.EnterBusy()
	atomic.StoreInt32(&t.state, int32(Busy))
}

// EnterIdle performs the BUSY->IDLE transition: a single atomic store,
// per spec.md §4.4.1.
func (t *Thread) EnterIdle() {
	t.handle.EnterIdle()
	atomic.StoreInt32(&t.state, int32(Idle))
}

// Terminate performs the any->DONE transition. DONE is sticky; the
// collector reaps the registration later (here, immediately, since Go
// has no analogue of the C prototype's deferred thread-list cleanup).
func (t *Thread) Terminate() {
	t.handle.Unregister()
	atomic.StoreInt32(&t.state, int32(Done))
}

// liveRoots supplies one element of gc.RootSource.ThreadRoots when
// this Thread is BUSY; an IDLE or DONE thread contributes no roots
// because its working state has either been checkpointed out (IDLE,
// between steps) or discarded (DONE).
func (t *Thread) liveRoots() []cell.Ref {
	if t.State() == Busy && t.roots != nil {
		return t.roots.Roots()
	}
	return nil
}
