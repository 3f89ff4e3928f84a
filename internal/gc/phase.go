// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gc implements the concurrent tricolor mark-sweep collector
// over the page substrate in package heap (spec.md §4.3): a four-state
// phase machine, an insertion write barrier shading cells grey during
// MARK, card-table-accelerated old-to-young and finalizer rescans, and
// lazy sweep (free slots are simply the zero bits of the bitmap that
// becomes `marked` at the end of a cycle).
package gc

import "sync/atomic"

// Phase mirrors the C prototype's glas_gc_flags: bit 0 is a stop
// request mutators observe at BUSY<->IDLE boundaries, bit 1 indicates
// MARK is underway.
type Phase uint32

const (
	Idle Phase = 0b00
	Stop Phase = 0b01
	Busy Phase = 0b11
	Mark Phase = 0b10
)

func (p Phase) StopRequested() bool { return p&Stop != 0 }
func (p Phase) MarkActive() bool    { return p&Mark != 0 }

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Stop:
		return "stop"
	case Busy:
		return "busy"
	case Mark:
		return "mark"
	default:
		return "phase(?)"
	}
}

// phaseVar is an atomic Phase cell, one per Collector.
type phaseVar struct{ v uint32 }

func (pv *phaseVar) load() Phase             { return Phase(atomic.LoadUint32(&pv.v)) }
func (pv *phaseVar) store(p Phase)           { atomic.StoreUint32(&pv.v, uint32(p)) }
func (pv *phaseVar) cas(old, new Phase) bool {
	return atomic.CompareAndSwapUint32(&pv.v, uint32(old), uint32(new))
}
