// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package value implements spec.md §4.5's structural tree rewrites
// over the Cell substrate: pair/sum constructors and destructors, list
// and bitstring split/append, and dict insert/remove. Every operation
// here is a pure rewrite -- it never mutates an existing cell's
// payload, only builds new cells referencing shared, untouched
// subtrees, mirroring golang.org/x/debug/internal/gocore's read-only
// object walk except these trees are buildable, not just walkable.
package value

import (
	"glas.dev/rt/internal/alloc"
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/gc"
	"glas.dev/rt/internal/rterr"
)

// Factory is the per-mutator handle value operations are called
// through: it owns the thread-local allocator and a shared reference
// to the collector, whose WriteBarrier must observe every new pointer
// store (spec.md §4.3.2).
type Factory struct {
	alloc *alloc.Allocator
	coll  *gc.Collector
	big   *BigStore
}

func New(a *alloc.Allocator, coll *gc.Collector, big *BigStore) *Factory {
	return &Factory{alloc: a, coll: coll, big: big}
}

// link runs the write barrier for child, which a constructor has just
// stored into one of owner's pointer fields. Called after every NewXxx
// constructor that installs pointer fields, since those fields are
// regular stores the concurrent collector's insertion barrier must
// see (spec.md §4.3.2).
func (f *Factory) link(owner, child cell.Ref) {
	if f.coll != nil {
		f.coll.WriteBarrier(owner, child)
	}
}

func childAggr(r cell.Ref) cell.Aggr {
	if r.IsNil() {
		return 0
	}
	return r.Aggr()
}

// CheckLinear fails with rterr.Linearity, leaving the stack unchanged
// per spec.md §4.5's linearity rule, if r carries the linear aggregate
// tag and suppressed is false. The host (package glas) calls this
// before any stack op that would copy or drop a value rather than move
// it whole.
func CheckLinear(r cell.Ref, suppressed bool) error {
	if !suppressed && !r.IsNil() && r.Aggr().IsLinear() {
		return rterr.Linearity
	}
	return nil
}
