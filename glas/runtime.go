// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package glas is the runtime's embeddable public API (spec.md §6),
// the moral equivalent of the C prototype's glas.h: a process-wide
// Runtime owning the heap, collector, register volume, and post-commit
// queues, and per-mutator Contexts driving transactional steps over
// it. Host programs (e.g. cmd/glas) only ever see this package.
package glas

import (
	"sync"

	"glas.dev/rt/internal/alloc"
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/gc"
	"glas.dev/rt/internal/heap"
	"glas.dev/rt/internal/mutator"
	"glas.dev/rt/internal/register"
	"glas.dev/rt/internal/value"
)

// Runtime is one glas heap plus its collector and global register
// volume, shared by every Context created from it. Page and cell
// bitmaps are claimed with atomic compare-and-swap; the free-page
// list, heap list, register table, queues, and collector phase
// coordination are guarded by mutexes rather than lock-free.
type Runtime struct {
	pool     *heap.Pool
	coord    *gc.Coordinator
	coll     *gc.Collector
	registry *mutator.Registry
	regs     *register.Table
	big      *value.BigStore

	qmu    sync.RWMutex
	queues map[string]*register.Queue
}

// NewRuntime reserves a fresh heap and wires up its collector, global
// register volume, and thread registry.
func NewRuntime() *Runtime {
	rt := &Runtime{
		pool:   heap.NewPool(),
		coord:  gc.NewCoordinator(),
		queues: make(map[string]*register.Queue),
	}
	rt.big = value.NewBigStore()
	rt.coll = gc.NewCollector(rt.pool, rt.coord, rt.big)
	rt.regs = register.NewTable(alloc.New(rt.pool), rt.coll)
	rt.registry = mutator.NewRegistry(rt.globalRoots)
	return rt
}

// globalRoots implements the non-thread half of a collection cycle's
// root set: every register's content plus every post-commit queue's
// unread and already-read (but still reachable) contents (spec.md
// §4.3.2).
func (rt *Runtime) globalRoots() []cell.Ref {
	out := rt.regs.GlobalRoots()
	rt.qmu.RLock()
	for _, q := range rt.queues {
		out = append(out, q.Roots()...)
	}
	rt.qmu.RUnlock()
	return out
}

// Queue implements step.Sink: every named post-commit queue is created
// lazily on first reference, by either a writer's PostOp or a reader's
// read_n/peek call (spec.md §6's queue views).
func (rt *Runtime) Queue(name string) *register.Queue {
	rt.qmu.RLock()
	q, ok := rt.queues[name]
	rt.qmu.RUnlock()
	if ok {
		return q
	}
	rt.qmu.Lock()
	defer rt.qmu.Unlock()
	if q, ok := rt.queues[name]; ok {
		return q
	}
	q = register.NewQueue()
	rt.queues[name] = q
	return q
}

// Collect runs one full collection cycle over every registered
// Context's live roots (spec.md §4.3.1). The core never triggers it
// automatically (spec.md §1's "thread pools... are external
// collaborators"), and the reference host (cmd/glas) does not call it.
func (rt *Runtime) Collect() { rt.coll.Cycle(rt.registry) }

// NewRegisterFamily installs a register family (spec.md's
// reg_new(prefix)), failing if prefix conflicts with one already
// installed.
func (rt *Runtime) NewRegisterFamily(prefix string) bool {
	if rt.regs.PrefixInUse(prefix) {
		return false
	}
	rt.regs.New(prefix)
	return true
}
