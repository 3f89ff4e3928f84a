// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

// PromoteAfterCycles is how many collections a page must survive
// before its generation advances (spec.md §4.3.3, §8 property 4 uses
// GLAS_GC_MAX_GEN+1 as the outer bound).
const PromoteAfterCycles = 2

// FinalizerRunner is implemented by whatever owns a ForeignPtr's
// out-of-band resource (an OS handle, a foreign allocation); the
// collector calls it exactly once, after determining the ForeignPtr
// cell did not survive a cycle (spec.md §4.3.4).
type FinalizerRunner interface {
	RunFinalizer(finalizer cell.Ref)
}

// Collector drives the IDLE/STOP/BUSY/MARK cycle over a heap.Pool. One
// Collector serves an entire runtime; its Coordinator is shared with
// every mutator thread so EnterBusy/EnterIdle calls observe the same
// stop requests this Collector issues.
type Collector struct {
	pool       *heap.Pool
	coord      *Coordinator
	shadeQueue markQueue
	finalizer  FinalizerRunner
}

func NewCollector(pool *heap.Pool, coord *Coordinator, fin FinalizerRunner) *Collector {
	return &Collector{pool: pool, coord: coord, finalizer: fin}
}

func (c *Collector) Coordinator() *Coordinator { return c.coord }

// Cycle runs one full IDLE->STOP->BUSY->MARK->BUSY->IDLE collection,
// per the transition table in spec.md §4.3.1.
func (c *Collector) Cycle(roots RootSource) {
	c.coord.RequestStop() // IDLE->STOP, then STOP->BUSY once quiescent
	c.coord.BeginMark()   // BUSY->MARK

	c.markFromRoots(roots)
	enqueue := c.enqueueFunc()
	c.rescanCards(enqueue)
	c.drain(enqueue)

	c.coord.EndMark() // MARK->BUSY, wait for quiescence again
	c.drain(enqueue)  // catch anything shaded in the brief final window

	c.clearWeakRefs()
	c.sweepAndPromote()
	c.finalizeUnreachable()

	c.coord.Finish() // BUSY->IDLE
}

// sweepAndPromote performs the lazy sweep: flip each page's mark
// buffers so the freshly built "marking" bitmap becomes the bitmap the
// allocator consults, return emptied pages to the free list, and
// advance the generation of pages that have survived enough cycles.
// Pages are recycled onto the free list rather than unmapped, per the
// free-list-first allocation strategy in package heap.
func (c *Collector) sweepAndPromote() {
	var empty []*heap.Page
	c.pool.ForEachPage(func(p *heap.Page) {
		p.SwapMarkBuffers()
		if p.Occupancy() == 0 {
			empty = append(empty, p)
			return
		}
		p.AdvanceCycle(PromoteAfterCycles)
	})
	for _, p := range empty {
		c.pool.FreePage(p)
	}
}
