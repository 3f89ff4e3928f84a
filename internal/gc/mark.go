// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

// markFromRoots runs one concurrent tricolor mark to completion,
// shading every reachable cell in its page's "marking" bitmap
// (spec.md §4.3.2). Mutators may run concurrently while this executes
// (the collector is in the MARK phase, not a stop-the-world pause);
// new pointers they install are caught by the insertion write barrier
// in barrier.go rather than by this function re-scanning.
func (c *Collector) markFromRoots(roots RootSource) {
	enqueue := c.enqueueFunc()

	for _, trs := range roots.ThreadRoots() {
		for _, r := range trs {
			enqueue(r)
		}
	}
	for _, r := range roots.GlobalRoots() {
		enqueue(r)
	}

	c.drain(enqueue)
}

// enqueueFunc returns a closure that shades r grey (sets its bit in
// its page's marking bitmap) and pushes it onto the shared worklist,
// the same operation WriteBarrier performs for concurrently-installed
// pointers, so root scanning and barrier-triggered shading converge on
// one queue.
func (c *Collector) enqueueFunc() func(cell.Ref) {
	return func(r cell.Ref) {
		if r.IsNil() {
			return
		}
		page := c.pool.PageFromInterior(heap.Address(r))
		if page == nil {
			return
		}
		if page.SetMarking(heap.Address(r)) {
			c.shadeQueue.push(r)
		}
	}
}

// drain pops the shared worklist until empty, scanning each cell
// popped. Because mutators may concurrently push via WriteBarrier,
// callers typically call drain more than once across a MARK phase
// (once after the initial root scan, again after the card rescan, and
// a final time just after the MARK->BUSY transition to catch any
// last-moment barrier pushes).
func (c *Collector) drain(enqueue func(cell.Ref)) {
	for {
		r, ok := c.shadeQueue.pop()
		if !ok {
			return
		}
		c.scanCell(r, enqueue)
	}
}

// scanCell visits every live pointer field of r according to its
// static per-Kind offset table (cell.Kind.PointerFields), avoiding any
// dynamic dispatch in the hot path.
func (c *Collector) scanCell(r cell.Ref, enqueue func(cell.Ref)) {
	k := r.Kind()
	fields := k.PointerFields()
	if k == cell.SmallArr {
		fields = fields[:r.SmallArrLen()]
	}
	for _, off := range fields {
		enqueue(r.ChildAt(off))
	}
}

// rescanCards walks every page's old-to-young card bitmap, re-scanning
// only cells on set cards rather than the whole old generation
// (spec.md §4.3.2's card acceleration). It is run once per cycle,
// after the root-reachable scan, to pick up old->young edges the
// write barrier recorded.
func (c *Collector) rescanCards(enqueue func(cell.Ref)) {
	c.pool.ForEachPage(func(p *heap.Page) {
		p.ForEachSetCard(heap.CardOldToYoung, func(cardIx int) bool {
			base := p.Addr().Add(int64(cardIx) << heap.CardSizeLg2)
			for off := int64(0); off < heap.CardSize; off += heap.CellSize {
				addr := base.Add(off)
				if !p.IsMarking(addr) {
					continue // not (yet) known live; nothing to re-propagate from
				}
				c.scanCell(cell.Ref(addr), enqueue)
			}
			return true
		})
	})
}
