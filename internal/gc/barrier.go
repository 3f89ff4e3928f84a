// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

// WriteBarrier must be called by every mutator-side pointer store (see
// package value's field setters) immediately after writing newVal into
// one of owner's pointer fields. During the MARK phase it implements
// Dijkstra's insertion barrier: if owner has already been scanned
// (blackened) this cycle, newVal could otherwise be missed, so it is
// shaded grey and enqueued by being set in its page's marking bitmap.
// Outside MARK the call is a cheap no-op save for old-to-young card
// bookkeeping, which is unconditional so generational rescans stay
// correct across cycle boundaries.
func (c *Collector) WriteBarrier(owner, newVal cell.Ref) {
	if newVal.IsNil() {
		return
	}

	ownerPage := c.pool.PageFromInterior(heap.Address(owner))
	valPage := c.pool.PageFromInterior(heap.Address(newVal))
	if ownerPage != nil && valPage != nil && ownerPage.Generation() > valPage.Generation() {
		ownerPage.SetCard(heap.CardOldToYoung, heap.Address(owner))
	}

	if !c.coord.Phase().MarkActive() {
		return
	}
	if ownerPage == nil || !ownerPage.IsMarking(heap.Address(owner)) {
		return // owner not yet blackened; it will see newVal when scanned
	}
	if valPage == nil {
		return
	}
	if valPage.SetMarking(heap.Address(newVal)) {
		c.shadeQueue.push(newVal)
	}
}

// RegisterFinalizer marks addr's page card so the finalizer rescan at
// the end of a cycle checks whether the ForeignPtr at addr survived;
// if it did not, its finalizer cell is queued for exactly-once
// invocation (spec.md §4.3.4).
func (c *Collector) RegisterFinalizer(addr cell.Ref) {
	if p := c.pool.PageFromInterior(heap.Address(addr)); p != nil {
		p.SetCard(heap.CardFinalizer, heap.Address(addr))
	}
}
