// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

// finalizeUnreachable walks every page's finalizer card, and for each
// card, every ForeignPtr cell on it that did not survive this cycle's
// mark (its slot is clear in the now-current "marked" bitmap), invokes
// its finalizer exactly once and clears the card bit so the same
// ForeignPtr is never finalized twice (spec.md §4.3.4, §8 property:
// finalizer-exactly-once). Called after sweepAndPromote has already
// swapped mark buffers, so "marked" reflects this cycle's results.
func (c *Collector) finalizeUnreachable() {
	if c.finalizer == nil {
		return
	}
	c.pool.ForEachPage(func(p *heap.Page) {
		var dead []cell.Ref
		p.ForEachSetCard(heap.CardFinalizer, func(cardIx int) bool {
			base := p.Addr().Add(int64(cardIx) << heap.CardSizeLg2)
			for off := int64(0); off < heap.CardSize; off += heap.CellSize {
				addr := base.Add(off)
				if p.IsLive(addr) {
					continue
				}
				ref := cell.Ref(addr)
				if ref.Kind() != cell.ForeignPtr {
					continue
				}
				dead = append(dead, ref)
			}
			return true
		})
		for _, ref := range dead {
			c.finalizer.RunFinalizer(ref.ForeignFinalizer())
			p.ClearCard(heap.CardFinalizer, heap.Address(ref))
		}
	})
}
