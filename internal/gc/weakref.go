// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

// clearWeakRefs implements spec.md §3.3/§4.3's weak-ref pass: "after
// marking completes but before the second STOP ends, a pass over
// finalizer cards nulls the target of every tombstone whose target is
// unmarked and clears data of every SEAL whose key is unmarked." SEAL
// and TOMBSTONE cells share the registration card ForeignPtr finalizers
// use (RegisterFinalizer), since all three are "resolve specially once
// some other cell dies" entries; this pass only acts on Seal/Tombstone
// kinds and leaves ForeignPtr entries for finalizeUnreachable.
//
// It runs against the "marking" bitmap this cycle just finished
// building -- before sweepAndPromote promotes it to "marked" -- so a
// key or target reachable only via this cycle's mark work is correctly
// seen as alive.
func (c *Collector) clearWeakRefs() {
	c.pool.ForEachPage(func(p *heap.Page) {
		p.ForEachSetCard(heap.CardFinalizer, func(cardIx int) bool {
			base := p.Addr().Add(int64(cardIx) << heap.CardSizeLg2)
			for off := int64(0); off < heap.CardSize; off += heap.CellSize {
				ref := cell.Ref(base.Add(off))
				switch ref.Kind() {
				case cell.Seal:
					c.clearSealIfKeyDead(ref)
				case cell.Tombstone:
					c.clearTombstoneIfTargetDead(ref)
				}
			}
			return true
		})
	})
}

func (c *Collector) clearSealIfKeyDead(ref cell.Ref) {
	key := ref.SealKey()
	if key.IsNil() || c.isMarking(key) {
		return
	}
	ref.SetSealData(cell.Nil)
}

func (c *Collector) clearTombstoneIfTargetDead(ref cell.Ref) {
	target := ref.TombTarget()
	if target.IsNil() || c.isMarking(target) {
		return
	}
	ref.SetTombTarget(cell.Nil)
}

func (c *Collector) isMarking(r cell.Ref) bool {
	p := c.pool.PageFromInterior(heap.Address(r))
	if p == nil {
		return false
	}
	return p.IsMarking(heap.Address(r))
}
