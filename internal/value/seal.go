// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/rterr"
)

// MkSeal wraps data so it is only readable back out via UnSeal with
// the same key (spec.md §3's SEAL: "data sealed under a register key;
// unreadable without the key"). meta is an opaque chain slot later
// namespace layers may use to compose seals; value never looks inside
// it.
func (f *Factory) MkSeal(key, data, meta cell.Ref) (cell.Ref, error) {
	ref, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	cell.NewSeal(ref, key, data, meta)
	f.link(ref, key)
	f.link(ref, data)
	f.link(ref, meta)
	ref.SetAggr(cell.Join(childAggr(data), cell.Abstract))
	if f.coll != nil {
		f.coll.RegisterFinalizer(ref)
	}
	return ref, nil
}

// UnSeal reads a SEAL's data back out, failing with rterr.DataSeal if
// top is not a SEAL or was sealed under a different key (spec.md §8's
// "sealed-data misuse"). A SEAL whose key has been collected (the
// runtime's weak-ref clearing, spec.md §4.3) presents the same failure
// via SealData reading back cell.Nil.
func UnSeal(top, key cell.Ref) (cell.Ref, error) {
	if top.IsNil() || top.Kind() != cell.Seal {
		return cell.Nil, rterr.DataSeal
	}
	if top.SealKey() != key {
		return cell.Nil, rterr.DataSeal
	}
	data := top.SealData()
	if data.IsNil() {
		return cell.Nil, rterr.DataSeal
	}
	return data, nil
}
