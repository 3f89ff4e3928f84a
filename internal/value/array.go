// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/rterr"
)

// smallArrMax is the inline element capacity of one SMALL_ARR cell.
const smallArrMax = 3

// NewArray is array.go's analogue of NewBinary: small arrays are
// inline SMALL_ARR cells, larger ones a flat BIG_ARR backed by
// BigStore. Every element is linked (and its linearity/ephemerality
// folded into the array's Aggr) the same way MkPair links its two
// children.
func (f *Factory) NewArray(elems []cell.Ref) (cell.Ref, error) {
	if len(elems) <= smallArrMax {
		ref, err := f.alloc.AllocCell()
		if err != nil {
			return cell.Nil, err
		}
		cell.NewSmallArr(ref, elems...)
		var aggr cell.Aggr
		for _, e := range elems {
			f.link(ref, e)
			aggr = cell.Join(aggr, childAggr(e))
		}
		ref.SetAggr(aggr)
		return ref, nil
	}

	buf := append([]cell.Ref(nil), elems...)
	raw := f.big.putArr(buf)
	fin, err := newFinalizer(f, finArr, raw)
	if err != nil {
		return cell.Nil, err
	}
	origin, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	cell.NewForeignPtr(origin, raw, fin)
	if f.coll != nil {
		f.coll.RegisterFinalizer(origin)
	}

	marker, err := offsetMarker(f, 0)
	if err != nil {
		return cell.Nil, err
	}
	ref, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	cell.NewBigArr(ref, marker, origin, uint64(len(elems)))
	f.link(ref, marker)
	f.link(ref, origin)

	var aggr cell.Aggr
	for _, e := range elems {
		// BIG_ARR's elements live in a Go slice the collector cannot
		// scan directly, so each element is also reachable through
		// origin's FOREIGN_PTR card exactly like any other BIG_ARR
		// reference -- but the Aggr still folds every element in so
		// ArrayLen/UnArray callers see an accurate linearity tag
		// without re-walking the backing slice.
		aggr = cell.Join(aggr, childAggr(e))
	}
	ref.SetAggr(aggr)
	return ref, nil
}

// ArrLen reports an array value's element count, following
// TAKE_CONCAT ropes, or ok=false if top is not array-shaped.
func ArrLen(top cell.Ref) (n uint64, ok bool) {
	if top.IsNil() {
		return 0, false
	}
	switch top.Kind() {
	case cell.SmallArr:
		return uint64(top.SmallArrLen()), true
	case cell.BigArr:
		return top.BigArrLen(), true
	case cell.TakeConcat:
		rl, ok := ArrLen(top.ConcatRight())
		if !ok {
			return 0, false
		}
		return top.ConcatLeftLen() + rl, true
	default:
		return 0, false
	}
}

// Elems reads out an array value's elements, following one
// TAKE_CONCAT hop at a time.
func (f *Factory) Elems(top cell.Ref) ([]cell.Ref, bool) {
	switch top.Kind() {
	case cell.SmallArr:
		n := top.SmallArrLen()
		out := make([]cell.Ref, n)
		for i := range out {
			out[i] = top.SmallArrAt(i)
		}
		return out, true
	case cell.BigArr:
		raw := top.BigArrOrigin().ForeignRaw()
		buf := f.big.arr(raw)
		if buf == nil {
			return nil, false
		}
		off := markerOffset(top.BigArrData())
		n := top.BigArrLen()
		out := make([]cell.Ref, n)
		copy(out, buf[off:off+n])
		return out, true
	case cell.TakeConcat:
		l, lok := f.Elems(top.ConcatLeft())
		r, rok := f.Elems(top.ConcatRight())
		if !lok || !rok {
			return nil, false
		}
		return append(l, r...), true
	default:
		return nil, false
	}
}

// SplitArrAt is ArrLen/SplitBinAt's analogue for arrays.
func (f *Factory) SplitArrAt(top cell.Ref, n uint64) (left, right cell.Ref, ok bool, err error) {
	total, isArr := ArrLen(top)
	if !isArr || n > total {
		return cell.Nil, cell.Nil, false, nil
	}
	if n == 0 {
		empty, err := f.NewArray(nil)
		return empty, top, err == nil, err
	}
	if n == total {
		empty, err := f.NewArray(nil)
		return top, empty, err == nil, err
	}

	switch top.Kind() {
	case cell.SmallArr:
		elems, _ := f.Elems(top)
		left, err = f.NewArray(elems[:n])
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		right, err = f.NewArray(elems[n:])
		return left, right, err == nil, err

	case cell.BigArr:
		off := markerOffset(top.BigArrData())
		lm, err := offsetMarker(f, off)
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		rm, err := offsetMarker(f, off+n)
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		origin := top.BigArrOrigin()
		left, err = f.alloc.AllocCell()
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		cell.NewBigArr(left, lm, origin, n)
		f.link(left, lm)
		f.link(left, origin)

		right, err = f.alloc.AllocCell()
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		cell.NewBigArr(right, rm, origin, total-n)
		f.link(right, rm)
		f.link(right, origin)
		return left, right, true, nil

	case cell.TakeConcat:
		leftLen := top.ConcatLeftLen()
		if n < leftLen {
			ll, lr, ok, err := f.SplitArrAt(top.ConcatLeft(), n)
			if err != nil || !ok {
				return cell.Nil, cell.Nil, ok, err
			}
			right, err = f.AppendArr(lr, top.ConcatRight())
			return ll, right, err == nil, err
		}
		if n == leftLen {
			return top.ConcatLeft(), top.ConcatRight(), true, nil
		}
		rl, rr, ok, err := f.SplitArrAt(top.ConcatRight(), n-leftLen)
		if err != nil || !ok {
			return cell.Nil, cell.Nil, ok, err
		}
		left, err = f.AppendArr(top.ConcatLeft(), rl)
		return left, rr, err == nil, err

	default:
		return cell.Nil, cell.Nil, false, nil
	}
}

// AppendArr is AppendBin's analogue for arrays, including the same
// origin-adjacency slice-rejoin shortcut (spec.md §8 property 11).
func (f *Factory) AppendArr(l, r cell.Ref) (cell.Ref, error) {
	ln, lok := ArrLen(l)
	_, rok := ArrLen(r)
	if !lok || !rok {
		return cell.Nil, rterr.DataType
	}
	if ln == 0 {
		return r, nil
	}
	if rn, _ := ArrLen(r); rn == 0 {
		return l, nil
	}
	if merged, ok, err := f.tryRejoinArr(l, r); ok || err != nil {
		return merged, err
	}
	ref, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	cell.NewTakeConcat(ref, ln, l, r)
	f.link(ref, l)
	f.link(ref, r)
	return ref, nil
}

func (f *Factory) tryRejoinArr(l, r cell.Ref) (cell.Ref, bool, error) {
	if l.Kind() != cell.BigArr || r.Kind() != cell.BigArr {
		return cell.Nil, false, nil
	}
	if l.BigArrOrigin() != r.BigArrOrigin() {
		return cell.Nil, false, nil
	}
	lOff := markerOffset(l.BigArrData())
	rOff := markerOffset(r.BigArrData())
	if lOff+l.BigArrLen() != rOff {
		return cell.Nil, false, nil
	}
	marker, err := offsetMarker(f, lOff)
	if err != nil {
		return cell.Nil, false, err
	}
	ref, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, false, err
	}
	cell.NewBigArr(ref, marker, l.BigArrOrigin(), l.BigArrLen()+r.BigArrLen())
	f.link(ref, marker)
	f.link(ref, l.BigArrOrigin())
	return ref, true, nil
}
