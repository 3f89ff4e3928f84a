// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cell

// This file holds the structural invariant checks referenced by
// spec.md §3.3 and §6.2: aggregate-tag monotonicity across a
// compound cell's children, small-form canonicalization, and
// origin-consistency for slice rejoin. These are assertion helpers
// used by tests and by debug builds (gated by the caller, typically
// via internal/rtlog), not invoked on every mutation in the hot path.

// CheckAggrMonotone reports whether self's linear and abstract bits
// equal those of the join of its pointer-valued children's aggregate
// tags and its ephemerality is at least the join's, per the
// invariant that a compound cell's type_aggr must always dominate
// (spec.md §3.3). ForeignPtr and scalar leaves trivially satisfy it.
func CheckAggrMonotone(self Ref) bool {
	want := Aggr(0)
	fields := self.Kind().PointerFields()
	if self.Kind() == SmallArr {
		fields = fields[:self.SmallArrLen()]
	}
	for _, off := range fields {
		if self.Kind() == ForeignPtr {
			continue
		}
		child := self.payloadPtr(off)
		if child.IsNil() {
			continue
		}
		want = Join(want, child.Aggr())
	}
	return self.Aggr()&(Linear|Abstract) == want&(Linear|Abstract) &&
		self.Aggr().Ephemeral() >= want.Ephemeral()
}

// IsSmallForm reports whether k is one of the inline small-representation
// kinds (SmallBin, SmallArr) that the value layer prefers over their
// BigBin/BigArr counterparts whenever a value is small enough to fit,
// so that no two cells ever represent the same small value two ways.
func IsSmallForm(k Kind) bool {
	return k == SmallBin || k == SmallArr
}

// CanRejoin reports whether two BigBin/BigArr slices were split from
// the same origin and are adjacent (left's data+len lands exactly at
// right's data), the precondition for TAKE_CONCAT rejoin-on-append
// collapsing back to a single flat slice instead of growing a rope
// (spec.md §6.2).
func CanRejoin(left, right Ref) bool {
	if left.Kind() != right.Kind() {
		return false
	}
	switch left.Kind() {
	case BigBin:
		if left.BigBinOrigin().IsNil() || left.BigBinOrigin() != right.BigBinOrigin() {
			return false
		}
		return left.BigBinData().Addr().Add(int64(left.BigBinLen())) == right.BigBinData().Addr()
	case BigArr:
		if left.BigArrOrigin().IsNil() || left.BigArrOrigin() != right.BigArrOrigin() {
			return false
		}
		return left.BigArrData().Addr().Add(int64(left.BigArrLen())*Size) == right.BigArrData().Addr()
	default:
		return false
	}
}

// CheckLinear reports whether a Linear-tagged cell has at most one
// outstanding reference according to the caller-provided refcount,
// enforcing spec.md §3.1's single-use requirement for linear values
// (the runtime itself does not refcount cells; this helper exists for
// tests exercising package value's linearity bookkeeping).
func CheckLinear(self Ref, observedUses int) bool {
	if !self.Aggr().IsLinear() {
		return true
	}
	return observedUses <= 1
}
