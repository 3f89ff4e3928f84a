// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cell

import (
	"testing"

	"glas.dev/rt/internal/heap"
)

// allocRef grabs one cell-sized slot from a fresh pool for use as test
// scratch space; package alloc provides the real bump allocator used by
// the runtime proper.
func allocRef(t *testing.T, pool *heap.Pool) Ref {
	t.Helper()
	page, err := pool.AllocPage()
	if err != nil || page == nil {
		t.Fatalf("AllocPage: %v", err)
	}
	addr, ok := page.AllocCell()
	if !ok {
		t.Fatal("AllocCell: no free slot")
	}
	return Ref(addr)
}

func TestBranchRoundTrip(t *testing.T) {
	pool := heap.NewPool()
	l, r, br := allocRef(t, pool), allocRef(t, pool), allocRef(t, pool)
	NewSmallBin(l, []byte("left"))
	NewSmallBin(r, []byte("right"))
	NewBranch(br, 3, 5, l, r)

	if br.Kind() != Branch {
		t.Fatalf("Kind() = %v, want Branch", br.Kind())
	}
	if got := br.BranchStemL(); got != 3 {
		t.Errorf("BranchStemL() = %d, want 3", got)
	}
	if got := br.BranchStemR(); got != 5 {
		t.Errorf("BranchStemR() = %d, want 5", got)
	}
	if br.BranchL() != l || br.BranchR() != r {
		t.Errorf("BranchL/R = %v/%v, want %v/%v", br.BranchL(), br.BranchR(), l, r)
	}
}

func TestSmallBinLength(t *testing.T) {
	pool := heap.NewPool()
	ref := allocRef(t, pool)
	NewSmallBin(ref, []byte("hello"))
	if got := string(ref.SmallBinData()); got != "hello" {
		t.Fatalf("SmallBinData() = %q, want %q", got, "hello")
	}
	if ref.Kind() != SmallBin {
		t.Fatalf("Kind() = %v, want SmallBin", ref.Kind())
	}
}

func TestSmallArrLen(t *testing.T) {
	pool := heap.NewPool()
	a, b, arr := allocRef(t, pool), allocRef(t, pool), allocRef(t, pool)
	NewSmallBin(a, []byte("a"))
	NewSmallBin(b, []byte("b"))
	NewSmallArr(arr, a, b)
	if n := arr.SmallArrLen(); n != 2 {
		t.Fatalf("SmallArrLen() = %d, want 2", n)
	}
	if arr.SmallArrAt(0) != a || arr.SmallArrAt(1) != b {
		t.Fatalf("SmallArrAt mismatch")
	}
}

func TestAggrJoinMonotone(t *testing.T) {
	pool := heap.NewPool()
	l, r, br := allocRef(t, pool), allocRef(t, pool), allocRef(t, pool)
	NewSmallBin(l, []byte("l"))
	NewSmallBin(r, []byte("r"))
	l.SetAggr(Linear)
	r.SetAggr(WithEphemeral(0, EphemeralRuntime))
	NewBranch(br, 0, 0, l, r)
	br.SetAggr(Join(l.Aggr(), r.Aggr()))

	if !br.Aggr().IsLinear() {
		t.Error("joined Aggr should be linear")
	}
	if got := br.Aggr().Ephemeral(); got != EphemeralRuntime {
		t.Errorf("joined Ephemeral() = %d, want %d", got, EphemeralRuntime)
	}
	if !CheckAggrMonotone(br) {
		t.Error("CheckAggrMonotone rejected a correctly joined branch")
	}

	br.SetAggr(0)
	if CheckAggrMonotone(br) {
		t.Error("CheckAggrMonotone accepted a branch with a stale (too weak) tag")
	}
}

func TestRegisterCASTombstone(t *testing.T) {
	pool := heap.NewPool()
	content, reg, tomb := allocRef(t, pool), allocRef(t, pool), allocRef(t, pool)
	NewSmallBin(content, []byte("v"))
	NewRegister(reg, content, Nil, Nil)
	NewTombstone(tomb, reg, 42, Nil)

	if !reg.CASRegTombstone(Nil, tomb) {
		t.Fatal("first CASRegTombstone should succeed")
	}
	if reg.CASRegTombstone(Nil, tomb) {
		t.Fatal("second CASRegTombstone from a stale old value should fail")
	}
	if reg.RegTombstone() != tomb {
		t.Fatalf("RegTombstone() = %v, want %v", reg.RegTombstone(), tomb)
	}
	if reg.RegTombstone().TombID() != 42 {
		t.Fatal("tombstone id not preserved through register field")
	}
}

func TestBigBinRejoinAdjacentOrigin(t *testing.T) {
	pool := heap.NewPool()
	origin, dataL, dataR, left, right := allocRef(t, pool), allocRef(t, pool), allocRef(t, pool), allocRef(t, pool), allocRef(t, pool)
	NewSmallBin(origin, []byte("origin"))
	_ = dataL
	_ = dataR

	// Simulate two adjacent slices of the same BigBin origin: right's
	// data address is left's data address plus left's length.
	NewBigBin(left, dataL, origin, 4)
	rightData := Ref(dataL.Addr().Add(4))
	NewBigBin(right, rightData, origin, 6)

	if !CanRejoin(left, right) {
		t.Fatal("CanRejoin should accept adjacent slices of the same origin")
	}

	NewBigBin(right, Ref(dataL.Addr().Add(999)), origin, 6)
	if CanRejoin(left, right) {
		t.Fatal("CanRejoin should reject non-adjacent slices")
	}
}

func TestForwardPtr(t *testing.T) {
	pool := heap.NewPool()
	moved, fwd := allocRef(t, pool), allocRef(t, pool)
	NewSmallBin(moved, []byte("x"))
	NewForwardPtr(fwd, moved)
	if fwd.Kind() != ForwardPtr {
		t.Fatalf("Kind() = %v, want ForwardPtr", fwd.Kind())
	}
	if fwd.ForwardTo() != moved {
		t.Fatalf("ForwardTo() = %v, want %v", fwd.ForwardTo(), moved)
	}
}

func TestKindPointerFieldsCoverage(t *testing.T) {
	for k := Invalid; k < kindCount; k++ {
		_ = k.String()
		_ = k.PointerFields()
	}
}
