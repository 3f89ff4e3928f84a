// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package register

import (
	"testing"

	"glas.dev/rt/internal/alloc"
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	pool := heap.NewPool()
	a := alloc.New(pool)
	return NewTable(a, nil)
}

// smallBin allocates an arbitrary register content cell for tests.
func smallBin(tab *Table, s string) (cell.Ref, error) {
	ref, err := tab.alloc.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	cell.NewSmallBin(ref, []byte(s))
	return ref, nil
}

// TestSettersOnDistinctRegisters is the table-level part of spec.md §8
// scenario S4: Set on two separate registers of one family both succeed.
func TestSettersOnDistinctRegisters(t *testing.T) {
	tab := newTestTable(t)
	tab.New("r.")

	va, err := smallBin(tab, "hello-a")
	if err != nil {
		t.Fatal(err)
	}
	vb, err := smallBin(tab, "hello-b")
	if err != nil {
		t.Fatal(err)
	}

	if err := tab.Set("r.a", va); err != nil {
		t.Fatalf("Set r.a: %v", err)
	}
	if err := tab.Set("r.b", vb); err != nil {
		t.Fatalf("Set r.b: %v", err)
	}

	got, _, err := tab.Get("r.a")
	if err != nil || got != va {
		t.Fatalf("Get r.a = %v, %v want %v, nil", got, err, va)
	}
}

// TestConflictDetection mirrors spec.md §8 scenario S5 and property 8:
// two writers racing a CAS against the same recorded version -- only
// one wins.
func TestConflictDetection(t *testing.T) {
	tab := newTestTable(t)
	tab.New("r.")

	_, v0, err := tab.Get("r.x")
	if err != nil {
		t.Fatal(err)
	}

	valA, err := smallBin(tab, "a")
	if err != nil {
		t.Fatal(err)
	}
	valB, err := smallBin(tab, "b")
	if err != nil {
		t.Fatal(err)
	}

	errA := tab.CAS("r.x", v0, valA)
	errB := tab.CAS("r.x", v0, valB)

	if (errA == nil) == (errB == nil) {
		t.Fatalf("exactly one of two racing CAS calls must succeed: errA=%v errB=%v", errA, errB)
	}
}
