// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alloc

import (
	"testing"

	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

func TestAllocCellStartsInvalid(t *testing.T) {
	a := New(heap.NewPool())
	ref, err := a.AllocCell()
	if err != nil {
		t.Fatalf("AllocCell: %v", err)
	}
	if ref.Kind() != cell.Invalid {
		t.Fatalf("fresh cell Kind() = %v, want Invalid", ref.Kind())
	}
}

func TestAllocCellFillsCurrentPageBeforeGrowing(t *testing.T) {
	a := New(heap.NewPool())
	first, err := a.AllocCell()
	if err != nil {
		t.Fatalf("AllocCell: %v", err)
	}
	p := a.CurrentPage()
	if p == nil {
		t.Fatal("CurrentPage is nil after first allocation")
	}
	second, err := a.AllocCell()
	if err != nil {
		t.Fatalf("AllocCell: %v", err)
	}
	if a.CurrentPage() != p {
		t.Fatal("allocator switched pages before the first was exhausted")
	}
	if first == second {
		t.Fatal("two allocations returned the same cell")
	}
}
