// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import "testing"

func TestCellSizeAndPageAlignment(t *testing.T) {
	if CellSize != 32 {
		t.Fatalf("CellSize = %d, want 32", CellSize)
	}
	if PageSize != 1<<21 {
		t.Fatalf("PageSize = %d, want 2MiB", PageSize)
	}
	pool := NewPool()
	p, err := pool.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	if uintptr(p.Addr())%PageSize != 0 {
		t.Fatalf("page address %s not page-aligned", p.Addr())
	}
}

func TestAllocPageRoundTrip(t *testing.T) {
	pool := NewPool()
	page, err := pool.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}

	addr, ok := page.AllocCell()
	if !ok {
		t.Fatal("AllocCell: no free slot in fresh page")
	}
	if addr.Sub(page.Addr()) < headerReserved {
		t.Fatalf("AllocCell returned slot %s inside page header (base %s, header %d bytes)", addr, page.Addr(), headerReserved)
	}
	got := pool.PageFromInterior(addr)
	if got != page {
		t.Fatalf("PageFromInterior(%s) = %v, want %v", addr, got, page)
	}
}

func TestFreePageRequiresZeroOccupancy(t *testing.T) {
	pool := NewPool()
	page, err := pool.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	if _, ok := page.AllocCell(); !ok {
		t.Fatal("AllocCell failed")
	}
	h := page.Heap()
	if err := h.freePage(page); err == nil {
		t.Fatal("freePage succeeded on an occupied page")
	}
	page.FreeCell(cellAddr(page.Addr(), headerCells))
	if err := h.freePage(page); err != nil {
		t.Fatalf("freePage on empty page: %v", err)
	}
}

func TestPageFromInteriorRejectsForeignAddress(t *testing.T) {
	pool := NewPool()
	if pool.PageFromInterior(Address(0x1)) != nil {
		t.Fatal("PageFromInterior should reject an address outside any heap")
	}
}

func TestHeaderBitsPreMarked(t *testing.T) {
	pool := NewPool()
	page, err := pool.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	bm := page.markedBitmap()
	for ix := 0; ix < headerCells; ix++ {
		word, bit := ix/64, uint(ix%64)
		if bm[word]&(uint64(1)<<bit) == 0 {
			t.Fatalf("header cell slot %d not pre-marked", ix)
		}
	}
}
