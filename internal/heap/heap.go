// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Layout constants, carried over from the C prototype (glas.c) so that
// the size/alignment properties in spec.md §8 property 1 hold exactly.
const (
	PageSizeLg2 = 21 // 2 MiB pages
	CardSizeLg2 = 9  // 512-byte cards
	CellSize    = 32 // bytes per Cell; fixed, no cell spans multiple slots

	PageSize = 1 << PageSizeLg2
	CardSize = 1 << CardSizeLg2

	PagesPerHeap   = 64 // a Heap reserves 64 pages (~128 MiB)
	HeapSize       = PageSize * PagesPerHeap
	PageCellCount  = PageSize / CellSize
	PageCardCount  = PageSize / CardSize
	MaxGeneration  = 3
	headerCells    = 64 // reserved cell slots at the front of every page
	headerReserved = headerCells * CellSize
)

// A Heap is a single contiguous virtual reservation: 64 pages (~128 MiB)
// obtained with one anonymous mmap call. Pages within the reservation are
// committed (mprotect'd read/write) lazily, on first alloc_page. Heaps are
// linked into a process-wide list; the head is always the newest
// not-yet-full heap (see Pool.AllocPage).
type Heap struct {
	next      *Heap
	base      Address        // first byte of the 64-page reservation
	pageBits  uint64         // atomic: 1 bit per page, set once committed
	pages     [PagesPerHeap]*Page
}

// reserveHeap reserves PagesPerHeap*PageSize bytes of address space with
// no backing store and no access permissions -- mirrors
// glas_heap_try_create's mmap(PROT_NONE, MAP_ANONYMOUS|MAP_PRIVATE).
func reserveHeap() (*Heap, error) {
	mem, err := unix.Mmap(-1, 0, HeapSize, unix.PROT_NONE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("heap: reserve %d bytes: %w", HeapSize, err)
	}
	base := Address(uintptrOf(mem))
	h := &Heap{base: base}
	if base%PageSize != 0 {
		// Lose at most one page per heap to alignment: round the base up
		// to the next page boundary and pre-set the top bit so the
		// allocator never hands out the tail page, which would run past
		// the end of the reservation.
		h.base = base + (PageSize - base%PageSize)
		h.pageBits = uint64(1) << 63
	}
	return h, nil
}

// includes reports whether addr falls within this heap's reservation.
func (h *Heap) includes(addr Address) bool {
	return addr >= h.base && addr < h.base.Add(HeapSize)
}

func (h *Heap) isFull() bool {
	return ^atomic.LoadUint64(&h.pageBits) == 0
}

func (h *Heap) isEmpty(initial uint64) bool {
	return atomic.LoadUint64(&h.pageBits) == initial
}

// allocPage atomically claims the lowest-index clear bit in the heap's
// page bitmap, grants read/write to that page via mprotect, and
// initializes a fresh Page header over it. Returns nil if the heap has
// no free pages.
func (h *Heap) allocPage() (*Page, error) {
	for {
		bitmap := atomic.LoadUint64(&h.pageBits)
		if ^bitmap == 0 {
			return nil, nil // heap full
		}
		ix := bits.TrailingZeros64(^bitmap)
		bit := uint64(1) << uint(ix)
		prev := atomic.LoadUint64(&h.pageBits)
		for prev&bit != 0 {
			// someone else claimed it first; reload and retry scan
			prev = atomic.LoadUint64(&h.pageBits)
			if ^prev == 0 {
				return nil, nil
			}
			ix = bits.TrailingZeros64(^prev)
			bit = uint64(1) << uint(ix)
		}
		if !atomic.CompareAndSwapUint64(&h.pageBits, prev, prev|bit) {
			continue // lost the race; rescan
		}
		addr := h.base.Add(int64(ix) * PageSize)
		if err := unix.Mprotect(rawBytes(addr, PageSize), unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return nil, fmt.Errorf("heap: mprotect page %s: %w", addr, err)
		}
		page := newPage(h, addr)
		h.pages[ix] = page
		return page, nil
	}
}

// freePage requires the page to be unoccupied. It drops read/write
// access, advises the OS the memory is not needed, and clears the
// bitmap bit so the slot can be reused.
func (h *Heap) freePage(p *Page) error {
	if occ := atomic.LoadInt64(&p.occupancy); occ != 0 {
		return fmt.Errorf("heap: freePage: page %s has %d live cells", p.addr, occ)
	}
	buf := rawBytes(p.addr, PageSize)
	if err := unix.Mprotect(buf, unix.PROT_NONE); err != nil {
		return fmt.Errorf("heap: mprotect(PROT_NONE) %s: %w", p.addr, err)
	}
	if err := unix.Madvise(buf, unix.MADV_DONTNEED); err != nil {
		return fmt.Errorf("heap: madvise(DONTNEED) %s: %w", p.addr, err)
	}
	ix := p.addr.Sub(h.base) / PageSize
	for {
		prev := atomic.LoadUint64(&h.pageBits)
		if !atomic.CompareAndSwapUint64(&h.pageBits, prev, prev&^(uint64(1)<<uint(ix))) {
			continue
		}
		break
	}
	h.pages[ix] = nil
	return nil
}

// PageFromInterior floors addr to its containing 2MiB page and returns
// the Page descriptor, or nil if the address doesn't belong to a live
// page in this heap. Debug builds of the original C runtime instead
// assert a magic word; we keep the magic word as a corruption check but
// resolve the Page object via the heap's own index, since Go lets the
// Page live as an ordinary managed value rather than overlaid bytes.
func (h *Heap) pageFromInterior(addr Address) *Page {
	if !h.includes(addr) {
		return nil
	}
	floor := addr - Address(uintptr(addr)%PageSize)
	ix := floor.Sub(h.base) / PageSize
	if ix < 0 || ix >= PagesPerHeap {
		return nil
	}
	p := h.pages[ix]
	if p == nil {
		return nil
	}
	if p.magic != pageMagic(floor) {
		panic(fmt.Sprintf("heap: corrupt page header at %s", floor))
	}
	return p
}

func pageMagic(addr Address) uint64 {
	const prime = uint64(12233355555333221)
	return prime * (uint64(addr) >> PageSizeLg2)
}
