// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"sync"
	"sync/atomic"
)

// A Pool is the process-wide memory substrate: the linked list of Heaps
// (head is always the newest, not-yet-full heap) and a free-page list
// the collector populates so allocators can skip straight to a recycled
// page instead of committing new address space. This mirrors the
// `free` and `root.heaps`-adjacent fields of the C prototype's
// `glas_rt` singleton, minus the thread list and globals root, which
// belong to packages mutator and register respectively.
type Pool struct {
	mu       sync.Mutex // guards the heaps list head and the free-list head
	heaps    *Heap
	freeHead unsafePagePtr
	freeLen  int64 // atomic
}

// unsafePagePtr is the *Page free-list head, read and compare-and-swapped
// only while holding Pool.mu (see loadFree/casFree); it is not an
// atomic.Pointer[Page].
type unsafePagePtr struct {
	p *Page
}

func NewPool() *Pool {
	return &Pool{}
}

// AllocPage implements the three-tier allocation strategy from
// glas_rt_try_alloc_page: free list, then head-of-heaps, then grow.
func (pool *Pool) AllocPage() (*Page, error) {
	for {
		if p := pool.popFree(); p != nil {
			p.reinit()
			return p, nil
		}
		if p := pool.allocFromHeaps(); p != nil {
			return p, nil
		}
		grew, err := pool.growHeaps()
		if err != nil {
			return nil, err
		}
		if !grew {
			return nil, nil // out of memory
		}
	}
}

func (pool *Pool) popFree() *Page {
	for {
		cur := pool.loadFree()
		if cur == nil {
			return nil
		}
		next := cur.next
		if pool.casFree(cur, next) {
			atomic.AddInt64(&pool.freeLen, -1)
			return cur
		}
	}
}

func (pool *Pool) pushFree(p *Page) {
	for {
		cur := pool.loadFree()
		p.next = cur
		if pool.casFree(cur, p) {
			atomic.AddInt64(&pool.freeLen, 1)
			return
		}
	}
}

// loadFree/casFree give popFree/pushFree a compare-and-swap interface to
// the singly linked free-list head; each call takes Pool.mu, so the
// free list is mutex-guarded, not lock-free.
func (pool *Pool) loadFree() *Page {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return pool.freeHead.p
}

func (pool *Pool) casFree(old, new *Page) bool {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	if pool.freeHead.p != old {
		return false
	}
	pool.freeHead.p = new
	return true
}

// FreePage returns a page with zero occupancy to the free list; the
// collector may later reclaim it entirely via munmap at heap-compaction
// time (not implemented: the runtime favors keeping address space
// reserved and page recycling over returning it to the heap's bitmap).
func (pool *Pool) FreePage(p *Page) {
	pool.pushFree(p)
}

func (pool *Pool) allocFromHeaps() *Page {
	pool.mu.Lock()
	h := pool.heaps
	pool.mu.Unlock()
	if h == nil {
		return nil
	}
	p, err := h.allocPage()
	if err != nil || p == nil {
		return nil
	}
	return p
}

// growHeaps ensures the heaps list head is not full, reserving a new
// heap if necessary. Mirrors glas_rt_try_add_heap's race handling: if
// we lose the race to install our new heap, we just discard it (no
// unmap needed since nothing was ever committed on it).
func (pool *Pool) growHeaps() (bool, error) {
	pool.mu.Lock()
	head := pool.heaps
	if head != nil && !head.isFull() {
		pool.mu.Unlock()
		return true, nil
	}
	pool.mu.Unlock()

	newHeap, err := reserveHeap()
	if err != nil {
		return false, err
	}
	pool.mu.Lock()
	defer pool.mu.Unlock()
	if pool.heaps != nil && !pool.heaps.isFull() {
		// someone else grew the list first; drop ours.
		return true, nil
	}
	newHeap.next = pool.heaps
	pool.heaps = newHeap
	return true, nil
}

// FreeLen reports the number of pages currently sitting in the free
// list, for diagnostics and tests.
func (pool *Pool) FreeLen() int64 {
	return atomic.LoadInt64(&pool.freeLen)
}

// ForEachPage invokes fn once per page currently committed across every
// heap in the pool, in heap-then-slot order. Used by the collector to
// drive root-independent sweeps (card rescans, promotion, lazy free).
func (pool *Pool) ForEachPage(fn func(*Page)) {
	pool.mu.Lock()
	h := pool.heaps
	pool.mu.Unlock()
	for h != nil {
		for _, p := range h.pages {
			if p != nil {
				fn(p)
			}
		}
		h = h.next
	}
}

// PageFromInterior floors addr to its containing page and returns its
// descriptor by scanning the heap list. O(heaps), which is fine: heaps
// number in the tens at most for any process using this runtime.
func (pool *Pool) PageFromInterior(addr Address) *Page {
	pool.mu.Lock()
	h := pool.heaps
	pool.mu.Unlock()
	for h != nil {
		if h.includes(addr) {
			return h.pageFromInterior(addr)
		}
		h = h.next
	}
	return nil
}
