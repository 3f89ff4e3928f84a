// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alloc implements the thread-local bump allocator each
// mutator uses to obtain fresh Cell slots (spec.md §4.2): scan the
// current allocation page's marked bitmap (set by the previous
// collection cycle) for the next free slot past the cursor, and fall
// back to the shared heap.Pool for a new page when the current one is
// exhausted.
package alloc

import (
	"errors"

	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

// ErrOutOfMemory is returned when the pool reports neither a page nor
// an error. A failed heap reservation is returned as the pool's own
// error instead.
var ErrOutOfMemory = errors.New("alloc: out of memory")

// Allocator is owned by exactly one mutator thread; it is not safe for
// concurrent use from multiple goroutines, mirroring glas_thread's
// single current-allocation-page field in the C prototype.
type Allocator struct {
	pool    *heap.Pool
	current *heap.Page
}

func New(pool *heap.Pool) *Allocator {
	return &Allocator{pool: pool}
}

// AllocCell returns a fresh, zeroed Ref. The caller is responsible for
// immediately writing a valid Kind into it (e.g. via one of the
// cell.NewXxx constructors) before the slot becomes visible to any
// other thread or the collector.
func (a *Allocator) AllocCell() (cell.Ref, error) {
	for {
		if a.current != nil {
			if addr, ok := a.current.AllocCell(); ok {
				zero(addr)
				return cell.Ref(addr), nil
			}
		}
		page, err := a.pool.AllocPage()
		if err != nil {
			return cell.Nil, err
		}
		if page == nil {
			return cell.Nil, ErrOutOfMemory
		}
		a.current = page
	}
}

// zero clears a freshly allocated cell slot. Pages are acquired from
// the OS (or recycled via madvise(MADV_DONTNEED)) already zeroed, but a
// page recycled after compaction without a fresh mmap may still carry
// a prior occupant's bytes, so we clear defensively on every
// allocation; this costs one 32-byte store and keeps Kind() == Invalid
// until a constructor runs.
func zero(addr heap.Address) {
	b := heap.Bytes(addr, cell.Size)
	for i := range b {
		b[i] = 0
	}
}

// CurrentPage exposes the allocator's current page, for tests.
func (a *Allocator) CurrentPage() *heap.Page { return a.current }
