// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"sync"

	"glas.dev/rt/internal/cell"
)

// markQueue is the shared grey-set worklist: the mark goroutine drains
// it while root scanning and card rescans seed it, and concurrently
// running mutators push onto it from WriteBarrier. A mutex is
// sufficient here; the queue is touched far less often than individual
// cell fields, which use their own atomics.
type markQueue struct {
	mu    sync.Mutex
	items []cell.Ref
}

func (q *markQueue) push(r cell.Ref) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
}

func (q *markQueue) pop() (cell.Ref, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return cell.Nil, false
	}
	n := len(q.items) - 1
	r := q.items[n]
	q.items = q.items[:n]
	return r, true
}
