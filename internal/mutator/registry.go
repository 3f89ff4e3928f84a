// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mutator

import (
	"sync"

	"glas.dev/rt/internal/cell"
)

// GlobalRootsFunc supplies the runtime's non-thread roots: the lazy
// register volume and post-commit queue heads (package register),
// spec.md §4.3.2.
type GlobalRootsFunc func() []cell.Ref

// Registry tracks every live Thread and implements gc.RootSource so a
// Collector can drive a full cycle over exactly the threads currently
// registered, without either package importing the other's internals.
type Registry struct {
	mu      sync.Mutex
	threads map[*Thread]bool
	globals GlobalRootsFunc
}

func NewRegistry(globals GlobalRootsFunc) *Registry {
	return &Registry{threads: make(map[*Thread]bool), globals: globals}
}

func (r *Registry) Add(t *Thread) {
	r.mu.Lock()
	r.threads[t] = true
	r.mu.Unlock()
}

func (r *Registry) Remove(t *Thread) {
	r.mu.Lock()
	delete(r.threads, t)
	r.mu.Unlock()
}

// ThreadRoots implements gc.RootSource.
func (r *Registry) ThreadRoots() [][]cell.Ref {
	r.mu.Lock()
	threads := make([]*Thread, 0, len(r.threads))
	for t := range r.threads {
		threads = append(threads, t)
	}
	r.mu.Unlock()

	out := make([][]cell.Ref, 0, len(threads))
	for _, t := range threads {
		if roots := t.liveRoots(); roots != nil {
			out = append(out, roots)
		}
	}
	return out
}

// GlobalRoots implements gc.RootSource.
func (r *Registry) GlobalRoots() []cell.Ref {
	if r.globals == nil {
		return nil
	}
	return r.globals()
}
