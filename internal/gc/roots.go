// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import "glas.dev/rt/internal/cell"

// RootSource supplies a collection cycle's starting points: per-thread
// root descriptors (package mutator) and the runtime's global roots
// (the lazy register volume, post-commit queue heads -- package
// register), spec.md §4.3.2.
type RootSource interface {
	ThreadRoots() [][]cell.Ref
	GlobalRoots() []cell.Ref
}

// staticRoots is the trivial RootSource used by tests and by any
// embedder that manages its own root bookkeeping outside packages
// mutator/register.
type staticRoots struct {
	threads [][]cell.Ref
	globals []cell.Ref
}

func StaticRoots(threads [][]cell.Ref, globals []cell.Ref) RootSource {
	return &staticRoots{threads: threads, globals: globals}
}

func (s *staticRoots) ThreadRoots() [][]cell.Ref { return s.threads }
func (s *staticRoots) GlobalRoots() []cell.Ref   { return s.globals }
