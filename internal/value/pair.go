// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "glas.dev/rt/internal/cell"

// MkPair allocates one BRANCH joining l and r (spec.md §4.5 mkp). The
// stemH inline-prefix optimisation the C prototype uses to fold a
// short bit-prefix into an existing cell is not implemented here: it
// is a representation optimisation spec.md §3.2 explicitly allows
// skipping ("MUST be implementable without changing external
// behaviour"), so every pair always costs one allocation.
func (f *Factory) MkPair(l, r cell.Ref) (cell.Ref, error) {
	ref, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	cell.NewBranch(ref, 0, 0, l, r)
	f.link(ref, l)
	f.link(ref, r)
	ref.SetAggr(cell.Join(childAggr(l), childAggr(r)))
	return ref, nil
}

// UnPair succeeds only if top is a BRANCH, per spec.md §4.5's "unp
// succeeds only if the top-of-stack cell's structural shape matches;
// otherwise the operation fails (returns false) without mutation."
func UnPair(top cell.Ref) (l, r cell.Ref, ok bool) {
	if top.IsNil() || top.Kind() != cell.Branch {
		return cell.Nil, cell.Nil, false
	}
	return top.BranchL(), top.BranchR(), true
}
