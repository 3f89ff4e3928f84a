// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "glas.dev/rt/internal/cell"

// A dict is a binary trie over its labels' bits (MSB-first per byte):
// BRANCH.L is the zero-bit child, BRANCH.R the one-bit child, and
// cell.Nil an absent subtree -- sharing Branch with pairs the way
// spec.md's Cell table implies ("a pair/sum interior node"). One bit
// past a label's last byte, every present entry gets one more BRANCH
// level whose L child is the stored value and R child is always Nil;
// this "terminal wrapper" is what lets DictGet tell an absent entry
// (root is Nil or not a BRANCH at that depth) from a present entry
// whose value legitimately is cell.Nil (unit). This is an uncompressed
// trie -- spec.md §178's radix/PATRICIA-style edge compression is a
// representation optimisation §3.2 does not require for correctness.
func labelBits(label []byte) []bool {
	bits := make([]bool, 0, len(label)*8)
	for _, b := range label {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1 != 0)
		}
	}
	return bits
}

// DictGet looks up label in the dict rooted at top (spec.md §4.5).
func DictGet(top cell.Ref, label []byte) (cell.Ref, bool) {
	return dictGet(top, labelBits(label))
}

func dictGet(root cell.Ref, bits []bool) (cell.Ref, bool) {
	if len(bits) == 0 {
		if root.IsNil() || root.Kind() != cell.Branch {
			return cell.Nil, false
		}
		return root.BranchL(), true
	}
	if root.IsNil() || root.Kind() != cell.Branch {
		return cell.Nil, false
	}
	if bits[0] {
		return dictGet(root.BranchR(), bits[1:])
	}
	return dictGet(root.BranchL(), bits[1:])
}

// DictInsert returns a new dict equal to top with label mapped to
// value, sharing every subtree top doesn't need to change (spec.md
// §4.5's "insert/remove re-thread the tree sharing untouched
// subtrees").
func (f *Factory) DictInsert(top cell.Ref, label []byte, value cell.Ref) (cell.Ref, error) {
	return f.dictInsert(top, labelBits(label), value)
}

func (f *Factory) dictInsert(root cell.Ref, bits []bool, value cell.Ref) (cell.Ref, error) {
	if len(bits) == 0 {
		ref, err := f.alloc.AllocCell()
		if err != nil {
			return cell.Nil, err
		}
		cell.NewBranch(ref, 0, 0, value, cell.Nil)
		f.link(ref, value)
		ref.SetAggr(cell.Join(childAggr(value), 0))
		return ref, nil
	}
	var l, r cell.Ref
	if !root.IsNil() && root.Kind() == cell.Branch {
		l, r = root.BranchL(), root.BranchR()
	}
	var err error
	if bits[0] {
		r, err = f.dictInsert(r, bits[1:], value)
	} else {
		l, err = f.dictInsert(l, bits[1:], value)
	}
	if err != nil {
		return cell.Nil, err
	}
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

// DictRemove returns a new dict equal to top with label absent, or
// ok=false if label was not present. Emptied interior branches
// collapse back to cell.Nil so two dicts with the same entries always
// compare structurally equal.
func (f *Factory) DictRemove(top cell.Ref, label []byte) (cell.Ref, bool, error) {
	return f.dictRemove(top, labelBits(label))
}

func (f *Factory) dictRemove(root cell.Ref, bits []bool) (cell.Ref, bool, error) {
	if root.IsNil() || root.Kind() != cell.Branch {
		return root, false, nil
	}
	if len(bits) == 0 {
		return cell.Nil, true, nil
	}
	l, r := root.BranchL(), root.BranchR()
	var removed bool
	var err error
	if bits[0] {
		r, removed, err = f.dictRemove(r, bits[1:])
	} else {
		l, removed, err = f.dictRemove(l, bits[1:])
	}
	if err != nil || !removed {
		return root, removed, err
	}
	if l.IsNil() && r.IsNil() {
		return cell.Nil, true, nil
	}
	ref, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, false, err
	}
	cell.NewBranch(ref, 0, 0, l, r)
	f.link(ref, l)
	f.link(ref, r)
	ref.SetAggr(cell.Join(childAggr(l), childAggr(r)))
	return ref, true, nil
}
