// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package register implements spec.md §6's Registers surface: families
// installed by reg_new(prefix), content read/written as pure data cells
// via reg_get/reg_set, and the optimistic-CAS version bookkeeping
// package step's Commit uses to detect a lost conflict (spec.md
// §4.4.2, §8 property 8).
package register

import (
	"fmt"
	"strings"
	"sync"

	"glas.dev/rt/internal/alloc"
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/gc"
)

// Reg is one named register: the live REGISTER cell plus a version
// counter bumped on every successful content publish. Readers within a
// step record the version they observed; Commit's CAS succeeds only if
// the version is unchanged (spec.md §4.4.2).
type Reg struct {
	ref     cell.Ref
	version uint64
}

func (r *Reg) Ref() cell.Ref    { return r.ref }
func (r *Reg) Version() uint64  { return r.version }

// Table is one register family/volume: a name->Reg map, installed a
// prefix at a time by New, and the source of the runtime's global GC
// roots for register content (spec.md §4.3.2's "globals: lazy register
// volume").
type Table struct {
	mu     sync.RWMutex
	regs   map[string]*Reg
	prefix map[string]bool
	alloc  *alloc.Allocator
	coll   *gc.Collector
}

func NewTable(a *alloc.Allocator, coll *gc.Collector) *Table {
	return &Table{
		regs:   make(map[string]*Reg),
		prefix: make(map[string]bool),
		alloc:  a,
		coll:   coll,
	}
}

// New installs a register family under prefix (reg_new(prefix)). It is
// idempotent-safe to call twice with the same prefix; registers under
// it are created lazily by Get/Set on first use.
func (t *Table) New(prefix string) {
	t.mu.Lock()
	t.prefix[prefix] = true
	t.mu.Unlock()
}

// PrefixInUse reports whether any installed family's prefix contains
// or is contained by prefix -- reg_new conflicts are caught the same
// way namespace.PrefixInUse catches name conflicts.
func (t *Table) PrefixInUse(prefix string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for p := range t.prefix {
		if strings.HasPrefix(p, prefix) || strings.HasPrefix(prefix, p) {
			return true
		}
	}
	return false
}

func (t *Table) lookupOrCreate(name string) (*Reg, error) {
	t.mu.RLock()
	r, ok := t.regs[name]
	t.mu.RUnlock()
	if ok {
		return r, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.regs[name]; ok {
		return r, nil
	}
	ref, err := t.alloc.AllocCell()
	if err != nil {
		return nil, fmt.Errorf("register: allocating %q: %w", name, err)
	}
	cell.NewRegister(ref, cell.Nil, cell.Nil, cell.Nil)
	r = &Reg{ref: ref}
	t.regs[name] = r
	return r, nil
}

// Get returns name's current content cell and the version a step
// should record if it wants to guard a later Set with a CAS (reg_get).
func (t *Table) Get(name string) (cell.Ref, uint64, error) {
	r, err := t.lookupOrCreate(name)
	if err != nil {
		return cell.Nil, 0, err
	}
	return r.ref.RegContent(), r.Version(), nil
}

// Set publishes content unconditionally, bumping the version. Used
// outside a transactional step (tests, initial seeding); package step
// calls CAS instead so commits participate in conflict detection.
func (t *Table) Set(name string, content cell.Ref) error {
	r, err := t.lookupOrCreate(name)
	if err != nil {
		return err
	}
	r.ref.SetRegContent(content)
	if t.coll != nil {
		t.coll.WriteBarrier(r.ref, content)
	}
	r.version++
	return nil
}

// ErrConflict is returned by CAS when the register's version moved
// since the step recorded it (spec.md §8 property 8).
type ErrConflict struct{ Name string }

func (e *ErrConflict) Error() string { return fmt.Sprintf("register: conflict on %q", e.Name) }

// CAS is the publish primitive for a single write: it succeeds only if
// the register's version still equals expectVersion, then writes
// content and bumps the version atomically with respect to other CAS
// callers (guarded by the table's write lock; cheap enough for a
// runtime that commits one step at a time per register). Multi-write
// commits must use CASAll instead -- see its doc comment for why.
func (t *Table) CAS(name string, expectVersion uint64, content cell.Ref) error {
	return t.CASAll([]Write{{Name: name, ExpectVersion: expectVersion, Content: content}})
}

// Write is one register publish a step wants CASAll to apply.
type Write struct {
	Name          string
	ExpectVersion uint64
	Content       cell.Ref
}

// CASAll publishes every write in a single step's commit atomically:
// all expected versions are checked before any register is mutated, so
// a version mismatch partway through the list can never leave an
// earlier write in the same batch durably applied (spec.md §4.4.2's
// "on conflict, set E_CONFLICT, abort, and return failure" -- a step's
// register publish must be all-or-nothing, not applied write-by-write).
// Returns the first *ErrConflict encountered during validation.
func (t *Table) CASAll(writes []Write) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	regs := make([]*Reg, len(writes))
	for i, w := range writes {
		r, ok := t.regs[w.Name]
		if !ok {
			if w.ExpectVersion != 0 {
				return &ErrConflict{Name: w.Name}
			}
			continue // created below, once every write has validated
		}
		if r.version != w.ExpectVersion {
			return &ErrConflict{Name: w.Name}
		}
		regs[i] = r
	}

	for i, w := range writes {
		r := regs[i]
		if r == nil {
			ref, err := t.alloc.AllocCell()
			if err != nil {
				return fmt.Errorf("register: allocating %q: %w", w.Name, err)
			}
			cell.NewRegister(ref, cell.Nil, cell.Nil, cell.Nil)
			r = &Reg{ref: ref}
			t.regs[w.Name] = r
		}
		r.ref.SetRegContent(w.Content)
		if t.coll != nil {
			t.coll.WriteBarrier(r.ref, w.Content)
		}
		r.version++
	}
	return nil
}

// GlobalRoots returns every register's REGISTER cell (its content is
// reached through the cell's content field), the register half
// of the runtime's global GC roots (spec.md §4.3.2).
func (t *Table) GlobalRoots() []cell.Ref {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]cell.Ref, 0, len(t.regs))
	for _, r := range t.regs {
		out = append(out, r.ref)
	}
	return out
}
