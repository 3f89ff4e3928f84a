// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glas

import (
	"fmt"

	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/namespace"
	"glas.dev/rt/internal/rterr"
)

// NameDefined reports whether name resolves in c's current namespace
// (spec.md §6's name_defined).
func (c *Context) NameDefined(name string) bool { return c.ns().NameDefined(name) }

// PrefixInUse reports whether any defined name starts with prefix
// (spec.md §6's prefix_inuse).
func (c *Context) PrefixInUse(prefix string) bool { return c.ns().PrefixInUse(prefix) }

// ArmShadow arms the one-shot shadowing flag so the next Define or
// DefineByCallback may redefine an already-visible name (spec.md §6's
// name_shadow).
func (c *Context) ArmShadow() { c.pushNamespace(c.ns().ArmShadow()) }

// Define binds name to register in c's namespace.
func (c *Context) Define(name, register string) error {
	next, err := c.ns().Define(name, register)
	if err != nil {
		return err
	}
	c.pushNamespace(next)
	return nil
}

// DefineByCallback binds name to a host callback (spec.md §8 scenario
// S6).
func (c *Context) DefineByCallback(name string, cb namespace.CallbackDef) error {
	next, err := c.ns().DefineByCallback(name, cb)
	if err != nil {
		return err
	}
	c.pushNamespace(next)
	return nil
}

// Call invokes the name defined in c's namespace: a DefRegister name
// cannot be called (rterr.NameType), an undefined name fails with
// rterr.NameUndef, and a DefCallback name consumes exactly ArityIn
// stack cells and pushes exactly ArityOut results.
//
// An Atomic callback (spec.md §6's CallbackDef.Atomic) runs with
// Commit disabled for its duration: attempting to commit from inside
// one fails with rterr.AtomicCB, the same way the C prototype forbids
// a callback from yielding mid-body.
func (c *Context) Call(name string) error {
	d, ok := c.ns().Lookup(name)
	if !ok {
		c.step.Fail(rterr.NameUndef)
		return rterr.NameUndef
	}
	if d.Kind != namespace.DefCallback {
		c.step.Fail(rterr.NameType)
		return rterr.NameType
	}
	cb := d.Callback
	if len(c.stack) < cb.ArityIn {
		c.step.Fail(rterr.Underflow)
		return rterr.Underflow
	}
	base := len(c.stack) - cb.ArityIn
	args := append([]cell.Ref(nil), c.stack[base:]...)
	c.stack = c.stack[:base]

	if cb.Atomic {
		c.atomicDepth++
	}
	out, err := cb.Fn(args)
	if cb.Atomic {
		c.atomicDepth--
	}
	if err != nil {
		c.stack = append(c.stack, args...)
		return err
	}
	if len(out) != cb.ArityOut {
		c.stack = append(c.stack, args...)
		return fmt.Errorf("glas: callback %q returned %d values, arity declares %d", name, len(out), cb.ArityOut)
	}
	c.stack = append(c.stack, out...)
	return nil
}
