// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glas

import (
	"fmt"
	"strings"

	"glas.dev/rt/internal/alloc"
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/mutator"
	"glas.dev/rt/internal/namespace"
	"glas.dev/rt/internal/rterr"
	"glas.dev/rt/internal/step"
	"glas.dev/rt/internal/value"
)

// Context is one host-visible thread: a data stack, a stash, a
// namespace overlay pointer, and the in-progress transactional Step
// (spec.md §6's "Context lifecycle"). Unlike Runtime, a Context is not
// safe for concurrent use -- exactly one goroutine drives it, matching
// the single-threaded-per-context contract the C prototype's
// glas_context_t enforces by construction.
type Context struct {
	rt     *Runtime
	alloc  *alloc.Allocator
	values *value.Factory
	thread *mutator.Thread

	nsHistory []*namespace.Namespace
	nsHead    int

	stack []cell.Ref
	stash []cell.Ref

	shadowArmed bool
	suppressLin bool
	atomicDepth int

	step *step.Step
}

// NewContext creates a fresh thread over rt with an empty stack, stash,
// and namespace, registered with rt's collector so it participates in
// the next Collect cycle (spec.md §4.4.1).
func NewContext(rt *Runtime) *Context {
	c := &Context{
		rt:        rt,
		alloc:     alloc.New(rt.pool),
		nsHistory: []*namespace.Namespace{namespace.New()},
	}
	c.values = value.New(c.alloc, rt.coll, rt.big)
	c.thread = mutator.NewThread(rt.coord, c)
	rt.registry.Add(c.thread)
	return c
}

// Drop unregisters c from its Runtime's collector, the inverse of
// NewContext (spec.md §6's "Context lifecycle": create, drop, ...).
func (c *Context) Drop() {
	c.thread.Terminate()
	c.rt.registry.Remove(c.thread)
}

// Fork creates a sibling Context sharing c's namespace snapshot and
// register table, transferring the top stackTransfer cells of c's
// stack to the new Context (spec.md §4.4.4's fork, §6's "fork (with
// optional stack transfer count 0-255)"). The fork is a child step of
// c's current step: it cannot commit until c's step commits, and is
// marked a dead branch if c aborts first.
func (c *Context) Fork(stackTransfer int) (*Context, error) {
	if c.step == nil {
		return nil, fmt.Errorf("glas: Fork requires an open step")
	}
	if stackTransfer < 0 || stackTransfer > 255 {
		return nil, fmt.Errorf("glas: stack transfer count %d out of range [0,255]", stackTransfer)
	}
	if len(c.stack) < stackTransfer {
		c.step.Fail(rterr.Underflow)
		return nil, rterr.Underflow
	}

	child := &Context{
		rt:        c.rt,
		alloc:     alloc.New(c.rt.pool),
		nsHistory: append([]*namespace.Namespace(nil), c.ns().Fork()),
	}
	child.values = value.New(child.alloc, c.rt.coll, c.rt.big)
	child.thread = mutator.NewThread(c.rt.coord, child)
	c.rt.registry.Add(child.thread)

	base := len(c.stack) - stackTransfer
	child.stack = append(child.stack, c.stack[base:]...)
	c.stack = c.stack[:base]

	child.step = c.step.Fork()
	return child, nil
}

// Choice splits c's current step into n sibling steps, of which only
// the first to commit wins (spec.md §4.4.4). The returned Contexts
// share c's stack/stash/namespace value at the moment of the call;
// callers typically run each on its own goroutine.
func (c *Context) Choice(n int) ([]*Context, error) {
	if c.step == nil {
		return nil, fmt.Errorf("glas: Choice requires an open step")
	}
	steps := c.step.Choice(n)
	out := make([]*Context, n)
	for i, st := range steps {
		ctx := &Context{
			rt:        c.rt,
			alloc:     alloc.New(c.rt.pool),
			nsHistory: append([]*namespace.Namespace(nil), c.ns()),
			stack:     append([]cell.Ref(nil), c.stack...),
			stash:     append([]cell.Ref(nil), c.stash...),
			step:      st,
		}
		ctx.values = value.New(ctx.alloc, c.rt.coll, c.rt.big)
		ctx.thread = mutator.NewThread(c.rt.coord, ctx)
		c.rt.registry.Add(ctx.thread)
		out[i] = ctx
	}
	return out, nil
}

// Roots implements mutator.RootProvider: the cells on c's stack and
// stash. Values held only by the in-flight step's pending register
// writes are not included.
func (c *Context) Roots() []cell.Ref {
	out := make([]cell.Ref, 0, len(c.stack)+len(c.stash))
	out = append(out, c.stack...)
	out = append(out, c.stash...)
	return out
}

// step.State implementation.

func (c *Context) ns() *namespace.Namespace { return c.nsHistory[c.nsHead] }

func (c *Context) StackDepth() int       { return len(c.stack) }
func (c *Context) TruncateStack(n int)    { c.stack = c.stack[:n] }
func (c *Context) StashDepth() int       { return len(c.stash) }
func (c *Context) TruncateStash(n int)    { c.stash = c.stash[:n] }
func (c *Context) NamespaceHead() uint64  { return uint64(c.nsHead) }
func (c *Context) SetNamespaceHead(h uint64) {
	c.nsHead = int(h)
	c.nsHistory = c.nsHistory[:c.nsHead+1]
}
func (c *Context) ShadowArmed() bool      { return c.shadowArmed }
func (c *Context) SetShadowArmed(b bool)  { c.shadowArmed = b }

// pushNamespace records a new namespace snapshot at the current head,
// the bookkeeping Define/ArmShadow need to make NamespaceHead a valid
// checkpoint reference (package step only stores an opaque uint64).
func (c *Context) pushNamespace(n *namespace.Namespace) {
	c.nsHistory = append(c.nsHistory[:c.nsHead+1], n)
	c.nsHead++
}

// Begin starts a fresh transactional step over c (spec.md §4.4.2).
func (c *Context) Begin() {
	c.thread.EnterBusy()
	c.step = step.Begin(c, c.rt.regs, c.rt)
}

// Commit publishes c's pending register writes and post-commit ops
// (spec.md §4.4.2). On success, c immediately begins its next step; on
// failure the caller should inspect Errors and decide whether to Abort.
func (c *Context) Commit() bool {
	if c.atomicDepth > 0 {
		c.step.Fail(rterr.AtomicCB)
		return false
	}
	ok := c.step.Commit(c)
	c.thread.EnterIdle()
	if ok {
		c.Begin()
	}
	return ok
}

// Abort restores c to the checkpoint taken at Begin (spec.md §4.4.4,
// §8 property 9) and starts a fresh step in its place.
func (c *Context) Abort() {
	c.step.Abort(c)
	c.thread.EnterIdle()
	c.Begin()
}

// Errors reports the current step's accumulated error flags.
func (c *Context) Errors() rterr.Flags { return c.step.Errors() }

// Stack operations (spec.md §6's "Stack").

// Push places v on top of the stack.
func (c *Context) Push(v cell.Ref) { c.stack = append(c.stack, v) }

// Pop removes and returns the top of the stack, failing with
// rterr.Underflow (leaving the stack unchanged) if it is empty.
func (c *Context) Pop() (cell.Ref, error) {
	if len(c.stack) == 0 {
		c.step.Fail(rterr.Underflow)
		return cell.Nil, rterr.Underflow
	}
	v := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return v, nil
}

// DropN removes the top n stack cells, failing with rterr.Linearity
// (and leaving the stack unchanged) if any of them is linear and the
// linearity check is not currently suppressed.
func (c *Context) DropN(n int) error {
	if len(c.stack) < n {
		c.step.Fail(rterr.Underflow)
		return rterr.Underflow
	}
	base := len(c.stack) - n
	for _, v := range c.stack[base:] {
		if err := value.CheckLinear(v, c.suppressLin); err != nil {
			c.step.Fail(rterr.Linearity)
			return err
		}
	}
	c.stack = c.stack[:base]
	return nil
}

// Copy duplicates the top n stack cells, failing with rterr.Linearity
// if any of them is linear and the check is not suppressed.
func (c *Context) Copy(n int) error {
	if len(c.stack) < n {
		c.step.Fail(rterr.Underflow)
		return rterr.Underflow
	}
	base := len(c.stack) - n
	for _, v := range c.stack[base:] {
		if err := value.CheckLinear(v, c.suppressLin); err != nil {
			c.step.Fail(rterr.Linearity)
			return err
		}
	}
	c.stack = append(c.stack, c.stack[base:]...)
	return nil
}

// SuppressLinearity toggles whether DropN/Copy/StructuredMove enforce
// linearity, the "thread context has suppressed the check" escape
// hatch spec.md §4.5 names.
func (c *Context) SuppressLinearity(suppress bool) { c.suppressLin = suppress }

// StructuredMove implements spec.md §6's structured stack move: a
// descriptor like "abc-abcabc" names the top len(in) stack cells
// left-to-right by letter (rightmost letter is the current
// top-of-stack), then rebuilds the stack top from the right side's
// letters in order (rightmost is the new top-of-stack). A letter
// appearing zero times on the right is dropped; more than once is
// copied; both are subject to the linearity check.
func (c *Context) StructuredMove(descriptor string) error {
	in, out, ok := strings.Cut(descriptor, "-")
	if !ok {
		return fmt.Errorf("glas: malformed stack-move descriptor %q", descriptor)
	}
	if len(c.stack) < len(in) {
		c.step.Fail(rterr.Underflow)
		return rterr.Underflow
	}
	base := len(c.stack) - len(in)
	vals := make(map[byte]cell.Ref, len(in))
	for i := 0; i < len(in); i++ {
		vals[in[i]] = c.stack[base+i]
	}
	uses := make(map[byte]int, len(in))
	for i := 0; i < len(out); i++ {
		uses[out[i]]++
	}
	for ch, v := range vals {
		if n := uses[ch]; n != 1 {
			if err := value.CheckLinear(v, c.suppressLin); err != nil {
				c.step.Fail(rterr.Linearity)
				return err
			}
		}
	}
	next := make([]cell.Ref, len(out))
	for i := 0; i < len(out); i++ {
		v, ok := vals[out[i]]
		if !ok {
			return fmt.Errorf("glas: stack-move descriptor %q references undeclared name %q", descriptor, out[i])
		}
		next[i] = v
	}
	c.stack = append(c.stack[:base], next...)
	return nil
}

// Stash moves n cells between the stack and the unbounded-depth stash
// (spec.md §6): a positive n moves the top n stack cells onto the
// stash, a negative n moves the top -n stash cells back onto the
// stack.
func (c *Context) Stash(n int) error {
	switch {
	case n > 0:
		if len(c.stack) < n {
			c.step.Fail(rterr.Underflow)
			return rterr.Underflow
		}
		base := len(c.stack) - n
		c.stash = append(c.stash, c.stack[base:]...)
		c.stack = c.stack[:base]
	case n < 0:
		n = -n
		if len(c.stash) < n {
			c.step.Fail(rterr.Underflow)
			return rterr.Underflow
		}
		base := len(c.stash) - n
		c.stack = append(c.stack, c.stash[base:]...)
		c.stash = c.stash[:base]
	}
	return nil
}
