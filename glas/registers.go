// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glas

import (
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/rterr"
)

// RegNew installs a register family under prefix (spec.md §8 scenario
// S3's reg_new). It fails (returns false) if prefix conflicts with an
// already-installed family.
func (c *Context) RegNew(prefix string) bool { return c.rt.NewRegisterFamily(prefix) }

// RegRW swaps the top of the stack with name's current content
// (spec.md §6's "reg_rw(name) swap with stack"): the popped value
// becomes the register's new content (guarded by the version observed
// here, published at Commit via step.RecordWrite), and the register's
// prior content is pushed in its place.
func (c *Context) RegRW(name string) error {
	v, err := c.Pop()
	if err != nil {
		return err
	}
	old, ver, err := c.rt.regs.Get(name)
	if err != nil {
		c.Push(v)
		return err
	}
	c.step.RecordWrite(name, ver, v)
	c.Push(old)
	return nil
}

// RegGet pushes name's current content (spec.md §8 scenario S3's
// reg_get) as a pure data cell. The read is not recorded in the step:
// Commit checks only the versions of registers written via RegSet or
// RegRW, so a concurrent write to a register that was only read does
// not make the step lose a conflict.
func (c *Context) RegGet(name string) error {
	v, _, err := c.rt.regs.Get(name)
	if err != nil {
		return err
	}
	c.Push(v)
	return nil
}

// RegSet pops the top of the stack and publishes it as name's new
// content at Commit (spec.md §8 scenario S3's reg_set).
func (c *Context) RegSet(name string) error {
	v, err := c.Pop()
	if err != nil {
		return err
	}
	_, ver, err := c.rt.regs.Get(name)
	if err != nil {
		c.Push(v)
		return err
	}
	c.step.RecordWrite(name, ver, v)
	return nil
}

// Queue views (spec.md §6's "queue views (read, read_n, unread, write,
// peek, peek_n) under the single-reader/multi-writer discipline").
// These act directly on the named register.Queue rather than staging
// through the step's post-commit hook (package step's PostOp carries
// exactly one op/arg pair, not an arbitrary item count); see
// DESIGN.md for that simplification's scope.

// QueueWrite pops the top n stack cells (bottom-to-top order
// preserved) and appends them to name's queue.
func (c *Context) QueueWrite(name string, n int) error {
	if len(c.stack) < n {
		c.step.Fail(rterr.Underflow)
		return rterr.Underflow
	}
	base := len(c.stack) - n
	vals := append([]cell.Ref(nil), c.stack[base:]...)
	c.stack = c.stack[:base]
	c.rt.Queue(name).Write(vals...)
	return nil
}

// QueueRead dequeues exactly n items from name's queue, pushing them
// in queue order (oldest ends up deepest).
func (c *Context) QueueRead(name string, n int) error {
	vals, err := c.rt.Queue(name).Read(n)
	if err != nil {
		return err
	}
	c.stack = append(c.stack, vals...)
	return nil
}

// QueueReadN is the spec.md name for QueueRead.
func (c *Context) QueueReadN(name string, n int) error { return c.QueueRead(name, n) }

// QueueUnread pushes name's read cursor back by n, making the last n
// read items readable again.
func (c *Context) QueueUnread(name string, n int) error { return c.rt.Queue(name).Unread(n) }

// QueuePeek pushes n items starting offset past name's read cursor
// without consuming them.
func (c *Context) QueuePeek(name string, offset, n int) error {
	vals, err := c.rt.Queue(name).Peek(offset, n)
	if err != nil {
		return err
	}
	c.stack = append(c.stack, vals...)
	return nil
}

// QueuePeekN is QueuePeek at offset 0.
func (c *Context) QueuePeekN(name string, n int) error { return c.QueuePeek(name, 0, n) }
