// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glas

import (
	"fmt"

	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/rterr"
	"glas.dev/rt/internal/value"
)

// Mkp pops r then l and pushes the pair (l, r) (spec.md §4.5 mkp).
func (c *Context) Mkp() error {
	r, err := c.Pop()
	if err != nil {
		return err
	}
	l, err := c.Pop()
	if err != nil {
		c.Push(r)
		return err
	}
	p, err := c.values.MkPair(l, r)
	if err != nil {
		return err
	}
	c.Push(p)
	return nil
}

// Unp replaces the top pair with its right then left component (left
// ends on top), failing with rterr.DataType without mutation if the
// top is not a pair (spec.md §4.5 unp).
func (c *Context) Unp() error {
	top, err := c.Pop()
	if err != nil {
		return err
	}
	l, r, ok := value.UnPair(top)
	if !ok {
		c.Push(top)
		c.step.Fail(rterr.DataType)
		return rterr.DataType
	}
	c.Push(r)
	c.Push(l)
	return nil
}

// Mkl replaces the top value with its left-sum injection (spec.md §4.5
// mkl).
func (c *Context) Mkl() error { return c.mkSum(c.values.MkInl) }

// Mkr replaces the top value with its right-sum injection (spec.md
// §4.5 mkr).
func (c *Context) Mkr() error { return c.mkSum(c.values.MkInr) }

func (c *Context) mkSum(ctor func(cell.Ref) (cell.Ref, error)) error {
	v, err := c.Pop()
	if err != nil {
		return err
	}
	s, err := ctor(v)
	if err != nil {
		c.Push(v)
		return err
	}
	c.Push(s)
	return nil
}

// Unl succeeds and replaces the top with its unwrapped payload only if
// it was built by Mkl; otherwise it fails with rterr.DataType without
// mutation (spec.md §4.5 unl).
func (c *Context) Unl() error { return c.unSum(c.values.UnInl) }

// Unr is Unl's Mkr counterpart (spec.md §4.5 unr).
func (c *Context) Unr() error { return c.unSum(c.values.UnInr) }

func (c *Context) unSum(dtor func(cell.Ref) (cell.Ref, bool, error)) error {
	top, err := c.Pop()
	if err != nil {
		return err
	}
	v, ok, err := dtor(top)
	if err != nil {
		c.Push(top)
		return err
	}
	if !ok {
		c.Push(top)
		c.step.Fail(rterr.DataType)
		return rterr.DataType
	}
	c.Push(v)
	return nil
}

// Shape predicates over the top of the stack (spec.md §4.6).

func (c *Context) IsUnit() (bool, error)  { return c.predicate(value.IsUnit) }
func (c *Context) IsPair() (bool, error)  { return c.predicate(value.IsPair) }
func (c *Context) IsInl() (bool, error)   { return c.predicate(value.IsInl) }
func (c *Context) IsInr() (bool, error)   { return c.predicate(value.IsInr) }
func (c *Context) IsBinary() (bool, error) { return c.predicate(value.IsBinary) }
func (c *Context) IsArray() (bool, error)  { return c.predicate(value.IsArray) }
func (c *Context) IsBitstr() (bool, error) { return c.predicate(value.IsBitstr) }
func (c *Context) IsList() (bool, error)   { return c.predicate(value.IsList) }
func (c *Context) IsDict() (bool, error)   { return c.predicate(value.IsDict) }
func (c *Context) IsRatio() (bool, error)  { return c.predicate(value.IsRatio) }
func (c *Context) IsLinear() (bool, error) { return c.predicate(value.IsLinear) }
func (c *Context) IsAbstract() (bool, error) { return c.predicate(value.IsAbstract) }

func (c *Context) predicate(p func(cell.Ref) bool) (bool, error) {
	top, err := c.peekDepth(0)
	if err != nil {
		return false, err
	}
	return p(top), nil
}

// ListLen reports the element count of the top-of-stack list (array or
// binary), per spec.md §6's "Collections: list len/...".
func (c *Context) ListLen() (uint64, error) {
	top, err := c.peekDepth(0)
	if err != nil {
		return 0, err
	}
	if n, ok := value.ArrLen(top); ok {
		return n, nil
	}
	if n, ok := value.BinLen(top); ok {
		return n, nil
	}
	c.step.Fail(rterr.DataType)
	return 0, rterr.DataType
}

// ListSplitN replaces the top list with two lists split at element n
// (spec.md §6.2's list_split_n, §8 scenario S2), right piece ending on
// top.
func (c *Context) ListSplitN(n uint64) error {
	top, err := c.Pop()
	if err != nil {
		return err
	}
	if value.IsArray(top) {
		l, r, ok, err := c.values.SplitArrAt(top, n)
		return c.pushSplit(top, l, r, ok, err)
	}
	l, r, ok, err := c.values.SplitBinAt(top, n)
	return c.pushSplit(top, l, r, ok, err)
}

func (c *Context) pushSplit(orig, l, r cell.Ref, ok bool, err error) error {
	if err != nil {
		c.Push(orig)
		return err
	}
	if !ok {
		c.Push(orig)
		c.step.Fail(rterr.DataType)
		return rterr.DataType
	}
	c.Push(l)
	c.Push(r)
	return nil
}

// ListAppend pops the top two lists and pushes their concatenation
// (spec.md §6.2's list_append, §8 scenario S2).
func (c *Context) ListAppend() error {
	r, err := c.Pop()
	if err != nil {
		return err
	}
	l, err := c.Pop()
	if err != nil {
		c.Push(r)
		return err
	}
	var joined cell.Ref
	if value.IsArray(l) && value.IsArray(r) {
		joined, err = c.values.AppendArr(l, r)
	} else if value.IsBinary(l) && value.IsBinary(r) {
		joined, err = c.values.AppendBin(l, r)
	} else {
		c.Push(l)
		c.Push(r)
		c.step.Fail(rterr.DataType)
		return rterr.DataType
	}
	if err != nil {
		c.Push(l)
		c.Push(r)
		return err
	}
	c.Push(joined)
	return nil
}

// BitstrLen, BitstrSplitN, BitstrAppend mirror the list operations
// above over bitstrings (spec.md §6's "bitstring len/split/append").
func (c *Context) BitstrLen() (uint64, error) {
	top, err := c.peekDepth(0)
	if err != nil {
		return 0, err
	}
	n, ok := value.BitLen(top)
	if !ok {
		c.step.Fail(rterr.DataType)
		return 0, rterr.DataType
	}
	return n, nil
}

func (c *Context) BitstrSplitN(n uint64) error {
	top, err := c.Pop()
	if err != nil {
		return err
	}
	l, r, ok, err := c.values.SplitBitAt(top, n)
	return c.pushSplit(top, l, r, ok, err)
}

func (c *Context) BitstrAppend() error {
	r, err := c.Pop()
	if err != nil {
		return err
	}
	l, err := c.Pop()
	if err != nil {
		c.Push(r)
		return err
	}
	joined, err := c.values.AppendBit(l, r)
	if err != nil {
		c.Push(l)
		c.Push(r)
		return err
	}
	c.Push(joined)
	return nil
}

// DictInsert pops a value and inserts it under label into the dict
// below it on the stack (spec.md §6's "dict insert/remove by label
// (preferred direct form)").
func (c *Context) DictInsert(label []byte) error {
	v, err := c.Pop()
	if err != nil {
		return err
	}
	d, err := c.Pop()
	if err != nil {
		c.Push(v)
		return err
	}
	next, err := c.values.DictInsert(d, label, v)
	if err != nil {
		c.Push(d)
		c.Push(v)
		return err
	}
	c.Push(next)
	return nil
}

// DictInsertOnStack is DictInsert's "by on-stack label" form: the
// label is read as the top binary, the dict and value below it.
func (c *Context) DictInsertOnStack() error {
	labelTop, err := c.Pop()
	if err != nil {
		return err
	}
	label, ok := c.values.Bytes(labelTop)
	if !ok {
		c.Push(labelTop)
		c.step.Fail(rterr.DataType)
		return rterr.DataType
	}
	return c.DictInsert(label)
}

// DictRemove replaces the top dict with its value under label (pushed
// on top) with label removed beneath it. If label is absent it returns
// a plain not-found error, sets no error flag, and leaves the dict on
// the stack.
func (c *Context) DictRemove(label []byte) error {
	d, err := c.Pop()
	if err != nil {
		return err
	}
	next, ok, err := c.values.DictRemove(d, label)
	if err != nil {
		c.Push(d)
		return err
	}
	if !ok {
		c.Push(d)
		return fmt.Errorf("glas: dict has no label %q", label)
	}
	v, _ := value.DictGet(d, label)
	c.Push(next)
	c.Push(v)
	return nil
}
