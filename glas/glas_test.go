// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glas

import (
	"bytes"
	"sync"
	"testing"

	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/namespace"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	rt := NewRuntime()
	c := NewContext(rt)
	c.Begin()
	return c
}

// TestS1PushPopBinary mirrors spec.md §8 scenario S1.
func TestS1PushPopBinary(t *testing.T) {
	c := newTestContext(t)
	want := []byte{1, 2, 3}
	if err := c.PushBinary(want); err != nil {
		t.Fatalf("PushBinary: %v", err)
	}
	isBin, err := c.IsBinary()
	if err != nil || !isBin {
		t.Fatalf("IsBinary = (%v, %v), want (true, nil)", isBin, err)
	}
	n, err := c.ListLen()
	if err != nil || n != 3 {
		t.Fatalf("ListLen = (%d, %v), want (3, nil)", n, err)
	}
	var buf [3]byte
	got, eof, err := c.PeekBinary(0, 0, buf[:])
	if err != nil || got != 3 || !eof || !bytes.Equal(buf[:], want) {
		t.Fatalf("PeekBinary = (%d, %v, %v), want (3, true, nil)", got, eof, err)
	}
}

// TestS2ListSplitAppend mirrors spec.md §8 scenario S2.
func TestS2ListSplitAppend(t *testing.T) {
	c := newTestContext(t)
	want := []byte{1, 2, 3, 4, 5}
	if err := c.PushBinary(want); err != nil {
		t.Fatalf("PushBinary: %v", err)
	}
	if err := c.ListSplitN(2); err != nil {
		t.Fatalf("ListSplitN: %v", err)
	}
	if err := c.ListAppend(); err != nil {
		t.Fatalf("ListAppend: %v", err)
	}
	top, err := c.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	got, ok := c.values.Bytes(top)
	if !ok || !bytes.Equal(got, want) {
		t.Fatalf("rejoined bytes = %v, want %v", got, want)
	}
}

// TestS3RegSetGet mirrors spec.md §8 scenario S3.
func TestS3RegSetGet(t *testing.T) {
	c := newTestContext(t)
	if !c.RegNew("r.") {
		t.Fatal("RegNew(r.) should succeed on a fresh runtime")
	}
	if err := c.PushUint(8, 42); err != nil {
		t.Fatalf("PushUint: %v", err)
	}
	if err := c.RegSet("r.x"); err != nil {
		t.Fatalf("RegSet: %v", err)
	}
	if err := c.PushUint(8, 99); err != nil {
		t.Fatalf("PushUint: %v", err)
	}
	if err := c.RegSet("r.x"); err != nil {
		t.Fatalf("RegSet: %v", err)
	}
	if !c.Commit() {
		t.Fatalf("Commit failed: %v", c.Errors())
	}
	if err := c.RegGet("r.x"); err != nil {
		t.Fatalf("RegGet: %v", err)
	}
	got, err := c.PopUint(8)
	if err != nil || got != 99 {
		t.Fatalf("PopUint = (%d, %v), want (99, nil)", got, err)
	}
}

// TestS4SeparateRegistersBothCommit mirrors spec.md §8 scenario S4:
// two threads creating and writing disjoint registers both succeed.
func TestS4SeparateRegistersBothCommit(t *testing.T) {
	rt := NewRuntime()
	rt.NewRegisterFamily("r.")

	run := func(name string, v uint64) bool {
		c := NewContext(rt)
		defer c.Drop()
		c.Begin()
		if err := c.PushUint(8, v); err != nil {
			t.Fatalf("PushUint: %v", err)
		}
		if err := c.RegSet(name); err != nil {
			t.Fatalf("RegSet(%s): %v", name, err)
		}
		return c.Commit()
	}

	var wg sync.WaitGroup
	results := make([]bool, 2)
	wg.Add(2)
	go func() { defer wg.Done(); results[0] = run("r.a", 1) }()
	go func() { defer wg.Done(); results[1] = run("r.b", 2) }()
	wg.Wait()

	if !results[0] || !results[1] {
		t.Fatalf("both commits should succeed on disjoint registers: %v", results)
	}
}

// TestS5SameRegisterExactlyOneWins mirrors spec.md §8 scenario S5: two
// threads racing to set the same register each commit concurrently,
// exactly one wins.
func TestS5SameRegisterExactlyOneWins(t *testing.T) {
	rt := NewRuntime()
	rt.NewRegisterFamily("r.")

	var ready sync.WaitGroup
	var start sync.WaitGroup
	var done sync.WaitGroup
	start.Add(1)
	ready.Add(2)
	done.Add(2)

	results := make([]bool, 2)
	attempt := func(i int, v uint64) {
		defer done.Done()
		c := NewContext(rt)
		defer c.Drop()
		c.Begin()
		// Read-then-write against the same version so both contestants
		// race from the same starting point.
		if err := c.RegGet("r.x"); err != nil {
			t.Errorf("RegGet: %v", err)
		}
		if _, err := c.Pop(); err != nil {
			t.Errorf("Pop: %v", err)
		}
		if err := c.PushUint(8, v); err != nil {
			t.Errorf("PushUint: %v", err)
		}
		if err := c.RegSet("r.x"); err != nil {
			t.Errorf("RegSet: %v", err)
		}
		ready.Done()
		start.Wait()
		results[i] = c.Commit()
	}

	go attempt(0, 10)
	go attempt(1, 20)
	ready.Wait()
	start.Done()
	done.Wait()

	if results[0] == results[1] {
		t.Fatalf("expected exactly one commit to win, got %v", results)
	}
}

// TestS6DefineByCallback mirrors spec.md §8 scenario S6.
func TestS6DefineByCallback(t *testing.T) {
	c := newTestContext(t)
	dup := namespace.CallbackDef{
		Fn: func(args []cell.Ref) ([]cell.Ref, error) {
			return []cell.Ref{args[0], args[0]}, nil
		},
		CallerPrefix: "$",
		ArityIn:      1,
		ArityOut:     2,
	}
	if err := c.DefineByCallback("foo", dup); err != nil {
		t.Fatalf("DefineByCallback: %v", err)
	}
	if err := c.PushUint(8, 7); err != nil {
		t.Fatalf("PushUint: %v", err)
	}
	before := c.StackDepth()
	if err := c.Call("foo"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if c.StackDepth() != before+1 {
		t.Fatalf("stack depth = %d, want %d", c.StackDepth(), before+1)
	}
}

// TestAbortRestoresState mirrors spec.md §8 property 9.
func TestAbortRestoresState(t *testing.T) {
	c := newTestContext(t)
	if err := c.PushUint(8, 1); err != nil {
		t.Fatalf("PushUint: %v", err)
	}
	if !c.Commit() {
		t.Fatalf("Commit failed: %v", c.Errors())
	}
	depth := c.StackDepth()
	if err := c.PushUint(8, 2); err != nil {
		t.Fatalf("PushUint: %v", err)
	}
	c.Abort()
	if c.StackDepth() != depth {
		t.Fatalf("stack depth after abort = %d, want %d", c.StackDepth(), depth)
	}
}

// TestLinearityBlocksCopy mirrors spec.md §8 property 6.
func TestLinearityBlocksCopy(t *testing.T) {
	c := newTestContext(t)
	l, err := c.values.MkInl(cell.Nil)
	if err != nil {
		t.Fatalf("MkInl: %v", err)
	}
	l.SetAggr(l.Aggr() | cell.Linear)
	c.Push(l)
	if err := c.Copy(1); err == nil {
		t.Fatal("Copy of a linear value should fail")
	}
}
