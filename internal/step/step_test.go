// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package step

import (
	"testing"

	"glas.dev/rt/internal/alloc"
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
	"glas.dev/rt/internal/register"
	"glas.dev/rt/internal/rterr"
)

// fakeState is a minimal step.State used by tests, tracking just the
// fields Checkpoint/Abort touch.
type fakeState struct {
	stack, stash []int
	nsHead       uint64
	shadow       bool
}

func (s *fakeState) StackDepth() int          { return len(s.stack) }
func (s *fakeState) TruncateStack(n int)      { s.stack = s.stack[:n] }
func (s *fakeState) StashDepth() int          { return len(s.stash) }
func (s *fakeState) TruncateStash(n int)      { s.stash = s.stash[:n] }
func (s *fakeState) NamespaceHead() uint64    { return s.nsHead }
func (s *fakeState) SetNamespaceHead(h uint64) { s.nsHead = h }
func (s *fakeState) ShadowArmed() bool        { return s.shadow }
func (s *fakeState) SetShadowArmed(b bool)    { s.shadow = b }

func newTable(t *testing.T) *register.Table {
	t.Helper()
	return register.NewTable(testAlloc(t), nil)
}

func testAlloc(t *testing.T) *alloc.Allocator {
	t.Helper()
	return alloc.New(heap.NewPool())
}

func allocBin(a *alloc.Allocator, s string) (cell.Ref, error) {
	ref, err := a.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	cell.NewSmallBin(ref, []byte(s))
	return ref, nil
}

// TestAbortIsInverseOfCheckpoint mirrors spec.md §8 property 9.
func TestAbortIsInverseOfCheckpoint(t *testing.T) {
	s := &fakeState{stack: []int{1, 2, 3}, stash: []int{9}, nsHead: 7, shadow: false}
	st := Begin(s, newTable(t), nil)

	s.stack = append(s.stack, 4, 5)
	s.stash = append(s.stash, 8)
	s.nsHead = 99
	s.shadow = true

	st.Abort(s)

	if len(s.stack) != 3 || len(s.stash) != 1 || s.nsHead != 7 || s.shadow != false {
		t.Fatalf("Abort did not restore checkpoint: stack=%d stash=%d head=%d shadow=%v",
			len(s.stack), len(s.stash), s.nsHead, s.shadow)
	}
}

func TestCommitFailsWithPendingError(t *testing.T) {
	s := &fakeState{}
	st := Begin(s, newTable(t), nil)
	st.Fail(rterr.Assert)
	if st.Commit(s) {
		t.Fatal("Commit should fail once an error flag is set")
	}
}

func TestForkCannotCommitBeforeParent(t *testing.T) {
	tab := newTable(t)
	parentState := &fakeState{}
	parent := Begin(parentState, tab, nil)
	child := parent.Fork()

	childState := &fakeState{}
	if child.Commit(childState) {
		t.Fatal("fork committed before its parent")
	}

	if !parent.Commit(parentState) {
		t.Fatal("parent commit should succeed")
	}
	if !child.Commit(childState) {
		t.Fatal("fork should be able to commit once its parent has committed")
	}
}

func TestForkDiesWhenParentAborts(t *testing.T) {
	tab := newTable(t)
	parentState := &fakeState{}
	parent := Begin(parentState, tab, nil)
	child := parent.Fork()

	parent.Abort(parentState)

	childState := &fakeState{}
	if child.Commit(childState) {
		t.Fatal("fork of an aborted parent must not commit")
	}
	if !child.Errors().Has(rterr.DeadBranch) {
		t.Fatalf("fork of aborted parent should carry DeadBranch, got %v", child.Errors())
	}
}

func TestChoiceFirstCommitterWins(t *testing.T) {
	tab := newTable(t)
	parentState := &fakeState{}
	parent := Begin(parentState, tab, nil)
	if !parent.Commit(parentState) {
		t.Fatal("parent commit should succeed")
	}

	siblings := parent.Choice(3)
	states := make([]*fakeState, len(siblings))
	wins := 0
	for i, sib := range siblings {
		states[i] = &fakeState{}
		if sib.Commit(states[i]) {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("choice: %d siblings committed, want exactly 1", wins)
	}
}

func TestConflictingRegisterWritesLoseCommit(t *testing.T) {
	a := testAlloc(t)
	tab := register.NewTable(a, nil)
	tab.New("r.")
	_, v0, err := tab.Get("r.x")
	if err != nil {
		t.Fatal(err)
	}

	stateA, stateB := &fakeState{}, &fakeState{}
	stepA := Begin(stateA, tab, nil)
	stepB := Begin(stateB, tab, nil)

	val, err := allocBin(a, "v")
	if err != nil {
		t.Fatal(err)
	}
	stepA.RecordWrite("r.x", v0, val)
	stepB.RecordWrite("r.x", v0, val)

	okA := stepA.Commit(stateA)
	okB := stepB.Commit(stateB)
	if okA == okB {
		t.Fatalf("exactly one of two conflicting writers should commit: a=%v b=%v", okA, okB)
	}
}
