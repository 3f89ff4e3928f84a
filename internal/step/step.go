// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package step implements the transactional step machinery of spec.md
// §4.4.2-§4.4.4: checkpoint/abort/commit around a mutator's working
// state, the post-commit queue hook, and fork/choice sibling contexts.
package step

import (
	"sync"
	"sync/atomic"

	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/register"
	"glas.dev/rt/internal/rterr"
)

// State is the thread-local working state a Step snapshots and
// restores: data stack depth, stash depth, namespace HEAD reference,
// and the one-shot shadowing flag (spec.md §4.4.2's checkpoint list).
// The higher-level host (package glas) implements this over its own
// stack/stash/namespace fields; package step never looks inside them.
type State interface {
	StackDepth() int
	TruncateStack(depth int)
	StashDepth() int
	TruncateStash(depth int)
	NamespaceHead() uint64
	SetNamespaceHead(uint64)
	ShadowArmed() bool
	SetShadowArmed(bool)
}

// Checkpoint is the snapshot taken at step start (spec.md §4.4.2).
type Checkpoint struct {
	stackDepth    int
	stashDepth    int
	namespaceHead uint64
	shadowArmed   bool
}

func snapshot(s State) Checkpoint {
	return Checkpoint{
		stackDepth:    s.StackDepth(),
		stashDepth:    s.StashDepth(),
		namespaceHead: s.NamespaceHead(),
		shadowArmed:   s.ShadowArmed(),
	}
}

func (cp Checkpoint) restore(s State) {
	s.TruncateStack(cp.stackDepth)
	s.TruncateStash(cp.stashDepth)
	s.SetNamespaceHead(cp.namespaceHead)
	s.SetShadowArmed(cp.shadowArmed)
}

// pendingWrite is one register write a step wants to publish at
// commit, guarded by the version the step observed when it first read
// (or first touched) that register.
type pendingWrite struct {
	name          string
	expectVersion uint64
	content       cell.Ref
}

// postOp is one post-commit hook registration (spec.md §4.4.3).
type postOp struct {
	queue string
	op    cell.Ref
	arg   cell.Ref
}

// Sink is where committed post-commit operations land: one named
// queue per destination, e.g. package register's Queue. The worker
// pool that drains these queues is an external collaborator per
// spec.md §1 ("out of scope... worker-thread pools for post-commit
// queues"); this package only guarantees commit-order enqueue.
type Sink interface {
	Queue(name string) *register.Queue
}

// Step is one transactional step: the work between two successful
// commits, plus whatever fork/choice children it spawned.
type Step struct {
	cp      Checkpoint
	table   *register.Table
	sink    Sink
	errors  rterr.Flags
	pending []pendingWrite
	postops []postOp
	cancels []func()

	mu             sync.Mutex
	parent         *Step
	parentResolved bool // parent committed (children may now commit)
	choiceTok      *choiceToken
	dead           bool
	children       []*Step
}

type choiceToken struct{ resolved int32 }

// Begin snapshots s and returns a fresh top-level Step (spec.md
// §4.4.2's checkpoint-on-step-start).
func Begin(s State, table *register.Table, sink Sink) *Step {
	return &Step{cp: snapshot(s), table: table, sink: sink}
}

// Errors reports the step's accumulated (monotonic) error flags.
func (st *Step) Errors() rterr.Flags {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.errors
}

// Fail monotonically adds flags to the step's error set; spec.md §7
// errors only clear via abort, never a direct unset.
func (st *Step) Fail(flags rterr.Flags) {
	st.mu.Lock()
	st.errors = st.errors.Add(flags)
	st.mu.Unlock()
}

// RecordWrite queues a register publish for this step's next Commit,
// guarded by the version observed when the register was first touched.
func (st *Step) RecordWrite(name string, expectVersion uint64, content cell.Ref) {
	st.mu.Lock()
	st.pending = append(st.pending, pendingWrite{name: name, expectVersion: expectVersion, content: content})
	st.mu.Unlock()
}

// PostOp registers a post-commit hook: op/arg are enqueued to the
// named queue only if this step commits; cancel runs immediately if
// the step aborts instead (spec.md §4.4.3). cancel may be nil.
func (st *Step) PostOp(queueName string, op, arg cell.Ref, cancel func()) {
	st.mu.Lock()
	st.postops = append(st.postops, postOp{queue: queueName, op: op, arg: arg})
	st.cancels = append(st.cancels, cancel)
	st.mu.Unlock()
}

// Abort restores s to the checkpoint taken at Begin and marks every
// child fork/choice this step spawned as a dead branch (spec.md
// §4.4.4, §8 property 10). Any cancel callbacks registered via PostOp
// run now, per §4.4.3; their op callbacks do not.
func (st *Step) Abort(s State) {
	st.cp.restore(s)

	st.mu.Lock()
	cancels := st.cancels
	children := st.children
	st.pending = nil
	st.postops = nil
	st.cancels = nil
	st.mu.Unlock()

	for _, c := range cancels {
		if c != nil {
			c()
		}
	}
	for _, child := range children {
		child.markDead()
	}
}

func (st *Step) markDead() {
	st.mu.Lock()
	st.dead = true
	children := st.children
	st.mu.Unlock()
	for _, child := range children {
		child.markDead()
	}
}

// Commit implements step_commit (spec.md §4.4.2): if any error flag is
// set, or this step is a dead branch, or (being a fork) its parent
// hasn't committed yet, or (being a choice sibling) another sibling
// already won, Commit fails without touching shared state. Otherwise
// it publishes every pending register write via CAS, enqueues
// post-commit ops in order, and resolves any children waiting on this
// step's outcome.
func (st *Step) Commit(s State) bool {
	st.mu.Lock()
	if st.dead {
		st.errors = st.errors.Add(rterr.DeadBranch)
		st.mu.Unlock()
		return false
	}
	if st.parent != nil && !st.parent.hasCommitted() {
		st.mu.Unlock()
		return false // parent hasn't committed; try again later
	}
	if st.errors != rterr.NoErrors {
		st.mu.Unlock()
		return false
	}
	if st.choiceTok != nil && !atomic.CompareAndSwapInt32(&st.choiceTok.resolved, 0, 1) {
		st.dead = true
		st.errors = st.errors.Add(rterr.DeadBranch)
		st.mu.Unlock()
		return false
	}
	pending := st.pending
	postops := st.postops
	st.mu.Unlock()

	if len(pending) > 0 {
		writes := make([]register.Write, len(pending))
		for i, w := range pending {
			writes[i] = register.Write{Name: w.name, ExpectVersion: w.expectVersion, Content: w.content}
		}
		if err := st.table.CASAll(writes); err != nil {
			st.Fail(rterr.Conflict)
			return false
		}
	}

	if st.sink != nil {
		for _, op := range postops {
			if q := st.sink.Queue(op.queue); q != nil {
				q.Write(op.op, op.arg)
			}
		}
	}

	st.mu.Lock()
	st.parentResolved = true
	st.cp = snapshot(s)
	st.pending = nil
	st.postops = nil
	st.cancels = nil
	st.mu.Unlock()

	return true
}

func (st *Step) hasCommitted() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.parentResolved
}

// Fork creates a child step sharing this step's register table and
// sink; it cannot commit until this (its parent) step commits, and is
// marked a dead branch if this step aborts instead (spec.md §4.4.4).
func (st *Step) Fork() *Step {
	child := &Step{table: st.table, sink: st.sink}
	st.mu.Lock()
	child.parent = st
	st.children = append(st.children, child)
	st.mu.Unlock()
	return child
}

// Choice creates n sibling steps of which only the first to commit
// wins; the rest become dead branches via a CAS on a shared token
// (spec.md §4.4.4).
func (st *Step) Choice(n int) []*Step {
	tok := &choiceToken{}
	out := make([]*Step, n)
	st.mu.Lock()
	for i := range out {
		child := &Step{table: st.table, sink: st.sink, parent: st, choiceTok: tok}
		st.children = append(st.children, child)
		out[i] = child
	}
	st.mu.Unlock()
	return out
}
