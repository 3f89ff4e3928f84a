// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"testing"

	"glas.dev/rt/internal/alloc"
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

type noopFinalizer struct{ ran []cell.Ref }

func (f *noopFinalizer) RunFinalizer(r cell.Ref) { f.ran = append(f.ran, r) }

func TestCycleReclaimsUnreachableCell(t *testing.T) {
	pool := heap.NewPool()
	a := alloc.New(pool)

	garbage, err := a.AllocCell()
	if err != nil {
		t.Fatalf("AllocCell: %v", err)
	}
	cell.NewSmallBin(garbage, []byte("garbage"))

	coord := NewCoordinator()
	c := NewCollector(pool, coord, nil)

	before := a.CurrentPage().Occupancy()
	c.Cycle(StaticRoots(nil, nil)) // nothing reachable
	after := a.CurrentPage().Occupancy()

	if after >= before {
		t.Fatalf("occupancy after cycle = %d, want less than %d (garbage should be swept)", after, before)
	}
}

func TestCycleKeepsRootedCell(t *testing.T) {
	pool := heap.NewPool()
	a := alloc.New(pool)

	live, err := a.AllocCell()
	if err != nil {
		t.Fatalf("AllocCell: %v", err)
	}
	cell.NewSmallBin(live, []byte("keep me"))

	coord := NewCoordinator()
	c := NewCollector(pool, coord, nil)
	c.Cycle(StaticRoots([][]cell.Ref{{live}}, nil))

	if live.Kind() != cell.SmallBin {
		t.Fatalf("rooted cell's Kind() = %v after a cycle, want SmallBin (data preserved)", live.Kind())
	}
	page := pool.PageFromInterior(live.Addr())
	if !page.IsLive(live.Addr()) {
		t.Fatal("rooted cell not marked live after sweep")
	}
}

func TestCycleReclaimsViaReachabilityGraph(t *testing.T) {
	pool := heap.NewPool()
	a := alloc.New(pool)

	leaf, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewSmallBin(leaf, []byte("leaf"))

	branch, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewBranch(branch, 0, 0, leaf, cell.Nil)

	orphan, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewSmallBin(orphan, []byte("orphan"))

	coord := NewCoordinator()
	c := NewCollector(pool, coord, nil)
	c.Cycle(StaticRoots([][]cell.Ref{{branch}}, nil))

	leafPage := pool.PageFromInterior(leaf.Addr())
	if !leafPage.IsLive(leaf.Addr()) {
		t.Error("leaf reachable via branch should survive")
	}
	orphanPage := pool.PageFromInterior(orphan.Addr())
	if orphanPage.IsLive(orphan.Addr()) {
		t.Error("orphan with no root should not survive")
	}
}

func TestFinalizerRunsExactlyOnceForDeadForeignPtr(t *testing.T) {
	pool := heap.NewPool()
	a := alloc.New(pool)

	finCell, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewSmallBin(finCell, []byte("finalizer-payload"))

	foreign, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewForeignPtr(foreign, 0xdeadbeef, finCell)

	coord := NewCoordinator()
	fin := &noopFinalizer{}
	c := NewCollector(pool, coord, fin)
	c.RegisterFinalizer(foreign)

	c.Cycle(StaticRoots(nil, nil)) // foreign is unrooted

	if len(fin.ran) != 1 {
		t.Fatalf("finalizer ran %d times, want 1", len(fin.ran))
	}
	if fin.ran[0] != finCell {
		t.Fatalf("finalizer ran on %v, want %v", fin.ran[0], finCell)
	}

	c.Cycle(StaticRoots(nil, nil)) // second cycle must not re-run it
	if len(fin.ran) != 1 {
		t.Fatalf("finalizer ran again on a second cycle: %d calls total", len(fin.ran))
	}
}

func TestSealDataClearedWhenKeyUnreachable(t *testing.T) {
	pool := heap.NewPool()
	a := alloc.New(pool)

	key, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewSmallBin(key, []byte("key"))

	data, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewSmallBin(data, []byte("secret"))

	seal, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewSeal(seal, key, data, cell.Nil)

	coord := NewCoordinator()
	c := NewCollector(pool, coord, nil)
	c.RegisterFinalizer(seal)

	// seal is rooted but key is not: the key dies, so its seal's data
	// must be cleared even though the seal cell itself survives.
	c.Cycle(StaticRoots([][]cell.Ref{{seal}}, nil))

	if seal.Kind() != cell.Seal {
		t.Fatalf("seal cell's Kind() = %v after cycle, want Seal", seal.Kind())
	}
	if got := seal.SealData(); got != cell.Nil {
		t.Fatalf("SealData() = %v after key died, want cell.Nil", got)
	}
}

func TestSealDataSurvivesWhileKeyReachable(t *testing.T) {
	pool := heap.NewPool()
	a := alloc.New(pool)

	key, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewSmallBin(key, []byte("key"))

	data, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewSmallBin(data, []byte("secret"))

	seal, err := a.AllocCell()
	if err != nil {
		t.Fatal(err)
	}
	cell.NewSeal(seal, key, data, cell.Nil)

	coord := NewCoordinator()
	c := NewCollector(pool, coord, nil)
	c.RegisterFinalizer(seal)

	c.Cycle(StaticRoots([][]cell.Ref{{seal, key}}, nil))

	if got := seal.SealData(); got != data {
		t.Fatalf("SealData() = %v, want %v (key still reachable)", got, data)
	}
}

func TestCoordinatorBlocksEnterBusyDuringStop(t *testing.T) {
	coord := NewCoordinator()
	h := coord.Register()
	h.EnterIdle()

	done := make(chan struct{})
	go func() {
		coord.RequestStop()
		coord.BeginMark()
		coord.EndMark()
		coord.Finish()
		close(done)
	}()

	h.EnterBusy()
	h.EnterIdle()
	<-done
}
