// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import "sync"

// Coordinator is the stop-the-world rendezvous point shared by the
// Collector and every mutator thread (package mutator). It exists as
// its own type, rather than folding the wait logic into Collector
// directly, so package mutator can depend on it without depending on
// the rest of the marking machinery.
type Coordinator struct {
	mu      sync.Mutex
	cond    *sync.Cond
	phase   phaseVar
	threads map[*ThreadHandle]bool
}

func NewCoordinator() *Coordinator {
	c := &Coordinator{threads: make(map[*ThreadHandle]bool)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Coordinator) Phase() Phase { return c.phase.load() }

// ThreadHandle is a mutator's registration with the coordinator; it
// tracks only what the collector needs to know (is this thread
// runnable right now), not the full DONE/IDLE/BUSY/WAIT state machine
// package mutator layers on top.
type ThreadHandle struct {
	c        *Coordinator
	runnable bool // true while BUSY; false while IDLE, WAIT, or DONE
}

func (c *Coordinator) Register() *ThreadHandle {
	h := &ThreadHandle{c: c}
	c.mu.Lock()
	c.threads[h] = true
	c.mu.Unlock()
	return h
}

func (h *ThreadHandle) Unregister() {
	h.c.mu.Lock()
	delete(h.c.threads, h)
	h.c.cond.Broadcast()
	h.c.mu.Unlock()
}

// EnterBusy is called by the mutator at an IDLE->BUSY transition. If a
// stop has been requested, the thread instead waits (entering the
// collector's notion of WAIT) until the collector clears STOP at the
// BUSY->MARK transition.
func (h *ThreadHandle) EnterBusy() {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	for h.c.phase.load().StopRequested() {
		h.c.cond.Wait()
	}
	h.runnable = true
}

// EnterIdle is called at a BUSY->IDLE transition.
func (h *ThreadHandle) EnterIdle() {
	h.c.mu.Lock()
	h.runnable = false
	h.c.cond.Broadcast()
	h.c.mu.Unlock()
}

// RequestStop sets the STOP bit (IDLE->STOP) so that any thread
// entering BUSY next blocks, then waits until every registered thread
// is non-runnable (IDLE or WAIT), then advances to BUSY.
func (c *Coordinator) RequestStop() {
	c.mu.Lock()
	c.phase.store(Stop)
	for c.anyRunnableLocked() {
		c.cond.Wait()
	}
	c.phase.store(Busy)
	c.mu.Unlock()
}

func (c *Coordinator) anyRunnableLocked() bool {
	for t := range c.threads {
		if t.runnable {
			return true
		}
	}
	return false
}

// BeginMark clears STOP and releases any thread waiting in EnterBusy,
// the BUSY->MARK transition.
func (c *Coordinator) BeginMark() {
	c.mu.Lock()
	c.phase.store(Mark)
	c.cond.Broadcast()
	c.mu.Unlock()
}

// EndMark re-sets STOP, the MARK->BUSY transition, and waits again for
// quiescence so the collector can safely swap mark bitmaps.
func (c *Coordinator) EndMark() {
	c.mu.Lock()
	c.phase.store(Busy)
	for c.anyRunnableLocked() {
		c.cond.Wait()
	}
	c.mu.Unlock()
}

// Finish is the BUSY->IDLE transition: clear all bits and wake
// everyone.
func (c *Coordinator) Finish() {
	c.mu.Lock()
	c.phase.store(Idle)
	c.cond.Broadcast()
	c.mu.Unlock()
}
