// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"encoding/binary"
	"sync"
	"unsafe"

	"glas.dev/rt/internal/cell"
)

// BigStore backs every BIG_BIN/BIG_ARR's flat storage: a Go-managed
// slice anchored to the cell arena through one FOREIGN_PTR cell per
// buffer (spec.md §3.2's "(data ptr, length, origin pointer)"). The
// FOREIGN_PTR's raw field is the slice's base address; BigStore keeps
// the slice itself alive (under Go's own GC) for exactly as long as
// that cell is reachable, and releases it when the collector finalizes
// the cell -- the same exactly-once path golang.org/x/debug's OS
// handles never needed, but spec.md §4.3.4 requires here.
//
// BigStore implements gc.FinalizerRunner.
type BigStore struct {
	mu       sync.Mutex
	bins     map[uintptr][]byte
	arrs     map[uintptr][]cell.Ref
	releases map[uintptr]func()
}

func NewBigStore() *BigStore {
	return &BigStore{
		bins:     make(map[uintptr][]byte),
		arrs:     make(map[uintptr][]cell.Ref),
		releases: make(map[uintptr]func()),
	}
}

func (s *BigStore) putBin(b []byte) uintptr {
	raw := uintptr(unsafe.Pointer(&b[0]))
	s.mu.Lock()
	s.bins[raw] = b
	s.mu.Unlock()
	return raw
}

// putBinZeroCopy anchors b in place without copying, recording release
// to run exactly once when the owning cell is finalized (spec.md §6's
// "zero-copy with release callback").
func (s *BigStore) putBinZeroCopy(b []byte, release func()) uintptr {
	raw := uintptr(unsafe.Pointer(&b[0]))
	s.mu.Lock()
	s.bins[raw] = b
	if release != nil {
		s.releases[raw] = release
	}
	s.mu.Unlock()
	return raw
}

func (s *BigStore) putArr(a []cell.Ref) uintptr {
	raw := uintptr(unsafe.Pointer(&a[0]))
	s.mu.Lock()
	s.arrs[raw] = a
	s.mu.Unlock()
	return raw
}

func (s *BigStore) bin(raw uintptr) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bins[raw]
}

func (s *BigStore) arr(raw uintptr) []cell.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arrs[raw]
}

// finalizer kinds, encoded as the first byte of a finalizer SmallBin.
const (
	finBin = 0
	finArr = 1
)

func newFinalizer(f *Factory, kind byte, raw uintptr) (cell.Ref, error) {
	ref, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	data := make([]byte, 9)
	data[0] = kind
	binary.LittleEndian.PutUint64(data[1:], uint64(raw))
	cell.NewSmallBin(ref, data)
	return ref, nil
}

// RunFinalizer implements gc.FinalizerRunner. The collector passes the
// FOREIGN_PTR's finalizer cell, not the FOREIGN_PTR itself, so the raw
// address to release is decoded back out of that cell rather than read
// off the dead pointer (spec.md §4.3.4 only promises the finalizer
// cell survives long enough to run).
func (s *BigStore) RunFinalizer(fin cell.Ref) {
	if fin.IsNil() || fin.Kind() != cell.SmallBin {
		return
	}
	data := fin.SmallBinData()
	if len(data) != 9 {
		return
	}
	raw := uintptr(binary.LittleEndian.Uint64(data[1:]))
	s.mu.Lock()
	release := s.releases[raw]
	delete(s.releases, raw)
	switch data[0] {
	case finBin:
		delete(s.bins, raw)
	case finArr:
		delete(s.arrs, raw)
	}
	s.mu.Unlock()
	if release != nil {
		release()
	}
}

// offsetMarker/markerOffset store a BIG_BIN/BIG_ARR's start offset into
// its origin's backing slice as an 8-byte SmallBin, since the cell's
// three payload slots (data, len, origin) leave no spare bits for one.
func offsetMarker(f *Factory, off uint64) (cell.Ref, error) {
	ref, err := f.alloc.AllocCell()
	if err != nil {
		return cell.Nil, err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], off)
	cell.NewSmallBin(ref, buf[:])
	return ref, nil
}

func markerOffset(r cell.Ref) uint64 {
	return binary.LittleEndian.Uint64(r.SmallBinData())
}
