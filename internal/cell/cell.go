// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cell

import (
	"encoding/binary"
	"sync/atomic"

	"glas.dev/rt/internal/heap"
)

// Ref names a single 32-byte Cell living in arena memory vended by
// package heap. It plays the role golang.org/x/debug/internal/gocore's
// Object plays for a core dump: an address treated as an opaque handle,
// except a Ref's target is live and mutable, not frozen.
type Ref heap.Address

// Nil is the zero Ref, used as a null cell-pointer (e.g. an empty
// TOMBSTONE target, or list terminator represented some other way at a
// higher layer -- the runtime's `()` unit value is out of this
// package's scope; see package value).
const Nil Ref = 0

func (r Ref) IsNil() bool { return r == 0 }

func (r Ref) Addr() heap.Address { return heap.Address(r) }

// Cell layout: 4 header bytes + 4-byte stemH + 24-byte payload = 32.
const (
	offTypeID   = 0
	offTypeArg  = 1
	offTypeAggr = 2
	offGCBits   = 3
	offStemH    = 4
	offPayload  = 8
	Size        = 32
)

// Payload field offsets, relative to offPayload, shared by kind.go's
// PointerFields table and the typed accessors in variants.go.
const (
	offBranchStemL = 0
	offBranchStemR = 4
	offBranchL     = 8
	offBranchR     = 16

	offStemBits = 0 // 4 x uint32 = 16 bytes
	offStemD    = 16

	offBigBinData   = 0
	offBigBinLen    = 8
	offBigBinOrigin = 16

	offBigArrData   = 0
	offBigArrLen    = 8
	offBigArrOrigin = 16

	offConcatLeftLen = 0
	offConcatLeft    = 8
	offConcatRight   = 16

	offSealKey  = 0
	offSealData = 8
	offSealMeta = 16

	offRegContent   = 0
	offRegAssocLHS  = 8
	offRegTombstone = 16

	offTombTarget = 0
	offTombID     = 8
	offTombMeta   = 16

	offThunkComputation = 0
	offThunkResult      = 8
	offThunkSignal      = 16

	offForeignPtr = 0
	offForeignFin = 8
)

func (r Ref) bytes() []byte { return heap.Bytes(heap.Address(r), Size) }

func (r Ref) payload() []byte { return r.bytes()[offPayload:Size] }

func gcBitsPtr(r Ref) *uint8 {
	return (*uint8)(heap.Ptr(heap.Address(r).Add(offGCBits)))
}

// --- header accessors ---

func (r Ref) Kind() Kind { return Kind(r.bytes()[offTypeID]) }

func (r Ref) setKind(k Kind) { r.bytes()[offTypeID] = byte(k) }

func (r Ref) TypeArg() uint8 { return r.bytes()[offTypeArg] }

func (r Ref) SetTypeArg(v uint8) { r.bytes()[offTypeArg] = v }

func (r Ref) Aggr() Aggr { return Aggr(r.bytes()[offTypeAggr]) }

func (r Ref) SetAggr(a Aggr) { r.bytes()[offTypeAggr] = byte(a) }

// GCBits are mark/write-barrier bits, atomically updated (spec.md §3.1).
func (r Ref) GCBits() uint8 {
	return atomic.LoadUint8(gcBitsPtr(r))
}

func (r Ref) SetGCBits(v uint8) {
	atomic.StoreUint8(gcBitsPtr(r), v)
}

// CompareAndSwapGCBits is used by the insertion write barrier (package
// gc) to shade a cell grey exactly once under concurrent marking.
func (r Ref) CompareAndSwapGCBits(old, new uint8) bool {
	return atomic.CompareAndSwapUint8(gcBitsPtr(r), old, new)
}

// ChildAt reads the pointer-valued payload field at the given byte
// offset -- one of the offsets Kind().PointerFields() returns -- via an
// atomic load, so the collector (package gc) can scan a cell's
// outgoing pointers safely while a mutator concurrently updates a
// Register or Thunk field elsewhere in the same cell.
func (r Ref) ChildAt(off int) Ref {
	return r.payloadAtomicPtr(off)
}

func (r Ref) StemH() uint32 {
	return binary.LittleEndian.Uint32(r.bytes()[offStemH : offStemH+4])
}

func (r Ref) SetStemH(v uint32) {
	binary.LittleEndian.PutUint32(r.bytes()[offStemH:offStemH+4], v)
}

// --- payload primitive accessors, used by variants.go ---

func (r Ref) payloadPtr(off int) Ref {
	v := binary.LittleEndian.Uint64(r.payload()[off : off+8])
	return Ref(v)
}

func (r Ref) setPayloadPtr(off int, v Ref) {
	binary.LittleEndian.PutUint64(r.payload()[off:off+8], uint64(v))
}

func (r Ref) payloadU32(off int) uint32 {
	return binary.LittleEndian.Uint32(r.payload()[off : off+4])
}

func (r Ref) setPayloadU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(r.payload()[off:off+4], v)
}

func (r Ref) payloadU64(off int) uint64 {
	return binary.LittleEndian.Uint64(r.payload()[off : off+8])
}

func (r Ref) setPayloadU64(off int, v uint64) {
	binary.LittleEndian.PutUint64(r.payload()[off:off+8], v)
}

func (r Ref) payloadAtomicPtr(off int) Ref {
	p := (*uint64)(heap.Ptr(heap.Address(r).Add(int64(offPayload + off))))
	return Ref(atomic.LoadUint64(p))
}

func (r Ref) setPayloadAtomicPtr(off int, v Ref) {
	p := (*uint64)(heap.Ptr(heap.Address(r).Add(int64(offPayload + off))))
	atomic.StoreUint64(p, uint64(v))
}

func (r Ref) casPayloadAtomicPtr(off int, old, new Ref) bool {
	p := (*uint64)(heap.Ptr(heap.Address(r).Add(int64(offPayload + off))))
	return atomic.CompareAndSwapUint64(p, uint64(old), uint64(new))
}
