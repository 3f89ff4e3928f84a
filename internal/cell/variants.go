// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cell

// This file gives each Kind a typed accessor, in the spirit of
// golang.org/x/debug/internal/gocore's per-Kind field walkers in
// type.go, except here the accessors read and write live arena memory
// rather than a frozen core-dump image.

// --- Branch: a pair/sum interior node with two children and two stem
// lengths (the number of STEM bits consumed walking into each side). ---

func NewBranch(self Ref, stemL, stemR uint32, l, r Ref) {
	self.setKind(Branch)
	self.setPayloadU32(offBranchStemL, stemL)
	self.setPayloadU32(offBranchStemR, stemR)
	self.setPayloadPtr(offBranchL, l)
	self.setPayloadPtr(offBranchR, r)
}

func (r Ref) BranchStemL() uint32 { return r.payloadU32(offBranchStemL) }
func (r Ref) BranchStemR() uint32 { return r.payloadU32(offBranchStemR) }
func (r Ref) BranchL() Ref        { return r.payloadPtr(offBranchL) }
func (r Ref) BranchR() Ref        { return r.payloadPtr(offBranchR) }

// --- Stem: up to 128 path bits packed 4x uint32, plus a child. TypeArg
// holds the live bit count (0..128). ---

func NewStem(self Ref, bits [4]uint32, nbits uint8, d Ref) {
	self.setKind(Stem)
	self.SetTypeArg(nbits)
	for i, w := range bits {
		self.setPayloadU32(offStemBits+4*i, w)
	}
	self.setPayloadPtr(offStemD, d)
}

func (r Ref) StemBits() (bits [4]uint32) {
	for i := range bits {
		bits[i] = r.payloadU32(offStemBits + 4*i)
	}
	return
}

func (r Ref) StemNBits() uint8 { return r.TypeArg() }
func (r Ref) StemD() Ref       { return r.payloadPtr(offStemD) }

// --- SmallBin: up to 23 bytes of inline binary data. TypeArg is the
// live length. ---

func NewSmallBin(self Ref, data []byte) {
	if len(data) > 23 {
		panic("cell: SmallBin data exceeds 23 bytes")
	}
	self.setKind(SmallBin)
	self.SetTypeArg(uint8(len(data)))
	copy(self.payload(), data)
}

func (r Ref) SmallBinData() []byte {
	n := int(r.TypeArg())
	return r.payload()[:n:n]
}

// --- SmallArr: up to 3 inline element Refs. TypeArg is the live count. ---

func NewSmallArr(self Ref, elems ...Ref) {
	if len(elems) > 3 {
		panic("cell: SmallArr holds at most 3 elements")
	}
	self.setKind(SmallArr)
	self.SetTypeArg(uint8(len(elems)))
	for i, e := range elems {
		self.setPayloadPtr(8*i, e)
	}
}

func (r Ref) SmallArrLen() int { return int(r.TypeArg()) }

func (r Ref) SmallArrAt(i int) Ref { return r.payloadPtr(8 * i) }

// --- BigBin: an out-of-line binary slice. origin, when non-nil, names
// the BigBin this one was split from, enabling slice-rejoin (spec.md
// §6.2) when two adjacent slices of the same origin are re-appended. ---

func NewBigBin(self Ref, data, origin Ref, length uint64) {
	self.setKind(BigBin)
	self.setPayloadPtr(offBigBinData, data)
	self.setPayloadU64(offBigBinLen, length)
	self.setPayloadPtr(offBigBinOrigin, origin)
}

func (r Ref) BigBinData() Ref     { return r.payloadPtr(offBigBinData) }
func (r Ref) BigBinLen() uint64   { return r.payloadU64(offBigBinLen) }
func (r Ref) BigBinOrigin() Ref   { return r.payloadPtr(offBigBinOrigin) }

// --- BigArr: an out-of-line array slice, same origin-tracking idiom. ---

func NewBigArr(self Ref, data, origin Ref, length uint64) {
	self.setKind(BigArr)
	self.setPayloadPtr(offBigArrData, data)
	self.setPayloadU64(offBigArrLen, length)
	self.setPayloadPtr(offBigArrOrigin, origin)
}

func (r Ref) BigArrData() Ref   { return r.payloadPtr(offBigArrData) }
func (r Ref) BigArrLen() uint64 { return r.payloadU64(offBigArrLen) }
func (r Ref) BigArrOrigin() Ref { return r.payloadPtr(offBigArrOrigin) }

// --- TakeConcat: a rope node joining a length-prefixed left list/
// bitstring value to a right continuation, produced by split and
// consumed (and rejoined when possible) by append (spec.md §6.2). ---

func NewTakeConcat(self Ref, leftLen uint64, left, right Ref) {
	self.setKind(TakeConcat)
	self.setPayloadU64(offConcatLeftLen, leftLen)
	self.setPayloadPtr(offConcatLeft, left)
	self.setPayloadPtr(offConcatRight, right)
}

func (r Ref) ConcatLeftLen() uint64 { return r.payloadU64(offConcatLeftLen) }
func (r Ref) ConcatLeft() Ref       { return r.payloadPtr(offConcatLeft) }
func (r Ref) ConcatRight() Ref      { return r.payloadPtr(offConcatRight) }

// --- Seal: an abstract-type wrapper binding a key cell to the data it
// seals, plus a meta slot the namespace layer may chain to other seals. ---

func NewSeal(self Ref, key, data, meta Ref) {
	self.setKind(Seal)
	self.setPayloadPtr(offSealKey, key)
	self.setPayloadPtr(offSealData, data)
	self.setPayloadPtr(offSealMeta, meta)
}

func (r Ref) SealKey() Ref  { return r.payloadPtr(offSealKey) }
func (r Ref) SealData() Ref { return r.payloadPtr(offSealData) }
func (r Ref) SealMeta() Ref { return r.payloadPtr(offSealMeta) }

// SetSealData is called only by the collector's weak-ref clearing pass
// (package gc), once per key's death, to implement spec.md §3.3's
// "SEAL's key is a weak reference; when the key is collected, the
// sealed data's payload becomes eligible for collection."
func (r Ref) SetSealData(v Ref) { r.setPayloadAtomicPtr(offSealData, v) }

// --- Register: content is updated via RMW under a CAS version check;
// AssocLHS and Tombstone fields are covered in the same way so readers
// never observe a torn update across a commit (spec.md §5.3). ---

func NewRegister(self Ref, content, assocLHS, tombstone Ref) {
	self.setKind(Register)
	self.setPayloadAtomicPtr(offRegContent, content)
	self.setPayloadAtomicPtr(offRegAssocLHS, assocLHS)
	self.setPayloadAtomicPtr(offRegTombstone, tombstone)
}

func (r Ref) RegContent() Ref     { return r.payloadAtomicPtr(offRegContent) }
func (r Ref) SetRegContent(v Ref) { r.setPayloadAtomicPtr(offRegContent, v) }

func (r Ref) RegAssocLHS() Ref     { return r.payloadAtomicPtr(offRegAssocLHS) }
func (r Ref) SetRegAssocLHS(v Ref) { r.setPayloadAtomicPtr(offRegAssocLHS, v) }

func (r Ref) RegTombstone() Ref { return r.payloadAtomicPtr(offRegTombstone) }

// CASRegTombstone installs a Tombstone cell for a deleted register,
// succeeding only the first time (weak-reference sealing, spec.md §4.4).
func (r Ref) CASRegTombstone(old, new Ref) bool {
	return r.casPayloadAtomicPtr(offRegTombstone, old, new)
}

// --- Tombstone: the cell a weak reference resolves to once its target
// is collected; carries back an id so distinct tombstones referring to
// the same dead target still compare equal under the runtime's seal
// semantics. ---

func NewTombstone(self Ref, target Ref, id uint64, meta Ref) {
	self.setKind(Tombstone)
	self.setPayloadPtr(offTombTarget, target)
	self.setPayloadU64(offTombID, id)
	self.setPayloadPtr(offTombMeta, meta)
}

func (r Ref) TombTarget() Ref { return r.payloadPtr(offTombTarget) }
func (r Ref) TombID() uint64  { return r.payloadU64(offTombID) }
func (r Ref) TombMeta() Ref   { return r.payloadPtr(offTombMeta) }

// SetTombTarget is called only by the collector's weak-ref clearing
// pass, once per target's death, per spec.md §3.3's "a tombstone's
// target is non-null iff its target is still reachable from a root."
func (r Ref) SetTombTarget(v Ref) { r.setPayloadAtomicPtr(offTombTarget, v) }

// --- Thunk: a deferred computation cell created by a registered
// `glas_prog_cb`; Result and Signal are filled in (and the kind may be
// rewritten in place to the computed value) once the callback runs. ---

func NewThunk(self Ref, computation, result, signal Ref) {
	self.setKind(Thunk)
	self.setPayloadAtomicPtr(offThunkComputation, computation)
	self.setPayloadAtomicPtr(offThunkResult, result)
	self.setPayloadAtomicPtr(offThunkSignal, signal)
}

func (r Ref) ThunkComputation() Ref { return r.payloadAtomicPtr(offThunkComputation) }
func (r Ref) ThunkResult() Ref      { return r.payloadAtomicPtr(offThunkResult) }
func (r Ref) ThunkSignal() Ref      { return r.payloadAtomicPtr(offThunkSignal) }

func (r Ref) SetThunkResult(v Ref) { r.setPayloadAtomicPtr(offThunkResult, v) }
func (r Ref) SetThunkSignal(v Ref) { r.setPayloadAtomicPtr(offThunkSignal, v) }

// --- ForeignPtr: a finalized, non-cell pointer (e.g. an OS handle)
// together with the finalizer cell the GC invokes exactly once when the
// ForeignPtr becomes unreachable. ---

func NewForeignPtr(self Ref, raw uintptr, finalizer Ref) {
	self.setKind(ForeignPtr)
	self.setPayloadU64(offForeignPtr, uint64(raw))
	self.setPayloadPtr(offForeignFin, finalizer)
}

func (r Ref) ForeignRaw() uintptr { return uintptr(r.payloadU64(offForeignPtr)) }
func (r Ref) ForeignFinalizer() Ref { return r.payloadPtr(offForeignFin) }

// --- ForwardPtr: installed by the collector over a moved or merged
// cell (spec.md §4.2); To is the single live pointer field. ---

func NewForwardPtr(self, to Ref) {
	self.setKind(ForwardPtr)
	self.setPayloadPtr(0, to)
}

func (r Ref) ForwardTo() Ref { return r.payloadPtr(0) }
