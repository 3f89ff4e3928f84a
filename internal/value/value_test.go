// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"bytes"
	"testing"

	"glas.dev/rt/internal/alloc"
	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/heap"
)

func newFactory(t *testing.T) *Factory {
	t.Helper()
	return New(alloc.New(heap.NewPool()), nil, NewBigStore())
}

func smallBin(t *testing.T, f *Factory, s string) cell.Ref {
	t.Helper()
	ref, err := f.NewBinary([]byte(s))
	if err != nil {
		t.Fatalf("NewBinary(%q): %v", s, err)
	}
	return ref
}

func TestPairRoundTrip(t *testing.T) {
	f := newFactory(t)
	l := smallBin(t, f, "left")
	r := smallBin(t, f, "right")

	p, err := f.MkPair(l, r)
	if err != nil {
		t.Fatalf("MkPair: %v", err)
	}
	if !IsPair(p) {
		t.Fatal("MkPair result is not IsPair")
	}
	gotL, gotR, ok := UnPair(p)
	if !ok || gotL != l || gotR != r {
		t.Fatalf("UnPair = (%v, %v, %v), want (%v, %v, true)", gotL, gotR, ok, l, r)
	}
	if _, _, ok := UnPair(l); ok {
		t.Fatal("UnPair on a non-pair should fail")
	}
}

func TestSumRoundTrip(t *testing.T) {
	f := newFactory(t)
	v := smallBin(t, f, "payload")

	inl, err := f.MkInl(v)
	if err != nil {
		t.Fatalf("MkInl: %v", err)
	}
	if !IsInl(inl) || IsInr(inl) {
		t.Fatal("MkInl result should be IsInl and not IsInr")
	}
	got, ok, err := f.UnInl(inl)
	if err != nil || !ok || got != v {
		t.Fatalf("UnInl = (%v, %v, %v), want (%v, true, nil)", got, ok, err, v)
	}
	if _, ok, _ := f.UnInr(inl); ok {
		t.Fatal("UnInr should fail on an inl value")
	}

	inr, err := f.MkInr(v)
	if err != nil {
		t.Fatalf("MkInr: %v", err)
	}
	got, ok, err = f.UnInr(inr)
	if err != nil || !ok || got != v {
		t.Fatalf("UnInr = (%v, %v, %v), want (%v, true, nil)", got, ok, err, v)
	}
}

// TestBinaryS1 mirrors spec.md §8 scenario S1: push bytes, check
// is_binary and list_len, read them back unchanged.
func TestBinaryS1(t *testing.T) {
	f := newFactory(t)
	want := []byte{1, 2, 3}
	b, err := f.NewBinary(want)
	if err != nil {
		t.Fatalf("NewBinary: %v", err)
	}
	if !IsBinary(b) {
		t.Fatal("NewBinary result should be IsBinary")
	}
	if n, ok := BinLen(b); !ok || n != 3 {
		t.Fatalf("BinLen = (%d, %v), want (3, true)", n, ok)
	}
	got, ok := f.Bytes(b)
	if !ok || !bytes.Equal(got, want) {
		t.Fatalf("Bytes = (%v, %v), want (%v, true)", got, ok, want)
	}
}

// TestBinaryS2 mirrors spec.md §8 scenario S2: split then append
// reproduces the original value.
func TestBinaryS2(t *testing.T) {
	f := newFactory(t)
	want := []byte{1, 2, 3, 4, 5}
	b, err := f.NewBinary(want)
	if err != nil {
		t.Fatalf("NewBinary: %v", err)
	}
	left, right, ok, err := f.SplitBinAt(b, 2)
	if err != nil || !ok {
		t.Fatalf("SplitBinAt: ok=%v err=%v", ok, err)
	}
	if n, _ := BinLen(left); n != 2 {
		t.Fatalf("left length = %d, want 2", n)
	}
	if n, _ := BinLen(right); n != 3 {
		t.Fatalf("right length = %d, want 3", n)
	}
	joined, err := f.AppendBin(left, right)
	if err != nil {
		t.Fatalf("AppendBin: %v", err)
	}
	got, ok := f.Bytes(joined)
	if !ok || !bytes.Equal(got, want) {
		t.Fatalf("Bytes(joined) = (%v, %v), want (%v, true)", got, ok, want)
	}
}

// TestBinarySliceRejoin mirrors spec.md §8 property 11: two aligned
// BIG_BIN slices of the same origin re-append to a single BIG_BIN, not
// a TAKE_CONCAT rope.
func TestBinarySliceRejoin(t *testing.T) {
	f := newFactory(t)
	data := bytes.Repeat([]byte{0xAB}, 64) // forces BIG_BIN, not SMALL_BIN
	whole, err := f.NewBinary(data)
	if err != nil {
		t.Fatalf("NewBinary: %v", err)
	}
	if whole.Kind() != cell.BigBin {
		t.Fatalf("NewBinary(64 bytes) Kind = %v, want BigBin", whole.Kind())
	}
	left, right, ok, err := f.SplitBinAt(whole, 20)
	if err != nil || !ok {
		t.Fatalf("SplitBinAt: ok=%v err=%v", ok, err)
	}
	joined, err := f.AppendBin(left, right)
	if err != nil {
		t.Fatalf("AppendBin: %v", err)
	}
	if joined.Kind() != cell.BigBin {
		t.Fatalf("rejoined Kind = %v, want BigBin (slice-rejoin should avoid a rope)", joined.Kind())
	}
	if joined.BigBinOrigin() != whole.BigBinOrigin() {
		t.Fatal("rejoined value should share the original's origin")
	}
	got, ok := f.Bytes(joined)
	if !ok || !bytes.Equal(got, data) {
		t.Fatalf("Bytes(joined) mismatch: got %v", got)
	}
}

func TestArraySplitAppend(t *testing.T) {
	f := newFactory(t)
	elems := make([]cell.Ref, 5)
	for i := range elems {
		elems[i] = smallBin(t, f, string(rune('a'+i)))
	}
	arr, err := f.NewArray(elems)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	left, right, ok, err := f.SplitArrAt(arr, 2)
	if err != nil || !ok {
		t.Fatalf("SplitArrAt: ok=%v err=%v", ok, err)
	}
	joined, err := f.AppendArr(left, right)
	if err != nil {
		t.Fatalf("AppendArr: %v", err)
	}
	got, ok := f.Elems(joined)
	if !ok || len(got) != len(elems) {
		t.Fatalf("Elems(joined) = %v, want %v", got, elems)
	}
	for i := range elems {
		if got[i] != elems[i] {
			t.Fatalf("Elems(joined)[%d] = %v, want %v", i, got[i], elems[i])
		}
	}
}

func TestBitstringSplitAppend(t *testing.T) {
	f := newFactory(t)
	want := []bool{true, false, true, true, false, false, true}
	b, err := f.NewBitstring(want)
	if err != nil {
		t.Fatalf("NewBitstring: %v", err)
	}
	if !IsBitstr(b) {
		t.Fatal("NewBitstring result should be IsBitstr")
	}
	if n, ok := BitLen(b); !ok || n != uint64(len(want)) {
		t.Fatalf("BitLen = (%d, %v), want (%d, true)", n, ok, len(want))
	}
	left, right, ok, err := f.SplitBitAt(b, 3)
	if err != nil || !ok {
		t.Fatalf("SplitBitAt: ok=%v err=%v", ok, err)
	}
	joined, err := f.AppendBit(left, right)
	if err != nil {
		t.Fatalf("AppendBit: %v", err)
	}
	got, ok := Bits(joined)
	if !ok || len(got) != len(want) {
		t.Fatalf("Bits(joined) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Bits(joined)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDictInsertGetRemove(t *testing.T) {
	f := newFactory(t)
	var d cell.Ref // empty dict
	v1 := smallBin(t, f, "v1")
	v2 := smallBin(t, f, "v2")

	d, err := f.DictInsert(d, []byte("a"), v1)
	if err != nil {
		t.Fatalf("DictInsert a: %v", err)
	}
	d, err = f.DictInsert(d, []byte("b"), v2)
	if err != nil {
		t.Fatalf("DictInsert b: %v", err)
	}
	if !IsDict(d) {
		t.Fatal("result of DictInsert should be IsDict")
	}

	got, ok := DictGet(d, []byte("a"))
	if !ok || got != v1 {
		t.Fatalf("DictGet(a) = (%v, %v), want (%v, true)", got, ok, v1)
	}
	got, ok = DictGet(d, []byte("b"))
	if !ok || got != v2 {
		t.Fatalf("DictGet(b) = (%v, %v), want (%v, true)", got, ok, v2)
	}
	if _, ok := DictGet(d, []byte("c")); ok {
		t.Fatal("DictGet(c) should fail: never inserted")
	}

	d2, ok, err := f.DictRemove(d, []byte("a"))
	if err != nil || !ok {
		t.Fatalf("DictRemove a: ok=%v err=%v", ok, err)
	}
	if _, ok := DictGet(d2, []byte("a")); ok {
		t.Fatal("DictGet(a) should fail after removal")
	}
	if got, ok := DictGet(d2, []byte("b")); !ok || got != v2 {
		t.Fatalf("DictGet(b) after removing a = (%v, %v), want (%v, true)", got, ok, v2)
	}
}

func TestDictValueMayBeUnit(t *testing.T) {
	f := newFactory(t)
	var d cell.Ref
	d, err := f.DictInsert(d, []byte("empty"), cell.Nil)
	if err != nil {
		t.Fatalf("DictInsert: %v", err)
	}
	got, ok := DictGet(d, []byte("empty"))
	if !ok || !got.IsNil() {
		t.Fatalf("DictGet(empty) = (%v, %v), want (Nil, true)", got, ok)
	}
	if _, ok := DictGet(d, []byte("missing")); ok {
		t.Fatal("DictGet(missing) should fail even though a stored value is Nil")
	}
}

func TestIsRatio(t *testing.T) {
	f := newFactory(t)
	n, err := f.NewBitstring([]bool{true, false, true})
	if err != nil {
		t.Fatalf("NewBitstring(n): %v", err)
	}
	d, err := f.NewBitstring([]bool{true, true})
	if err != nil {
		t.Fatalf("NewBitstring(d): %v", err)
	}

	var ratio cell.Ref
	ratio, err = f.DictInsert(ratio, []byte("n"), n)
	if err != nil {
		t.Fatalf("DictInsert n: %v", err)
	}
	ratio, err = f.DictInsert(ratio, []byte("d"), d)
	if err != nil {
		t.Fatalf("DictInsert d: %v", err)
	}
	if !IsRatio(ratio) {
		t.Fatal("{n, d} dict of bitstrings should satisfy IsRatio")
	}

	var missingD cell.Ref
	missingD, err = f.DictInsert(missingD, []byte("n"), n)
	if err != nil {
		t.Fatalf("DictInsert n: %v", err)
	}
	if IsRatio(missingD) {
		t.Fatal("a dict missing 'd' should not satisfy IsRatio")
	}

	notBits := smallBin(t, f, "v1")
	var wrongShape cell.Ref
	wrongShape, err = f.DictInsert(wrongShape, []byte("n"), notBits)
	if err != nil {
		t.Fatalf("DictInsert n: %v", err)
	}
	wrongShape, err = f.DictInsert(wrongShape, []byte("d"), d)
	if err != nil {
		t.Fatalf("DictInsert d: %v", err)
	}
	if IsRatio(wrongShape) {
		t.Fatal("a dict whose 'n' is not a bitstring should not satisfy IsRatio")
	}
}

func TestSealRoundTrip(t *testing.T) {
	f := newFactory(t)
	key := smallBin(t, f, "key")
	otherKey := smallBin(t, f, "other")
	data := smallBin(t, f, "secret")

	sealed, err := f.MkSeal(key, data, cell.Nil)
	if err != nil {
		t.Fatalf("MkSeal: %v", err)
	}
	if !IsAbstract(sealed) {
		t.Fatal("a SEAL should carry the abstract aggregate tag")
	}
	got, err := UnSeal(sealed, key)
	if err != nil || got != data {
		t.Fatalf("UnSeal(key) = (%v, %v), want (%v, nil)", got, err, data)
	}
	if _, err := UnSeal(sealed, otherKey); err == nil {
		t.Fatal("UnSeal with the wrong key should fail")
	}
}
