// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package register

import (
	"testing"

	"glas.dev/rt/internal/cell"
)

func TestQueueReadWriteUnread(t *testing.T) {
	q := NewQueue()
	q.Write(cell.Ref(1), cell.Ref(2), cell.Ref(3))

	got, err := q.Read(2)
	if err != nil {
		t.Fatalf("Read(2): %v", err)
	}
	if got[0] != 1 || got[1] != 2 {
		t.Fatalf("Read(2) = %v, want [1 2]", got)
	}

	if _, err := q.Read(2); err == nil {
		t.Fatal("Read(2) with only 1 item left should fail, not partially read")
	}

	if err := q.Unread(2); err != nil {
		t.Fatalf("Unread(2): %v", err)
	}
	got, err = q.Read(3)
	if err != nil {
		t.Fatalf("Read(3) after Unread: %v", err)
	}
	for i, want := range []cell.Ref{1, 2, 3} {
		if got[i] != want {
			t.Fatalf("Read(3) after Unread = %v, want [1 2 3]", got)
		}
	}
}

func TestQueuePeekDoesNotConsume(t *testing.T) {
	q := NewQueue()
	q.Write(cell.Ref(10), cell.Ref(20))

	peeked, err := q.PeekN(2)
	if err != nil {
		t.Fatalf("PeekN(2): %v", err)
	}
	if peeked[0] != 10 || peeked[1] != 20 {
		t.Fatalf("PeekN(2) = %v", peeked)
	}
	if q.Len() != 2 {
		t.Fatalf("Len() after Peek = %d, want 2 (peek must not consume)", q.Len())
	}
}

func TestQueueWriteDoesNotObserveContents(t *testing.T) {
	q := NewQueue()
	q.Write(cell.Ref(1))
	// Write has no return value conveying queue contents -- the API
	// itself enforces "writers MUST NOT observe queue contents".
	q.Write(cell.Ref(2))
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
}
