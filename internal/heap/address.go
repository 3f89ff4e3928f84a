// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package heap implements the paged heap substrate described in the
// runtime's heap substrate: large anonymous reservations subdivided into
// 2MiB pages, vended to allocators under a lock-free per-heap bitmap.
//
// There is nothing cell-specific here. See package cell for the tagged
// node layout that lives inside the pages this package vends.
package heap

import "fmt"

// An Address is an offset into the runtime's managed address space: some
// byte within a page belonging to some Heap. Unlike golang.org/x/debug's
// core.Address (which names a byte in an inspected process captured in a
// core file) this Address names a byte in memory this process itself
// mmap'd and owns; there is no separate inferior.
type Address uintptr

func (a Address) Add(n int64) Address {
	return a + Address(n)
}

func (a Address) Sub(b Address) int64 {
	return int64(a) - int64(b)
}

func (a Address) IsZero() bool {
	return a == 0
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uintptr(a))
}
