// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import "unsafe"

// uintptrOf returns the address of the first byte of mem. Used once, at
// mmap time, to record the base of a reservation as an Address.
func uintptrOf(mem []byte) uintptr {
	if len(mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&mem[0]))
}

// rawBytes reinterprets the n bytes starting at addr as a []byte. addr
// must lie within memory this package itself mmap'd; callers never hand
// out rawBytes results across the API boundary.
func rawBytes(addr Address, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), n)
}

// Ptr exposes the raw pointer behind addr so package cell can overlay
// its tagged Cell struct directly onto arena memory. Only Address values
// returned by this package's allocator are safe to pass here.
func Ptr(addr Address) unsafe.Pointer {
	return unsafe.Pointer(uintptr(addr))
}

// Bytes exposes n raw bytes starting at addr, for the same reason as Ptr.
func Bytes(addr Address, n int) []byte {
	return rawBytes(addr, n)
}
