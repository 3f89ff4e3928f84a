// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rterr defines the runtime's monotonic error-flags summary.
// A running step accumulates flags as it hits problems (an underflow,
// a dead branch, a lost conflict...); flags never clear except by
// starting a fresh step, mirroring glas_error_get/glas_error_set from
// the C prototype's api/glas.h.
package rterr

import (
	"fmt"
	"strings"
)

// Flags is a bitwise OR of error conditions accumulated during a step.
// It implements error so callers can return it, wrap it with
// fmt.Errorf("%w", ...), and test membership with errors.Is after
// reducing to a single flag, or with Flags.Has for the common case.
type Flags uint32

const (
	NoErrors Flags = 0

	Underflow    Flags = 1 << 0  // data stack underflow
	DeadBranch   Flags = 1 << 1  // pruned fork or choice context
	Linearity    Flags = 1 << 2  // copy or drop of linear data
	Ephemerality Flags = 1 << 3  // short-lived data in long-lived register
	DataSeal     Flags = 1 << 4  // error working with sealed data
	DataType     Flags = 1 << 5  // e.g. list append with not-a-list
	NameShadow   Flags = 1 << 8  // defined name was hidden
	NameUndef    Flags = 1 << 9  // called an undefined name
	NameType     Flags = 1 << 10 // e.g. call a non-program, set a non-register
	Assert       Flags = 1 << 12 // assertion failure in running program
	ErrorOp      Flags = 1 << 13 // use of the error operator in a running program
	AtomicCB     Flags = 1 << 14 // tried to commit an atomic callback context
	SigKill      Flags = 1 << 16 // operation killed willfully
	Quota        Flags = 1 << 17 // operation killed heuristically
	Conflict     Flags = 1 << 18 // lost a conflict with a concurrent operation
	Client1      Flags = 1 << 20 // client-injected errors, four independent slots
	Client2      Flags = 1 << 21
	Client3      Flags = 1 << 22
	Client4      Flags = 1 << 23
)

var names = []struct {
	f Flags
	s string
}{
	{Underflow, "underflow"},
	{DeadBranch, "dead-branch"},
	{Linearity, "linearity"},
	{Ephemerality, "ephemerality"},
	{DataSeal, "data-seal"},
	{DataType, "data-type"},
	{NameShadow, "name-shadow"},
	{NameUndef, "name-undef"},
	{NameType, "name-type"},
	{Assert, "assert"},
	{ErrorOp, "error-op"},
	{AtomicCB, "atomic-cb"},
	{SigKill, "sigkill"},
	{Quota, "quota"},
	{Conflict, "conflict"},
	{Client1, "client1"},
	{Client2, "client2"},
	{Client3, "client3"},
	{Client4, "client4"},
}

// Has reports whether every bit of want is set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

// Add returns f with more set, the monotonic accumulation
// glas_error_set performs: errors are divergence and never clear
// mid-step, only at the next checkpoint/step boundary.
func (f Flags) Add(more Flags) Flags { return f | more }

func (f Flags) Error() string {
	if f == NoErrors {
		return "no errors"
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.f) {
			parts = append(parts, n.s)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("unknown error flags 0x%x", uint32(f))
	}
	return strings.Join(parts, "|")
}
