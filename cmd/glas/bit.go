// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"

	"glas.dev/rt/glas"
)

// builtInTest is one --bit self-check: a smoke test over package glas
// run against a fresh Runtime, standing in for the C prototype's
// glas_rt_run_builtin_tests (main.c's glas_cli_bit).
type builtInTest struct {
	name string
	run  func() error
}

var builtInTests = []builtInTest{
	{"binary-roundtrip", testBinaryRoundtrip},
	{"register-set-get", testRegisterSetGet},
}

func testBinaryRoundtrip() error {
	rt := glas.NewRuntime()
	c := glas.NewContext(rt)
	defer c.Drop()
	c.Begin()

	want := []byte{1, 2, 3}
	if err := c.PushBinary(want); err != nil {
		return err
	}
	isBin, err := c.IsBinary()
	if err != nil {
		return err
	}
	if !isBin {
		return fmt.Errorf("pushed binary does not report IsBinary")
	}
	n, err := c.ListLen()
	if err != nil {
		return err
	}
	if n != uint64(len(want)) {
		return fmt.Errorf("ListLen = %d, want %d", n, len(want))
	}
	var buf [3]byte
	got, eof, err := c.PeekBinary(0, 0, buf[:])
	if err != nil {
		return err
	}
	if got != len(want) || !eof || !bytes.Equal(buf[:], want) {
		return fmt.Errorf("PeekBinary round-trip mismatch: got %v", buf[:got])
	}
	return nil
}

func testRegisterSetGet() error {
	rt := glas.NewRuntime()
	if !rt.NewRegisterFamily("r.") {
		return fmt.Errorf("NewRegisterFamily(r.) should succeed on a fresh runtime")
	}
	c := glas.NewContext(rt)
	defer c.Drop()
	c.Begin()

	if err := c.PushUint(8, 99); err != nil {
		return err
	}
	if err := c.RegSet("r.x"); err != nil {
		return err
	}
	if !c.Commit() {
		return fmt.Errorf("commit failed: %v", c.Errors())
	}
	if err := c.RegGet("r.x"); err != nil {
		return err
	}
	got, err := c.PopUint(8)
	if err != nil {
		return err
	}
	if got != 99 {
		return fmt.Errorf("register round-trip = %d, want 99", got)
	}
	return nil
}

// runBuiltInTests runs the named self-checks (all of them if names is
// empty), printing PASS/FAIL per test, and returns the failure count.
func runBuiltInTests(names []string) int {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	failed := 0
	for _, t := range builtInTests {
		if len(wanted) > 0 && !wanted[t.name] {
			continue
		}
		if err := t.run(); err != nil {
			fmt.Printf("FAIL %s: %v\n", t.name, err)
			failed++
			continue
		}
		fmt.Printf("PASS %s\n", t.name)
	}
	return failed
}
