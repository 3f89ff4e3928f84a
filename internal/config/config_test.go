// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import "testing"

func TestPathHonorsEnvOverride(t *testing.T) {
	t.Setenv(envVar, "/tmp/custom-conf.glas")
	got, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if got != "/tmp/custom-conf.glas" {
		t.Fatalf("Path() = %q, want override", got)
	}
}

func TestPathFallsBackToUserConfigDir(t *testing.T) {
	t.Setenv(envVar, "")
	t.Setenv("HOME", "/home/tester")
	t.Setenv("XDG_CONFIG_HOME", "")
	got, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if got == "" {
		t.Fatal("Path() returned empty string")
	}
}
