// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The glas command is the thin reference host over package glas
// (spec.md §6's "CLI front-end... out of scope [for the core]: thin
// glue"). Its argument grammar follows the C prototype's
// _examples/original_source/c/src/main.c: a bare opname expands to
// env.cli.<opname>.app, --run's argument either names env.<name>.app
// or, with a leading '.', a local app path.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"glas.dev/rt/internal/config"
	"glas.dev/rt/internal/rtlog"
)

const version = "0.1"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "glas",
		Short: fmt.Sprintf("A reference host for the glas runtime (version %s)", version),
		// A bare `glas opname args...` is sugar for `glas --run cli.opname`
		// (main.c's "syntactic sugar 'opname' => --run 'cli.opname'").
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runApp(appSource("cli."+args[0]), args[1:])
		},
	}
	root.AddCommand(
		newRunCmd(),
		newScriptCmd(),
		newCmdCmd(),
		newExtractCmd(),
		newBitCmd(),
	)
	return root
}

// appSource implements main.c's --run argument resolution: a leading
// '.' names a local app path (bare "." means the conventional "app"
// binding), anything else names env.<name>.app.
func appSource(name string) string {
	if name == "" {
		return "app"
	}
	if name[0] == '.' {
		if len(name) == 1 {
			return "app"
		}
		return name[1:] + ".app"
	}
	return "env." + name + ".app"
}

func runApp(src string, args []string) error {
	rtlog.Debugf("run %s args=%v", src, args)
	// Compiling and executing a named app requires the source-language
	// loader spec.md §1 names as an out-of-scope external collaborator
	// (the VFSCallback); the prototype itself only stubs this branch
	// out ("command not yet supported!", main.c). A real host wires its
	// own loader here and drives the result through package glas's
	// Context API (see runREPL for the primitives available once a
	// Context exists).
	return fmt.Errorf("glas: running %q requires a source-language loader, which is out of this runtime's scope", src)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "--run NAME [args...]",
		Short: "Run application env.NAME.app (or a local path if NAME starts with '.')",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(appSource(args[0]), args[1:])
		},
	}
}

func newScriptCmd() *cobra.Command {
	var lang string
	c := &cobra.Command{
		Use:   "--script PATH [args...]",
		Short: "Compile PATH and run its 'app' definition",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rtlog.Debugf("script lang=%q path=%s args=%v", lang, args[0], args[1:])
			return fmt.Errorf("glas: compiling %q requires a source-language loader, which is out of this runtime's scope", args[0])
		},
	}
	c.Flags().StringVar(&lang, "ext", "", "file extension to assume, overriding the path's actual extension")
	return c
}

func newCmdCmd() *cobra.Command {
	var lang string
	c := &cobra.Command{
		Use:   "--cmd [TEXT] [args...]",
		Short: "Compile TEXT as a script and run its 'app' definition, or open a REPL if TEXT is omitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runREPL()
			}
			rtlog.Debugf("cmd lang=%q text=%q args=%v", lang, args[0], args[1:])
			return fmt.Errorf("glas: compiling inline source requires a source-language loader, which is out of this runtime's scope")
		},
	}
	c.Flags().StringVar(&lang, "ext", "", "source language extension")
	return c
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "--extract NAME",
		Short: "Print the binary value env.NAME to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rtlog.Debugf("extract env.%s", args[0])
			return fmt.Errorf("glas: extracting %q requires a configuration loader, which is out of this runtime's scope", args[0])
		},
	}
}

func newBitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "--bit [TESTNAME...]",
		Short: "Run built-in runtime self-checks (all of them if no TESTNAME is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err == nil {
				rtlog.Debugf("configuration path: %s", path)
			}
			failed := runBuiltInTests(args)
			if failed > 0 {
				return fmt.Errorf("glas: %d built-in test(s) failed", failed)
			}
			fmt.Println("glas: all built-in tests passed")
			return nil
		},
	}
}
