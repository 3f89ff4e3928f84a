// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"glas.dev/rt/glas"
)

// runREPL is `glas --cmd` with no script text: an interactive
// line-editing session (spec.md §1.5) over one Context, since the
// source-language compiler itself is out of this runtime's scope.
// Each line is a tiny stack-machine command exercising the primitives
// package glas exposes directly, in the spirit of the prototype's
// --cmd action but without a real compiler behind it.
func runREPL() error {
	rl, err := readline.New("glas> ")
	if err != nil {
		return fmt.Errorf("glas: opening REPL: %w", err)
	}
	defer rl.Close()

	rt := glas.NewRuntime()
	c := glas.NewContext(rt)
	defer c.Drop()
	c.Begin()

	fmt.Println("glas REPL -- type 'help' for commands, 'quit' to exit")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := replEval(c, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func replEval(c *glas.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "help":
		fmt.Print(`commands:
  push.u8 N        push N as an 8-bit unsigned integer
  push.bin TEXT    push TEXT as a binary value
  pop              pop and discard the top of the stack
  depth            print the current stack depth
  reg.new PREFIX   install a register family
  reg.set NAME     pop the top of the stack into register NAME
  reg.get NAME     push register NAME's content
  commit           commit the current step and begin a new one
  abort            abort the current step and begin a new one
  quit / exit      leave the REPL
`)
		return nil
	case "push.u8":
		if len(args) != 1 {
			return fmt.Errorf("push.u8 takes one argument")
		}
		n, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return err
		}
		return c.PushUint(8, n)
	case "push.bin":
		return c.PushBinary([]byte(strings.Join(args, " ")))
	case "pop":
		_, err := c.Pop()
		return err
	case "depth":
		fmt.Println(c.StackDepth())
		return nil
	case "reg.new":
		if len(args) != 1 {
			return fmt.Errorf("reg.new takes one argument")
		}
		if !c.RegNew(args[0]) {
			return fmt.Errorf("prefix %q conflicts with an installed family", args[0])
		}
		return nil
	case "reg.set":
		if len(args) != 1 {
			return fmt.Errorf("reg.set takes one argument")
		}
		return c.RegSet(args[0])
	case "reg.get":
		if len(args) != 1 {
			return fmt.Errorf("reg.get takes one argument")
		}
		return c.RegGet(args[0])
	case "commit":
		if !c.Commit() {
			return fmt.Errorf("commit failed: %v", c.Errors())
		}
		return nil
	case "abort":
		c.Abort()
		return nil
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}
