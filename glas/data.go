// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glas

import (
	"fmt"

	"glas.dev/rt/internal/cell"
	"glas.dev/rt/internal/rterr"
	"glas.dev/rt/internal/value"
)

// PushBinary copies data into a fresh binary value and pushes it
// (spec.md §6's "push/peek of binaries (copy ...)"). The zero-copy
// variant with a release callback is ReleaseBinary.
func (c *Context) PushBinary(data []byte) error {
	v, err := c.values.NewBinary(data)
	if err != nil {
		return err
	}
	c.Push(v)
	return nil
}

// ReleaseBinary anchors data in place (no copy) as a BigBin, running
// release once the value becomes unreachable -- spec.md §6's
// "zero-copy with release callback", grounded on internal/gc's
// FinalizerRunner mechanism via value.BigStore.
func (c *Context) ReleaseBinary(data []byte, release func()) error {
	v, err := c.values.NewBinaryZeroCopy(data, release)
	if err != nil {
		return err
	}
	c.Push(v)
	return nil
}

// PeekBinary reads up to len(buf) bytes starting at offset from the
// binary at stack depth depthFromTop (0 = top of stack) without
// popping it, for the streaming peek spec.md §6 describes. It reports
// how many bytes were copied and whether offset+n reached the end of
// the binary.
func (c *Context) PeekBinary(depthFromTop int, offset uint64, buf []byte) (n int, eof bool, err error) {
	top, err := c.peekDepth(depthFromTop)
	if err != nil {
		return 0, false, err
	}
	data, ok := c.values.Bytes(top)
	if !ok {
		c.step.Fail(rterr.DataType)
		return 0, false, fmt.Errorf("glas: top of stack is not a binary")
	}
	if offset > uint64(len(data)) {
		return 0, false, fmt.Errorf("glas: peek offset %d exceeds binary length %d", offset, len(data))
	}
	rest := data[offset:]
	n = copy(buf, rest)
	return n, uint64(n) >= uint64(len(rest)), nil
}

func (c *Context) peekDepth(depthFromTop int) (cell.Ref, error) {
	idx := len(c.stack) - 1 - depthFromTop
	if idx < 0 {
		return cell.Nil, fmt.Errorf("glas: peek depth %d exceeds stack depth %d", depthFromTop, len(c.stack))
	}
	return c.stack[idx], nil
}

// PushBitstring pushes a fresh bitstring value built from bits
// (spec.md §6).
func (c *Context) PushBitstring(bits []bool) error {
	v, err := c.values.NewBitstring(bits)
	if err != nil {
		return err
	}
	c.Push(v)
	return nil
}

// PeekBitstring returns the bits of the bitstring at depthFromTop
// without popping it.
func (c *Context) PeekBitstring(depthFromTop int) ([]bool, error) {
	top, err := c.peekDepth(depthFromTop)
	if err != nil {
		return nil, err
	}
	bits, ok := value.Bits(top)
	if !ok {
		return nil, fmt.Errorf("glas: top of stack is not a bitstring")
	}
	return bits, nil
}

// PushUint pushes an unsigned integer as a width-bit bitstring,
// big-endian bit order (spec.md §6's "integers (fixed widths 8..64,
// ... unsigned)"). width must be one of 8, 16, 32, 64.
func (c *Context) PushUint(width int, v uint64) error {
	bits, err := uintBits(width, v)
	if err != nil {
		return err
	}
	return c.PushBitstring(bits)
}

// PushInt pushes a signed integer in two's-complement form as a
// width-bit bitstring.
func (c *Context) PushInt(width int, v int64) error {
	return c.PushUint(width, uint64(v)&widthMask(width))
}

// PopUint pops a width-bit bitstring and decodes it as an unsigned
// integer.
func (c *Context) PopUint(width int) (uint64, error) {
	top, err := c.Pop()
	if err != nil {
		return 0, err
	}
	bits, ok := value.Bits(top)
	if !ok || len(bits) != width {
		return 0, fmt.Errorf("glas: top of stack is not a %d-bit integer", width)
	}
	return bitsToUint(bits), nil
}

// PopInt pops a width-bit bitstring and sign-extends it as a signed
// integer.
func (c *Context) PopInt(width int) (int64, error) {
	u, err := c.PopUint(width)
	if err != nil {
		return 0, err
	}
	if u&(1<<uint(width-1)) != 0 {
		u |= ^widthMask(width)
	}
	return int64(u), nil
}

func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

func uintBits(width int, v uint64) ([]bool, error) {
	switch width {
	case 8, 16, 32, 64:
	default:
		return nil, fmt.Errorf("glas: integer width %d not one of 8,16,32,64", width)
	}
	bits := make([]bool, width)
	for i := 0; i < width; i++ {
		bits[width-1-i] = v&(1<<uint(i)) != 0
	}
	return bits, nil
}

func bitsToUint(bits []bool) uint64 {
	var v uint64
	for _, b := range bits {
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v
}
