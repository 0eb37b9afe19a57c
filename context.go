/**
 * Copyright 2024 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package bitfix

import (
	"fmt"
)

// MatchContext is handed to a patch callback for one match. It is a lease:
// once the callback returns, the memory reference is dropped and every
// method fails with ErrLeaseRevoked.
//
// Scripts see Address, Index, Read and Write. Read and Write take absolute
// addresses and may touch any mapped page, not only the matched bytes.
type MatchContext struct {
	address uintptr
	index   int
	memory  *Memory
	err     error
}

func newMatchContext(memory *Memory, address uintptr, index int) *MatchContext {
	return &MatchContext{
		address: address,
		index:   index,
		memory:  memory,
	}
}

func (c *MatchContext) revoke() {
	c.memory = nil
}

// fail records the first failure seen by this lease.
func (c *MatchContext) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return err
}

// Err returns the first error raised through this context.
func (c *MatchContext) Err() error {
	return c.err
}

func (c *MatchContext) Peek(address uintptr) (byte, error) {
	if c.memory == nil {
		return 0, ErrLeaseRevoked
	}
	b, err := c.memory.Read(address)
	if err != nil {
		return 0, c.fail(err)
	}
	return b, nil
}

func (c *MatchContext) Poke(address uintptr, data byte) error {
	if c.memory == nil {
		return ErrLeaseRevoked
	}
	err := c.memory.Write(address, data)
	if err != nil {
		return c.fail(err)
	}
	return nil
}

// Address returns where the pattern matched. Like Read, it unwinds the
// calling script once the callback has returned.
func (c *MatchContext) Address() int64 {
	if c.memory == nil {
		panic(ErrLeaseRevoked)
	}
	return int64(c.address)
}

func (c *MatchContext) Index() int64 {
	if c.memory == nil {
		panic(ErrLeaseRevoked)
	}
	return int64(c.index)
}

// Read returns the byte at address. A failure unwinds the calling script.
func (c *MatchContext) Read(address int64) int64 {
	b, err := c.Peek(uintptr(address))
	if err != nil {
		panic(err)
	}
	return int64(b)
}

// Write stores value at address. A failure unwinds the calling script.
func (c *MatchContext) Write(address int64, value int64) {
	if value < 0 || value > 0xFF {
		panic(c.fail(fmt.Errorf("%w: %d", ErrByteRange, value)))
	}
	err := c.Poke(uintptr(address), byte(value))
	if err != nil {
		panic(err)
	}
}

// vim: ai:ts=8:sw=8:noet:syntax=go
