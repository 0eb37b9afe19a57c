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

	"golang.org/x/arch/x86/x86asm"
)

// maxInstLen is the longest legal x86 instruction.
const maxInstLen = 15

// DescribeAt disassembles the instruction starting at address in Intel
// syntax. bits is 16, 32 or 64.
func DescribeAt(mem *Memory, address uintptr, bits int) (string, error) {
	page, offset, err := mem.find(address)
	if err != nil {
		return "", err
	}

	code := page.Data[offset:]
	if len(code) > maxInstLen {
		code = code[:maxInstLen]
	}

	inst, err := x86asm.Decode(code, bits)
	if err != nil {
		return "", fmt.Errorf("cannot decode at %X: %w", address, err)
	}
	// A lone prefix or escape byte decodes to a pseudo-instruction.
	if inst.Op == 0 || inst.Len > len(code) {
		return "", fmt.Errorf("cannot decode at %X: truncated", address)
	}

	return x86asm.IntelSyntax(inst, uint64(address), nil), nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
