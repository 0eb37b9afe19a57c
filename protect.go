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

import "golang.org/x/exp/constraints"

// Protector opens a byte range for writing and closes it again.
//
// The two platform variants do not give the same guarantee. On Windows the
// exact previous flags are captured by Unlock and put back by Restore. On
// POSIX systems there is no cheap way to ask for the protection of a single
// address, so Unlock leaves every OS page it touches read/write/execute and
// Restore does nothing. ProtectState.Restorable tells the two apart.
type Protector interface {
	Unlock(address uintptr, length int) (ProtectState, error)
	Restore(address uintptr, length int, prev ProtectState) error
}

// ProtectState is the opaque token returned by Unlock.
type ProtectState struct {
	flags      uint32
	restorable bool
}

func (s ProtectState) Restorable() bool {
	return s.restorable
}

// NopProtector is used for memory that belongs to the Go heap.
type NopProtector struct{}

func (NopProtector) Unlock(address uintptr, length int) (ProtectState, error) {
	return ProtectState{}, nil
}

func (NopProtector) Restore(address uintptr, length int, prev ProtectState) error {
	return nil
}

func alignDown[I constraints.Integer](a, b I) I {
	return a &^ (b - 1)
}

func alignUp[I constraints.Integer](a, b I) I {
	return (a + b - 1) &^ (b - 1)
}

// vim: ai:ts=8:sw=8:noet:syntax=go
