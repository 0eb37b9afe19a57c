//go:build windows
// +build windows

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
	"golang.org/x/sys/windows"
)

type windowsProtector struct{}

func SystemProtector() Protector {
	return windowsProtector{}
}

func (windowsProtector) Unlock(address uintptr, length int) (ProtectState, error) {
	var old uint32
	err := windows.VirtualProtect(address, uintptr(length), windows.PAGE_EXECUTE_READWRITE, &old)
	if err != nil {
		return ProtectState{}, &ProtectError{Address: address, Err: err}
	}

	return ProtectState{flags: old, restorable: true}, nil
}

func (windowsProtector) Restore(address uintptr, length int, prev ProtectState) error {
	if !prev.restorable {
		return nil
	}

	var dummy uint32
	err := windows.VirtualProtect(address, uintptr(length), prev.flags, &dummy)
	if err != nil {
		return &ProtectError{Address: address, Err: err}
	}

	return nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
