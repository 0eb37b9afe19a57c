//go:build !windows
// +build !windows

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
	"unsafe"

	"golang.org/x/sys/unix"
)

// posixProtector escalates whole OS pages to rwx and leaves them that way.
// Putting the old flags back would need a /proc/self/maps lookup per write;
// bitfix patches once at startup, so the pages simply stay writable.
type posixProtector struct {
	pageSize uintptr
}

func SystemProtector() Protector {
	return &posixProtector{pageSize: uintptr(unix.Getpagesize())}
}

func (p *posixProtector) Unlock(address uintptr, length int) (ProtectState, error) {
	start := alignDown(address, p.pageSize)
	end := alignUp(address+uintptr(length), p.pageSize)

	region := unsafe.Slice((*byte)(unsafe.Pointer(start)), int(end-start))
	err := unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC)
	if err != nil {
		return ProtectState{}, &ProtectError{Address: address, Err: err}
	}

	return ProtectState{restorable: false}, nil
}

func (p *posixProtector) Restore(address uintptr, length int, prev ProtectState) error {
	return nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
