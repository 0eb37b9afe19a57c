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
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

func readable(protect uint32) bool {
	if protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 {
		return false
	}
	return protect != 0
}

// ReadImage walks the allocation of the main module with VirtualQuery and
// returns its committed, readable regions.
func ReadImage() ([]Region, error) {
	var module windows.Handle
	err := windows.GetModuleHandleEx(0, nil, &module)
	if err != nil {
		return nil, &AttachError{Err: fmt.Errorf("cannot get module handle: %w", err)}
	}
	defer windows.FreeLibrary(module)

	path, _ := os.Executable()
	base := uintptr(module)

	var regions []Region
	var mbi windows.MemoryBasicInformation
	for address := base; ; {
		err = windows.VirtualQuery(address, &mbi, unsafe.Sizeof(mbi))
		if err != nil || mbi.AllocationBase != base || mbi.RegionSize == 0 {
			break
		}

		if mbi.State == windows.MEM_COMMIT && readable(mbi.Protect) {
			regions = append(regions, Region{
				Address: mbi.BaseAddress,
				Size:    int(mbi.RegionSize),
				Perms:   fmt.Sprintf("%#x", mbi.Protect),
				Path:    path,
			})
		}

		address = mbi.BaseAddress + mbi.RegionSize
	}
	if len(regions) == 0 {
		return nil, &AttachError{Err: fmt.Errorf("no readable regions at %X", base)}
	}

	return regions, nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
