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

// Region is one mapping of the running executable, as reported by the OS.
type Region struct {
	Address uintptr
	Size    int
	Perms   string
	Path    string
}

func (r Region) String() string {
	return fmt.Sprintf("%X-%X %s %s", r.Address, r.Address+uintptr(r.Size), r.Perms, r.Path)
}

// AttachImage builds a Memory over the readable mappings of the running
// executable, writing through the platform protector.
func AttachImage() (*Memory, error) {
	regions, err := ReadImage()
	if err != nil {
		return nil, err
	}

	mem := NewMemory(SystemProtector())
	for _, region := range regions {
		Log().WithField("region", region.String()).Debug("mapping region")
		mem.MapRegion(region)
	}

	return mem, nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
