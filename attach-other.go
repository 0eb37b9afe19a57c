//go:build !linux && !windows
// +build !linux,!windows

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
	"errors"
	"runtime"
)

func ReadImage() ([]Region, error) {
	return nil, &AttachError{Err: errors.New("not supported on " + runtime.GOOS)}
}

// vim: ai:ts=8:sw=8:noet:syntax=go
