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

// Command libbitfix is built with -buildmode=c-shared and preloaded into a
// host process. The constructor in preload.c calls bitfixInit before the
// host's main runs.
package main

import "C"

import (
	"bitfix"
)

//export bitfixInit
func bitfixInit() {
	bitfix.Init()
}

func main() {}

// vim: ai:ts=8:sw=8:noet:syntax=go
