//go:build linux
// +build linux

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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadImage lists the readable mappings of the running executable from
// /proc/self/maps.
func ReadImage() ([]Region, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, &AttachError{Err: err}
	}
	if real, err := filepath.EvalSymlinks(exe); err == nil {
		exe = real
	}

	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, &AttachError{Err: err}
	}
	defer f.Close()

	all, err := parseMaps(f)
	if err != nil {
		return nil, &AttachError{Err: err}
	}

	var regions []Region
	for _, region := range all {
		if region.Path != exe || !strings.HasPrefix(region.Perms, "r") {
			continue
		}
		regions = append(regions, region)
	}
	if len(regions) == 0 {
		return nil, &AttachError{Err: fmt.Errorf("no mappings for %s", exe)}
	}

	return regions, nil
}

// parseMaps reads the /proc/<pid>/maps format. Lines it cannot make sense
// of are skipped.
func parseMaps(r io.Reader) ([]Region, error) {
	var regions []Region

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			continue
		}

		start, end, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		lo, err := strconv.ParseUint(start, 16, 64)
		if err != nil {
			continue
		}
		hi, err := strconv.ParseUint(end, 16, 64)
		if err != nil || hi < lo {
			continue
		}

		region := Region{
			Address: uintptr(lo),
			Size:    int(hi - lo),
			Perms:   fields[1],
		}
		if len(fields) > 5 {
			region.Path = strings.Join(fields[5:], " ")
		}
		regions = append(regions, region)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error while reading maps: %w", err)
	}

	return regions, nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
