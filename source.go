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
	"path/filepath"
	"sort"
	"strings"
)

func skipEntry(name string) bool {
	return strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}

// LoadPatchSources reads every definition file with extension ext from dir,
// sorted by file name. A directory that cannot be listed yields no sources.
func LoadPatchSources(dir, ext string) ([]PatchSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		Log().WithField("dir", dir).Warnf("cannot list patch directory: %s", err)
		return nil, nil
	}

	var names []string
	for _, entry := range entries {
		if skipEntry(entry.Name()) || filepath.Ext(entry.Name()) != ext {
			continue
		}
		// Stat follows symlinks, so linked definition files are loaded.
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			Log().WithField("file", entry.Name()).Debugf("skipping: %s", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	sources := make([]PatchSource, 0, len(names))
	for _, name := range names {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("cannot read %q: %w", name, err)
		}
		sources = append(sources, PatchSource{
			Name: strings.TrimSuffix(name, ext),
			Body: string(body),
		})
	}

	return sources, nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
