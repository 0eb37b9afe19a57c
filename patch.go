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

// Patch attaches to the running executable, loads the definitions from
// cfg's patch directory and applies them.
func Patch(cfg *Config) (*Report, error) {
	mem, err := AttachImage()
	if err != nil {
		return nil, fmt.Errorf("failed to read executable image: %w", err)
	}

	Log().Info("loading patches")
	sources, err := cfg.PatchSources()
	if err != nil {
		return nil, err
	}
	catalog, err := LoadCatalog(sources)
	if err != nil {
		return nil, err
	}

	Log().Info("executing patches")
	report, err := ExecPatches(mem, catalog)
	if err != nil {
		return nil, err
	}
	Log().Infof("done executing: %d matches, %d failures", report.Matches, len(report.Failures))

	return report, nil
}

// Init is the entry point used when bitfix is loaded into a host process.
// Nothing is returned: errors go to the log and the host keeps running.
func Init() {
	cfg := &Config{}
	if err := cfg.Init(); err != nil {
		Log().Errorf("cannot init config: %s", err)
		return
	}
	if err := cfg.Load(); err != nil {
		Log().Errorf("cannot load config: %s", err)
		return
	}
	if err := SetupLogging(cfg); err != nil {
		Log().Errorf("cannot setup logging: %s", err)
		return
	}

	Log().Info(Banner() + " loaded")

	if _, err := Patch(cfg); err != nil {
		Log().Error(err)
	}
}

// vim: ai:ts=8:sw=8:noet:syntax=go
