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
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/yookoala/realpath"
)

// preloadEnv names lib in the loader variable of goos.
func preloadEnv(goos, lib string) string {
	if goos == "darwin" {
		return "DYLD_INSERT_LIBRARIES=" + lib
	}
	return "LD_PRELOAD=" + lib
}

// Launch starts exePath with the bitfix library preloaded, so the patches
// are applied before the target's main runs. It returns once the target
// has survived its first two seconds, or with the error it exited with.
func Launch(library, exePath string, args ...string) error {
	lib, err := filepath.Abs(library)
	if err != nil {
		return err
	}
	if _, err := os.Stat(lib); err != nil {
		return fmt.Errorf("cannot find preload library: %w", err)
	}

	real, err := realpath.Realpath(exePath)
	if err != nil {
		real = exePath
	}

	cmd := exec.Command(exePath, args...)
	cmd.Dir, _ = filepath.Split(real)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), preloadEnv(runtime.GOOS, lib))

	Log().WithField("exe", real).Infof("launching with %s", lib)

	ch := make(chan error, 1)
	go func() {
		ch <- cmd.Run()
	}()
	select {
	case <-time.After(2 * time.Second):
		return nil
	case err := <-ch:
		return err
	}
}

// vim: ai:ts=8:sw=8:noet:syntax=go
