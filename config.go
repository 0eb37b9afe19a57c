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
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configName = "bitfix.yaml"

type Config struct {
	PatchDir   string `yaml:"patch_dir"`
	Extension  string `yaml:"extension"`
	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
	Listen     string `yaml:"listen"`
	Library    string `yaml:"library"`
	DisasmBits int    `yaml:"disasm_bits"`

	home string
}

func (c *Config) SetDefaults() {
	c.PatchDir = filepath.Join(c.home, "bitfix")
	c.Extension = ".anko"
	c.LogFile = "bitfix.txt"
	c.LogLevel = "debug"
	c.Listen = "localhost:8666"
	c.Library = "libbitfix.so"
	c.DisasmBits = 64
}

// Init picks the home directory: $BITFIX_HOME, or the directory holding
// the running executable.
func (c *Config) Init() error {
	if home := os.Getenv("BITFIX_HOME"); home != "" {
		c.home = home
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot find executable: %w", err)
	}
	if real, err := filepath.EvalSymlinks(exe); err == nil {
		exe = real
	}

	c.home = filepath.Dir(exe)
	return nil
}

func (c *Config) Home() string {
	return c.home
}

func (c *Config) Load() error {
	for _, fn := range []func() error{c.LoadConfig} {
		err := fn()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) LoadConfig() error {
	c.SetDefaults()

	f, err := os.Open(filepath.Join(c.home, configName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	err = dec.Decode(c)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("cannot parse %s: %w", configName, err)
	}

	return nil
}

func (c Config) Save() error {
	f, err := os.OpenFile(filepath.Join(c.home, configName), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	err = enc.Encode(c)
	if err != nil {
		return err
	}

	return enc.Close()
}

func (c *Config) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.home, name)
}

func (c *Config) LogPath() string {
	return c.resolve(c.LogFile)
}

func (c *Config) LibraryPath() string {
	return c.resolve(c.Library)
}

func (c *Config) PatchSources() ([]PatchSource, error) {
	return LoadPatchSources(c.resolve(c.PatchDir), c.Extension)
}

// vim: ai:ts=8:sw=8:noet:syntax=go
