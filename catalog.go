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

// Callback is run once per match. The engine treats it as opaque: it may
// come from a script or from Go code.
type Callback func(ctx *MatchContext) error

// PatchSource is the body of one definition file.
type PatchSource struct {
	Name string
	Body string
}

type PatchDefinition struct {
	Source   string
	Label    string
	Pattern  string
	Callback Callback

	compiled *Pattern
}

func (d *PatchDefinition) Compiled() *Pattern {
	return d.compiled
}

// Catalog is the ordered list of patch definitions. Registration order
// breaks ties between patterns that match at the same address.
type Catalog struct {
	defs     []*PatchDefinition
	patterns []*Pattern
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Add compiles pattern and appends a definition. Labels may repeat.
func (c *Catalog) Add(source, label, pattern string, cb Callback) error {
	if cb == nil {
		return &DefinitionError{
			Source: source,
			Label:  label,
			Err:    fmt.Errorf("%w: no match callback", ErrMalformedDefinition),
		}
	}

	compiled, err := ParsePattern(pattern)
	if err != nil {
		return &DefinitionError{Source: source, Label: label, Err: err}
	}

	c.defs = append(c.defs, &PatchDefinition{
		Source:   source,
		Label:    label,
		Pattern:  pattern,
		Callback: cb,
		compiled: compiled,
	})
	c.patterns = append(c.patterns, compiled)

	return nil
}

func (c *Catalog) Len() int {
	return len(c.defs)
}

func (c *Catalog) Definitions() []*PatchDefinition {
	return c.defs
}

func (c *Catalog) Definition(index int) *PatchDefinition {
	return c.defs[index]
}

// LoadCatalog evaluates every source and collects its definitions. The
// first bad source, entry or pattern fails the whole load.
func LoadCatalog(sources []PatchSource) (*Catalog, error) {
	root, err := newScriptEnv()
	if err != nil {
		return nil, fmt.Errorf("cannot init script environment: %w", err)
	}

	catalog := NewCatalog()
	for _, src := range sources {
		entries, err := evalSource(root, src)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			err = catalog.Add(src.Name, entry.label, entry.pattern, entry.callback())
			if err != nil {
				return nil, err
			}
		}

		Log().WithField("source", src.Name).Infof("loaded %d patches", len(entries))
	}

	return catalog, nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
