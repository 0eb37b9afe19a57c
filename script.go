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
	"reflect"
	"sort"
	"strings"

	"github.com/mattn/anko/ast"
	"github.com/mattn/anko/env"
	"github.com/mattn/anko/parser"
	"github.com/mattn/anko/vm"
)

// A definition file is an anko script that evaluates to a map, either as
// its last value or by assigning the global "patches":
//
//	patches = {
//		"skip_intro": {
//			"pattern": "74 ?? 48 8B 05",
//			"match": func(ctx) {
//				ctx.Write(ctx.Address(), 0xEB)
//			},
//		},
//	}

var matchCallStmt ast.Stmt

func init() {
	var err error
	matchCallStmt, err = parser.ParseSrc("__match(__ctx)")
	if err != nil {
		panic(err)
	}
}

func newScriptEnv() (*env.Env, error) {
	e := env.NewEnv()

	var errs []error
	errs = append(errs, e.Define("print", func(args ...interface{}) {
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = fmt.Sprint(arg)
		}
		Log().Info("script: " + strings.Join(parts, "\t"))
	}))
	errs = append(errs, e.Define("printf", func(format string, args ...interface{}) {
		Log().Info("script: " + fmt.Sprintf(format, args...))
	}))
	errs = append(errs, e.Define("sprintf", fmt.Sprintf))
	errs = append(errs, e.Define("hex", func(v int64) string {
		return fmt.Sprintf("%X", v)
	}))
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

type scriptEntry struct {
	env     *env.Env
	label   string
	pattern string
	match   interface{}
}

func (s scriptEntry) callback() Callback {
	return func(ctx *MatchContext) error {
		call := s.env.NewEnv()
		if err := call.Define("__match", s.match); err != nil {
			return err
		}
		if err := call.Define("__ctx", ctx); err != nil {
			return err
		}
		_, err := vm.Run(call, nil, matchCallStmt)
		return err
	}
}

// evalSource runs one definition file in a child of root and returns its
// entries sorted by label.
func evalSource(root *env.Env, src PatchSource) ([]scriptEntry, error) {
	e := root.NewEnv()
	result, err := vm.Execute(e, nil, src.Body)
	if err != nil {
		return nil, &DefinitionError{Source: src.Name, Err: err}
	}

	table := unwrapValue(result)
	if table.Kind() != reflect.Map {
		if patches, err := e.Get("patches"); err == nil {
			table = unwrapValue(patches)
		}
	}
	if table.Kind() != reflect.Map {
		return nil, &DefinitionError{
			Source: src.Name,
			Err:    fmt.Errorf("%w: script does not evaluate to a map", ErrMalformedDefinition),
		}
	}

	keys := table.MapKeys()
	labels := make([]string, len(keys))
	for i, key := range keys {
		labels[i] = fmt.Sprint(key.Interface())
	}
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if labels[a] != labels[b] {
			return labels[a] < labels[b]
		}
		return keys[a].Type().String() < keys[b].Type().String()
	})

	entries := make([]scriptEntry, 0, len(keys))
	for _, i := range order {
		label := labels[i]
		record := unwrapValue(table.MapIndex(keys[i]).Interface())
		if record.Kind() != reflect.Map {
			return nil, malformed(src.Name, label, "entry is %s, not a map", record.Kind())
		}

		pattern, ok := mapField(record, "pattern")
		if !ok {
			return nil, malformed(src.Name, label, "missing pattern")
		}
		text, ok := pattern.(string)
		if !ok {
			return nil, malformed(src.Name, label, "pattern is %T, not a string", pattern)
		}

		match, ok := mapField(record, "match")
		if !ok {
			return nil, malformed(src.Name, label, "missing match")
		}
		if unwrapValue(match).Kind() != reflect.Func {
			return nil, malformed(src.Name, label, "match is %T, not a function", match)
		}

		entries = append(entries, scriptEntry{
			env:     e,
			label:   label,
			pattern: text,
			match:   unwrapValue(match).Interface(),
		})
	}

	return entries, nil
}

func malformed(source, label, format string, args ...interface{}) error {
	return &DefinitionError{
		Source: source,
		Label:  label,
		Err:    fmt.Errorf("%w: %s", ErrMalformedDefinition, fmt.Sprintf(format, args...)),
	}
}

// unwrapValue strips interface and reflect.Value wrappers that anko leaves
// around script values.
func unwrapValue(v interface{}) reflect.Value {
	rv, ok := v.(reflect.Value)
	if !ok {
		rv = reflect.ValueOf(v)
	}
	for rv.IsValid() && rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.IsValid() && rv.Type() == reflect.TypeOf(reflect.Value{}) {
		return unwrapValue(rv.Interface())
	}
	return rv
}

func mapField(m reflect.Value, name string) (interface{}, bool) {
	for _, key := range m.MapKeys() {
		if fmt.Sprint(key.Interface()) == name {
			return m.MapIndex(key).Interface(), true
		}
	}
	return nil, false
}

// vim: ai:ts=8:sw=8:noet:syntax=go
