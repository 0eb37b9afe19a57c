package bitfix

import (
	"errors"
	"testing"
)

const twoPatches = `
patches = {
	"skip": {
		"pattern": "74 ?? 48",
		"match": func(ctx) {
			ctx.Write(ctx.Address(), 0xEB)
		},
	},
	"nop": {
		"pattern": "90",
		"match": func(ctx) {
			print("nop at", hex(ctx.Address()))
		},
	},
}
`

func TestLoadCatalog(t *testing.T) {
	sources := []PatchSource{
		{Name: "a", Body: twoPatches},
		{Name: "b", Body: `{"only": {"pattern": "CC", "match": func(ctx) {}}}`},
	}

	catalog, err := LoadCatalog(sources)
	if err != nil {
		t.Fatalf("load failed: %s", err)
	}

	exp := []struct {
		source, label, pattern string
	}{
		{"a", "nop", "90"},
		{"a", "skip", "74 ?? 48"},
		{"b", "only", "CC"},
	}
	if catalog.Len() != len(exp) {
		t.Fatalf("expected %d definitions - got %d", len(exp), catalog.Len())
	}
	for i, def := range catalog.Definitions() {
		if def.Source != exp[i].source || def.Label != exp[i].label || def.Pattern != exp[i].pattern {
			t.Fatalf("definition %d: expected %v - got %s/%s %q", i, exp[i], def.Source, def.Label, def.Pattern)
		}
		if def.Callback == nil || def.Compiled() == nil {
			t.Fatalf("definition %d is incomplete", i)
		}
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		label string
		is    error
	}{
		{"not a map", `1 + 2`, "", ErrMalformedDefinition},
		{"entry not a map", `{"x": 5}`, "x", ErrMalformedDefinition},
		{"missing pattern", `{"x": {"match": func(ctx) {}}}`, "x", ErrMalformedDefinition},
		{"pattern not a string", `{"x": {"pattern": 12, "match": func(ctx) {}}}`, "x", ErrMalformedDefinition},
		{"missing match", `{"x": {"pattern": "90"}}`, "x", ErrMalformedDefinition},
		{"match not a function", `{"x": {"pattern": "90", "match": "nope"}}`, "x", ErrMalformedDefinition},
		{"bad pattern", `{"x": {"pattern": "90 XY", "match": func(ctx) {}}}`, "x", ErrInvalidPattern},
		{"empty pattern", `{"x": {"pattern": "", "match": func(ctx) {}}}`, "x", ErrInvalidPattern},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadCatalog([]PatchSource{{Name: "broken", Body: test.body}})
			if !errors.Is(err, test.is) {
				t.Fatalf("expected %v - got %v", test.is, err)
			}

			var derr *DefinitionError
			if !errors.As(err, &derr) {
				t.Fatalf("expected *DefinitionError - got %T", err)
			}
			if derr.Source != "broken" || derr.Label != test.label {
				t.Fatalf("expected broken/%s - got %s/%s", test.label, derr.Source, derr.Label)
			}
		})
	}
}

func TestLoadCatalogScriptError(t *testing.T) {
	sources := []PatchSource{
		{Name: "good", Body: twoPatches},
		{Name: "bad", Body: `throw "no patches today"`},
	}

	catalog, err := LoadCatalog(sources)
	if err == nil {
		t.Fatalf("expected an error - got a catalog of %d", catalog.Len())
	}

	var derr *DefinitionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DefinitionError - got %T", err)
	}
	if derr.Source != "bad" || derr.Label != "" {
		t.Fatalf("expected bad with no label - got %s/%s", derr.Source, derr.Label)
	}
}

func TestLoadCatalogNumericLabel(t *testing.T) {
	catalog, err := LoadCatalog([]PatchSource{{Name: "n", Body: `{1: {"pattern": "90", "match": func(ctx) {}}}`}})
	if err != nil {
		t.Fatalf("load failed: %s", err)
	}
	if catalog.Definition(0).Label != "1" {
		t.Fatalf("expected label '1' - got '%s'", catalog.Definition(0).Label)
	}
}

func TestCatalogAdd(t *testing.T) {
	catalog := NewCatalog()

	err := catalog.Add("go", "noop", "90 90", func(ctx *MatchContext) error { return nil })
	if err != nil {
		t.Fatalf("add failed: %s", err)
	}

	err = catalog.Add("go", "dup", "90", nil)
	if !errors.Is(err, ErrMalformedDefinition) {
		t.Fatalf("expected ErrMalformedDefinition - got %v", err)
	}

	err = catalog.Add("go", "noop", "9", func(ctx *MatchContext) error { return nil })
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern - got %v", err)
	}

	if catalog.Len() != 1 {
		t.Fatalf("expected 1 definition - got %d", catalog.Len())
	}
}
