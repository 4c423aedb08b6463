// Package programs is the closed set of style programs the engine can run.
//
// Styles reference a program through their code reference, either by bare
// name ("stripes") or with the "splice:" scheme ("splice:stripes"). Code
// references that name no registered program resolve to NOT_FOUND; there is
// no way to load a program at runtime.
package programs

import (
	"slices"
	"strings"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/render"
)

// Scheme is the optional code reference prefix.
const Scheme = "splice:"

var registry = map[string]render.Program{
	"stripes": render.ProgramFunc{ID: "stripes", Fn: stripes},
	"rings":   render.ProgramFunc{ID: "rings", Fn: rings},
	"shards":  render.ProgramFunc{ID: "shards", Fn: shards},
}

// Lookup resolves a code reference to a program.
func Lookup(codeRef string) (render.Program, error) {
	name := Normalize(codeRef)
	if p, ok := registry[name]; ok {
		return p, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no program for code reference %q", codeRef)
}

// Normalize strips the scheme and surrounding whitespace and lowercases the
// name.
func Normalize(codeRef string) string {
	s := strings.ToLower(strings.TrimSpace(codeRef))
	return strings.TrimPrefix(s, Scheme)
}

// Names returns the registered program names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
