package catalog

import (
	"context"
	"slices"

	"github.com/cod1ng-earth/splicenft/pkg/seed"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// BuiltinCollection is the style contract address reported by [Builtin].
var BuiltinCollection = seed.MustParseAddress("0x231e5BA16e2C9BE8918cf67d477052f3F6C35036")

// Static is a source returning a fixed record list.
type Static []style.Record

// Styles returns a copy of the records.
func (s Static) Styles(context.Context) ([]style.Record, error) {
	return slices.Clone(s), nil
}

// Builtin returns one style per bundled program.
func Builtin() Static {
	return Static{
		{
			ID:         1,
			Collection: BuiltinCollection,
			CodeRef:    "splice:stripes",
			Name:       "Stripes",
			Creator:    "splice",
		},
		{
			ID:         2,
			Collection: BuiltinCollection,
			CodeRef:    "splice:rings",
			Name:       "Rings",
			Creator:    "splice",
			Palette:    []string{"#0b132b", "#1c2541", "#3a506b", "#5bc0be", "#6fffe9"},
		},
		{
			ID:         3,
			Collection: BuiltinCollection,
			CodeRef:    "splice:shards",
			Name:       "Shards",
			Creator:    "splice",
			Palette:    []string{"#264653", "#2a9d8f", "#e9c46a", "#f4a261", "#e76f51"},
		},
	}
}
