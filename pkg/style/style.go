// Package style holds the per-network catalog of generative-art styles.
//
// A [Registry] is built once with the networks it serves. Each network's
// catalog is fetched lazily from its [Source] on first use and kept until
// [Registry.Invalidate] or [Registry.Reset]. Concurrent callers arriving
// while a fetch is running join it instead of starting another; a failed fetch
// is reported to every joined caller and retried by the next one.
//
// The catalog is immutable once installed, so readers never take a lock:
//
//	reg := style.NewRegistry(logger, style.Network{ID: 42, Name: "kovan", Source: src})
//	st, err := reg.GetStyle(ctx, 42, 1)
package style

import (
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/seed"
)

// Style is one catalog entry. Styles are identified by (Network, ID) and
// never change after the catalog is installed.
type Style struct {
	ID          uint64         `json:"id"`
	Network     uint64         `json:"network"`
	Collection  seed.Address   `json:"collection"`
	CodeRef     string         `json:"code"`
	Palette     render.Palette `json:"-"`
	Name        string         `json:"name"`
	Creator     string         `json:"creator,omitempty"`
	MetadataURL string         `json:"metadata_url,omitempty"`

	// Program is the resolved CodeRef.
	Program render.Program `json:"-"`
}

// PaletteOr returns the style's own palette, or fallback when it has none.
func (s Style) PaletteOr(fallback render.Palette) render.Palette {
	if len(s.Palette) > 0 {
		return s.Palette
	}
	return fallback
}

// Record is a style as delivered by a Source, before validation.
type Record struct {
	ID          uint64       `json:"id" toml:"id"`
	Collection  seed.Address `json:"collection" toml:"collection"`
	CodeRef     string       `json:"code" toml:"code"`
	Palette     []string     `json:"palette,omitempty" toml:"palette"`
	Name        string       `json:"name" toml:"name"`
	Creator     string       `json:"creator,omitempty" toml:"creator"`
	MetadataURL string       `json:"metadata_url,omitempty" toml:"metadata_url"`
}
