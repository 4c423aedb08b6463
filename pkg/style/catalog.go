package style

import (
	"cmp"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/render/programs"
)

// Catalog is an installed, validated set of styles for one network.
type Catalog struct {
	Network   uint64
	FetchedAt time.Time

	styles []Style
	byID   map[uint64]int
}

// Styles returns the styles ordered by id.
func (c *Catalog) Styles() []Style {
	return slices.Clone(c.styles)
}

// Len returns the number of styles.
func (c *Catalog) Len() int { return len(c.styles) }

// Get returns the style with the given id.
func (c *Catalog) Get(id uint64) (Style, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Style{}, false
	}
	return c.styles[i], true
}

// buildCatalog validates records. Entries that cannot be rendered are
// dropped with a warning rather than failing the whole catalog.
func buildCatalog(network uint64, records []Record, logger *log.Logger) *Catalog {
	c := &Catalog{
		Network:   network,
		FetchedAt: time.Now(),
		byID:      make(map[uint64]int, len(records)),
	}
	for _, rec := range records {
		if _, dup := c.byID[rec.ID]; dup {
			logger.Warn("duplicate style id, keeping first", "network", network, "style", rec.ID)
			continue
		}
		prog, err := programs.Lookup(rec.CodeRef)
		if err != nil {
			logger.Warn("dropping style with unknown program", "network", network, "style", rec.ID, "code", rec.CodeRef)
			continue
		}
		var palette render.Palette
		if len(rec.Palette) > 0 {
			palette, err = render.ParsePalette(rec.Palette)
			if err != nil {
				logger.Warn("dropping style with invalid palette", "network", network, "style", rec.ID, "error", err)
				continue
			}
		}
		c.byID[rec.ID] = len(c.styles)
		c.styles = append(c.styles, Style{
			ID:          rec.ID,
			Network:     network,
			Collection:  rec.Collection,
			CodeRef:     rec.CodeRef,
			Palette:     palette,
			Name:        rec.Name,
			Creator:     rec.Creator,
			MetadataURL: rec.MetadataURL,
			Program:     prog,
		})
	}

	slices.SortFunc(c.styles, func(a, b Style) int { return cmp.Compare(a.ID, b.ID) })
	for i, s := range c.styles {
		c.byID[s.ID] = i
	}
	return c
}
