package cache

import "fmt"

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey is the key for a fetched HTTP document.
	HTTPKey(namespace, key string) string
	// RenderKey is the key for an encoded render.
	RenderKey(opts RenderKeyOpts) string
	// CatalogKey is the key for a network's serialized style catalog.
	CatalogKey(network uint64) string
}

// RenderKeyOpts holds every input that determines a rendered image.
type RenderKeyOpts struct {
	Network       uint64   `json:"network"`
	StyleID       uint64   `json:"style"`
	Program       string   `json:"program"`
	Seed          uint32   `json:"seed"`
	Width         int      `json:"w"`
	Height        int      `json:"h"`
	Palette       []string `json:"palette"`
	Randomness    float64  `json:"randomness"`
	EngineVersion string   `json:"engine"`
}

// DefaultKeyer is the key layout shared by the CLI and the server.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

func (DefaultKeyer) RenderKey(opts RenderKeyOpts) string {
	return hashKey("render", opts)
}

func (DefaultKeyer) CatalogKey(network uint64) string {
	return fmt.Sprintf("catalog:%d", network)
}
