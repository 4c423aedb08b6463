package cache

// ScopedKeyer wraps a Keyer with a prefix, isolating deployments that share
// one cache backend.
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) RenderKey(opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(opts)
}

func (k *ScopedKeyer) CatalogKey(network uint64) string {
	return k.prefix + k.inner.CatalogKey(network)
}
