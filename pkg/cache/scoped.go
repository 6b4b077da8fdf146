package cache

// ScopedKeyer prepends a fixed prefix to every key of an inner Keyer. The
// pipeline uses it to version layout and artifact entries:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "chart/v1:")
//
// so a cache shared between builds never serves a chart placed by older
// rules.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer if nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) HierarchyKey(backend, query string) string {
	return k.prefix + k.inner.HierarchyKey(backend, query)
}

func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
