package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several workspaces
// can share one Redis database without colliding:
//
//	keyer := cache.NewScopedKeyer(nil, "engrave:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey returns the inner key with the prefix prepended.
func (k *ScopedKeyer) ArtifactKey(scoreHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(scoreHash, opts)
}
