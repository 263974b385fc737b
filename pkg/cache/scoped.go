package cache

// ScopedKeyer prefixes every key produced by an inner Keyer. The server uses
// it with the configured key prefix so that several deployments can share
// one Redis database:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "cloudsketch:prod:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// Prefix returns the scope prefix.
func (k *ScopedKeyer) Prefix() string { return k.prefix }

func (k *ScopedKeyer) CodeKey(docHash string, opts CodeKeyOpts) string {
	return k.prefix + k.inner.CodeKey(docHash, opts)
}

func (k *ScopedKeyer) QueryKey(query string) string {
	return k.prefix + k.inner.QueryKey(query)
}
