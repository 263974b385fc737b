package topology

// group is one bucket of an insertion-ordered grouping.
type group[K comparable, V any] struct {
	key   K
	items []V
}

// groupBy buckets items by key. Buckets appear in the order their key was
// first seen and keep the relative order of their items. Go maps iterate in
// random order, so the map only indexes into the ordered slice.
func groupBy[K comparable, V any](items []V, key func(V) K) []group[K, V] {
	var groups []group[K, V]
	index := make(map[K]int)
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group[K, V]{key: k})
		}
		groups[i].items = append(groups[i].items, item)
	}
	return groups
}
