package store

import "sort"

// Store is the key/value store consumed by the driver: a minimal
// append/lookup surface plus an ordered All() for iteration, matching
// spec.md's "store interface" (create-key-from-name, duplicate-key,
// append-basename, append-index-basename, set-string/binary-value,
// set/get-metadata, lookup, append, compare-names, is-below,
// reference-count inc/dec, free) — the reference-counting and naming
// operations live on *Key itself (see key.go); Store only owns lookup
// and append.
type Store interface {
	// Lookup returns the key with the given name, if any key with that
	// exact name has been appended.
	Lookup(name string) (*Key, bool)
	// Append inserts or replaces the key under its own name.
	Append(k *Key)
	// All returns every appended key. Keys carrying an "order" metadata
	// come first, ascending by order; keys without one (array elements,
	// the document root) follow after every ordered key, sorted by name,
	// and are not interleaved with their ordered ancestors.
	All() []*Key
}

// MemStore is the default, single-threaded, in-memory Store
// implementation used by driver.Parse and by every test in this module.
type MemStore struct {
	byName map[string]*Key
	seq    []*Key // insertion order, used as a stable tiebreaker
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{byName: make(map[string]*Key)}
}

// Lookup implements Store.
func (s *MemStore) Lookup(name string) (*Key, bool) {
	k, ok := s.byName[name]
	return k, ok
}

// Append implements Store.
func (s *MemStore) Append(k *Key) {
	if _, exists := s.byName[k.Name()]; !exists {
		s.seq = append(s.seq, k)
	}
	s.byName[k.Name()] = k
}

// All implements Store.
func (s *MemStore) All() []*Key {
	out := make([]*Key, len(s.seq))
	copy(out, s.seq)
	sort.SliceStable(out, func(i, j int) bool {
		oi, hasI := orderOf(out[i])
		oj, hasJ := orderOf(out[j])
		if hasI && hasJ {
			return oi < oj
		}
		if hasI != hasJ {
			// An ordered key always sorts before a key lacking an
			// order, whatever their names.
			return hasI
		}
		return CompareNames(out[i], out[j]) < 0
	})
	return out
}

func orderOf(k *Key) (int, bool) {
	v, ok := k.GetMeta("order")
	if !ok {
		return 0, false
	}
	n := 0
	neg := false
	for i, c := range v {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}
