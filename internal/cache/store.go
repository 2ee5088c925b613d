package cache

import (
	"io"
	"sort"
)

type entry[V any] struct {
	value      V
	generation uint64
}

// Store shares one value per key. Entries live until a Sweep finds them
// outside the live set; the generation records the last sweep that saw them
// in use.
type Store[K comparable, V any] struct {
	entries    map[K]*entry[V]
	generation uint64
}

func NewStore[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{entries: map[K]*entry[V]{}}
}

// Get returns the cached value for key, building it with create on a miss.
func (s *Store[K, V]) Get(key K, create func(K) (V, error)) (V, error) {
	if e, ok := s.entries[key]; ok {
		return e.value, nil
	}
	v, err := create(key)
	if err != nil {
		var zero V
		return zero, err
	}
	s.entries[key] = &entry[V]{value: v, generation: s.generation}
	return v, nil
}

func (s *Store[K, V]) Lookup(key K) (V, bool) {
	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *Store[K, V]) Len() int { return len(s.entries) }

func (s *Store[K, V]) Generation() uint64 { return s.generation }

// Sweep drops every entry whose key is not in live and returns the evicted
// keys. Evicted values implementing io.Closer are closed.
func (s *Store[K, V]) Sweep(live map[K]struct{}) []K {
	s.generation++
	var evicted []K
	for k, e := range s.entries {
		if _, ok := live[k]; ok {
			e.generation = s.generation
			continue
		}
		if c, ok := any(e.value).(io.Closer); ok {
			_ = c.Close()
		}
		delete(s.entries, k)
		evicted = append(evicted, k)
	}
	return evicted
}

// Keys returns the cached keys ordered by less.
func (s *Store[K, V]) Keys(less func(a, b K) bool) []K {
	keys := make([]K, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}
