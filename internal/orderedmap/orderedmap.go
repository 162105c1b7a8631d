// Package orderedmap implements a map that remembers insertion order.
package orderedmap

type OrderedMap[K comparable, V any] struct {
	inner map[K]V
	keys  []K
}

func New[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{inner: make(map[K]V)}
}

// Value returns the value stored for key, or the zero value.
func (m *OrderedMap[K, V]) Value(key K) V {
	return m.inner[key]
}

// Store sets the value for key. Overwriting a key keeps its original position.
func (m *OrderedMap[K, V]) Store(key K, value V) {
	if _, ok := m.inner[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.inner[key] = value
}

func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

// OrderedRange calls f for each entry in insertion order until f returns false.
func (m *OrderedMap[K, V]) OrderedRange(f func(key K, value V) bool) {
	for _, k := range m.keys {
		if !f(k, m.inner[k]) {
			return
		}
	}
}
