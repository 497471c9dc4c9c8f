package tree

import "slices"

// Mapping is a string-keyed mapping that remembers key insertion order.
type Mapping struct {
	// keys lists the keys in insertion order.
	keys []string
	// values indexes the entries by key.
	values map[string]*Node
	// keyTags holds the YAML tag of keys that were not plain strings.
	keyTags map[string]string
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{
		values: make(map[string]*Node),
	}
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// Has reports whether the key is present.
func (m *Mapping) Has(key string) bool {
	if m == nil {
		return false
	}

	_, ok := m.values[key]

	return ok
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (*Node, bool) {
	if m == nil {
		return nil, false
	}

	value, ok := m.values[key]

	return value, ok
}

// Set stores value under key. An existing key keeps its position,
// a new key is appended.
func (m *Mapping) Set(key string, value *Node) *Mapping {
	if value == nil {
		value = Null()
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value

	return m
}

// KeyTag returns the YAML tag key is written with, TagString unless recorded otherwise.
func (m *Mapping) KeyTag(key string) string {
	if m == nil {
		return TagString
	}

	if tag, ok := m.keyTags[key]; ok {
		return tag
	}

	return TagString
}

// SetKeyTag records the YAML tag of an existing key, so "1:" stays an int key.
// It does nothing for absent keys.
func (m *Mapping) SetKeyTag(key, tag string) *Mapping {
	if !m.Has(key) {
		return m
	}

	if tag == "" || tag == TagString {
		delete(m.keyTags, key)

		return m
	}

	if m.keyTags == nil {
		m.keyTags = make(map[string]string)
	}

	m.keyTags[key] = tag

	return m
}

// Delete removes key and reports whether it was present.
// The remaining keys keep their order.
func (m *Mapping) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}

	delete(m.values, key)
	delete(m.keyTags, key)

	m.keys = slices.DeleteFunc(m.keys, func(k string) bool {
		return k == key
	})

	return true
}

// Clone returns a deep copy of the mapping.
func (m *Mapping) Clone() *Mapping {
	cloned := NewMapping()
	if m == nil {
		return cloned
	}

	for _, key := range m.keys {
		cloned.Set(key, m.values[key].Clone()).SetKeyTag(key, m.KeyTag(key))
	}

	return cloned
}

// Equal reports whether both mappings have the same keys with equal values.
// Key order is not significant.
func (m *Mapping) Equal(other *Mapping) bool {
	if m.Len() != other.Len() {
		return false
	}

	for _, key := range m.Keys() {
		theirs, ok := other.Get(key)
		if !ok {
			return false
		}

		if !m.values[key].Equal(theirs) {
			return false
		}
	}

	return true
}
