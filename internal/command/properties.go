package command

import (
	"iter"
	"slices"
)

// Property is a single build property passed to the tool as -p:Key=Value.
type Property struct {
	Key   string
	Value any
}

// Properties is an insertion-ordered set of build properties.
// Flag order on the command line follows insertion order; replacing the
// value of an existing key keeps its original position.
// The zero value is an empty set ready to use.
type Properties struct {
	keys   []string
	values map[string]any
}

// PropertiesOf returns a set holding ps in order. Later duplicates replace
// earlier values.
func PropertiesOf(ps ...Property) Properties {
	var p Properties
	for _, kv := range ps {
		p.Set(kv.Key, kv.Value)
	}
	return p
}

// Set adds or replaces the value of key.
func (p *Properties) Set(key string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Merge sets every property of other onto p, in other's order.
func (p *Properties) Merge(other Properties) {
	for k, v := range other.All() {
		p.Set(k, v)
	}
}

// Delete removes key. It is a no-op when key is absent.
func (p *Properties) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	p.keys = slices.DeleteFunc(p.keys, func(k string) bool { return k == key })
}

// Get returns the value stored for key.
func (p Properties) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Len returns the number of properties.
func (p Properties) Len() int { return len(p.keys) }

// Keys returns the property names in order.
func (p Properties) Keys() []string { return slices.Clone(p.keys) }

// All iterates over the properties in order.
func (p Properties) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range p.keys {
			if !yield(k, p.values[k]) {
				return
			}
		}
	}
}

// List returns the properties as an ordered slice.
func (p Properties) List() []Property {
	out := make([]Property, 0, len(p.keys))
	for k, v := range p.All() {
		out = append(out, Property{Key: k, Value: v})
	}
	return out
}

// Clone returns a copy that shares no storage with p.
func (p Properties) Clone() Properties {
	if len(p.keys) == 0 {
		return Properties{}
	}
	values := make(map[string]any, len(p.values))
	for k, v := range p.values {
		values[k] = v
	}
	return Properties{keys: slices.Clone(p.keys), values: values}
}
