// Package models defines data structures for the crawler.
package models

import (
	"bytes"
	"encoding/json"
)

// Record is an insertion-ordered mapping of attribute names to values for
// one catalog item. Keys are not fixed in advance; each detail page
// contributes whatever fields it exposes. An empty record marks a failed
// or skipped extraction.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Set stores value under key. Overwriting an existing key keeps its
// original position (last write wins for the value only).
func (r *Record) Set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the attribute names in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of attributes.
func (r *Record) Len() int {
	return len(r.keys)
}

// Empty reports whether the record carries no attributes.
func (r *Record) Empty() bool {
	return len(r.keys) == 0
}

// Merge applies other's entries to r in other's insertion order.
// Colliding keys take other's value.
func (r *Record) Merge(other *Record) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		r.Set(k, other.values[k])
	}
}

// MarshalJSON encodes the record as a JSON object preserving key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
