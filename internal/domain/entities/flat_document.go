// Package entities contains the core domain model of dblab: flat documents,
// engine metadata, persisted instance records and resolved configurations.
package entities

import (
	"sort"
	"strconv"
	"strings"
)

// FlatDocument maps dotted paths to string values.
//
// Nested mappings are encoded by joining parent and child keys with ".",
// sequence elements as "parent[i]" with indices contiguous from 0, and
// mapping elements of a sequence as "parent[i].child".
// No key holds both a scalar and children.
type FlatDocument map[string]string

// NewFlatDocument creates an empty document.
func NewFlatDocument() FlatDocument {
	return make(FlatDocument)
}

// Get returns the value for key, or "" when absent.
func (d FlatDocument) Get(key string) string {
	return d[key]
}

// Lookup returns the value for key and whether it is present.
func (d FlatDocument) Lookup(key string) (string, bool) {
	v, ok := d[key]
	return v, ok
}

// Set stores value under key.
func (d FlatDocument) Set(key, value string) {
	d[key] = value
}

// Bool interprets the value under key as a boolean flag.
// "true", "yes", "on" and "1" are true (case-insensitive), anything else is false.
func (d FlatDocument) Bool(key string) bool {
	return IsTruthy(d[key])
}

// IsTruthy reports whether s spells a true flag.
func IsTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true
	default:
		return false
	}
}

// Keys returns all keys in lexical order.
func (d FlatDocument) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the document.
func (d FlatDocument) Clone() FlatDocument {
	out := make(FlatDocument, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Array returns the scalar elements of the sequence at path in index order.
// Reading stops at the first missing index.
func (d FlatDocument) Array(path string) []string {
	var out []string
	for i := 0; ; i++ {
		v, ok := d[IndexKey(path, i)]
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Elements returns the mapping elements of the sequence at path, each as a
// document relative to its element ("env_vars[0].name" becomes "name").
// Reading stops at the first index without any children.
func (d FlatDocument) Elements(path string) []FlatDocument {
	var out []FlatDocument
	for i := 0; ; i++ {
		elem := d.Subtree(IndexKey(path, i))
		if len(elem) == 0 {
			return out
		}
		out = append(out, elem)
	}
}

// Subtree returns the children of prefix with the prefix and its separator
// removed. Both "prefix.child" and "prefix[i]" style children are returned;
// sequence children keep their bracket ("[0]").
func (d FlatDocument) Subtree(prefix string) FlatDocument {
	out := make(FlatDocument)
	for k, v := range d {
		if !strings.HasPrefix(k, prefix) || len(k) == len(prefix) {
			continue
		}
		switch rest := k[len(prefix):]; rest[0] {
		case '.':
			out[rest[1:]] = v
		case '[':
			out[rest] = v
		}
	}
	return out
}

// Without returns a copy of d without the keys nested under any of the
// given top-level prefixes (and without keys equal to a prefix).
func (d FlatDocument) Without(prefixes ...string) FlatDocument {
	out := make(FlatDocument, len(d))
next:
	for k, v := range d {
		for _, p := range prefixes {
			if k == p || strings.HasPrefix(k, p+".") || strings.HasPrefix(k, p+"[") {
				continue next
			}
		}
		out[k] = v
	}
	return out
}

// IndexKey builds the flat key of the i-th element of the sequence at path.
func IndexKey(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
