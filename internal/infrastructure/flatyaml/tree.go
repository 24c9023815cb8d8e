package flatyaml

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// node is one segment of the hierarchy rebuilt from flat keys.
type node struct {
	children map[string]*node
	name     string
	value    string
	hasValue bool
}

func newNode(name string) *node {
	return &node{name: name, children: make(map[string]*node)}
}

// buildTree rebuilds the hierarchy encoded in doc's keys.
func buildTree(doc entities.FlatDocument) *node {
	root := newNode("")
	for key, value := range doc {
		n := root
		for _, seg := range splitKey(key) {
			child, ok := n.children[seg]
			if !ok {
				child = newNode(seg)
				n.children[seg] = child
			}
			n = child
		}
		n.value = value
		n.hasValue = true
	}
	return root
}

// sortedChildren orders mapping keys lexically, followed by sequence
// elements in index order.
func (n *node) sortedChildren() []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ii, iItem := itemIndex(out[i].name)
		ji, jItem := itemIndex(out[j].name)
		switch {
		case iItem && jItem:
			return ii < ji
		case iItem != jItem:
			return jItem
		default:
			return out[i].name < out[j].name
		}
	})
	return out
}

// isSequence reports whether every child is a sequence element.
func (n *node) isSequence() bool {
	if len(n.children) == 0 {
		return false
	}
	for name := range n.children {
		if _, ok := itemIndex(name); !ok {
			return false
		}
	}
	return true
}

// splitKey breaks a flat key into path segments:
// "env_vars[0].name" becomes ["env_vars", "[0]", "name"].
func splitKey(key string) []string {
	var segs []string
	for _, part := range strings.Split(key, ".") {
		for part != "" {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				segs = append(segs, part)
				break
			}
			if open > 0 {
				segs = append(segs, part[:open])
			}
			end := strings.IndexByte(part[open:], ']')
			if end < 0 {
				segs = append(segs, part[open:])
				break
			}
			segs = append(segs, part[open:open+end+1])
			part = part[open+end+1:]
		}
	}
	return segs
}

// itemIndex parses a "[i]" segment.
func itemIndex(seg string) (int, bool) {
	if len(seg) < 3 || seg[0] != '[' || seg[len(seg)-1] != ']' {
		return 0, false
	}
	i, err := strconv.Atoi(seg[1 : len(seg)-1])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Unflatten rebuilds nested values from doc: mappings become
// map[string]any, sequences []any and scalars string.
func Unflatten(doc entities.FlatDocument) map[string]any {
	out, _ := toValue(buildTree(doc)).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

func toValue(n *node) any {
	if len(n.children) == 0 {
		return n.value
	}
	children := n.sortedChildren()
	if n.isSequence() {
		seq := make([]any, 0, len(children))
		for _, c := range children {
			seq = append(seq, toValue(c))
		}
		return seq
	}
	m := make(map[string]any, len(children))
	for _, c := range children {
		m[c.name] = toValue(c)
	}
	return m
}
