package flatyaml

import (
	"strings"

	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// Render writes doc in the indentation format understood by Parse.
//
// Mapping keys are sorted lexically and shared prefixes are emitted once as
// headers. Sequence elements are written in index order as "- " lines one
// level under their owner; mapping elements put their first field on the
// dash line. Every scalar is double quoted.
func Render(doc entities.FlatDocument) string {
	var b strings.Builder
	renderChildren(&b, buildTree(doc), 0)
	return b.String()
}

func renderChildren(b *strings.Builder, n *node, depth int) {
	for _, c := range n.sortedChildren() {
		if _, ok := itemIndex(c.name); ok {
			renderItem(b, c, depth)
			continue
		}
		if c.hasValue {
			writeLine(b, depth, c.name+": "+quote(c.value))
		}
		if len(c.children) > 0 {
			writeLine(b, depth, c.name+":")
			renderChildren(b, c, depth+1)
		}
	}
}

func renderItem(b *strings.Builder, n *node, depth int) {
	if len(n.children) == 0 {
		writeLine(b, depth, "- "+quote(n.value))
		return
	}

	children := n.sortedChildren()
	first := children[0]
	if _, ok := itemIndex(first.name); ok {
		writeLine(b, depth, "-")
		renderChildren(b, n, depth+1)
		return
	}

	// The first field shares the dash line; the remaining fields align
	// with it one level deeper.
	rest := newNode(n.name)
	for _, c := range children[1:] {
		rest.children[c.name] = c
	}
	switch {
	case first.hasValue && len(first.children) == 0:
		writeLine(b, depth, "- "+first.name+": "+quote(first.value))
	case first.hasValue:
		writeLine(b, depth, "- "+first.name+": "+quote(first.value))
		writeLine(b, depth+1, first.name+":")
		renderChildren(b, first, depth+2)
	default:
		writeLine(b, depth, "- "+first.name+":")
		renderChildren(b, first, depth+2)
	}
	renderChildren(b, rest, depth+1)
}

func writeLine(b *strings.Builder, depth int, text string) {
	b.WriteString(strings.Repeat(" ", depth*IndentWidth))
	b.WriteString(text)
	b.WriteByte('\n')
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
