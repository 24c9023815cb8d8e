// Package flatyaml reads and writes the indentation based YAML subset used by
// engine metadata and instance documents. Documents are exchanged as
// entities.FlatDocument: nested keys are joined with "." and sequence
// elements are addressed as "parent[i]".
//
// Only block mappings, block sequences (of scalars or of mappings), quoted
// and plain scalars and "#" comments are understood. Indentation is fixed at
// two spaces per level. Lines that fit none of the recognized shapes are
// skipped and reported through Stats.
package flatyaml

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// IndentWidth is the number of spaces per nesting level.
const IndentWidth = 2

// keyLine matches "key: value" and "key:". Dotted keys may not have empty
// segments.
var keyLine = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_\-/]*(?:\.[A-Za-z0-9_\-/]+)*)\s*:(?:\s+(.*))?$`)

// Stats describes what a parse call did with its input.
type Stats struct {
	// Skipped holds the 1-based numbers of non-blank, non-comment lines that
	// matched no recognized shape.
	Skipped []int
	Lines   int
}

// Parse reads a document from r.
func Parse(r io.Reader) (entities.FlatDocument, error) {
	doc, _, err := ParseWithStats(r)
	return doc, err
}

// ParseString parses an in-memory document.
func ParseString(s string) entities.FlatDocument {
	doc, _, _ := ParseWithStats(strings.NewReader(s))
	return doc
}

// ParseBytes parses an in-memory document and reports skipped lines.
func ParseBytes(data []byte) (entities.FlatDocument, Stats) {
	doc, stats, _ := ParseWithStats(bytes.NewReader(data))
	return doc, stats
}

// ParseFile reads and parses the document at path. An unreadable or missing
// file is reported as *apperrors.ParseIOError.
func ParseFile(path string) (entities.FlatDocument, Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Stats{}, apperrors.NewParseIOError(path, err)
	}
	doc, stats := ParseBytes(data)
	return doc, stats, nil
}

// ParseWithStats reads a document from r and reports skipped lines.
// Errors are only returned when r fails.
func ParseWithStats(r io.Reader) (entities.FlatDocument, Stats, error) {
	p := &parser{
		doc:      entities.NewFlatDocument(),
		counters: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.stats.Lines++
		if !p.line(scanner.Text()) {
			p.stats.Skipped = append(p.stats.Skipped, p.stats.Lines)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, p.stats, err
	}
	return p.doc, p.stats, nil
}

// parser holds the state of a single parse call.
type parser struct {
	doc entities.FlatDocument
	// counters hands out the next sequence index per owning path.
	counters map[string]int
	// stack holds one path segment per depth.
	stack []string
	stats Stats
}

// line consumes one source line and reports whether it was understood.
// Blank and comment-only lines count as understood.
func (p *parser) line(raw string) bool {
	text := strings.TrimRight(stripComment(strings.TrimRight(raw, "\r")), " \t")
	if strings.TrimSpace(text) == "" {
		return true
	}

	indent := len(text) - len(strings.TrimLeft(text, " "))
	depth := indent / IndentWidth
	if depth > len(p.stack) {
		depth = len(p.stack)
	}
	content := text[indent:]

	if content == "-" || strings.HasPrefix(content, "- ") {
		return p.item(depth, strings.TrimSpace(content[1:]))
	}
	return p.key(depth, content)
}

func (p *parser) key(depth int, content string) bool {
	m := keyLine.FindStringSubmatch(content)
	if m == nil {
		return false
	}
	p.stack = append(p.stack[:depth], m[1])
	if m[2] != "" {
		p.doc[joinPath(p.stack)] = unquote(m[2])
	}
	return true
}

// item handles "- value", "- key: value", "- key:" and a bare "-".
func (p *parser) item(depth int, rest string) bool {
	if depth == 0 {
		return false
	}
	owner := joinPath(p.stack[:depth])
	idx := p.counters[owner]
	p.counters[owner] = idx + 1
	elem := "[" + strconv.Itoa(idx) + "]"

	if rest == "" {
		p.stack = append(p.stack[:depth], elem)
		return true
	}
	if m := keyLine.FindStringSubmatch(rest); m != nil && !isQuoted(rest) {
		p.stack = append(p.stack[:depth], elem, m[1])
		if m[2] != "" {
			p.doc[joinPath(p.stack)] = unquote(m[2])
		}
		return true
	}

	p.stack = p.stack[:depth]
	p.doc[owner+elem] = unquote(rest)
	return true
}

// joinPath flattens path segments. Sequence segments ("[0]") attach to the
// previous segment without a dot.
func joinPath(segs []string) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 && !strings.HasPrefix(s, "[") {
			b.WriteByte('.')
		}
		b.WriteString(s)
	}
	return b.String()
}

// stripComment cuts a "#" comment that starts the line or follows
// whitespace, ignoring "#" inside quoted scalars.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == '"' && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t'):
			quote = c
		case c == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t'):
			return line[:i]
		}
	}
	return line
}

func isQuoted(s string) bool {
	return len(s) >= 2 && (s[0] == '"' || s[0] == '\'')
}

// unquote removes one pair of surrounding quotes. Double quoted scalars
// understand \\, \", \n and \t; single quoted scalars understand a
// doubled single quote.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	switch {
	case s[0] == '"' && s[len(s)-1] == '"':
		return unescape(s[1 : len(s)-1])
	case s[0] == '\'' && s[len(s)-1] == '\'':
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	default:
		return s
	}
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// GetArray returns the ordered scalar elements stored under path.
func GetArray(doc entities.FlatDocument, path string) []string {
	return doc.Array(path)
}
