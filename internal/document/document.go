// Package document wraps a parsed HTML tree.
//
// A Document is produced once from raw markup and never mutated afterwards,
// so any number of goroutines may traverse the same Document.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

var (
	// ErrMalformedInput is returned when raw markup cannot be turned into a Document.
	ErrMalformedInput = errors.New("malformed input")
	// ErrBadQuery is returned for XPath expressions that do not compile.
	ErrBadQuery = errors.New("bad xpath query")
)

// Document is an immutable parsed HTML tree.
type Document struct {
	root *html.Node
	name string
}

// Parse parses raw markup. Empty input, or input without a single start tag,
// is rejected with ErrMalformedInput.
func Parse(raw string) (*Document, error) {
	return ParseBytes([]byte(raw))
}

// ParseBytes is Parse for a byte slice.
func ParseBytes(raw []byte) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedInput)
	}
	if !hasMarkup(raw) {
		return nil, fmt.Errorf("%w: no element markup found", ErrMalformedInput)
	}
	root, err := htmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return &Document{root: root}, nil
}

// Load reads and parses the file at path. The path becomes the document name.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	doc.name = path
	return doc, nil
}

// hasMarkup reports whether raw contains at least one start tag.
func hasMarkup(raw []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			return true
		}
	}
}

// Name returns the source the document was loaded from, if any.
func (d *Document) Name() string { return d.name }

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Elements returns every element with the given tag in document order.
// Tags compare case-insensitively and "*" matches all elements.
func (d *Document) Elements(tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (tag == "*" || strings.EqualFold(n.Data, tag)) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// Query evaluates an XPath expression against the whole document and
// returns the matching element nodes in document order.
func (d *Document) Query(expr string) ([]*html.Node, error) {
	return QueryFrom(d.root, expr)
}

// QueryFrom evaluates expr relative to n.
func QueryFrom(n *html.Node, expr string) ([]*html.Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadQuery, expr, err)
	}
	var out []*html.Node
	for _, m := range htmlquery.QuerySelectorAll(n, compiled) {
		// Attribute results come back as detached synthetic elements.
		if m.Type == html.ElementNode && m.Parent != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// Text returns the trimmed concatenation of all text below n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(n))
}

// Attr returns the value of attribute key and whether it is defined.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns a copy of the attributes of n.
func Attrs(n *html.Node) map[string]string {
	out := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = a.Val
	}
	return out
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
