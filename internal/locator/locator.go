// Package locator builds and evaluates positional element paths of the form
// /html/body/div/form/div[2]/a[2].
//
// A Locator only has meaning relative to the document it was generated from.
package locator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	// ErrInvalidLocator is returned by Parse for text that is not an absolute
	// tag[index] path.
	ErrInvalidLocator = errors.New("invalid locator")
	// ErrNotElement is returned by Generate for nil or non-element nodes.
	ErrNotElement = errors.New("not an element node")
	// ErrNotFound means a locator addresses nothing in the document.
	ErrNotFound = errors.New("element not found")
)

// Step is one tag[index] segment. Index 0 means the index was omitted,
// which is equivalent to position 1.
type Step struct {
	Tag   string
	Index int
}

// Position returns the effective 1-based position of the step.
func (s Step) Position() int {
	if s.Index <= 0 {
		return 1
	}
	return s.Index
}

func (s Step) String() string {
	if s.Index <= 0 {
		return s.Tag
	}
	return s.Tag + "[" + strconv.Itoa(s.Index) + "]"
}

// Locator is an ordered root-to-element path.
type Locator []Step

func (l Locator) String() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// XPath renders the locator with every position explicit.
func (l Locator) XPath() string {
	var b strings.Builder
	for _, s := range l {
		fmt.Fprintf(&b, "/%s[%d]", s.Tag, s.Position())
	}
	return b.String()
}

// Tag returns the tag of the last step, or "" for an empty locator.
func (l Locator) Tag() string {
	if len(l) == 0 {
		return ""
	}
	return l[len(l)-1].Tag
}

// Parse reads a slash-delimited locator. Both the compact form
// (/html/body/a[2]) and the fully indexed form (/html[1]/body[1]/a[2]) are
// accepted; an explicit [1] is kept as given. Tags keep their case, since
// foreign content such as SVG uses mixed-case names (clipPath); matching
// ignores case.
func Parse(s string) (Locator, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") {
		return nil, fmt.Errorf("%w %q: must be an absolute path", ErrInvalidLocator, s)
	}
	parts := strings.Split(s[1:], "/")
	loc := make(Locator, 0, len(parts))
	for _, part := range parts {
		step, err := parseStep(part)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidLocator, s, err)
		}
		loc = append(loc, step)
	}
	return loc, nil
}

func parseStep(part string) (Step, error) {
	tag, rest := part, ""
	if idx := strings.IndexByte(part, '['); idx >= 0 {
		if !strings.HasSuffix(part, "]") {
			return Step{}, fmt.Errorf("unterminated index in %q", part)
		}
		tag, rest = part[:idx], part[idx+1:len(part)-1]
	}
	if !validTag(tag) {
		return Step{}, fmt.Errorf("bad tag %q", tag)
	}
	step := Step{Tag: tag}
	if rest == "" && tag != part {
		return Step{}, fmt.Errorf("empty index in %q", part)
	}
	if rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return Step{}, fmt.Errorf("index %q must be a positive integer", rest)
		}
		step.Index = n
	}
	return step, nil
}

func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == ':' || r == '.':
		default:
			return false
		}
	}
	return true
}

// Generate walks from n up to the root and returns its locator. The walk
// stops at the first ancestor that is not an element (the document node).
func Generate(n *html.Node) (Locator, error) {
	if n == nil || n.Type != html.ElementNode {
		return nil, ErrNotElement
	}
	var loc Locator
	for cur := n; cur != nil && cur.Type == html.ElementNode && cur.Data != ""; cur = cur.Parent {
		loc = append(loc, Step{Tag: cur.Data, Index: siblingIndex(cur)})
	}
	for i, j := 0, len(loc)-1; i < j; i, j = i+1, j-1 {
		loc[i], loc[j] = loc[j], loc[i]
	}
	return loc, nil
}

// siblingIndex returns the 1-based position of n among same-tag element
// siblings, or 0 when n is the only one.
func siblingIndex(n *html.Node) int {
	if n.Parent == nil {
		return 0
	}
	pos, total := 0, 0
	for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
		if s.Type != html.ElementNode || s.Data != n.Data {
			continue
		}
		total++
		if s == n {
			pos = total
		}
	}
	if total > 1 {
		return pos
	}
	return 0
}

// Evaluate follows loc from root and returns the addressed element.
// root may be the document node or the top element itself.
func Evaluate(root *html.Node, loc Locator) (*html.Node, error) {
	if root == nil || len(loc) == 0 {
		return nil, ErrNotFound
	}
	steps := loc
	cur := root
	if root.Type == html.ElementNode {
		if !sameTag(root, loc[0].Tag) || loc[0].Position() != 1 {
			return nil, ErrNotFound
		}
		steps = loc[1:]
	}
	for _, step := range steps {
		cur = nthChild(cur, step)
		if cur == nil {
			return nil, ErrNotFound
		}
	}
	if cur.Type != html.ElementNode {
		return nil, ErrNotFound
	}
	return cur, nil
}

func nthChild(parent *html.Node, step Step) *html.Node {
	want := step.Position()
	pos := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if sameTag(c, step.Tag) {
			pos++
			if pos == want {
				return c
			}
		}
	}
	return nil
}

func sameTag(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && strings.EqualFold(n.Data, tag)
}
