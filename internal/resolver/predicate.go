package resolver

import (
	"golang.org/x/net/html"

	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/snapshot"
)

// Predicate decides whether a candidate element looks like the captured one.
type Predicate interface {
	Name() string
	Match(snap snapshot.Snapshot, cand *html.Node) bool
}

type predicateFunc struct {
	name string
	fn   func(snapshot.Snapshot, *html.Node) bool
}

func (p predicateFunc) Name() string { return p.name }

func (p predicateFunc) Match(snap snapshot.Snapshot, cand *html.Node) bool {
	return p.fn(snap, cand)
}

// NewPredicate wraps fn as a named Predicate.
func NewPredicate(name string, fn func(snapshot.Snapshot, *html.Node) bool) Predicate {
	return predicateFunc{name: name, fn: fn}
}

var (
	// Text matches on equal trimmed text content.
	Text = NewPredicate("text", func(snap snapshot.Snapshot, cand *html.Node) bool {
		return document.Text(cand) == snap.Text
	})

	// Href matches link-like elements whose href attributes are both set and equal.
	Href = NewPredicate("href", func(snap snapshot.Snapshot, cand *html.Node) bool {
		if !linkLike(snap.Tag) {
			return false
		}
		return sameAttr(snap, cand, "href")
	})

	// Class matches when both sides define the same class attribute value.
	Class = SameAttr("class")
)

// SameAttr matches when both sides define attribute key with equal values.
func SameAttr(key string) Predicate {
	return NewPredicate(key, func(snap snapshot.Snapshot, cand *html.Node) bool {
		return sameAttr(snap, cand, key)
	})
}

// DefaultPredicates is the text, href, class set.
func DefaultPredicates() []Predicate {
	return []Predicate{Text, Href, Class}
}

// PredicateByName returns a built-in predicate. Names other than text and
// href are treated as attribute equality checks.
func PredicateByName(name string) Predicate {
	switch name {
	case "text":
		return Text
	case "href":
		return Href
	default:
		return SameAttr(name)
	}
}

func sameAttr(snap snapshot.Snapshot, cand *html.Node, key string) bool {
	want, ok := snap.Attr(key)
	if !ok {
		return false
	}
	got, ok := document.Attr(cand, key)
	return ok && got == want
}

func linkLike(tag string) bool {
	switch tag {
	case "a", "area", "link":
		return true
	}
	return false
}
