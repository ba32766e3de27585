// Package resolver re-finds an element in a document that may have changed
// since its locator was generated.
//
// Resolution first evaluates the locator as is. When the structure has
// diverged, it falls back to a tag-scoped similarity search against a
// snapshot of the original element.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/locator"
	"github.com/polzovatel/relocate/internal/snapshot"
)

var (
	// ErrNotFound means no element in the new document qualifies.
	ErrNotFound = locator.ErrNotFound
	// ErrSourceNotFound means the locator did not resolve in the old document.
	ErrSourceNotFound = errors.New("source element not found")
)

// Policy selects among several accepted similarity candidates.
type Policy string

const (
	// FirstMatch returns the first accepted candidate in document order.
	FirstMatch Policy = "first"
	// BestScore returns the candidate matching the most predicates,
	// earliest in document order on ties.
	BestScore Policy = "best"
)

// ParsePolicy accepts "first", "best" or "" (FirstMatch).
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FirstMatch:
		return FirstMatch, nil
	case BestScore:
		return BestScore, nil
	default:
		return "", fmt.Errorf("unknown policy %q (use first or best)", s)
	}
}

// Method reports how the result was found.
type Method string

const (
	MethodExact      Method = "exact"
	MethodSimilarity Method = "similarity"
)

type Options struct {
	Predicates []Predicate
	Policy     Policy
	// VerifyExact rejects an exact hit that matches none of the predicates.
	VerifyExact bool
}

func (o *Options) defaults() {
	if len(o.Predicates) == 0 {
		o.Predicates = DefaultPredicates()
	}
	if o.Policy == "" {
		o.Policy = FirstMatch
	}
}

type Resolver struct {
	opts   Options
	logger zerolog.Logger
}

func New(opts Options, logger zerolog.Logger) *Resolver {
	opts.defaults()
	return &Resolver{opts: opts, logger: logger}
}

// Match is the outcome of a similarity search.
type Match struct {
	Node *html.Node
	// Matched lists the predicates the chosen node satisfied.
	Matched []string
	// Candidates counts every accepted node, so callers can spot ambiguity.
	Candidates int
}

// Result is the outcome of relocating an element into a new document.
type Result struct {
	Node       *html.Node
	Locator    locator.Locator
	Method     Method
	Snapshot   snapshot.Snapshot
	Matched    []string
	Candidates int
}

// Resolve evaluates loc against doc exactly.
func (r *Resolver) Resolve(doc *document.Document, loc locator.Locator) (*html.Node, error) {
	return locator.Evaluate(doc.Root(), loc)
}

// ResolveBySimilarity returns the element of doc with the given tag that
// best resembles snap under the configured policy.
func (r *Resolver) ResolveBySimilarity(doc *document.Document, snap snapshot.Snapshot, tag string) (*html.Node, error) {
	m, err := r.Match(doc, snap, tag)
	if err != nil {
		return nil, err
	}
	return m.Node, nil
}

// Match runs the similarity search and reports which predicates held.
func (r *Resolver) Match(doc *document.Document, snap snapshot.Snapshot, tag string) (Match, error) {
	if tag == "" {
		tag = snap.Tag
	}
	var (
		best      Match
		bestScore int
	)
	candidates := doc.Elements(tag)
	for _, cand := range candidates {
		matched := r.evaluate(snap, cand)
		if len(matched) == 0 {
			continue
		}
		best.Candidates++
		if best.Node == nil || (r.opts.Policy == BestScore && len(matched) > bestScore) {
			best.Node, best.Matched, bestScore = cand, matched, len(matched)
		}
	}
	r.logger.Debug().
		Str("tag", tag).
		Int("scanned", len(candidates)).
		Int("accepted", best.Candidates).
		Strs("matched", best.Matched).
		Msg("similarity search")
	if best.Node == nil {
		return Match{}, fmt.Errorf("%w: no <%s> resembles %s", ErrNotFound, tag, snap)
	}
	return best, nil
}

func (r *Resolver) evaluate(snap snapshot.Snapshot, cand *html.Node) []string {
	var matched []string
	for _, p := range r.opts.Predicates {
		if p.Match(snap, cand) {
			matched = append(matched, p.Name())
		}
	}
	return matched
}

// Relocate finds the element at loc in oldDoc and returns its counterpart
// in newDoc, expressed as a locator against newDoc.
func (r *Resolver) Relocate(oldDoc, newDoc *document.Document, loc locator.Locator) (Result, error) {
	source, err := r.Resolve(oldDoc, loc)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrSourceNotFound, loc)
	}
	snap, err := snapshot.Capture(source)
	if err != nil {
		return Result{}, err
	}
	r.logger.Debug().Str("locator", loc.String()).Str("snapshot", snap.String()).Msg("source element")

	if node, err := r.Resolve(newDoc, loc); err == nil {
		matched := r.evaluate(snap, node)
		if !r.opts.VerifyExact || len(matched) > 0 {
			return r.result(node, MethodExact, snap, matched, 1)
		}
		r.logger.Debug().Str("locator", loc.String()).Msg("exact hit rejected, no predicate matched")
	}

	m, err := r.Match(newDoc, snap, snap.Tag)
	if err != nil {
		return Result{}, err
	}
	return r.result(m.Node, MethodSimilarity, snap, m.Matched, m.Candidates)
}

func (r *Resolver) result(n *html.Node, method Method, snap snapshot.Snapshot, matched []string, candidates int) (Result, error) {
	loc, err := locator.Generate(n)
	if err != nil {
		return Result{}, err
	}
	r.logger.Debug().
		Str("method", string(method)).
		Str("locator", loc.String()).
		Int("candidates", candidates).
		Msg("relocated")
	return Result{
		Node:       n,
		Locator:    loc,
		Method:     method,
		Snapshot:   snap,
		Matched:    matched,
		Candidates: candidates,
	}, nil
}
