// Package batch runs many relocations from a job file. Each case succeeds or
// fails on its own; one bad case never stops the others.
package batch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/resolver"
)

// Loader turns a path into a parsed document.
type Loader func(path string) (*document.Document, error)

// Outcome is the result of one case. Err is nil when a counterpart was found.
type Outcome struct {
	Case       Case
	Locator    string
	Method     resolver.Method
	Candidates int
	Err        error
}

func (o Outcome) Found() bool { return o.Err == nil }

type Runner struct {
	resolver    *resolver.Resolver
	load        Loader
	concurrency int
	logger      zerolog.Logger
}

func NewRunner(r *resolver.Resolver, load Loader, concurrency int, logger zerolog.Logger) *Runner {
	if load == nil {
		load = document.Load
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{resolver: r, load: load, concurrency: concurrency, logger: logger}
}

// Run processes cases and returns one outcome per case, in input order.
// It only returns an error when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Outcome, error) {
	docs := newDocCache(r.load)
	out := make([]Outcome, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = r.runCase(docs, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

func (r *Runner) runCase(docs *docCache, c Case) Outcome {
	o := Outcome{Case: c}
	log := r.logger.With().Str("case", c.Name).Logger()

	oldDoc, err := docs.get(c.Old)
	if err != nil {
		o.Err = err
		log.Warn().Err(err).Msg("load old document")
		return o
	}
	loc, err := resolver.SourceLocator(oldDoc, c.Locator)
	if err != nil {
		o.Err = err
		log.Warn().Err(err).Msg("bad locator")
		return o
	}
	newDoc, err := docs.get(c.New)
	if err != nil {
		o.Err = err
		log.Warn().Err(err).Msg("load new document")
		return o
	}

	res, err := r.resolver.Relocate(oldDoc, newDoc, loc)
	if err != nil {
		o.Err = err
		log.Info().Err(err).Msg("no counterpart")
		return o
	}
	o.Locator = res.Locator.String()
	o.Method = res.Method
	o.Candidates = res.Candidates
	log.Info().Str("locator", o.Locator).Str("method", string(o.Method)).Int("candidates", o.Candidates).Msg("relocated")
	return o
}

// docCache parses each path at most once. Parsed documents are read-only,
// so cases share them freely.
type docCache struct {
	load    Loader
	mu      sync.Mutex
	entries map[string]*docEntry
}

type docEntry struct {
	once sync.Once
	doc  *document.Document
	err  error
}

func newDocCache(load Loader) *docCache {
	return &docCache{load: load, entries: make(map[string]*docEntry)}
}

func (c *docCache) get(path string) (*document.Document, error) {
	c.mu.Lock()
	e, ok := c.entries[path]
	if !ok {
		e = &docEntry{}
		c.entries[path] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.doc, e.err = c.load(path)
	})
	return e.doc, e.err
}
