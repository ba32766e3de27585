package report

import (
	"strings"

	"github.com/rs/zerolog"
)

// Reporter receives finished reports.
type Reporter interface {
	Report(r Report)
}

// LogReporter writes reports as structured log events.
type LogReporter struct {
	logger zerolog.Logger
}

func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (l *LogReporter) Report(r Report) {
	l.logger.Info().
		Str("doc", r.Name).
		Int("forms", len(r.Forms)).
		Int("search_forms", len(r.SearchForms)).
		Int("links", r.TotalLinks).
		Int("groups", len(r.Groups)).
		Msg("document")

	for i, f := range r.Forms {
		l.logger.Info().
			Int("form", i+1).
			Str("locator", f.Locator).
			Str("id", f.ID).
			Str("class", f.Class).
			Int("divs", f.Divs).
			Int("links", len(f.Links)).
			Msg("form")
		for _, d := range f.Tree {
			l.div(d)
		}
	}
	for _, f := range r.SearchForms {
		l.logger.Info().Str("locator", f.Locator).Str("id", f.ID).Str("class", f.Class).Msg("search form")
		l.links("search form link", f.Links)
	}
	l.links("link", r.Links)
	for _, g := range r.Groups {
		l.logger.Info().
			Str("parent", g.Parent).
			Str("second", g.Second).
			Str("inner", g.Inner).
			Int("links", len(g.Links)).
			Msg("link group")
		l.links("group link", g.Links)
	}
}

func (l *LogReporter) div(d Div) {
	indent := strings.Repeat("  ", d.Depth)
	l.logger.Debug().
		Int("depth", d.Depth).
		Str("locator", indent+d.Locator).
		Str("id", d.ID).
		Str("class", d.Class).
		Int("child_divs", d.ChildDivs).
		Int("links", len(d.Links)).
		Msg("div")
	l.links("div link", d.Links)
	for _, c := range d.Children {
		l.div(c)
	}
}

func (l *LogReporter) links(msg string, links []Link) {
	for _, a := range links {
		l.logger.Debug().Str("text", a.Text).Str("href", a.Href).Str("locator", a.Locator).Msg(msg)
	}
}
