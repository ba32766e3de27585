// Package report builds structural summaries of a page: forms, their nested
// div layout, links, and repeated link groups. It exists to help a human see
// why a locator stopped resolving; nothing in resolution depends on it.
package report

import (
	"golang.org/x/net/html"

	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/locator"
)

const (
	searchFormQuery = "//form[contains(@class, 'search') or contains(@id, 'search')]"
	linkTextLimit   = 50
)

// Options bounds the size of a report.
type Options struct {
	// MaxDepth limits how many levels of nested divs are expanded below a
	// form. Zero or less expands everything.
	MaxDepth int
	// LinkLimit caps the document-wide link listing. Zero or less lists all.
	LinkLimit int
}

type Link struct {
	Text    string `json:"text"`
	Href    string `json:"href,omitempty"`
	Locator string `json:"locator"`
}

type Div struct {
	Locator   string `json:"locator"`
	ID        string `json:"id,omitempty"`
	Class     string `json:"class,omitempty"`
	Depth     int    `json:"depth"`
	ChildDivs int    `json:"child_divs"`
	Links     []Link `json:"links,omitempty"`
	Children  []Div  `json:"children,omitempty"`
}

type Form struct {
	Locator string `json:"locator"`
	ID      string `json:"id,omitempty"`
	Class   string `json:"class,omitempty"`
	Divs    int    `json:"divs"`
	Links   []Link `json:"links,omitempty"`
	Tree    []Div  `json:"tree,omitempty"`
}

// LinkGroup is a div whose second child div holds a first child div with at
// least two direct links: the div[2]/div[1]/div[1]/a shape.
type LinkGroup struct {
	Parent string `json:"parent"`
	Second string `json:"second"`
	Inner  string `json:"inner"`
	Links  []Link `json:"links"`
}

type Report struct {
	Name        string      `json:"name,omitempty"`
	Forms       []Form      `json:"forms"`
	SearchForms []Form      `json:"search_forms"`
	TotalLinks  int         `json:"total_links"`
	Links       []Link      `json:"links"`
	Groups      []LinkGroup `json:"groups"`
}

// Analyze builds the report for doc.
func Analyze(doc *document.Document, opts Options) (Report, error) {
	rep := Report{Name: doc.Name()}
	for _, f := range doc.Elements("form") {
		rep.Forms = append(rep.Forms, describeForm(f, opts))
	}
	search, err := doc.Query(searchFormQuery)
	if err != nil {
		return Report{}, err
	}
	for _, f := range search {
		rep.SearchForms = append(rep.SearchForms, describeForm(f, opts))
	}

	links := doc.Elements("a")
	rep.TotalLinks = len(links)
	if opts.LinkLimit > 0 && len(links) > opts.LinkLimit {
		links = links[:opts.LinkLimit]
	}
	for _, a := range links {
		rep.Links = append(rep.Links, describeLink(a))
	}

	rep.Groups = linkGroups(doc)
	return rep, nil
}

// PairSearchForms returns the first link of the first search form in each
// report. ok is false when either side has no such link.
func PairSearchForms(oldRep, newRep Report) (oldLink, newLink Link, ok bool) {
	first := func(r Report) (Link, bool) {
		if len(r.SearchForms) == 0 || len(r.SearchForms[0].Links) == 0 {
			return Link{}, false
		}
		return r.SearchForms[0].Links[0], true
	}
	oldLink, okOld := first(oldRep)
	newLink, okNew := first(newRep)
	if !okOld || !okNew {
		return Link{}, Link{}, false
	}
	return oldLink, newLink, true
}

func describeForm(f *html.Node, opts Options) Form {
	form := Form{
		Locator: locatorOf(f),
		ID:      attr(f, "id"),
		Class:   attr(f, "class"),
		Divs:    len(descendants(f, "div")),
	}
	for _, a := range descendants(f, "a") {
		form.Links = append(form.Links, describeLink(a))
	}
	for _, d := range children(f, "div") {
		form.Tree = append(form.Tree, describeDiv(d, 1, opts.MaxDepth))
	}
	return form
}

func describeDiv(d *html.Node, depth, maxDepth int) Div {
	kids := children(d, "div")
	div := Div{
		Locator:   locatorOf(d),
		ID:        attr(d, "id"),
		Class:     attr(d, "class"),
		Depth:     depth,
		ChildDivs: len(kids),
	}
	for _, a := range children(d, "a") {
		div.Links = append(div.Links, describeLink(a))
	}
	if maxDepth > 0 && depth >= maxDepth {
		return div
	}
	for _, k := range kids {
		div.Children = append(div.Children, describeDiv(k, depth+1, maxDepth))
	}
	return div
}

func describeLink(a *html.Node) Link {
	return Link{
		Text:    document.Truncate(document.Text(a), linkTextLimit),
		Href:    attr(a, "href"),
		Locator: locatorOf(a),
	}
}

func linkGroups(doc *document.Document) []LinkGroup {
	var groups []LinkGroup
	for _, d := range doc.Elements("div") {
		divs := children(d, "div")
		if len(divs) < 2 {
			continue
		}
		inner := children(divs[1], "div")
		if len(inner) == 0 {
			continue
		}
		links := children(inner[0], "a")
		if len(links) < 2 {
			continue
		}
		g := LinkGroup{
			Parent: locatorOf(d),
			Second: locatorOf(divs[1]),
			Inner:  locatorOf(inner[0]),
		}
		for _, a := range links {
			g.Links = append(g.Links, describeLink(a))
		}
		groups = append(groups, g)
	}
	return groups
}

func children(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

func descendants(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	v, _ := document.Attr(n, key)
	return v
}

func locatorOf(n *html.Node) string {
	loc, err := locator.Generate(n)
	if err != nil {
		return ""
	}
	return loc.String()
}
