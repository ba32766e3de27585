package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/locator"
)

// Snapshot is a document-independent description of one element, captured
// so it can be compared against a different document later.
type Snapshot struct {
	Tag     string            `json:"tag"`
	Text    string            `json:"text"`
	Attrs   map[string]string `json:"attrs"`
	Locator string            `json:"locator,omitempty"`
}

// Capture records n's tag, trimmed text, attributes and locator.
func Capture(n *html.Node) (Snapshot, error) {
	loc, err := locator.Generate(n)
	if err != nil {
		return Snapshot{}, fmt.Errorf("capture: %w", err)
	}
	return Snapshot{
		Tag:     n.Data,
		Text:    document.Text(n),
		Attrs:   document.Attrs(n),
		Locator: loc.String(),
	}, nil
}

// Attr returns the captured value of key and whether it was defined.
func (s Snapshot) Attr(key string) (string, bool) {
	v, ok := s.Attrs[key]
	return v, ok
}

func (s Snapshot) Href() (string, bool)  { return s.Attr("href") }
func (s Snapshot) Class() (string, bool) { return s.Attr("class") }

// String renders a one-line summary for diagnostics.
func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tag=%s text=%q", s.Tag, document.Truncate(s.Text, 50))
	keys := make([]string, 0, len(s.Attrs))
	for k := range s.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%q", k, s.Attrs[k])
	}
	return b.String()
}
