package resolver

import (
	"fmt"
	"strings"

	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/locator"
)

// SourceLocator turns user input into a locator against doc. Plain locators
// are returned as parsed. Anything else is evaluated as an XPath query and the
// first match is used.
//
// Input that reads as an absolute path but is not a valid locator (such as
// /html/body/a[0]) and selects nothing is reported as
// locator.ErrInvalidLocator rather than ErrSourceNotFound.
func SourceLocator(doc *document.Document, expr string) (locator.Locator, error) {
	loc, err := locator.Parse(expr)
	if err == nil {
		return loc, nil
	}
	nodes, qerr := doc.Query(expr)
	if qerr != nil {
		return nil, fmt.Errorf("%w; as xpath: %w", err, qerr)
	}
	if len(nodes) == 0 {
		if absolutePath(expr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: xpath %q matches nothing in %s", ErrSourceNotFound, expr, doc.Name())
	}
	return locator.Generate(nodes[0])
}

func absolutePath(expr string) bool {
	expr = strings.TrimSpace(expr)
	return strings.HasPrefix(expr, "/") && !strings.HasPrefix(expr, "//")
}
