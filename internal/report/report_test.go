package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polzovatel/relocate/internal/document"
)

const page = `<html><body>
<a href="/home">Home</a>
<div><form id="login"><div><input name="user"></div></form></div>
<div><form class="site-search">
  <div class="row"><span>q</span></div>
  <div class="links">
    <div class="inner">
      <a href="/one">One</a>
      <a href="/two">A very long link text that goes on and on and on past fifty runes</a>
      <div><div><a href="/deep">Deep</a></div></div>
    </div>
  </div>
</form></div>
</body></html>`

func analyze(t *testing.T, raw string, opts Options) Report {
	t.Helper()
	doc, err := document.Parse(raw)
	require.NoError(t, err)
	rep, err := Analyze(doc, opts)
	require.NoError(t, err)
	return rep
}

func TestAnalyze(t *testing.T) {
	t.Run("Should describe every form", func(t *testing.T) {
		rep := analyze(t, page, Options{})
		require.Len(t, rep.Forms, 2)
		assert.Equal(t, "login", rep.Forms[0].ID)
		assert.Equal(t, "/html/body/div[1]/form", rep.Forms[0].Locator)
		assert.Empty(t, rep.Forms[0].Links)

		search := rep.Forms[1]
		assert.Equal(t, "site-search", search.Class)
		assert.Equal(t, 5, search.Divs)
		require.Len(t, search.Links, 3)
		assert.Equal(t, "/html/body/div[2]/form/div[2]/div/a[1]", search.Links[0].Locator)
		assert.Len(t, []rune(search.Links[1].Text), linkTextLimit)
	})

	t.Run("Should find search forms by class or id", func(t *testing.T) {
		rep := analyze(t, page, Options{})
		require.Len(t, rep.SearchForms, 1)
		assert.Equal(t, "site-search", rep.SearchForms[0].Class)
	})

	t.Run("Should bound the div tree depth", func(t *testing.T) {
		rep := analyze(t, page, Options{MaxDepth: 2})
		tree := rep.Forms[1].Tree
		require.Len(t, tree, 2)
		links := tree[1]
		assert.Equal(t, 1, links.Depth)
		require.Len(t, links.Children, 1)
		inner := links.Children[0]
		assert.Equal(t, 2, inner.Depth)
		assert.Equal(t, 1, inner.ChildDivs)
		assert.Len(t, inner.Links, 2)
		assert.Empty(t, inner.Children)

		full := analyze(t, page, Options{}).Forms[1].Tree[1].Children[0]
		require.Len(t, full.Children, 1)
		require.Len(t, full.Children[0].Children, 1)
		assert.Len(t, full.Children[0].Children[0].Links, 1)
	})

	t.Run("Should cap the link listing", func(t *testing.T) {
		rep := analyze(t, page, Options{LinkLimit: 2})
		assert.Equal(t, 4, rep.TotalLinks)
		require.Len(t, rep.Links, 2)
		assert.Equal(t, "Home", rep.Links[0].Text)
		assert.Equal(t, "/home", rep.Links[0].Href)
	})

	t.Run("Should find nested link groups", func(t *testing.T) {
		rep := analyze(t, `<html><body><div id="p">
			<div>first</div>
			<div><div><a href="/a">A</a><a href="/b">B</a></div></div>
		</div></body></html>`, Options{})
		require.Len(t, rep.Groups, 1)
		g := rep.Groups[0]
		assert.Equal(t, "/html/body/div", g.Parent)
		assert.Equal(t, "/html/body/div/div[2]", g.Second)
		assert.Equal(t, "/html/body/div/div[2]/div", g.Inner)
		require.Len(t, g.Links, 2)
		assert.Equal(t, "/html/body/div/div[2]/div/a[2]", g.Links[1].Locator)
	})
}

func TestPairSearchForms(t *testing.T) {
	t.Run("Should pair the first links", func(t *testing.T) {
		oldRep := analyze(t, page, Options{})
		newRep := analyze(t, `<html><body><form id="search"><a href="/n">N</a></form></body></html>`, Options{})
		oldLink, newLink, ok := PairSearchForms(oldRep, newRep)
		require.True(t, ok)
		assert.Equal(t, "/one", oldLink.Href)
		assert.Equal(t, "/html/body/form/a", newLink.Locator)
	})

	t.Run("Should fail without search forms", func(t *testing.T) {
		oldRep := analyze(t, page, Options{})
		newRep := analyze(t, `<html><body><form><a href="/n">N</a></form></body></html>`, Options{})
		_, _, ok := PairSearchForms(oldRep, newRep)
		assert.False(t, ok)
	})
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	NewLogReporter(logger).Report(analyze(t, page, Options{MaxDepth: 3}))

	out := buf.String()
	assert.Contains(t, out, `"message":"document"`)
	assert.Contains(t, out, `"forms":2`)
	assert.Contains(t, out, `"message":"search form"`)
	assert.Contains(t, out, `"message":"div link"`)
	assert.Equal(t, 2, strings.Count(out, `"message":"form"`))
}
