package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/locator"
)

func TestCapture(t *testing.T) {
	t.Run("Should record tag, text, attributes and locator", func(t *testing.T) {
		doc, err := document.Parse(`<html><body><p>x</p><p><a href="/x" class="btn">  Go  </a></p></body></html>`)
		require.NoError(t, err)

		snap, err := Capture(doc.Elements("a")[0])
		require.NoError(t, err)
		assert.Equal(t, "a", snap.Tag)
		assert.Equal(t, "Go", snap.Text)
		assert.Equal(t, "/html/body/p[2]/a", snap.Locator)

		href, ok := snap.Href()
		assert.True(t, ok)
		assert.Equal(t, "/x", href)
		class, ok := snap.Class()
		assert.True(t, ok)
		assert.Equal(t, "btn", class)
		_, ok = snap.Attr("id")
		assert.False(t, ok)
	})

	t.Run("Should outlive the source document", func(t *testing.T) {
		doc, err := document.Parse(`<a href="/x">Go</a>`)
		require.NoError(t, err)
		a := doc.Elements("a")[0]
		snap, err := Capture(a)
		require.NoError(t, err)

		a.Attr[0].Val = "/mutated"
		href, _ := snap.Href()
		assert.Equal(t, "/x", href)

		loc, err := locator.Parse(snap.Locator)
		require.NoError(t, err)
		assert.Equal(t, "a", loc.Tag())
	})

	t.Run("Should reject non-elements", func(t *testing.T) {
		_, err := Capture(&html.Node{Type: html.TextNode, Data: "x"})
		require.ErrorIs(t, err, locator.ErrNotElement)
	})
}

func TestString(t *testing.T) {
	snap := Snapshot{Tag: "a", Text: "Sign in", Attrs: map[string]string{"href": "/x", "class": "c"}}
	assert.Equal(t, `tag=a text="Sign in" class="c" href="/x"`, snap.String())
}
