package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polzovatel/relocate/internal/config"
	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/locator"
)

const oldHTML = `<html><body><div><form class="search">
<div><input name="q"></div>
<div><div><div><a href="/help">Help</a><a href="/signin">Sign in</a></div></div></div>
</form></div></body></html>`

const newHTML = `<html><body><div><section><form class="search">
<div><input name="q"></div>
<div><div><div><a href="/signin">Sign in</a></div></div></div>
</form></section></div></body></html>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	root := newRootCmd(&app{cfg: config.Config{Predicates: []string{"text", "href", "class"}, MaxDepth: 3, LinkLimit: 10, Concurrency: 2}})
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, dir, "old.html", oldHTML)
	newPath := writeFile(t, dir, "new.html", newHTML)

	t.Run("Should print the new locator", func(t *testing.T) {
		out, err := run(t, "resolve", "--old", oldPath, "--new", newPath,
			"--locator", "/html[1]/body[1]/div[1]/form[1]/div[2]/div[1]/div[1]/a[2]")
		require.NoError(t, err)
		assert.Equal(t, "/html/body/div/section/form/div[2]/div/div/a\n", out)
	})

	t.Run("Should accept an XPath query as the source", func(t *testing.T) {
		out, err := run(t, "resolve", "--old", oldPath, "--new", newPath, "--locator", "//a[@href='/signin']")
		require.NoError(t, err)
		assert.Equal(t, "/html/body/div/section/form/div[2]/div/div/a\n", out)
	})

	t.Run("Should print null when there is no counterpart", func(t *testing.T) {
		out, err := run(t, "resolve", "--old", oldPath, "--new", newPath,
			"--locator", "/html/body/div/form/div[2]/div/div/a[1]")
		require.NoError(t, err)
		assert.Equal(t, "null\n", out)
	})

	t.Run("Should print null when the source is missing", func(t *testing.T) {
		out, err := run(t, "resolve", "--old", oldPath, "--new", newPath, "--locator", "/html/body/table")
		require.NoError(t, err)
		assert.Equal(t, "null\n", out)

		out, err = run(t, "resolve", "--old", oldPath, "--new", newPath, "--locator", "//table")
		require.NoError(t, err)
		assert.Equal(t, "null\n", out)
	})

	t.Run("Should emit JSON", func(t *testing.T) {
		out, err := run(t, "resolve", "--json", "--old", oldPath, "--new", newPath,
			"--locator", "/html/body/div/form/div[2]/div/div/a[2]")
		require.NoError(t, err)
		var got resolveOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.True(t, got.Found)
		require.NotNil(t, got.Locator)
		assert.Equal(t, "similarity", string(got.Method))
		assert.Equal(t, []string{"text", "href"}, got.Matched)
		require.NotNil(t, got.Source)
		assert.Equal(t, "Sign in", got.Source.Text)
	})

	t.Run("Should fail on malformed input", func(t *testing.T) {
		empty := writeFile(t, dir, "empty.html", "")
		_, err := run(t, "resolve", "--old", empty, "--new", newPath, "--locator", "/html")
		require.ErrorIs(t, err, document.ErrMalformedInput)
	})

	t.Run("Should fail on an unusable locator", func(t *testing.T) {
		_, err := run(t, "resolve", "--old", oldPath, "--new", newPath, "--locator", "/html/body[")
		require.ErrorIs(t, err, locator.ErrInvalidLocator)

		_, err = run(t, "resolve", "--old", oldPath, "--new", newPath, "--locator", "/html/body/a[0]")
		require.ErrorIs(t, err, locator.ErrInvalidLocator)
	})

	t.Run("Should reject unknown policies", func(t *testing.T) {
		_, err := run(t, "resolve", "--old", oldPath, "--new", newPath, "--locator", "/html", "--policy", "weighted")
		require.Error(t, err)
	})
}

func TestLocateCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "old.html", oldHTML)
	out, err := run(t, "locate", "--file", path, "--query", "//form//a")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "/html/body/div/form/div[2]/div/div/a[1]\tHelp", lines[0])
	assert.Equal(t, "/html/body/div/form/div[2]/div/div/a[2]\tSign in", lines[1])
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, dir, "old.html", oldHTML)
	newPath := writeFile(t, dir, "new.html", newHTML)
	_, err := run(t, "analyze", "--max-depth", "2", oldPath, newPath)
	require.NoError(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.html", oldHTML)
	writeFile(t, dir, "new.html", newHTML)
	job := writeFile(t, dir, "job.yaml", `cases:
  - name: signin
    old: old.html
    new: new.html
    locator: /html/body/div/form/div[2]/div/div/a[2]
  - name: help
    old: old.html
    new: new.html
    locator: /html/body/div/form/div[2]/div/div/a[1]
  - name: broken
    old: missing.html
    new: new.html
    locator: /html
`)
	out, err := run(t, "batch", job)
	require.NoError(t, err)
	assert.Equal(t, "signin\t/html/body/div/section/form/div[2]/div/div/a\nhelp\tnull\nbroken\tnull\n", out)
}
