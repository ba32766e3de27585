package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	t.Run("Should accept http, https and file URLs", func(t *testing.T) {
		for _, raw := range []string{
			"https://login.example.com/signin?x=1",
			" http://localhost:8080/ ",
			"file:///tmp/page.html",
		} {
			_, err := ValidateURL(raw)
			assert.NoError(t, err, raw)
		}
	})

	t.Run("Should reject everything else", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"example.com",
			"ftp://example.com/x",
			"https:///nohost",
			"file://",
			"://broken",
		} {
			_, err := ValidateURL(raw)
			assert.ErrorIs(t, err, ErrBadURL, raw)
		}
	})
}

func TestWrap(t *testing.T) {
	require.NoError(t, wrap(nil))
	base := errors.New("timeout")
	err := wrap(base)
	require.ErrorIs(t, err, base)
	assert.Equal(t, "playwright: timeout", err.Error())
}
