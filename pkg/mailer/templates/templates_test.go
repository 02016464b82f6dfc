package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	subject, text, html, err := Render(Welcome, map[string]any{
		"Name":    "Ana <b>",
		"AppName": "Blog",
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Blog, Ana <b>!", subject)
	assert.Contains(t, text, "Hi Ana <b>,")
	assert.Contains(t, text, "The team")
	assert.Contains(t, html, "Ana &lt;b&gt;")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.True(t, Has(Welcome))
	assert.False(t, Has("nope"))
}

func TestDefaultFn(t *testing.T) {
	assert.Equal(t, "x", defaultFn("x", ""))
	assert.Equal(t, "x", defaultFn("x", nil))
	assert.Equal(t, "x", defaultFn("x", 0))
	assert.Equal(t, 3, defaultFn("x", 3))
	assert.Equal(t, "v", defaultFn("x", "v"))
}
