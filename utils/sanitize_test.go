package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKeepsMarkupDropsScripts(t *testing.T) {
	in := `<p>Hello <strong>world</strong></p><script>alert("x")</script>`
	out := Sanitize(in)
	assert.Contains(t, out, "<strong>world</strong>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "alert")
}

func TestSanitizeStrictDropsAllMarkup(t *testing.T) {
	assert.Equal(t, "Jane Doe", SanitizeStrict(`<b>Jane</b> <img src=x onerror=alert(1)>Doe`))
	assert.Equal(t, "plain text", SanitizeStrict("plain text"))
}
