package security

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDecision(t *testing.T) {
	svc := NewService(500, true, true)

	t.Run("escapes HTML", func(t *testing.T) {
		out := svc.SanitizeDecision(`<b>move</b> to "Berlin"`)
		assert.NotContains(t, out, "<b>")
		assert.Contains(t, out, "&lt;b&gt;")
	})

	t.Run("truncates long input with ellipsis", func(t *testing.T) {
		out := svc.SanitizeDecision(strings.Repeat("a", 600))
		assert.True(t, strings.HasSuffix(out, "..."))
		assert.Equal(t, 503, len(out))
	})

	t.Run("truncates multibyte input on a rune boundary", func(t *testing.T) {
		out := svc.SanitizeDecision(strings.Repeat("家", 600))
		assert.True(t, utf8.ValidString(out))
		assert.True(t, strings.HasSuffix(out, "..."))
		assert.Equal(t, 503, utf8.RuneCountInString(out))
	})

	t.Run("multibyte input under the ceiling is untouched", func(t *testing.T) {
		in := strings.Repeat("家", 400)
		assert.Equal(t, in, svc.SanitizeDecision(in))
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		out := svc.SanitizeDecision("move   to\n\tBerlin")
		assert.Equal(t, "move to Berlin", out)
	})
}

func TestValidateMode(t *testing.T) {
	svc := NewService(500, true, true)

	assert.Equal(t, "realistic", svc.ValidateMode("realistic"))
	assert.Equal(t, "50/50", svc.ValidateMode("50/50"))
	assert.Equal(t, "random", svc.ValidateMode("random"))

	// Unknown modes fall back to realistic
	assert.Equal(t, "realistic", svc.ValidateMode("chaotic"))
	assert.Equal(t, "realistic", svc.ValidateMode(""))
}

func TestCheckContentSafety(t *testing.T) {
	svc := NewService(500, true, true)

	t.Run("blocks self-harm content", func(t *testing.T) {
		result := svc.CheckContentSafety("thinking about suicide")
		assert.False(t, result.Safe)
		assert.Equal(t, "self-harm content", result.Reason)

		result = svc.CheckContentSafety("self harm thoughts")
		assert.False(t, result.Safe)
	})

	t.Run("allows ordinary decisions", func(t *testing.T) {
		result := svc.CheckContentSafety("quit my job and start a bakery")
		assert.True(t, result.Safe)
		assert.Empty(t, result.Reason)
	})

	t.Run("disabled filtering passes everything", func(t *testing.T) {
		open := NewService(500, false, true)
		assert.True(t, open.CheckContentSafety("suicide").Safe)
	})
}

func TestSanitizeOutput(t *testing.T) {
	svc := NewService(500, true, true)

	t.Run("strips script tags", func(t *testing.T) {
		out := svc.SanitizeOutput(`hello <script>alert(1)</script> world`)
		assert.NotContains(t, out, "alert")
		assert.NotContains(t, out, "script")
	})

	t.Run("strips javascript URIs", func(t *testing.T) {
		out := svc.SanitizeOutput(`click javascript:doEvil()`)
		assert.NotContains(t, strings.ToLower(out), "javascript:")
	})

	t.Run("escapes remaining HTML", func(t *testing.T) {
		out := svc.SanitizeOutput(`a <em>story</em>`)
		assert.Contains(t, out, "&lt;em&gt;")
	})

	t.Run("disabled sanitization is a passthrough", func(t *testing.T) {
		open := NewService(500, true, false)
		assert.Equal(t, "<em>x</em>", open.SanitizeOutput("<em>x</em>"))
	})
}
