package security

import (
	"html"
	"regexp"
	"strings"

	"github.com/quantumfork/whatif/models"
)

// Default input length ceiling; truncated input gets an ellipsis.
const defaultMaxInputLength = 500

var (
	selfHarmPattern   = regexp.MustCompile(`(?i)\b(suicide|self[- ]?harm)\b`)
	scriptTagPattern  = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)
	jsURIPattern      = regexp.MustCompile(`(?i)javascript:`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SafetyResult is the outcome of a content-safety check
type SafetyResult struct {
	Safe   bool
	Reason string
}

// Service validates and sanitizes user decisions and LLM output
type Service struct {
	maxInputLength   int
	contentFiltering bool
	sanitizeOutputs  bool
}

// NewService creates a security service
func NewService(maxInputLength int, contentFiltering, sanitizeOutputs bool) *Service {
	if maxInputLength <= 0 {
		maxInputLength = defaultMaxInputLength
	}
	return &Service{
		maxInputLength:   maxInputLength,
		contentFiltering: contentFiltering,
		sanitizeOutputs:  sanitizeOutputs,
	}
}

// SanitizeDecision escapes HTML, enforces the length ceiling, and
// collapses runs of whitespace in a user decision.
func (s *Service) SanitizeDecision(decision string) string {
	decision = html.EscapeString(decision)

	// Length ceiling counts runes so multibyte input is never split
	if runes := []rune(decision); len(runes) > s.maxInputLength {
		decision = string(runes[:s.maxInputLength]) + "..."
	}

	decision = whitespacePattern.ReplaceAllString(decision, " ")
	return strings.TrimSpace(decision)
}

// ValidateMode returns mode if supported, otherwise the realistic default
func (s *Service) ValidateMode(mode string) string {
	if models.IsValidMode(mode) {
		return mode
	}
	return models.ModeRealistic
}

// CheckContentSafety gates simulation inputs. It only blocks genuinely
// harmful prompts; everything else passes.
func (s *Service) CheckContentSafety(text string) SafetyResult {
	if !s.contentFiltering {
		return SafetyResult{Safe: true}
	}
	if selfHarmPattern.MatchString(text) {
		return SafetyResult{Safe: false, Reason: "self-harm content"}
	}
	return SafetyResult{Safe: true}
}

// SanitizeOutput strips injection vectors from LLM-generated text
// before it reaches a page or the SVG renderer.
func (s *Service) SanitizeOutput(text string) string {
	if !s.sanitizeOutputs {
		return text
	}
	text = scriptTagPattern.ReplaceAllString(text, "")
	text = jsURIPattern.ReplaceAllString(text, "")
	return html.EscapeString(text)
}
