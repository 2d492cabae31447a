// Package sanitize decides whether candidate assistant text is genuine
// user-facing content or leaked tool/recommendation noise, and cleans it for
// transcript display and speech synthesis.
//
// Sanitize is a pure function: no I/O, deterministic, and idempotent on its
// non-empty outputs. An empty result means "suppress" - do not display, do
// not speak.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// Ellipsis is appended when cleaned text exceeds the length cap. Downstream
// speech synthesis has a practical utterance-length ceiling.
const Ellipsis = "…"

var (
	nameFieldPattern = regexp.MustCompile(`"name"\s*:\s*"`)
	argsFieldPattern = regexp.MustCompile(`"arguments"\s*:\s*\{`)

	// genericSolicitation matches auto-generated "怎么/如何 ... 吗/呢?" style
	// follow-up suggestions.
	genericSolicitation = regexp.MustCompile(`(怎么|如何).*[吗呢][？?]$`)

	// youCanAskPattern strips "您可以 ... 问我 ..." boilerplate sentences.
	youCanAskPattern = regexp.MustCompile(`您可以[^。！？!?]*问我[^。！？!?]*[。！？!?]?`)

	newlineRun = regexp.MustCompile(`\n{3,}`)
	spaceRun   = regexp.MustCompile(` {3,}`)
)

// Config holds the tunable parts of the sanitizer. The phrase and marker
// lists are heuristics inherited from product behavior, not a contract;
// adjust them through configuration rather than code.
type Config struct {
	// Denylist suppresses any text containing one of these tool/plugin
	// identifier substrings.
	Denylist []string

	// InternalIDs suppresses text containing known internal numeric
	// identifiers that occasionally leak from tool payloads.
	InternalIDs []string

	// SolicitationPhrases mark short trailing questions as auto-generated
	// follow-up suggestions rather than genuine assistant questions.
	SolicitationPhrases []string

	// TailMarkers introduce trailing "recommended questions" sections; the
	// marker and everything after it is stripped.
	TailMarkers []string

	// MaxRunes caps the cleaned text length; longer text is truncated and
	// suffixed with Ellipsis. Defaults to 300.
	MaxRunes int

	// MinRunes is the minimum length of a valid reply. Defaults to 5.
	MinRunes int

	// QuestionMaxRunes bounds the recommended-question heuristic; questions
	// at or above this length are considered genuine. Defaults to 30.
	QuestionMaxRunes int
}

// DefaultConfig returns the sanitizer configuration matching observed
// upstream behavior.
func DefaultConfig() Config {
	return Config{
		Denylist: []string{
			"plugin_id",
			"api_id",
			"function_call",
			"tool_call",
			"arguments",
			"plugin_name",
			`"name":`,
			`"arguments":`,
		},
		SolicitationPhrases: []string{
			"您想了解",
			"需要我为您",
			"我可以为您",
			"推荐",
			"建议",
		},
		TailMarkers: []string{
			"推荐问题:",
			"推荐问题：",
			"相关推荐:",
			"相关推荐：",
			"您还可以问:",
			"您还可以问：",
			"建议问题:",
			"建议问题：",
		},
		MaxRunes:         300,
		MinRunes:         5,
		QuestionMaxRunes: 30,
	}
}

// Sanitizer applies the suppression and cleaning pipeline.
type Sanitizer struct {
	config Config
}

// New creates a Sanitizer. Zero-value numeric fields in config fall back to
// the defaults.
func New(config Config) *Sanitizer {
	defaults := DefaultConfig()
	if config.MaxRunes == 0 {
		config.MaxRunes = defaults.MaxRunes
	}
	if config.MinRunes == 0 {
		config.MinRunes = defaults.MinRunes
	}
	if config.QuestionMaxRunes == 0 {
		config.QuestionMaxRunes = defaults.QuestionMaxRunes
	}

	return &Sanitizer{config: config}
}

// Sanitize is a convenience wrapper applying DefaultConfig.
func Sanitize(raw string) string {
	return New(DefaultConfig()).Sanitize(raw)
}

// Sanitize runs the pipeline: structural, keyword, pattern, and
// recommended-question rejection, then control-character stripping,
// boilerplate removal, whitespace normalization, the length cap, and a final
// validity check. Any panic suppresses the text entirely - a partially
// cleaned string must never reach speech or transcript.
func (s *Sanitizer) Sanitize(raw string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()

	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	if s.rejects(text) {
		return ""
	}

	text = stripControl(text)
	text = s.stripBoilerplate(text)
	text = normalizeWhitespace(text)

	// Cleaning can surface noise that was buried in the raw text; check the
	// cleaned form too so sanitizing an output is a no-op.
	if s.rejects(text) {
		return ""
	}

	runes := []rune(text)
	if len(runes) > s.config.MaxRunes {
		text = string(runes[:s.config.MaxRunes]) + Ellipsis
	}

	if !s.valid(text) {
		return ""
	}

	return text
}

// rejects applies the short-circuit suppression checks in order: structural,
// keyword denylist, pattern shapes, recommended-question heuristic.
func (s *Sanitizer) rejects(text string) bool {
	// Upstream sometimes leaks raw tool-invocation JSON into the text
	// channel; it must never reach speech or transcript.
	if strings.HasPrefix(text, "{") {
		return true
	}

	for _, kw := range s.config.Denylist {
		if strings.Contains(text, kw) {
			return true
		}
	}

	if nameFieldPattern.MatchString(text) || argsFieldPattern.MatchString(text) {
		return true
	}

	for _, id := range s.config.InternalIDs {
		if id != "" && strings.Contains(text, id) {
			return true
		}
	}

	return s.looksLikeRecommendedQuestion(text)
}

// looksLikeRecommendedQuestion distinguishes genuine short questions from
// auto-generated "suggested follow-up" noise. The length threshold and
// phrase set are fuzzy by design.
func (s *Sanitizer) looksLikeRecommendedQuestion(text string) bool {
	if !strings.HasSuffix(text, "？") && !strings.HasSuffix(text, "?") {
		return false
	}

	if len([]rune(text)) >= s.config.QuestionMaxRunes {
		return false
	}

	for _, phrase := range s.config.SolicitationPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}

	return genericSolicitation.MatchString(text)
}

// stripBoilerplate drops trailing recommended-question sections and
// "您可以 ... 问我 ..." sentences.
func (s *Sanitizer) stripBoilerplate(text string) string {
	for _, marker := range s.config.TailMarkers {
		if idx := strings.Index(text, marker); idx >= 0 {
			text = text[:idx]
		}
	}

	return youCanAskPattern.ReplaceAllString(text, "")
}

// stripControl removes C0 and C1 control characters anywhere in the string.
// Newlines and tabs survive; whitespace normalization handles them next.
func stripControl(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
			return -1
		}
		return r
	}, text)
}

func normalizeWhitespace(text string) string {
	text = newlineRun.ReplaceAllString(text, "\n\n")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// valid rejects text that is too short or consists only of whitespace,
// punctuation, and symbols.
func (s *Sanitizer) valid(text string) bool {
	if len([]rune(text)) < s.config.MinRunes {
		return false
	}

	for _, r := range text {
		if !unicode.IsSpace(r) && !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return true
		}
	}

	return false
}
