package steps

import (
	"strings"
	"unicode"
)

// tokenize lowercases and splits an utterance into word tokens, stripping
// punctuation. Hyphens and apostrophes inside words survive so "don't" and
// "short-term" stay single tokens.
func tokenize(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(s, func(r rune) bool {
		if r == '\'' || r == '-' {
			return false
		}
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, t := range tokenize(s) {
		out[t] = true
	}
	return out
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
// Multi-word phrases match as consecutive tokens.
func containsPhrase(text, phrase string) bool {
	words := tokenize(phrase)
	if len(words) == 0 {
		return false
	}
	tokens := tokenize(text)
	if len(words) == 1 {
		for _, t := range tokens {
			if t == words[0] {
				return true
			}
		}
		return false
	}
	for i := 0; i+len(words) <= len(tokens); i++ {
		match := true
		for j, w := range words {
			if tokens[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// containsAny returns the first phrase from the list found in text, or "".
func containsAny(text string, phrases []string) string {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return p
		}
	}
	return ""
}

// overlapCount counts how many of the given phrases occur in text.
func overlapCount(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if containsPhrase(text, p) {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
