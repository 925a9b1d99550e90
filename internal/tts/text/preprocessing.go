// Package text provides text preprocessing utilities for speech synthesis.
//
// Extracted PDF text carries hard line breaks, smart punctuation, and page
// artifacts that read poorly when synthesized. This package normalizes the
// text and splits it into request-sized chunks for the synthesis endpoint.
package text

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Regex patterns for text preprocessing.
const (
	whitespaceRegexPattern = `\s+`
	sentenceRegexPattern   = `[^.!?]*[.!?]+["')\]]*\s*|[^.!?]+$`
)

// Punctuation and formatting constants.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsis     = "..."
	ellipsisChar = "…"
)

// Normalizer prepares extracted text for synthesis.
type Normalizer struct {
	whitespacePattern *regexp.Regexp
	punctReplacer     *strings.Replacer
}

// NewNormalizer creates a normalizer with compiled patterns and replacers.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		whitespacePattern: regexp.MustCompile(whitespaceRegexPattern),
		punctReplacer: strings.NewReplacer(
			emDash, "-",
			enDash, "-",
			figureDash, "-",
			ellipsisChar, ellipsis,
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
		),
	}
}

// Normalize collapses whitespace, normalizes quotes and dashes, and ensures
// the text ends with sentence-final punctuation.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return text
	}

	normalized := n.whitespacePattern.ReplaceAllString(text, " ")
	normalized = n.punctReplacer.Replace(normalized)
	normalized = strings.TrimSpace(normalized)

	return ensureSentenceEnding(normalized)
}

// ensureSentenceEnding appends a period when the text does not already end
// with sentence-ending punctuation.
func ensureSentenceEnding(text string) string {
	if text == "" {
		return ""
	}

	lastChar, _ := utf8.DecodeLastRuneInString(text)

	switch lastChar {
	case '.', '!', '?':
		return text
	}

	if unicode.IsPunct(lastChar) {
		return text
	}

	return text + "."
}

var sentencePattern = regexp.MustCompile(sentenceRegexPattern)

// SplitChunks splits text into chunks no longer than maxLen bytes, preferring
// sentence boundaries, then word boundaries. Runs of text with no usable
// boundary are hard-split. Empty chunks are never produced, and no
// non-whitespace content is lost.
func SplitChunks(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if text == "" || maxLen <= 0 {
		return nil
	}

	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		current.Reset()
	}

	for _, sentence := range sentencePattern.FindAllString(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if len(sentence) > maxLen {
			flush()

			chunks = append(chunks, splitByWords(sentence, maxLen)...)

			continue
		}

		// +1 accounts for the joining space.
		if current.Len() > 0 && current.Len()+1+len(sentence) > maxLen {
			flush()
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}

		current.WriteString(sentence)
	}

	flush()

	return chunks
}

// splitByWords splits an over-long sentence at word boundaries, hard-splitting
// any single word longer than maxLen.
func splitByWords(sentence string, maxLen int) []string {
	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, word := range strings.Fields(sentence) {
		if len(word) > maxLen {
			flush()

			chunks = append(chunks, hardSplit(word, maxLen)...)

			continue
		}

		if current.Len() > 0 && current.Len()+1+len(word) > maxLen {
			flush()
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}

		current.WriteString(word)
	}

	flush()

	return chunks
}

// hardSplit cuts an unbroken run into maxLen-sized pieces without splitting a
// multi-byte rune.
func hardSplit(word string, maxLen int) []string {
	var chunks []string

	for len(word) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(word[cut]) {
			cut--
		}

		if cut == 0 {
			cut = maxLen
		}

		chunks = append(chunks, word[:cut])
		word = word[cut:]
	}

	if word != "" {
		chunks = append(chunks, word)
	}

	return chunks
}
