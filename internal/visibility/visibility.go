// Package visibility scores how prominently an item was featured in a
// generated answer-engine response. Earlier positional mentions count
// more, and a sentence citing multiple items splits credit among them.
package visibility

import (
	"math"
	"strings"
	"unicode"
)

// Score computes the citation-position-weighted visibility of itemID in
// the generated text. For each sentence containing the literal itemID
// substring it adds exp(-i/N)/c, where i is the 0-based sentence index,
// N the total sentence count (min 1), and c the number of bracket
// citation markers in that sentence (min 1). The sum is rounded to 4
// decimals. Empty text yields 0.0 exactly.
func Score(generatedText, itemID string) float64 {
	if generatedText == "" || itemID == "" {
		return 0.0
	}

	sentences := SplitSentences(generatedText)
	n := len(sentences)
	if n < 1 {
		return 0.0
	}

	total := 0.0
	for i, sentence := range sentences {
		if !strings.Contains(sentence, itemID) {
			continue
		}
		citations := strings.Count(sentence, "[")
		if citations < 1 {
			citations = 1
		}
		total += math.Exp(-float64(i)/float64(n)) / float64(citations)
	}

	return math.Round(total*10000) / 10000
}

// SplitSentences splits text on sentence terminators (., !, ?) followed
// by whitespace. The terminator stays with its sentence; blank fragments
// are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		// Split only when the terminator ends the text or precedes whitespace
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
