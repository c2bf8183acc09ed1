package ranker

import (
	"bufio"
	"strings"
	"unicode"
)

// snippetGenerator builds a short highlighted excerpt around the densest
// occurrence of the query terms in a document's text.
type snippetGenerator struct {
	terms  map[string]struct{}
	maxLen int
}

func newSnippetGenerator(terms []string, maxLen int) *snippetGenerator {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}

	return &snippetGenerator{terms: set, maxLen: maxLen}
}

// Snippet returns at most maxLen characters of context around the sentence
// with the highest ratio of query terms, wrapping each matched term in bold
// markers. It returns the empty string when no term occurs in the text.
func (g *snippetGenerator) Snippet(text string) string {
	best, bestRatio := "", float64(0)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanSentences)

	for scanner.Scan() {
		sentence := strings.TrimSpace(scanner.Text())
		if sentence == "" {
			continue
		}

		if ratio := g.matchRatio(sentence); ratio > bestRatio {
			best, bestRatio = sentence, ratio
		}
	}

	if best == "" {
		return ""
	}

	return g.highlight(g.truncate(best))
}

// matchRatio computes the ratio of matched query terms to total words in a
// sentence.
func (g *snippetGenerator) matchRatio(sentence string) float64 {
	var wordCount, matchedCount int

	scanner := bufio.NewScanner(strings.NewReader(sentence))
	scanner.Split(bufio.ScanWords)

	for ; scanner.Scan(); wordCount++ {
		if g.isMatch(scanner.Text()) {
			matchedCount++
		}
	}

	if wordCount == 0 {
		wordCount = 1
	}

	return float64(matchedCount) / float64(wordCount)
}

// truncate trims a sentence to the configured maximum, cutting at a word
// boundary where possible.
func (g *snippetGenerator) truncate(sentence string) string {
	runes := []rune(sentence)
	if len(runes) <= g.maxLen {
		return sentence
	}

	truncated := string(runes[:g.maxLen])
	if i := strings.LastIndexByte(truncated, ' '); i > 0 {
		truncated = truncated[:i]
	}

	return truncated + "..."
}

// highlight wraps every word matching a query term in bold markers.
func (g *snippetGenerator) highlight(sentence string) string {
	words := strings.Fields(sentence)

	for i, word := range words {
		if g.isMatch(word) {
			words[i] = "<b>" + word + "</b>"
		}
	}

	return strings.Join(words, " ")
}

// isMatch reports whether a raw word, stripped of surrounding punctuation
// and case-folded, is one of the query terms.
func (g *snippetGenerator) isMatch(word string) bool {
	folded := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}))

	_, matched := g.terms[folded]

	return matched
}

// scanSentences is a bufio.SplitFunc that emits one sentence per token,
// splitting after '.', '!' and '?'.
func scanSentences(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	for i, b := range data {
		if b == '.' || b == '!' || b == '?' {
			return i + 1, data[:i+1], nil
		}
	}

	if atEOF {
		return len(data), data, nil
	}

	// Request more data.
	return 0, nil, nil
}
