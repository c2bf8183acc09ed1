package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLength is the shortest token the index keeps. The same cutoff is
// applied to query terms so both vocabularies stay aligned.
const minTokenLength = 3

// stopWords are filtered from queries only. Documents index them as-is;
// they simply never match because no query retains them.
var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "all": {}, "and": {}, "any": {},
	"are": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"but": {}, "can": {}, "could": {}, "did": {}, "does": {},
	"doing": {}, "for": {}, "from": {}, "had": {}, "has": {},
	"have": {}, "having": {}, "her": {}, "here": {}, "him": {},
	"his": {}, "how": {}, "into": {}, "its": {}, "just": {},
	"more": {}, "most": {}, "not": {}, "now": {}, "off": {},
	"once": {}, "only": {}, "our": {}, "out": {}, "over": {},
	"own": {}, "same": {}, "she": {}, "should": {}, "some": {},
	"such": {}, "than": {}, "that": {}, "the": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "those": {}, "through": {}, "under": {}, "until": {},
	"very": {}, "was": {}, "were": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "who": {}, "whom": {},
	"why": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// Tokenize splits text into the canonical token stream: maximal runs of
// alphanumeric characters, case-folded to lower, with tokens shorter than
// three characters discarded.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLength {
			continue
		}

		tokens = append(tokens, strings.ToLower(f))
	}

	return tokens
}

// TermFrequencies folds a token stream into per-term counts. total is the
// pre-deduplication token count, which becomes the document's doc_length.
func TermFrequencies(tokens []string) (freqs map[string]uint32, total int) {
	freqs = make(map[string]uint32, len(tokens))

	for _, t := range tokens {
		freqs[t]++
	}

	return freqs, len(tokens)
}

// NormalizeQuery applies the canonical tokenizer to a raw query string and
// filters stop words. The result is the term list the ranker scores with.
func NormalizeQuery(q string) []string {
	tokens := Tokenize(q)

	terms := tokens[:0]
	for _, t := range tokens {
		if _, isStop := stopWords[t]; isStop {
			continue
		}

		terms = append(terms, t)
	}

	return terms
}
