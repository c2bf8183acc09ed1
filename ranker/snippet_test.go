package ranker

import (
	"strings"

	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(SnippetTestSuite))

type SnippetTestSuite struct{}

func (s *SnippetTestSuite) TestPicksDensestSentence(c *check.C) {
	gen := newSnippetGenerator([]string{"ferret", "burrow"}, 160)

	text := "Many animals live in the forest. The ferret dug a burrow near the ferret den. Nothing else matched here."

	snippet := gen.Snippet(text)
	c.Assert(snippet, check.Matches, ".*<b>ferret</b>.*<b>burrow</b>.*")
	c.Assert(strings.Contains(snippet, "forest"), check.Equals, false)
}

func (s *SnippetTestSuite) TestMatchingIsCaseInsensitive(c *check.C) {
	gen := newSnippetGenerator([]string{"keyword"}, 160)

	snippet := gen.Snippet("Test KEYWORD here.")
	c.Assert(snippet, check.Matches, ".*<b>KEYWORD</b>.*")
}

func (s *SnippetTestSuite) TestPunctuationAroundMatchIgnored(c *check.C) {
	gen := newSnippetGenerator([]string{"keyword"}, 160)

	snippet := gen.Snippet("Data about keyword, and more.")
	c.Assert(snippet, check.Matches, ".*<b>keyword,</b>.*")
}

func (s *SnippetTestSuite) TestNoMatchYieldsEmptySnippet(c *check.C) {
	gen := newSnippetGenerator([]string{"absent"}, 160)

	c.Assert(gen.Snippet("Nothing relevant in this text."), check.Equals, "")
}

func (s *SnippetTestSuite) TestLongSentenceTruncatedAtWordBoundary(c *check.C) {
	gen := newSnippetGenerator([]string{"needle"}, 40)

	text := "The needle is hiding somewhere inside this excessively long sentence that goes on and on without any punctuation to stop it"

	snippet := gen.Snippet(text)
	c.Assert(strings.HasSuffix(snippet, "..."), check.Equals, true)
	// Bold markers may stretch the final string; the visible text stays
	// within the configured limit.
	visible := strings.NewReplacer("<b>", "", "</b>", "").Replace(snippet)
	c.Assert(len(visible) <= 40+len("..."), check.Equals, true)
}
