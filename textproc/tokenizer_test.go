package textproc

import (
	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(TokenizerTestSuite))

type TokenizerTestSuite struct{}

func (s *TokenizerTestSuite) TestTokenizeBasics(c *check.C) {
	tokens := Tokenize("Hello, World! Hello again")
	c.Assert(tokens, check.DeepEquals, []string{"hello", "world", "hello", "again"})
}

func (s *TokenizerTestSuite) TestShortTokensDiscarded(c *check.C) {
	tokens := Tokenize("a an of the fox ran by")
	c.Assert(tokens, check.DeepEquals, []string{"the", "fox", "ran"})
}

func (s *TokenizerTestSuite) TestAlphanumericRunsSplitOnPunctuation(c *check.C) {
	tokens := Tokenize("state-of-the-art HTTP/2 web2025")
	c.Assert(tokens, check.DeepEquals, []string{"state", "the", "art", "http", "web2025"})
}

func (s *TokenizerTestSuite) TestCaseFolding(c *check.C) {
	tokens := Tokenize("GoLang GOLANG golang")
	c.Assert(tokens, check.DeepEquals, []string{"golang", "golang", "golang"})
}

func (s *TokenizerTestSuite) TestEmptyInput(c *check.C) {
	c.Assert(len(Tokenize("")), check.Equals, 0)
	c.Assert(len(Tokenize("!!! ... ???")), check.Equals, 0)
}

func (s *TokenizerTestSuite) TestTermFrequencies(c *check.C) {
	freqs, total := TermFrequencies([]string{"hello", "world", "hello"})
	c.Assert(total, check.Equals, 3)
	c.Assert(freqs, check.DeepEquals, map[string]uint32{"hello": 2, "world": 1})
}

func (s *TokenizerTestSuite) TestNormalizeQueryFiltersStopWords(c *check.C) {
	terms := NormalizeQuery("What is the QUICK brown fox?")
	c.Assert(terms, check.DeepEquals, []string{"quick", "brown", "fox"})
}

func (s *TokenizerTestSuite) TestNormalizeQueryDropsShortTerms(c *check.C) {
	terms := NormalizeQuery("go is ok but golang rocks")
	c.Assert(terms, check.DeepEquals, []string{"golang", "rocks"})
}
