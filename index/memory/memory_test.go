package memory

import (
	"testing"

	check "gopkg.in/check.v1"

	"github.com/ferretsearch/ferret/index/indextest"
)

var _ = check.Suite(new(inMemoryIndexTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

// inMemoryIndexTestSuite embeds and runs the BaseSuite test methods against
// the in-memory index implementation.
type inMemoryIndexTestSuite struct {
	indextest.BaseSuite
}

func (s *inMemoryIndexTestSuite) SetUpTest(c *check.C) {
	s.SetIndex(NewStore())
}
