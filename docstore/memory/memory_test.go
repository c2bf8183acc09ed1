package memory

import (
	"testing"

	check "gopkg.in/check.v1"

	"github.com/ferretsearch/ferret/docstore/storetest"
)

var _ = check.Suite(new(inMemoryStoreTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

// inMemoryStoreTestSuite embeds and runs the BaseSuite test methods against
// the in-memory store implementation.
type inMemoryStoreTestSuite struct {
	storetest.BaseSuite
}

// SetUpTest runs before each test and provides a fresh empty store so tests
// remain independent.
func (s *inMemoryStoreTestSuite) SetUpTest(c *check.C) {
	s.SetStore(NewStore())
}
