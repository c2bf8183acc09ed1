package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	check "gopkg.in/check.v1"

	"github.com/ferretsearch/ferret/queue/queuetest"
)

var _ = check.Suite(new(inMemoryQueueTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

// inMemoryQueueTestSuite embeds and runs the BaseSuite test methods against
// the in-memory queue implementation.
type inMemoryQueueTestSuite struct {
	q *Queue
	queuetest.BaseSuite
}

func (s *inMemoryQueueTestSuite) SetUpTest(c *check.C) {
	s.q = NewQueue()
	s.SetQueue(s.q)
}

// TestFailureInjection verifies the push failure hook used by the crawler
// enqueue-retry tests.
func (s *inMemoryQueueTestSuite) TestFailureInjection(c *check.C) {
	ctx := context.Background()
	boom := errors.New("redis connection lost")

	s.q.FailPushes(boom)
	c.Assert(s.q.Push(ctx, "job"), check.Equals, boom)

	s.q.FailPushes(nil)
	c.Assert(s.q.Push(ctx, "job"), check.IsNil)
}

func (s *inMemoryQueueTestSuite) TestCacheTTLEviction(c *check.C) {
	ctx := context.Background()
	cache := NewCache()

	base := time.Now()
	cache.now = func() time.Time { return base }

	c.Assert(cache.Set(ctx, "q", []byte("results"), time.Minute), check.IsNil)

	got, err := cache.Get(ctx, "q")
	c.Assert(err, check.IsNil)
	c.Assert(string(got), check.Equals, "results")

	cache.now = func() time.Time { return base.Add(2 * time.Minute) }

	_, err = cache.Get(ctx, "q")
	c.Assert(err, check.Not(check.IsNil))
}
