// Package queuetest provides a reusable test suite that exercises the
// queue.Queue contract.
package queuetest

import (
	"context"
	"errors"
	"time"

	check "gopkg.in/check.v1"

	"github.com/ferretsearch/ferret/queue"
)

// BaseSuite defines a set of re-usable queue tests that can be executed
// against any concrete type that implements the queue.Queue interface.
type BaseSuite struct {
	q queue.Queue
}

// SetQueue sets the queue implementation under test.
func (s *BaseSuite) SetQueue(q queue.Queue) {
	s.q = q
}

// TestFIFOOrder verifies push/pop ordering.
func (s *BaseSuite) TestFIFOOrder(c *check.C) {
	ctx := context.Background()

	for _, v := range []string{"first", "second", "third"} {
		c.Assert(s.q.Push(ctx, v), check.IsNil)
	}

	for _, want := range []string{"first", "second", "third"} {
		got, err := s.q.Pop(ctx)
		c.Assert(err, check.IsNil)
		c.Assert(got, check.Equals, want)
	}
}

// TestPopOnEmpty verifies the non-blocking ErrEmpty contract the crawler's
// polling loop relies on.
func (s *BaseSuite) TestPopOnEmpty(c *check.C) {
	_, err := s.q.Pop(context.Background())
	c.Assert(errors.Is(err, queue.ErrEmpty), check.Equals, true)
}

// TestLen verifies queue length reporting used by the seed-if-empty check.
func (s *BaseSuite) TestLen(c *check.C) {
	ctx := context.Background()

	n, err := s.q.Len(ctx)
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, int64(0))

	c.Assert(s.q.Push(ctx, "job"), check.IsNil)

	n, err = s.q.Len(ctx)
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, int64(1))
}

// TestBPopDeliversPushedValue verifies that a blocked pop wakes when a value
// arrives.
func (s *BaseSuite) TestBPopDeliversPushedValue(c *check.C) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	popped := make(chan string, 1)
	go func() {
		value, err := s.q.BPop(ctx)
		c.Check(err, check.IsNil)
		popped <- value
	}()

	// Give the popper a moment to block before pushing.
	time.Sleep(50 * time.Millisecond)
	c.Assert(s.q.Push(ctx, "wakeup"), check.IsNil)

	select {
	case value := <-popped:
		c.Assert(value, check.Equals, "wakeup")
	case <-ctx.Done():
		c.Fatal("BPop never returned the pushed value")
	}
}

// TestBPopHonoursContext verifies that cancellation unblocks a waiting pop.
func (s *BaseSuite) TestBPopHonoursContext(c *check.C) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := s.q.BPop(ctx)
	c.Assert(errors.Is(err, context.DeadlineExceeded), check.Equals, true)
}
