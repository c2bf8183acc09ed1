package ranker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	check "gopkg.in/check.v1"

	docmem "github.com/ferretsearch/ferret/docstore/memory"
	idxmem "github.com/ferretsearch/ferret/index/memory"
)

var _ = check.Suite(new(ServiceTestSuite))

type ServiceTestSuite struct {
	store *docmem.Store
	idx   *idxmem.Store
	svc   *Service
}

func (s *ServiceTestSuite) SetUpTest(c *check.C) {
	s.store = docmem.NewStore()
	s.idx = idxmem.NewStore()

	svc, err := New(Config{
		Index:    s.idx,
		DocStore: s.store,
	})
	c.Assert(err, check.IsNil)
	s.svc = svc
}

func (s *ServiceTestSuite) TestHealthEndpoint(c *check.C) {
	rec := httptest.NewRecorder()
	s.svc.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	c.Assert(rec.Code, check.Equals, http.StatusOK)

	var body map[string]string
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &body), check.IsNil)
	c.Assert(body, check.DeepEquals, map[string]string{
		"status":  "healthy",
		"service": "ranker",
	})
}

func (s *ServiceTestSuite) TestSearchEnvelope(c *check.C) {
	ctx := context.Background()

	id, err := s.store.Reserve(ctx, "https://example.test/hit")
	c.Assert(err, check.IsNil)
	c.Assert(s.store.SetDocLength(ctx, id, 3), check.IsNil)
	c.Assert(s.store.SetTitle(ctx, id, "The Hit"), check.IsNil)
	c.Assert(s.idx.Add("ferret", id, 2), check.IsNil)

	rec := httptest.NewRecorder()
	s.svc.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=ferret", nil))

	c.Assert(rec.Code, check.Equals, http.StatusOK)

	var resp searchResponse
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), check.IsNil)
	c.Assert(resp.Query, check.Equals, "ferret")
	c.Assert(resp.Meta.Count, check.Equals, 1)
	c.Assert(resp.Meta.LatencyMs >= 0, check.Equals, true)
	c.Assert(resp.Results[0].ID, check.Equals, id)
	c.Assert(resp.Results[0].URL, check.Equals, "https://example.test/hit")
	c.Assert(resp.Results[0].Title, check.Equals, "The Hit")
	c.Assert(resp.Results[0].Score > 0, check.Equals, true)
}

func (s *ServiceTestSuite) TestSearchWithEmptyQuery(c *check.C) {
	rec := httptest.NewRecorder()
	s.svc.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	c.Assert(rec.Code, check.Equals, http.StatusOK)

	var resp searchResponse
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), check.IsNil)
	c.Assert(resp.Meta.Count, check.Equals, 0)
	c.Assert(len(resp.Results), check.Equals, 0)
}
