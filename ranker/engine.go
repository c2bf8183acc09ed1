/*
	Package ranker implements query scoring over the inverted index and the
	HTTP service that exposes it. Documents are scored with Okapi BM25
	(k1 = 1.2, b = 0.75) using the term frequencies stored in the posting
	lists and the document lengths recorded by the indexer.
*/
package ranker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ferretsearch/ferret/docstore"
	"github.com/ferretsearch/ferret/index"
	"github.com/ferretsearch/ferret/queue"
	"github.com/ferretsearch/ferret/textproc"
	"github.com/ferretsearch/ferret/warc"
)

// BM25 constants.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Result is one ranked search hit.
type Result struct {
	ID      int64   `json:"id"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Engine scores queries against the inverted index and joins the winners
// with their document metadata.
type Engine struct {
	config Config

	// Cached corpus stats; recomputed lazily after StatsTTL.
	statsMu        sync.Mutex
	stats          docstore.Stats
	statsFetchedAt time.Time
}

// NewEngine returns a ready-to-query Engine.
func NewEngine(config Config) (*Engine, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("ranker: config validation failed: %w", err)
	}

	return &Engine{config: config}, nil
}

// Search runs the full query pipeline and returns up to TopK ranked results.
// A query with no usable terms or no matching documents yields an empty,
// non-nil slice.
func (e *Engine) Search(ctx context.Context, query string) ([]Result, error) {
	terms := textproc.NormalizeQuery(query)
	if len(terms) == 0 {
		return []Result{}, nil
	}

	cacheKey := strings.Join(terms, " ")
	if cached, ok := e.cachedResults(ctx, cacheKey); ok {
		return cached, nil
	}

	// Gather the posting list of every term; missing terms contribute an
	// empty list rather than an error.
	postingsByTerm := make(map[string][]index.Posting, len(terms))
	candidates := make(map[int64]struct{})

	for _, term := range terms {
		postings, err := e.config.Index.Postings(term)
		if err != nil {
			return nil, fmt.Errorf("ranker: postings for %q: %w", term, err)
		}

		postingsByTerm[term] = postings
		for _, p := range postings {
			candidates[p.DocID] = struct{}{}
		}
	}

	if len(candidates) == 0 {
		return []Result{}, nil
	}

	ids := make([]int64, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}

	meta, err := e.config.DocStore.Metadata(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("ranker: metadata: %w", err)
	}

	stats, err := e.corpusStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("ranker: stats: %w", err)
	}

	scores := e.scoreBM25(postingsByTerm, meta, stats)

	ranked := rankCandidates(scores, e.config.TopK)

	results := make([]Result, 0, len(ranked))
	snippets := newSnippetGenerator(terms, e.config.MaxSnippetLen)

	for _, docID := range ranked {
		m := meta[docID]

		results = append(results, Result{
			ID:      docID,
			URL:     m.URL,
			Title:   m.Title,
			Snippet: e.snippetFor(ctx, docID, snippets),
			Score:   scores[docID],
		})
	}

	e.storeResults(ctx, cacheKey, results)

	return results, nil
}

// scoreBM25 accumulates the per-term BM25 contributions for every candidate
// document.
func (e *Engine) scoreBM25(
	postingsByTerm map[string][]index.Posting,
	meta map[int64]docstore.DocMeta,
	stats docstore.Stats,
) map[int64]float64 {

	n := float64(stats.TotalDocs)
	if n == 0 {
		n = 1
	}

	avgdl := stats.AvgDocLength
	if avgdl == 0 {
		avgdl = 1
	}

	scores := make(map[int64]float64)

	for _, postings := range postingsByTerm {
		if len(postings) == 0 {
			continue
		}

		nt := float64(len(postings))
		idf := math.Log((n-nt+0.5)/(nt+0.5) + 1)

		for _, p := range postings {
			tf := float64(p.Frequency)

			// Fall back to the corpus average for documents crawled but not
			// yet indexed, so a lagging indexer never zeroes the score.
			docLen := avgdl
			if m, exists := meta[p.DocID]; exists && m.DocLength > 0 {
				docLen = float64(m.DocLength)
			}

			numerator := idf * tf * (bm25K1 + 1)
			denominator := tf + bm25K1*(1-bm25B+bm25B*(docLen/avgdl))

			scores[p.DocID] += numerator / denominator
		}
	}

	return scores
}

// rankCandidates orders candidates by descending score, breaking ties by
// ascending document id for deterministic output, and keeps the top k.
func rankCandidates(scores map[int64]float64, k int) []int64 {
	ranked := make([]int64, 0, len(scores))
	for id := range scores {
		ranked = append(ranked, id)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}

		return ranked[i] < ranked[j]
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	return ranked
}

// snippetFor re-reads the document's page text from the archive and builds
// a highlighted snippet. Snippet failures degrade to an empty snippet.
func (e *Engine) snippetFor(ctx context.Context, docID int64, gen *snippetGenerator) string {
	if e.config.ArchiveRoot == "" {
		return ""
	}

	loc, err := e.config.DocStore.Locator(ctx, docID)
	if err != nil || loc.FilePath == "" {
		return ""
	}

	_, payload, err := warc.ReadRecord(
		filepath.Join(e.config.ArchiveRoot, loc.FilePath), loc.Offset, loc.Length, 0,
	)
	if err != nil {
		e.config.Logger.WithField("doc_id", docID).WithField("err", err).Debug(
			"snippet source read failed",
		)

		return ""
	}

	text, _ := textproc.ExtractText(payload)

	return gen.Snippet(text)
}

// corpusStats returns the cached corpus aggregates, refreshing them when
// they are older than StatsTTL.
func (e *Engine) corpusStats(ctx context.Context) (docstore.Stats, error) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	now := e.config.Clock.Now()
	if !e.statsFetchedAt.IsZero() && now.Sub(e.statsFetchedAt) < e.config.StatsTTL {
		return e.stats, nil
	}

	stats, err := e.config.DocStore.Stats(ctx)
	if err != nil {
		return docstore.Stats{}, err
	}

	e.stats = stats
	e.statsFetchedAt = now

	return stats, nil
}

func (e *Engine) cachedResults(ctx context.Context, key string) ([]Result, bool) {
	if e.config.Cache == nil {
		return nil, false
	}

	value, err := e.config.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, queue.ErrCacheMiss) {
			e.config.Logger.WithField("err", err).Warn("query cache read failed")
		}

		return nil, false
	}

	var results []Result
	if err := json.Unmarshal(value, &results); err != nil {
		return nil, false
	}

	return results, true
}

func (e *Engine) storeResults(ctx context.Context, key string, results []Result) {
	if e.config.Cache == nil {
		return
	}

	value, err := json.Marshal(results)
	if err != nil {
		return
	}

	if err := e.config.Cache.Set(ctx, key, value, e.config.CacheTTL); err != nil {
		e.config.Logger.WithField("err", err).Warn("query cache write failed")
	}
}
