package reranker

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"manuals-rag/internal/models"
)

// Scorer is a cross-encoder style relevance scorer: it jointly encodes
// a query and one passage and returns a relevance score, higher is more
// relevant.
type Scorer interface {
	Score(ctx context.Context, query, passage string) (float64, error)
}

// ScorerLoader creates the shared scorer on first use. Returning an
// error disables re-ranking for the process lifetime.
type ScorerLoader func() (Scorer, error)

// rankedDocument pairs a document with its relevance score during the
// sort step.
type rankedDocument struct {
	doc   models.RetrievedDocument
	score float64
}

// Reranker re-orders retrieved passages by cross-encoder relevance.
// The scorer is initialized lazily exactly once and shared read-only
// across concurrent queries. Scoring failure is never fatal: the input
// order, truncated to topK, is the fallback.
type Reranker struct {
	enabled bool
	loader  ScorerLoader

	once   sync.Once
	scorer Scorer
}

func New(enabled bool, loader ScorerLoader) *Reranker {
	return &Reranker{enabled: enabled, loader: loader}
}

func (r *Reranker) load() Scorer {
	r.once.Do(func() {
		if r.loader == nil {
			return
		}
		s, err := r.loader()
		if err != nil {
			log.Warn().Err(err).Msg("Re-ranker unavailable, falling back to retrieval order")
			return
		}
		r.scorer = s
	})
	return r.scorer
}

// Rerank scores every (query, passage) pair, sorts descending by score
// with a stable tie-break on original order, and truncates to topK.
// When re-ranking is disabled or the scorer is unavailable or errors,
// the first topK documents are returned in their original order.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []models.RetrievedDocument, topK int) []models.RetrievedDocument {
	if len(docs) == 0 {
		return nil
	}
	if !r.enabled {
		return head(docs, topK)
	}

	scorer := r.load()
	if scorer == nil {
		return head(docs, topK)
	}

	ranked := make([]rankedDocument, 0, len(docs))
	for _, doc := range docs {
		score, err := scorer.Score(ctx, query, doc.Content)
		if err != nil {
			log.Warn().Err(err).Msg("Re-ranking failed, returning retrieval order")
			return head(docs, topK)
		}
		ranked = append(ranked, rankedDocument{doc: doc, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if topK < len(ranked) {
		ranked = ranked[:topK]
	}
	out := make([]models.RetrievedDocument, len(ranked))
	for i, rd := range ranked {
		out[i] = rd.doc
	}
	return out
}

// Active reports whether re-ranking will actually score passages.
func (r *Reranker) Active() bool {
	return r.enabled && r.load() != nil
}

// Status describes the re-ranker state for diagnostics.
func (r *Reranker) Status() string {
	if !r.enabled {
		return "Disabled in config"
	}
	if r.load() == nil {
		return "Not available"
	}
	return "Active"
}

func head(docs []models.RetrievedDocument, topK int) []models.RetrievedDocument {
	if topK > len(docs) {
		topK = len(docs)
	}
	return docs[:topK]
}
