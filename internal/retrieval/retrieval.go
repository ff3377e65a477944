package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"manuals-rag/internal/config"
	"manuals-rag/internal/domains"
	"manuals-rag/internal/models"
	"manuals-rag/internal/reranker"
)

// Searcher is the similarity-search collaborator contract.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, k int, filter *domains.Filter) ([]models.RetrievedDocument, error)
	Domains(ctx context.Context) (map[string]bool, error)
}

// Summary describes one retrieval pass for diagnostics and prompt
// construction.
type Summary struct {
	DocumentsFound int      `json:"documents_found"`
	Domains        []string `json:"domains"`
	Files          []string `json:"files"`
	DomainHint     string   `json:"domain_hint"`
}

// Result is the assembled output of one query: the surviving passages,
// the citation-ready context string, and the summary. Empty Documents
// with a nil error means nothing matched, which is not a failure.
type Result struct {
	Documents []models.RetrievedDocument
	Context   string
	Summary   Summary
}

// Orchestrator drives the retrieval pipeline: domain filter, initial
// similarity search, re-ranking, context assembly. Stateless per query;
// safe for concurrent use.
type Orchestrator struct {
	searcher   Searcher
	classifier *domains.Classifier
	reranker   *reranker.Reranker
	cfg        config.RetrievalConfig
}

func NewOrchestrator(searcher Searcher, classifier *domains.Classifier, rr *reranker.Reranker, cfg config.RetrievalConfig) *Orchestrator {
	return &Orchestrator{
		searcher:   searcher,
		classifier: classifier,
		reranker:   rr,
		cfg:        cfg,
	}
}

// Retrieve runs the three-stage pipeline. A failed filtered search is
// retried once without the filter before the error surfaces.
func (o *Orchestrator) Retrieve(ctx context.Context, query string) (Result, error) {
	result := Result{Summary: Summary{DomainHint: o.classifier.Hint(query)}}

	var filter *domains.Filter
	if o.cfg.EnableDomainFilter {
		available, err := o.searcher.Domains(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Could not list store domains, searching unfiltered")
		} else {
			filter = o.classifier.BuildFilter(query, available)
		}
	}

	docs, err := o.searcher.SimilaritySearch(ctx, query, o.cfg.InitialK, filter)
	if err != nil && filter != nil {
		log.Warn().Err(err).Strs("domains", filter.Domains).Msg("Filtered search failed, retrying without filter")
		docs, err = o.searcher.SimilaritySearch(ctx, query, o.cfg.InitialK, nil)
	}
	if err != nil {
		return Result{}, fmt.Errorf("similarity search failed: %w", err)
	}
	if len(docs) == 0 {
		return result, nil
	}

	docs = o.reranker.Rerank(ctx, query, docs, o.cfg.TopK)

	result.Documents = docs
	result.Context = buildContext(docs)
	result.Summary = buildSummary(docs, result.Summary.DomainHint)
	return result, nil
}

// RerankerStatus exposes the re-ranker state for the diagnostics
// surface.
func (o *Orchestrator) RerankerStatus() string {
	return o.reranker.Status()
}

// buildContext renders each passage under a SOURCE | PAGE | SECTION
// header line, joined by a separator line.
func buildContext(docs []models.RetrievedDocument) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		sourceInfo := fmt.Sprintf("SOURCE: %s | PAGE: %s", doc.Filename(), doc.Page())
		if section := doc.Section(); section != "" {
			sourceInfo += fmt.Sprintf(" | SECTION: %s", section)
		}
		parts = append(parts, fmt.Sprintf("\n%s\n%s\n", sourceInfo, doc.Content))
	}
	return strings.Join(parts, models.ContextSeparator)
}

func buildSummary(docs []models.RetrievedDocument, hint string) Summary {
	domainSet := map[string]bool{}
	fileSet := map[string]bool{}
	for _, doc := range docs {
		if d := doc.Domain(); d != "" {
			domainSet[d] = true
		}
		fileSet[doc.Filename()] = true
	}
	return Summary{
		DocumentsFound: len(docs),
		Domains:        sortedKeys(domainSet),
		Files:          sortedKeys(fileSet),
		DomainHint:     hint,
	}
}

// FormatSources renders deduplicated citations, one per source page.
func FormatSources(docs []models.RetrievedDocument) string {
	if len(docs) == 0 {
		return ""
	}
	seen := map[string]bool{}
	var lines []string
	for _, doc := range docs {
		key := doc.Filename() + "|" + doc.Page()
		if seen[key] {
			continue
		}
		seen[key] = true
		lines = append(lines, fmt.Sprintf("**%s**, Page %s", doc.Filename(), doc.Page()))
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
