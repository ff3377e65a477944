package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manuals-rag/internal/config"
	"manuals-rag/internal/domains"
	"manuals-rag/internal/models"
	"manuals-rag/internal/reranker"
)

type fakeSearcher struct {
	docs         []models.RetrievedDocument
	available    map[string]bool
	failFiltered bool
	failAlways   bool
	filters      []*domains.Filter
}

func (f *fakeSearcher) SimilaritySearch(ctx context.Context, query string, k int, filter *domains.Filter) ([]models.RetrievedDocument, error) {
	f.filters = append(f.filters, filter)
	if f.failAlways {
		return nil, fmt.Errorf("index unavailable")
	}
	if f.failFiltered && filter != nil {
		return nil, fmt.Errorf("filtered query unsupported")
	}
	if k > len(f.docs) {
		k = len(f.docs)
	}
	return f.docs[:k], nil
}

func (f *fakeSearcher) Domains(ctx context.Context) (map[string]bool, error) {
	return f.available, nil
}

func doc(id, filename, page, domain, section string) models.RetrievedDocument {
	return models.RetrievedDocument{
		ID:      id,
		Content: "content of " + id,
		Metadata: map[string]string{
			models.MetaFilename: filename,
			models.MetaPage:     page,
			models.MetaDomain:   domain,
			models.MetaSection:  section,
		},
	}
}

func newOrchestrator(searcher Searcher, cfg config.RetrievalConfig) *Orchestrator {
	classifier := domains.NewClassifier(config.DefaultDomains())
	rr := reranker.New(false, nil)
	return NewOrchestrator(searcher, classifier, rr, cfg)
}

func TestRetrieveBasic(t *testing.T) {
	searcher := &fakeSearcher{docs: []models.RetrievedDocument{
		doc("a", "Claims_Guide.pdf", "3", "claims", "PAYMENT POSTING"),
		doc("b", "Claims_Guide.pdf", "7", "claims", ""),
		doc("c", "Remit_Manual.pdf", "1", "remits", "ERA SETUP"),
	}}
	o := newOrchestrator(searcher, config.RetrievalConfig{InitialK: 20, TopK: 2})

	result, err := o.Retrieve(context.Background(), "how do I post a payment")
	require.NoError(t, err)
	require.Len(t, result.Documents, 2)

	assert.Contains(t, result.Context, "SOURCE: Claims_Guide.pdf | PAGE: 3 | SECTION: PAYMENT POSTING")
	assert.Contains(t, result.Context, "content of a")
	assert.Contains(t, result.Context, models.ContextSeparator)
	// no SECTION segment when the header is empty
	assert.Contains(t, result.Context, "SOURCE: Claims_Guide.pdf | PAGE: 7\n")

	assert.Equal(t, 2, result.Summary.DocumentsFound)
	assert.Equal(t, []string{"claims"}, result.Summary.Domains)
	assert.Equal(t, []string{"Claims_Guide.pdf"}, result.Summary.Files)
}

func TestRetrieveEmptyShortCircuits(t *testing.T) {
	searcher := &fakeSearcher{}
	o := newOrchestrator(searcher, config.RetrievalConfig{InitialK: 20, TopK: 8})

	result, err := o.Retrieve(context.Background(), "claim denial")
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
	assert.Empty(t, result.Context)
	// the domain hint survives even with no results
	assert.NotEmpty(t, result.Summary.DomainHint)
}

func TestRetrieveFilteredFailureRetriesUnfiltered(t *testing.T) {
	searcher := &fakeSearcher{
		docs:         []models.RetrievedDocument{doc("a", "Claims_Guide.pdf", "1", "claims", "")},
		available:    map[string]bool{"claims": true},
		failFiltered: true,
	}
	o := newOrchestrator(searcher, config.RetrievalConfig{
		InitialK: 20, TopK: 8, EnableDomainFilter: true,
	})

	result, err := o.Retrieve(context.Background(), "claim denial appeal")
	require.NoError(t, err, "filtered failure must not surface when the retry succeeds")
	require.Len(t, result.Documents, 1)

	require.Len(t, searcher.filters, 2)
	require.NotNil(t, searcher.filters[0], "first attempt carries the domain filter")
	assert.Equal(t, []string{"claims"}, searcher.filters[0].Domains)
	assert.Nil(t, searcher.filters[1], "retry drops the filter")
}

func TestRetrieveUnfilteredFailureSurfaces(t *testing.T) {
	searcher := &fakeSearcher{failAlways: true}
	o := newOrchestrator(searcher, config.RetrievalConfig{InitialK: 20, TopK: 8})

	_, err := o.Retrieve(context.Background(), "claim denial")
	require.Error(t, err)
}

func TestRetrieveNoFilterWhenDisabled(t *testing.T) {
	searcher := &fakeSearcher{
		docs:      []models.RetrievedDocument{doc("a", "Claims_Guide.pdf", "1", "claims", "")},
		available: map[string]bool{"claims": true},
	}
	o := newOrchestrator(searcher, config.RetrievalConfig{InitialK: 20, TopK: 8})

	_, err := o.Retrieve(context.Background(), "claim denial")
	require.NoError(t, err)
	require.Len(t, searcher.filters, 1)
	assert.Nil(t, searcher.filters[0])
}

func TestRetrieveRerankDisabledTruncates(t *testing.T) {
	var docs []models.RetrievedDocument
	for i := 0; i < 20; i++ {
		docs = append(docs, doc(fmt.Sprintf("doc-%02d", i), "m.pdf", "1", "general", ""))
	}
	searcher := &fakeSearcher{docs: docs}
	o := newOrchestrator(searcher, config.RetrievalConfig{InitialK: 20, TopK: 8})

	result, err := o.Retrieve(context.Background(), "anything at all")
	require.NoError(t, err)
	require.Len(t, result.Documents, 8)
	for i, d := range result.Documents {
		assert.Equal(t, fmt.Sprintf("doc-%02d", i), d.ID)
	}
}

func TestFormatSources(t *testing.T) {
	docs := []models.RetrievedDocument{
		doc("a", "Claims_Guide.pdf", "3", "claims", ""),
		doc("b", "Claims_Guide.pdf", "3", "claims", ""), // duplicate source
		doc("c", "Remit_Manual.pdf", "1", "remits", ""),
	}
	out := FormatSources(docs)
	assert.Equal(t, "**Claims_Guide.pdf**, Page 3\n**Remit_Manual.pdf**, Page 1", out)

	assert.Empty(t, FormatSources(nil))
}

func TestRerankerStatusExposed(t *testing.T) {
	o := newOrchestrator(&fakeSearcher{}, config.RetrievalConfig{InitialK: 20, TopK: 8})
	assert.Equal(t, "Disabled in config", o.RerankerStatus())
}
