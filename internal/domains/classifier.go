package domains

import (
	"sort"
	"strings"

	"manuals-rag/internal/config"
	"manuals-rag/internal/models"
)

// maxQueryDomains caps how many domains a single query can map to.
const maxQueryDomains = 3

// Filter constrains similarity search to one or more domains.
type Filter struct {
	Domains []string
}

// Single reports whether the filter names exactly one domain.
func (f *Filter) Single() bool {
	return f != nil && len(f.Domains) == 1
}

// Classifier maps documents and queries to topical domains. The domain
// table is read-only after construction and safe to share across
// concurrent queries.
type Classifier struct {
	domains []config.DomainConfig
}

func NewClassifier(domains []config.DomainConfig) *Classifier {
	return &Classifier{domains: domains}
}

// ClassifyDocument assigns a domain from the filename (first pattern
// match wins, table order encodes priority), falling back to keyword
// scoring over the content sample, then to "general".
func (c *Classifier) ClassifyDocument(filename, contentSample string) string {
	filenameLower := strings.ToLower(filename)
	for _, d := range c.domains {
		for _, pattern := range d.Patterns {
			if strings.Contains(filenameLower, pattern) {
				return d.Name
			}
		}
	}

	if contentSample != "" {
		contentLower := strings.ToLower(contentSample)
		best, bestScore := "", 0
		for _, d := range c.domains {
			score := 0
			for _, kw := range d.Keywords {
				score += strings.Count(contentLower, kw)
			}
			// strict > keeps the earlier table entry on ties
			if score > bestScore {
				best, bestScore = d.Name, score
			}
		}
		if best != "" {
			return best
		}
	}

	return models.GeneralDomain
}

// ClassifyQuery returns up to three domains the query is asking about,
// ordered by keyword hit count. Ties preserve table order. May be empty
// for general queries.
func (c *Classifier) ClassifyQuery(query string) []string {
	queryLower := strings.ToLower(query)

	type hit struct {
		name  string
		count int
	}
	var hits []hit
	for _, d := range c.domains {
		count := 0
		for _, kw := range d.Keywords {
			if strings.Contains(queryLower, kw) {
				count++
			}
		}
		if count > 0 {
			hits = append(hits, hit{d.Name, count})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].count > hits[j].count
	})

	if len(hits) > maxQueryDomains {
		hits = hits[:maxQueryDomains]
	}
	detected := make([]string, 0, len(hits))
	for _, h := range hits {
		detected = append(detected, h.name)
	}
	return detected
}

// BuildFilter intersects the query's detected domains with the domains
// actually present in the store. Nil means search everything.
func (c *Classifier) BuildFilter(query string, available map[string]bool) *Filter {
	detected := c.ClassifyQuery(query)
	if len(detected) == 0 {
		return nil
	}

	var valid []string
	for _, d := range detected {
		if available[d] {
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return &Filter{Domains: valid}
}

// Hint joins the configured hint sentences for the query's detected
// domains, for downstream prompt construction.
func (c *Classifier) Hint(query string) string {
	detected := c.ClassifyQuery(query)
	hintByName := make(map[string]string, len(c.domains))
	for _, d := range c.domains {
		hintByName[d.Name] = d.Hint
	}

	var hints []string
	for _, name := range detected {
		if h := hintByName[name]; h != "" {
			hints = append(hints, h)
		}
	}
	return strings.Join(hints, " ")
}

// Names returns every configured domain plus the general fallback.
func (c *Classifier) Names() []string {
	names := make([]string, 0, len(c.domains)+1)
	for _, d := range c.domains {
		names = append(names, d.Name)
	}
	return append(names, models.GeneralDomain)
}
