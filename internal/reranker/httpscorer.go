package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"manuals-rag/internal/config"
)

// HTTPScorer scores (query, passage) pairs against a rerank inference
// endpoint (text-embeddings-inference style /rerank API).
type HTTPScorer struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewHTTPScorer builds a scorer from the reranker config. An empty
// endpoint is an error so the caller can fall back cleanly.
func NewHTTPScorer(cfg *config.RerankerConfig) (*HTTPScorer, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("no rerank endpoint configured")
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPScorer{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type rerankRequest struct {
	Model string   `json:"model,omitempty"`
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Score submits a single query/passage pair and returns its relevance.
func (s *HTTPScorer) Score(ctx context.Context, query, passage string) (float64, error) {
	payload := rerankRequest{
		Model: s.model,
		Query: query,
		Texts: []string{passage},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("rerank request failed: %d, %s", resp.StatusCode, string(body))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("rerank response contained no results")
	}
	return results[0].Score, nil
}
