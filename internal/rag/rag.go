package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"manuals-rag/internal/config"
	"manuals-rag/internal/models"
	"manuals-rag/internal/retrieval"
)

// Response is the final answer payload. NoMatches distinguishes an
// empty retrieval from a collaborator failure so callers can render
// the two differently.
type Response struct {
	Query     string
	Content   string
	Source    string
	NoMatches bool
	Summary   retrieval.Summary
}

// RAG joins the retrieval orchestrator to the generative model.
type RAG struct {
	orchestrator *retrieval.Orchestrator
	llmCfg       *config.LLMConfig
}

func NewRAG(orchestrator *retrieval.Orchestrator, llmCfg *config.LLMConfig) *RAG {
	return &RAG{orchestrator: orchestrator, llmCfg: llmCfg}
}

// Answer retrieves context for the query and asks the chat model.
func (r *RAG) Answer(ctx context.Context, query string) (*Response, error) {
	result, err := r.orchestrator.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(result.Documents) == 0 {
		log.Info().Str("query", query).Msg("No matching passages found")
		return &Response{Query: query, NoMatches: true, Summary: result.Summary}, nil
	}

	hint := result.Summary.DomainHint
	prompt := fmt.Sprintf(models.QueryPromptTemplate, result.Context, hint, query)

	answer, err := generate(ctx, r.llmCfg, models.SystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	return &Response{
		Query:   query,
		Content: answer,
		Source:  retrieval.FormatSources(result.Documents),
		Summary: result.Summary,
	}, nil
}

// RerankerStatus reports whether re-ranking is active, for diagnostics.
func (r *RAG) RerankerStatus() string {
	return r.orchestrator.RerankerStatus()
}

func newChatModel(cfg *config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai", "":
		return openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

func generate(ctx context.Context, cfg *config.LLMConfig, system, prompt string) (string, error) {
	llm, err := newChatModel(cfg)
	if err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
