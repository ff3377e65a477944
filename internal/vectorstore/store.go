package vectorstore

import (
	"context"
	"fmt"

	"manuals-rag/internal/config"
	"manuals-rag/internal/domains"
	"manuals-rag/internal/models"

	"github.com/tmc/langchaingo/embeddings"
)

// Document is a chunk ready for indexing: content, metadata, and a
// precomputed embedding (the chromem backend may compute it itself).
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Stats summarizes the store contents.
type Stats struct {
	TotalChunks  int      `json:"total_chunks"`
	IndexedFiles int      `json:"indexed_files"`
	Domains      []string `json:"domains"`
}

// Store is the vector-index collaborator contract: add chunks, search
// by similarity with an optional domain filter, and report what has
// been indexed.
type Store interface {
	Add(ctx context.Context, docs []Document) (int, error)
	SimilaritySearch(ctx context.Context, query string, k int, filter *domains.Filter) ([]models.RetrievedDocument, error)
	Domains(ctx context.Context) (map[string]bool, error)
	Files(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (Stats, error)
	Reset(ctx context.Context) error
	Close() error
}

// New builds the store selected by the backend discriminator.
func New(cfg *config.StoreConfig, embedder *embeddings.EmbedderImpl) (Store, error) {
	switch cfg.Backend {
	case "chromem":
		return NewChromemStore(cfg.Chromem, embedder)
	case "postgres":
		return NewPostgresStore(cfg.Postgres, embedder)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
