package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"manuals-rag/internal/config"
	"manuals-rag/internal/domains"
	"manuals-rag/internal/models"
)

const compress = false

// ChromemStore keeps chunks in an embedded chromem-go collection.
// chromem has no metadata-scan API, so indexed files and domains are
// tracked in a manifest persisted next to the collection.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	cfg        *config.ChromemConfig
	embedFunc  chromem.EmbeddingFunc

	mu       sync.RWMutex
	manifest *manifest
}

type manifest struct {
	Files   map[string]bool `json:"files"`
	Domains map[string]bool `json:"domains"`
	Chunks  int             `json:"chunks"`
}

func newManifest() *manifest {
	return &manifest{Files: map[string]bool{}, Domains: map[string]bool{}}
}

// NewChromemStore opens (or creates) the persistent collection and
// loads the manifest.
func NewChromemStore(cfg *config.ChromemConfig, embedder *embeddings.EmbedderImpl) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	embedFunc := langchainEmbeddingFunc(embedder)
	c, err := db.GetOrCreateCollection(cfg.Collection, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	s := &ChromemStore{
		db:         db,
		collection: c,
		cfg:        cfg,
		embedFunc:  embedFunc,
		manifest:   newManifest(),
	}
	if err := s.loadManifest(); err != nil {
		log.Warn().Err(err).Msg("Could not load store manifest, starting empty")
	}
	return s, nil
}

// langchainEmbeddingFunc bridges a langchaingo embedder into chromem.
func langchainEmbeddingFunc(embedder *embeddings.EmbedderImpl) chromem.EmbeddingFunc {
	if embedder == nil {
		return nil
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

func (s *ChromemStore) manifestPath() string {
	return filepath.Join(s.cfg.Path, s.cfg.Collection+".manifest.json")
}

func (s *ChromemStore) loadManifest() error {
	if s.cfg.InMemory {
		return nil
	}
	data, err := os.ReadFile(s.manifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	m := newManifest()
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}
	s.manifest = m
	return nil
}

func (s *ChromemStore) saveManifest() error {
	if s.cfg.InMemory {
		return nil
	}
	data, err := json.MarshalIndent(s.manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.manifestPath(), data, 0o644)
}

// Add indexes the documents and records their files/domains in the
// manifest. Returns the number of documents added.
func (s *ChromemStore) Add(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %v", err)
	}

	s.mu.Lock()
	for _, doc := range docs {
		if f := doc.Metadata[models.MetaFilename]; f != "" {
			s.manifest.Files[f] = true
		}
		if d := doc.Metadata[models.MetaDomain]; d != "" {
			s.manifest.Domains[d] = true
		}
	}
	s.manifest.Chunks += len(docs)
	err := s.saveManifest()
	s.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Msg("Could not save store manifest")
	}
	return len(docs), nil
}

// SimilaritySearch embeds the query and returns the k nearest chunks.
// A multi-domain filter fans out one search per domain and merges by
// similarity, since chromem metadata filters are exact-match only.
func (s *ChromemStore) SimilaritySearch(ctx context.Context, query string, k int, filter *domains.Filter) ([]models.RetrievedDocument, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	if filter == nil || len(filter.Domains) == 0 {
		results, err := s.collection.Query(ctx, query, k, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to query by similarity: %v", err)
		}
		return fromResults(results), nil
	}

	var merged []chromem.Result
	for _, domain := range filter.Domains {
		results, err := s.collection.Query(ctx, query, k, map[string]string{models.MetaDomain: domain}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed domain-filtered query (%s): %v", domain, err)
		}
		merged = append(merged, results...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	if k < len(merged) {
		merged = merged[:k]
	}
	return fromResults(merged), nil
}

func fromResults(results []chromem.Result) []models.RetrievedDocument {
	docs := make([]models.RetrievedDocument, len(results))
	for i, r := range results {
		docs[i] = models.RetrievedDocument{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
		}
	}
	return docs
}

// Domains returns the set of domains present in the store.
func (s *ChromemStore) Domains(ctx context.Context) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.manifest.Domains))
	for d := range s.manifest.Domains {
		out[d] = true
	}
	return out, nil
}

// Files returns the sorted list of indexed filenames.
func (s *ChromemStore) Files(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make([]string, 0, len(s.manifest.Files))
	for f := range s.manifest.Files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func (s *ChromemStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	domainNames := make([]string, 0, len(s.manifest.Domains))
	for d := range s.manifest.Domains {
		domainNames = append(domainNames, d)
	}
	sort.Strings(domainNames)
	return Stats{
		TotalChunks:  s.collection.Count(),
		IndexedFiles: len(s.manifest.Files),
		Domains:      domainNames,
	}, nil
}

// Reset drops the collection and manifest and recreates them empty.
func (s *ChromemStore) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.cfg.Collection); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	c, err := s.db.GetOrCreateCollection(s.cfg.Collection, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %v", err)
	}
	s.collection = c

	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = newManifest()
	return s.saveManifest()
}

func (s *ChromemStore) Close() error {
	return nil
}

// Export writes the collection to an encrypted file, for in-memory
// stores that still want a snapshot on disk.
func (s *ChromemStore) Export(ctx context.Context) error {
	if s.cfg.EncryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	path := filepath.Join(s.cfg.Path, s.cfg.Collection+".chromem")
	if err := s.db.ExportToFile(path, compress, s.cfg.EncryptionKey, s.cfg.Collection); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

// Import restores a previously exported collection snapshot.
func (s *ChromemStore) Import(ctx context.Context) error {
	path := filepath.Join(s.cfg.Path, s.cfg.Collection+".chromem")
	if err := s.db.ImportFromFile(path, s.cfg.EncryptionKey); err != nil {
		return fmt.Errorf("failed to import database: %v", err)
	}
	return nil
}
