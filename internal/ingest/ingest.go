package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"manuals-rag/internal/config"
	"manuals-rag/internal/domains"
	"manuals-rag/internal/embedding"
	"manuals-rag/internal/helper"
	"manuals-rag/internal/models"
	"manuals-rag/internal/parser"
	"manuals-rag/internal/splitter"
	"manuals-rag/internal/vectorstore"
)

// content sample bounds for document-level domain classification
const (
	samplePages     = 4
	samplePageChars = 500
)

// SyncStats reports one directory sync.
type SyncStats struct {
	TotalFiles     int      `json:"total_files"`
	AlreadyIndexed int      `json:"already_indexed"`
	NewFiles       int      `json:"new_files"`
	ChunksAdded    int      `json:"chunks_added"`
	Errors         []string `json:"errors,omitempty"`
}

// Ingestor turns manual files into embedded, indexed chunks.
type Ingestor struct {
	store      vectorstore.Store
	embedder   embedding.Embedder
	classifier *domains.Classifier
	splitter   *splitter.Splitter
}

func New(store vectorstore.Store, embedder embedding.Embedder, classifier *domains.Classifier, chunking config.ChunkingConfig) *Ingestor {
	return &Ingestor{
		store:      store,
		embedder:   embedder,
		classifier: classifier,
		splitter:   splitter.NewSplitter(chunking.ChunkSize, chunking.ChunkOverlap, chunking.MinChunkSize),
	}
}

// ProcessFile extracts pages, classifies the document's domain, and
// splits every page into metadata-tagged store documents. No embedding
// or indexing happens here, so calls are safe to run in parallel.
func (in *Ingestor) ProcessFile(path string) ([]vectorstore.Document, error) {
	pages, err := parser.ExtractPages(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if len(pages) == 0 {
		return nil, nil
	}

	domain := in.classifier.ClassifyDocument(pages[0].Filename, contentSample(pages))

	var docs []vectorstore.Document
	for _, page := range pages {
		chunks := in.splitter.Split(page.Text)
		for i, chunk := range chunks {
			id, err := helper.GenerateUUID()
			if err != nil {
				return nil, err
			}
			docs = append(docs, vectorstore.Document{
				ID:      id,
				Content: chunk.Content,
				Metadata: map[string]string{
					models.MetaFilename:   page.Filename,
					models.MetaPage:       strconv.Itoa(page.Number),
					models.MetaChunkIndex: strconv.Itoa(i),
					models.MetaDomain:     domain,
					models.MetaSection:    chunk.SectionHeader,
					models.MetaCharStart:  strconv.Itoa(chunk.StartChar),
					models.MetaCharEnd:    strconv.Itoa(chunk.EndChar),
				},
			})
		}
	}
	return docs, nil
}

// IngestFile processes, embeds, and indexes a single manual. Returns
// the number of chunks added.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	docs, err := in.ProcessFile(path)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		log.Info().Str("file", filepath.Base(path)).Msg("No chunks generated from content")
		return 0, nil
	}
	if err := embedding.EmbedDocuments(ctx, in.embedder, docs); err != nil {
		return 0, err
	}
	return in.store.Add(ctx, docs)
}

// SyncDir indexes every supported manual in dir that is not already in
// the store. Per-file chunking runs in parallel; each file's run is
// fully self-contained. Per-file errors are collected, not fatal.
func (in *Ingestor) SyncDir(ctx context.Context, dir string) (SyncStats, error) {
	indexed, err := in.store.Files(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("failed to list indexed files: %w", err)
	}
	indexedSet := make(map[string]bool, len(indexed))
	for _, f := range indexed {
		indexedSet[f] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return SyncStats{}, fmt.Errorf("failed to read manuals dir: %w", err)
	}

	var all, fresh []string
	for _, e := range entries {
		if e.IsDir() || !parser.Supported(e.Name()) {
			continue
		}
		all = append(all, e.Name())
		if !indexedSet[e.Name()] {
			fresh = append(fresh, e.Name())
		}
	}

	stats := SyncStats{
		TotalFiles:     len(all),
		AlreadyIndexed: len(indexedSet),
		NewFiles:       len(fresh),
	}
	if len(fresh) == 0 {
		return stats, nil
	}

	type fileResult struct {
		name string
		docs []vectorstore.Document
		err  error
	}
	results := make([]fileResult, len(fresh))
	var wg sync.WaitGroup
	for i, name := range fresh {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			docs, err := in.ProcessFile(filepath.Join(dir, name))
			results[i] = fileResult{name: name, docs: docs, err: err}
		}(i, name)
	}
	wg.Wait()

	var toAdd []vectorstore.Document
	for _, r := range results {
		if r.err != nil {
			log.Error().Err(r.err).Str("file", r.name).Msg("Failed to process manual")
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", r.name, r.err))
			continue
		}
		log.Info().Str("file", r.name).Int("chunks", len(r.docs)).Msg("Processed manual")
		toAdd = append(toAdd, r.docs...)
	}

	if len(toAdd) > 0 {
		if err := embedding.EmbedDocuments(ctx, in.embedder, toAdd); err != nil {
			return stats, err
		}
		added, err := in.store.Add(ctx, toAdd)
		if err != nil {
			return stats, fmt.Errorf("failed to index chunks: %w", err)
		}
		stats.ChunksAdded = added
	}
	return stats, nil
}

// contentSample joins the head of the first few pages for domain
// classification.
func contentSample(pages []models.Page) string {
	var parts []string
	for i, page := range pages {
		if i >= samplePages {
			break
		}
		text := page.Text
		if len(text) > samplePageChars {
			text = text[:samplePageChars]
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}
