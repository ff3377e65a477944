package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"manuals-rag/internal/config"
	"manuals-rag/internal/domains"
	"manuals-rag/internal/models"
)

// manualChunk is the pgvector-backed row for one indexed chunk.
type manualChunk struct {
	bun.BaseModel `bun:"table:manual_chunks,alias:mc"`
	ID            string    `bun:"id,pk"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Filename      string    `bun:"filename,notnull"`
	Page          int       `bun:"page,notnull"`
	ChunkIndex    int       `bun:"chunk_index,notnull"`
	Domain        string    `bun:"domain,notnull"`
	Section       string    `bun:"section"`
	CharStart     int       `bun:"char_start,notnull"`
	CharEnd       int       `bun:"char_end,notnull"`
}

// PostgresStore keeps chunks in a pgvector table, ordered by the `<->`
// distance operator at query time.
type PostgresStore struct {
	db       *bun.DB
	embedder *embeddings.EmbedderImpl
}

// NewPostgresStore connects, installs the debug hook if configured, and
// ensures the table exists.
func NewPostgresStore(cfg *config.PostgresConfig, embedder *embeddings.EmbedderImpl) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN), pgdriver.WithPassword(cfg.Password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	s := &PostgresStore{db: db, embedder: embedder}
	if err := s.initTable(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*manualChunk)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *PostgresStore) Add(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	rows := make([]manualChunk, len(docs))
	for i, doc := range docs {
		rows[i] = manualChunk{
			ID:         doc.ID,
			Content:    doc.Content,
			Embedding:  doc.Embedding,
			Filename:   doc.Metadata[models.MetaFilename],
			Page:       atoiOrZero(doc.Metadata[models.MetaPage]),
			ChunkIndex: atoiOrZero(doc.Metadata[models.MetaChunkIndex]),
			Domain:     doc.Metadata[models.MetaDomain],
			Section:    doc.Metadata[models.MetaSection],
			CharStart:  atoiOrZero(doc.Metadata[models.MetaCharStart]),
			CharEnd:    atoiOrZero(doc.Metadata[models.MetaCharEnd]),
		}
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to store documents: %w", err)
	}
	return len(rows), nil
}

func (s *PostgresStore) SimilaritySearch(ctx context.Context, query string, k int, filter *domains.Filter) ([]models.RetrievedDocument, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedder configured for postgres store")
	}
	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var rows []manualChunk
	q := s.db.NewSelect().
		Model(&rows).
		OrderExpr("embedding <-> ?", queryEmbedding).
		Limit(k)
	if filter != nil && len(filter.Domains) > 0 {
		q = q.Where("domain IN (?)", bun.In(filter.Domains))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	docs := make([]models.RetrievedDocument, len(rows))
	for i, row := range rows {
		docs[i] = models.RetrievedDocument{
			ID:      row.ID,
			Content: row.Content,
			Metadata: map[string]string{
				models.MetaFilename:   row.Filename,
				models.MetaPage:       strconv.Itoa(row.Page),
				models.MetaChunkIndex: strconv.Itoa(row.ChunkIndex),
				models.MetaDomain:     row.Domain,
				models.MetaSection:    row.Section,
				models.MetaCharStart:  strconv.Itoa(row.CharStart),
				models.MetaCharEnd:    strconv.Itoa(row.CharEnd),
			},
		}
	}
	return docs, nil
}

func (s *PostgresStore) Domains(ctx context.Context) (map[string]bool, error) {
	var names []string
	err := s.db.NewSelect().
		Model((*manualChunk)(nil)).
		ColumnExpr("DISTINCT domain").
		Scan(ctx, &names)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

func (s *PostgresStore) Files(ctx context.Context) ([]string, error) {
	var files []string
	err := s.db.NewSelect().
		Model((*manualChunk)(nil)).
		ColumnExpr("DISTINCT filename").
		OrderExpr("filename").
		Scan(ctx, &files)
	return files, err
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	count, err := s.db.NewSelect().Model((*manualChunk)(nil)).Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	files, err := s.Files(ctx)
	if err != nil {
		return Stats{}, err
	}
	domainSet, err := s.Domains(ctx)
	if err != nil {
		return Stats{}, err
	}
	domainNames := make([]string, 0, len(domainSet))
	for d := range domainSet {
		domainNames = append(domainNames, d)
	}
	sort.Strings(domainNames)
	return Stats{TotalChunks: count, IndexedFiles: len(files), Domains: domainNames}, nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*manualChunk)(nil)).IfExists().Exec(ctx); err != nil {
		return err
	}
	return s.initTable(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func atoiOrZero(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}
