package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"manuals-rag/internal/config"
	"manuals-rag/internal/domains"
	"manuals-rag/internal/embedding"
	"manuals-rag/internal/helper"
	"manuals-rag/internal/ingest"
	"manuals-rag/internal/rag"
	"manuals-rag/internal/reranker"
	"manuals-rag/internal/retrieval"
	"manuals-rag/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	ingestDir := flag.String("ingest", "", "Sync all manuals in a directory into the store")
	filePath := flag.String("file", "", "Index a single manual file")
	query := flag.String("query", "", "Question to answer from the indexed manuals")
	stats := flag.Bool("stats", false, "Print store statistics")
	reset := flag.Bool("reset", false, "Drop and recreate the store")
	dryRun := flag.Bool("dry-run", false, "Parse and chunk only, do not embed or store")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	cfg := loadConfig(*configPath)
	ctx := context.Background()

	embedder, err := embedding.NewEmbedder(&cfg.Embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := vectorstore.New(&cfg.Store, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	defer store.Close()

	classifier := domains.NewClassifier(cfg.Domains)

	switch {
	case *reset:
		if err := store.Reset(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error resetting store")
		}
		log.Info().Msg("Store reset")

	case *stats:
		printStats(ctx, cfg, store)

	case *ingestDir != "":
		ingestor := ingest.New(store, embedder, classifier, cfg.Chunking)
		syncStats, err := ingestor.SyncDir(ctx, *ingestDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Error syncing manuals")
		}
		helper.PrettyPrint(syncStats)

	case *filePath != "":
		ingestor := ingest.New(store, embedder, classifier, cfg.Chunking)
		if *dryRun {
			docs, err := ingestor.ProcessFile(*filePath)
			if err != nil {
				log.Fatal().Err(err).Msg("Error processing manual")
			}
			helper.PrettyPrint(docs)
			return
		}
		added, err := ingestor.IngestFile(ctx, *filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error indexing manual")
		}
		log.Info().Int("chunks", added).Str("file", *filePath).Msg("Indexed manual")

	case *query != "":
		answerQuery(ctx, cfg, store, classifier, *query)

	default:
		flag.Usage()
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if os.IsNotExist(err) && path == defaultConfigPath {
			log.Warn().Str("path", path).Msg("No config file, using defaults")
			return config.Default()
		}
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")
	return cfg
}

func answerQuery(ctx context.Context, cfg *config.Config, store vectorstore.Store, classifier *domains.Classifier, query string) {
	rr := reranker.New(cfg.Retrieval.EnableReranking, func() (reranker.Scorer, error) {
		return reranker.NewHTTPScorer(&cfg.Reranker)
	})
	orchestrator := retrieval.NewOrchestrator(store, classifier, rr, cfg.Retrieval)
	svc := rag.NewRAG(orchestrator, &cfg.LLM)

	response, err := svc.Answer(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	if response.NoMatches {
		fmt.Println("No relevant passages found in the indexed manuals.")
		return
	}

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}

func printStats(ctx context.Context, cfg *config.Config, store vectorstore.Store) {
	storeStats, err := store.Stats(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading store stats")
	}
	helper.PrettyPrint(storeStats)

	rr := reranker.New(cfg.Retrieval.EnableReranking, func() (reranker.Scorer, error) {
		return reranker.NewHTTPScorer(&cfg.Reranker)
	})
	fmt.Printf("Re-ranker: %s\n", rr.Status())
}
