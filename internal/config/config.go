package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChunkingConfig holds the splitter parameters.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	MinChunkSize int `yaml:"min_chunk_size"`
}

// RetrievalConfig holds the query-time parameters.
type RetrievalConfig struct {
	InitialK           int  `yaml:"initial_k"`
	TopK               int  `yaml:"top_k"`
	EnableReranking    bool `yaml:"enable_reranking"`
	EnableDomainFilter bool `yaml:"enable_domain_filter"`
}

// DomainConfig defines one topical category. List order encodes
// priority: filename patterns are tried in order and keyword-score ties
// resolve to the earlier entry.
type DomainConfig struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
	Keywords []string `yaml:"keywords"`
	Hint     string   `yaml:"hint"`
}

// ChromemConfig configures the embedded chromem-go store.
type ChromemConfig struct {
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	InMemory      bool   `yaml:"in_memory"`
	EncryptionKey string `yaml:"encryption_key"`
}

// PostgresConfig configures the pgvector-backed store.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Backend  string          `yaml:"backend"` // "chromem" or "postgres"
	Chromem  *ChromemConfig  `yaml:"chromem,omitempty"`
	Postgres *PostgresConfig `yaml:"postgres,omitempty"`
}

// LLMConfig configures one model endpoint (embedder or chat model).
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

// RerankerConfig configures the cross-encoder scoring endpoint.
type RerankerConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type Config struct {
	ManualsDir string          `yaml:"manuals_dir"`
	Chunking   ChunkingConfig  `yaml:"chunking"`
	Retrieval  RetrievalConfig `yaml:"retrieval"`
	Domains    []DomainConfig  `yaml:"domains"`
	Store      StoreConfig     `yaml:"store"`
	Embedder   LLMConfig       `yaml:"embedder"`
	LLM        LLMConfig       `yaml:"llm"`
	Reranker   RerankerConfig  `yaml:"reranker"`
}

// LoadConfig reads the yaml file over the built-in base values, so a
// partial section keeps the defaults for the knobs it omits while an
// explicit zero or false still wins.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := baseConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// baseConfig holds the scalar defaults that yaml unmarshalling merges
// over.
func baseConfig() *Config {
	return &Config{
		ManualsDir: "./manuals",
		Chunking: ChunkingConfig{
			ChunkSize:    1500,
			ChunkOverlap: 400,
			MinChunkSize: 100,
		},
		Retrieval: RetrievalConfig{
			InitialK:        20,
			TopK:            8,
			EnableReranking: true,
		},
		Reranker: RerankerConfig{TimeoutSecs: 30},
	}
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := baseConfig()
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills the pieces that depend on what the file selected.
func applyDefaults(cfg *Config) {
	if len(cfg.Domains) == 0 {
		cfg.Domains = DefaultDomains()
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "chromem"
	}
	if cfg.Store.Backend == "chromem" && cfg.Store.Chromem == nil {
		cfg.Store.Chromem = &ChromemConfig{Path: "./chromem_store", Collection: "enterprise_manuals"}
	}
	if cfg.Reranker.TimeoutSecs == 0 {
		cfg.Reranker.TimeoutSecs = 30
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "chromem":
		if cfg.Store.Chromem == nil {
			return fmt.Errorf("store backend %q requires a chromem section", cfg.Store.Backend)
		}
	case "postgres":
		if cfg.Store.Postgres == nil {
			return fmt.Errorf("store backend %q requires a postgres section", cfg.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
	if cfg.Chunking.ChunkOverlap >= cfg.Chunking.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			cfg.Chunking.ChunkOverlap, cfg.Chunking.ChunkSize)
	}
	return nil
}

// DefaultDomains is the built-in domain table for the revenue-cycle
// manual corpus.
func DefaultDomains() []DomainConfig {
	return []DomainConfig{
		{
			Name:     "claims",
			Patterns: []string{"claim", "claims"},
			Keywords: []string{"claim", "claims", "billing", "denial", "denials", "appeal", "payer"},
			Hint:     "This question relates to claims processing, billing, denials, or payer interactions.",
		},
		{
			Name:     "remits",
			Patterns: []string{"remit", "remits", "deposit"},
			Keywords: []string{"remit", "remittance", "deposit", "era", "835", "payment"},
			Hint:     "This question relates to remittance advice, ERA processing, deposits, or payment reconciliation.",
		},
		{
			Name:     "analytics",
			Patterns: []string{"analytics", "peak"},
			Keywords: []string{"analytics", "report", "dashboard", "peak", "metrics", "kpi"},
			Hint:     "This question relates to reports, dashboards, analytics, or performance metrics.",
		},
		{
			Name:     "patient",
			Patterns: []string{"patient", "estimation", "lockbox"},
			Keywords: []string{"patient", "estimation", "estimate", "lockbox", "responsibility"},
			Hint:     "This question relates to patient estimation, responsibility, or lockbox processing.",
		},
		{
			Name:     "user_management",
			Patterns: []string{"user management", "user guide"},
			Keywords: []string{"user", "permission", "role", "access", "login", "password"},
			Hint:     "This question relates to user accounts, permissions, roles, or access control.",
		},
		{
			Name:     "rules",
			Patterns: []string{"rule", "altitude", "assist"},
			Keywords: []string{"rule", "wizard", "altitude", "assist", "automation", "workflow"},
			Hint:     "This question relates to automation rules, Rule Wizard, or assisted workflows.",
		},
		{
			Name:     "print",
			Patterns: []string{"print", "services"},
			Keywords: []string{"print", "statement", "batch", "paper"},
			Hint:     "This question relates to print services, statements, or batch printing.",
		},
	}
}
