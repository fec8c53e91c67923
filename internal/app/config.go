package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/mdb-curator/internal/data/db"
	"github.com/yungbote/mdb-curator/internal/modules/curation"
	"github.com/yungbote/mdb-curator/internal/platform/envutil"
	"github.com/yungbote/mdb-curator/internal/platform/neo4jdb"
	"github.com/yungbote/mdb-curator/internal/platform/openai"
)

const (
	GraphBackendNeo4j  = "neo4j"
	GraphBackendMemory = "memory"

	SimilarityEmbedding = "embedding"
	SimilarityLexical   = "lexical"
)

type SynonymConfig struct {
	Threshold      float64       `yaml:"threshold"`
	SimilarityMode string        `yaml:"similarity_mode"`
	BatchSize      int           `yaml:"batch_size"`
	Concurrency    int           `yaml:"concurrency"`
	CacheTTL       time.Duration `yaml:"-"`
	// CacheEntries bounds the in-process embedding cache used without redis.
	CacheEntries int `yaml:"cache_entries"`
}

type Config struct {
	Env          string         `yaml:"env"`
	LogMode      string         `yaml:"log_mode"`
	Port         string         `yaml:"port"`
	ServiceName  string         `yaml:"service_name"`
	CORSOrigins  []string       `yaml:"cors_origins"`
	GraphBackend string         `yaml:"graph_backend"`
	Neo4j        neo4jdb.Config `yaml:"neo4j"`
	NanoIDTries  int            `yaml:"nanoid_max_attempts"`
	Synonyms     SynonymConfig  `yaml:"synonyms"`
	OpenAI       openai.Config  `yaml:"openai"`
	RedisAddr    string         `yaml:"redis_addr"`
	Audit        db.Config      `yaml:"audit"`
}

// LoadConfig reads the optional YAML file named by CURATOR_CONFIG_FILE, then
// overlays the environment. The environment always wins.
func LoadConfig() (Config, error) {
	var cfg Config
	if path := envutil.String("CURATOR_CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg = overlayEnv(cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayEnv(cfg Config) Config {
	cfg.Env = envutil.String("APP_ENV", orDefault(cfg.Env, "development"))
	cfg.LogMode = envutil.String("LOG_MODE", orDefault(cfg.LogMode, "development"))
	cfg.Port = envutil.String("PORT", orDefault(cfg.Port, "8080"))
	cfg.ServiceName = envutil.String("OTEL_SERVICE_NAME", orDefault(cfg.ServiceName, "mdb-curator"))
	if raw := envutil.String("CORS_ALLOW_ORIGINS", ""); raw != "" {
		cfg.CORSOrigins = strings.Split(raw, ",")
	}
	cfg.GraphBackend = strings.ToLower(envutil.String("GRAPH_BACKEND", orDefault(cfg.GraphBackend, GraphBackendNeo4j)))
	cfg.Neo4j = neo4jdb.ConfigFromEnv(cfg.Neo4j)
	cfg.NanoIDTries = envutil.Int("NANOID_MAX_ATTEMPTS", cfg.NanoIDTries)
	if cfg.NanoIDTries <= 0 {
		cfg.NanoIDTries = curation.DefaultMaxAttempts
	}

	cfg.OpenAI = openai.ConfigFromEnv(cfg.OpenAI)
	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)
	cfg.Audit = db.ConfigFromEnv(cfg.Audit)

	s := cfg.Synonyms
	s.Threshold = envutil.Float("SYNONYM_THRESHOLD", s.Threshold)
	if s.Threshold == 0 {
		s.Threshold = curation.DefaultThreshold
	}
	defaultMode := SimilarityLexical
	if cfg.OpenAI.APIKey != "" {
		defaultMode = SimilarityEmbedding
	}
	s.SimilarityMode = strings.ToLower(envutil.String("SIMILARITY_MODE", orDefault(s.SimilarityMode, defaultMode)))
	s.BatchSize = envutil.Int("EMBED_BATCH_SIZE", s.BatchSize)
	s.Concurrency = envutil.Int("EMBED_CONCURRENCY", s.Concurrency)
	s.CacheTTL = envutil.Seconds("EMBED_CACHE_TTL_SECONDS", 7*24*time.Hour)
	s.CacheEntries = envutil.Int("EMBED_CACHE_MAX_ENTRIES", s.CacheEntries)
	cfg.Synonyms = s
	return cfg
}

func (c Config) validate() error {
	switch c.GraphBackend {
	case GraphBackendNeo4j, GraphBackendMemory:
	default:
		return fmt.Errorf("GRAPH_BACKEND must be %q or %q, got %q", GraphBackendNeo4j, GraphBackendMemory, c.GraphBackend)
	}
	switch c.Synonyms.SimilarityMode {
	case SimilarityEmbedding, SimilarityLexical:
	default:
		return fmt.Errorf("SIMILARITY_MODE must be %q or %q, got %q", SimilarityEmbedding, SimilarityLexical, c.Synonyms.SimilarityMode)
	}
	if !curation.ValidThreshold(c.Synonyms.Threshold) {
		return fmt.Errorf("SYNONYM_THRESHOLD must be in [0,1], got %v", c.Synonyms.Threshold)
	}
	if c.Synonyms.SimilarityMode == SimilarityEmbedding && c.OpenAI.APIKey == "" {
		return fmt.Errorf("SIMILARITY_MODE=%s requires OPENAI_API_KEY", SimilarityEmbedding)
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
