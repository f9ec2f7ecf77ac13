package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/foliolabs/folio/internal/domain"
)

const (
	// VectorBackendPgvector is the partitioned pgvector-backed store.
	VectorBackendPgvector = "pgvector"
	// VectorBackendFlat is a single unpartitioned index with client-side
	// category filtering.
	VectorBackendFlat = "flat"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	ChatModel    string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	// VectorBackend selects the store implementation: "pgvector" keeps one
	// partition per knowledge category, "flat" uses a single index and
	// filters by category metadata client-side.
	VectorBackend string `envconfig:"VECTOR_BACKEND" default:"pgvector"`
	IndexPrefix   string `envconfig:"INDEX_PREFIX" default:"portfolio"`

	SubjectName  string `envconfig:"SUBJECT_NAME" default:"Safin"`
	KnowledgeDir string `envconfig:"KNOWLEDGE_DIR" default:"./knowledge"`

	// RouterDisabled skips the LLM classification call entirely and routes
	// with the deterministic keyword fallback.
	RouterDisabled bool `envconfig:"ROUTER_DISABLED" default:"false"`

	TopKDefault    int `envconfig:"TOPK_DEFAULT" default:"5"`
	TopKExperience int `envconfig:"TOPK_EXPERIENCE" default:"10"`
	TopKEducation  int `envconfig:"TOPK_EDUCATION" default:"10"`

	Temperature float32 `envconfig:"TEMPERATURE" default:"0.7"`

	// Optional S3-compatible source for knowledge markdown; when unset the
	// seeder reads from KnowledgeDir.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"folio-knowledge"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3KeyPrefix string `envconfig:"S3_KEY_PREFIX"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("FOLIO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.VectorBackend {
	case VectorBackendPgvector:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("FOLIO_DATABASE_URL is required for the pgvector backend")
		}
	case VectorBackendFlat:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("FOLIO_DATABASE_URL is required for the flat backend")
		}
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// TopK returns the per-category result count. Experience and Education hold
// many enumerable entries, so they request more passages than the rest.
func (c *Config) TopK(cat domain.Category) int {
	switch cat {
	case domain.CategoryExperience:
		if c.TopKExperience > 0 {
			return c.TopKExperience
		}
	case domain.CategoryEducation:
		if c.TopKEducation > 0 {
			return c.TopKEducation
		}
	}
	if c.TopKDefault > 0 {
		return c.TopKDefault
	}
	return 5
}

// PartitionNames maps resolved categories to their store partitions.
func (c *Config) PartitionNames(cats []domain.Category) []string {
	names := make([]string, 0, len(cats))
	for _, cat := range cats {
		names = append(names, cat.PartitionName(c.IndexPrefix))
	}
	return names
}
