package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/database"
	"github.com/foliolabs/folio/internal/domain"
	"github.com/foliolabs/folio/internal/openai"
	"github.com/foliolabs/folio/internal/service"
	"github.com/foliolabs/folio/internal/storage"
	"github.com/foliolabs/folio/internal/vectorstore"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Embed the knowledge documents into the vector store",
		Long: "Read the per-category knowledge markdown documents, chunk and embed them, " +
			"and replace the contents of every category partition",
		RunE: runSeed,
	}

	cmd.Flags().String("category", "", "Seed only the given category (e.g. Projects)")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("FOLIO_OPENAI_API_KEY is required to seed")
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := vectorstore.New(cfg, pool)
	if err != nil {
		return fmt.Errorf("failed to create vector store: %w", err)
	}

	source, err := knowledgeSource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create knowledge source: %w", err)
	}

	client := openai.NewClientWithConfig(openai.Config{APIKey: cfg.OpenAIAPIKey})
	seeder := service.NewSeeder(source, client, store, cfg.IndexPrefix)

	if name, _ := cmd.Flags().GetString("category"); name != "" {
		cat, ok := domain.ParseCategory(name)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrInvalidCategory, name)
		}
		count, err := seeder.SeedCategory(ctx, cat)
		if err != nil {
			return err
		}
		log.Printf("seeded %d passages into %s", count, cat.PartitionName(cfg.IndexPrefix))
		return nil
	}

	count, err := seeder.SeedAll(ctx)
	if err != nil {
		return err
	}
	log.Printf("seeded %d passages across all categories", count)
	return nil
}

// knowledgeSource picks the document source: S3 when configured, the local
// knowledge directory otherwise.
func knowledgeSource(ctx context.Context, cfg *config.Config) (service.DocumentSource, error) {
	if !cfg.HasS3() {
		return service.NewDirSource(cfg.KnowledgeDir), nil
	}

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		KeyPrefix:       cfg.S3KeyPrefix,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, err
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Printf("knowledge source: s3 bucket %q", cfg.S3Bucket)
	return s3Client, nil
}
