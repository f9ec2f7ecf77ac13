// Package vectorstore provides nearest-neighbor retrieval over the
// pre-embedded portfolio passages.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/domain"
)

// Store is the capability interface every vector backend implements.
// Query fails with domain.ErrPartitionNotFound when the named partition has
// never been seeded; callers are expected to absorb per-partition failures.
// ReplacePartition has full delete-then-recreate semantics.
type Store interface {
	Query(ctx context.Context, partition string, vector []float32, topK int) ([]domain.Passage, error)
	ReplacePartition(ctx context.Context, partition string, passages []domain.Passage) error
}

// New selects a backend at startup from configuration. Backend choice never
// leaks into request-handling code.
func New(cfg *config.Config, pool *pgxpool.Pool) (Store, error) {
	switch cfg.VectorBackend {
	case config.VectorBackendPgvector:
		return NewPostgres(pool), nil
	case config.VectorBackendFlat:
		return NewFlat(pool, cfg.IndexPrefix), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}
