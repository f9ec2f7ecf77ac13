package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/foliolabs/folio/internal/domain"
)

// flatOverfetch compensates for client-side category filtering: the single
// index is queried without a filter, so more candidates are requested than
// the caller asked for.
const flatOverfetch = 3

// Flat is the single-index backend: all passages live in one unpartitioned
// index and category filtering happens client-side on result metadata.
// Partitions do not exist here, so Query never reports a missing one.
type Flat struct {
	pool   *pgxpool.Pool
	prefix string
}

func NewFlat(pool *pgxpool.Pool, prefix string) *Flat {
	return &Flat{pool: pool, prefix: prefix}
}

func (s *Flat) categoryFor(partition string) (domain.Category, bool) {
	return domain.ParseCategory(strings.TrimPrefix(partition, s.prefix+"-"))
}

// Query runs one unfiltered nearest-neighbor search and post-filters by the
// category encoded in the partition name.
func (s *Flat) Query(ctx context.Context, partition string, vector []float32, topK int) ([]domain.Passage, error) {
	if topK <= 0 {
		topK = 5
	}

	cat, ok := s.categoryFor(partition)
	if !ok {
		return nil, domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("partition %q does not name a known category", partition))
	}

	vec := pgvector.NewVector(vector)
	rows, err := s.pool.Query(ctx,
		`SELECT id, category, title, section, content,
		        1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM passages
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK*flatOverfetch,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flat index: %w", err)
	}
	defer rows.Close()

	candidates, err := scanPassageRows(rows)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Passage, 0, topK)
	for _, p := range candidates {
		if p.Category != cat {
			continue
		}
		filtered = append(filtered, p)
		if len(filtered) >= topK {
			break
		}
	}
	return filtered, nil
}

// ReplacePartition keeps the same full-replace contract as the partitioned
// backend; the partition column is retained so the two backends can share
// one schema.
func (s *Flat) ReplacePartition(ctx context.Context, partition string, passages []domain.Passage) error {
	for i := range passages {
		if err := domain.ValidatePassage(&passages[i]); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid passage", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM passages WHERE partition = $1`, partition); err != nil {
		return fmt.Errorf("failed to clear partition %q: %w", partition, err)
	}

	now := time.Now().UTC()
	for _, p := range passages {
		_, err := tx.Exec(ctx,
			`INSERT INTO passages
				(id, partition, category, title, section, content, embedding, seeded_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID,
			partition,
			string(p.Category),
			p.Title,
			p.Section,
			p.Content,
			pgvector.NewVector(p.Embedding),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert passage %s: %w", p.ID, err)
		}
	}

	return tx.Commit(ctx)
}
