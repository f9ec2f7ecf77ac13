package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/foliolabs/folio/internal/domain"
)

// Postgres is the partitioned pgvector backend: one logical partition per
// knowledge category, tracked in a registry table so that a query against a
// never-seeded partition fails the same way a missing collection would.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Query returns the topK nearest passages within one partition, best first.
// Score is 1/(1+cosine distance).
func (s *Postgres) Query(ctx context.Context, partition string, vector []float32, topK int) ([]domain.Passage, error) {
	if topK <= 0 {
		topK = 5
	}

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM partitions WHERE name = $1)`, partition,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check partition %q: %w", partition, err)
	}
	if !exists {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeNotFound,
			fmt.Sprintf("partition %q not found", partition), domain.ErrPartitionNotFound)
	}

	vec := pgvector.NewVector(vector)
	rows, err := s.pool.Query(ctx,
		`SELECT id, category, title, section, content,
		        1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM passages
		 WHERE partition = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, partition, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query partition %q: %w", partition, err)
	}
	defer rows.Close()

	return scanPassageRows(rows)
}

// ReplacePartition deletes the partition's existing passages and inserts the
// new set in one transaction, so a seeding run is all-or-nothing per
// category.
func (s *Postgres) ReplacePartition(ctx context.Context, partition string, passages []domain.Passage) error {
	for i := range passages {
		if err := domain.ValidatePassage(&passages[i]); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid passage", err)
		}
		if len(passages[i].Embedding) == 0 {
			return domain.NewDomainError(domain.ErrCodeValidation,
				fmt.Sprintf("passage %s has no embedding", passages[i].ID))
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	category := ""
	if len(passages) > 0 {
		category = string(passages[0].Category)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO partitions (name, category, seeded_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET category = $2, seeded_at = $3`,
		partition, category, now,
	)
	if err != nil {
		return fmt.Errorf("failed to register partition %q: %w", partition, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM passages WHERE partition = $1`, partition); err != nil {
		return fmt.Errorf("failed to clear partition %q: %w", partition, err)
	}

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

func scanPassageRows(rows pgx.Rows) ([]domain.Passage, error) {
	passages := make([]domain.Passage, 0)
	for rows.Next() {
		var p domain.Passage
		var category string
		if err := rows.Scan(&p.ID, &category, &p.Title, &p.Section, &p.Content, &p.Score); err != nil {
			return nil, err
		}
		cat, ok := domain.ParseCategory(category)
		if !ok {
			return nil, domain.NewDomainError(domain.ErrCodeValidation,
				fmt.Sprintf("stored passage %s has unknown category %q", p.ID, category))
		}
		p.Category = cat
		passages = append(passages, p)
	}
	return passages, rows.Err()
}
