package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/foliolabs/folio/internal/domain"
)

// KnowledgeSeeder defines the interface for reseeding the vector store from
// the knowledge documents.
type KnowledgeSeeder interface {
	SeedAll(ctx context.Context) (int, error)
	Fingerprints(ctx context.Context) (map[domain.Category]string, error)
}

// ReseedProcessor watches the knowledge documents and reseeds the vector
// store when any of them changes. The first poll only records a baseline;
// initial seeding is an explicit operation.
type ReseedProcessor struct {
	seeder KnowledgeSeeder
	last   map[domain.Category]string
}

// NewReseedProcessor creates a new ReseedProcessor instance
func NewReseedProcessor(seeder KnowledgeSeeder) *ReseedProcessor {
	return &ReseedProcessor{seeder: seeder}
}

// Process implements the Processor interface
func (p *ReseedProcessor) Process(ctx context.Context) error {
	current, err := p.seeder.Fingerprints(ctx)
	if err != nil {
		return fmt.Errorf("failed to fingerprint knowledge documents: %w", err)
	}

	if p.last == nil {
		p.last = current
		return nil
	}

	changed := changedCategories(p.last, current)
	if len(changed) == 0 {
		return nil
	}

	log.Printf("Knowledge documents changed (%v), reseeding", changed)

	count, err := p.seeder.SeedAll(ctx)
	if err != nil {
		// Keep the old baseline so the next poll retries the reseed.
		return fmt.Errorf("failed to reseed knowledge: %w", err)
	}

	p.last = current
	log.Printf("Reseed complete: %d passages", count)
	return nil
}

func changedCategories(last, current map[domain.Category]string) []domain.Category {
	var changed []domain.Category
	for _, cat := range domain.Categories() {
		if last[cat] != current[cat] {
			changed = append(changed, cat)
		}
	}
	return changed
}
