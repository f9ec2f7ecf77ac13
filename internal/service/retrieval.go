package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/foliolabs/folio/internal/domain"
	"github.com/foliolabs/folio/internal/vectorstore"
)

const partitionQueryTimeout = 10 * time.Second

// TopKPolicy maps a category to the number of passages requested from its
// partition.
type TopKPolicy func(domain.Category) int

// Retriever fans a query embedding out across the partitions of the resolved
// categories. Sub-queries run concurrently with all-settled semantics: a
// failing or missing partition contributes nothing and is logged, never
// aborting the fan-out. Results keep partition-submission order regardless
// of completion order; ordering within a partition is the store's own
// similarity ranking.
type Retriever struct {
	store  vectorstore.Store
	prefix string
	topK   TopKPolicy
}

func NewRetriever(store vectorstore.Store, prefix string, topK TopKPolicy) *Retriever {
	if topK == nil {
		topK = func(domain.Category) int { return 5 }
	}
	return &Retriever{store: store, prefix: prefix, topK: topK}
}

// Retrieve returns the merged passage list for the given categories.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, categories []domain.Category) []domain.Passage {
	if len(categories) == 0 {
		return nil
	}

	perPartition := make([][]domain.Passage, len(categories))

	var wg sync.WaitGroup
	for i, cat := range categories {
		wg.Add(1)
		go func(slot int, cat domain.Category) {
			defer wg.Done()

			queryCtx, cancel := context.WithTimeout(ctx, partitionQueryTimeout)
			defer cancel()

			partition := cat.PartitionName(r.prefix)
			passages, err := r.store.Query(queryCtx, partition, vector, r.topK(cat))
			if err != nil {
				if errors.Is(err, domain.ErrPartitionNotFound) {
					log.Printf("retrieval: partition %q missing, skipping", partition)
				} else {
					log.Printf("retrieval: partition %q query failed: %v", partition, err)
				}
				return
			}
			perPartition[slot] = passages
		}(i, cat)
	}
	wg.Wait()

	merged := make([]domain.Passage, 0)
	for _, passages := range perPartition {
		merged = append(merged, passages...)
	}
	return merged
}
