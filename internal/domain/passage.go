package domain

import "fmt"

// EmbeddingDimensions is the expected embedding width for every passage in
// the store. It matches the text-embedding-ada-002 output.
const EmbeddingDimensions = 1536

// Passage is one retrievable unit of knowledge-base text with its embedding.
// Title and Section are provenance metadata only; retrieval scoring ignores
// them.
type Passage struct {
	ID        string
	Category  Category
	Title     string
	Section   string
	Content   string
	Embedding []float32
	Score     float32
}

// ValidatePassage rejects malformed passages at the store boundary.
func ValidatePassage(p *Passage) error {
	if p == nil {
		return fmt.Errorf("passage cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("passage ID is required")
	}
	if !IsValidCategory(p.Category) {
		return fmt.Errorf("passage category is invalid: %s", p.Category)
	}
	if p.Content == "" {
		return fmt.Errorf("passage content is required")
	}
	if len(p.Embedding) != 0 && len(p.Embedding) != EmbeddingDimensions {
		return fmt.Errorf("passage embedding has %d dimensions, expected %d", len(p.Embedding), EmbeddingDimensions)
	}
	return nil
}
