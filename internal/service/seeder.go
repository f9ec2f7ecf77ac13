package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/foliolabs/folio/internal/domain"
	"github.com/foliolabs/folio/internal/vectorstore"
)

// DocumentSource supplies the per-category knowledge markdown documents.
// ReadDocument fails with domain.ErrDocumentNotFound when the document does
// not exist; Fingerprint returns an opaque change marker ("" when the
// document is missing).
type DocumentSource interface {
	ReadDocument(ctx context.Context, name string) ([]byte, error)
	Fingerprint(ctx context.Context, name string) (string, error)
}

// DirSource reads knowledge documents from a local directory.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *DirSource) Fingerprint(ctx context.Context, name string) (string, error) {
	info, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}

// Seeder runs the offline seeding pass: read one markdown document per
// category, chunk it, embed every chunk, and fully replace the category's
// partition. Passage ids are deterministic: "<category>-chunk-<n>",
// 1-based, stable within one seeding pass.
type Seeder struct {
	source    DocumentSource
	embedding EmbeddingClient
	store     vectorstore.Store
	prefix    string
	chunkCfg  ChunkConfig
}

func NewSeeder(source DocumentSource, embedding EmbeddingClient, store vectorstore.Store, prefix string) *Seeder {
	return &Seeder{
		source:    source,
		embedding: embedding,
		store:     store,
		prefix:    prefix,
		chunkCfg:  DefaultChunkConfig(),
	}
}

// DocumentName returns the source document for a category, e.g.
// "Experience.md".
func DocumentName(cat domain.Category) string {
	return string(cat) + ".md"
}

// SeedAll seeds every category and returns the total passage count. A
// missing document skips its category; any other failure aborts the pass.
func (s *Seeder) SeedAll(ctx context.Context) (int, error) {
	total := 0
	for _, cat := range domain.Categories() {
		n, err := s.SeedCategory(ctx, cat)
		if err != nil {
			return total, fmt.Errorf("failed to seed category %s: %w", cat, err)
		}
		total += n
	}
	return total, nil
}

// SeedCategory seeds one category's partition and returns the passage count.
func (s *Seeder) SeedCategory(ctx context.Context, cat domain.Category) (int, error) {
	docName := DocumentName(cat)
	content, err := s.source.ReadDocument(ctx, docName)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			log.Printf("seeder: %s not found, skipping %s", docName, cat)
			return 0, nil
		}
		return 0, err
	}

	chunks := ChunkMarkdown(string(content), cat, s.chunkCfg)
	log.Printf("seeder: %s yielded %d chunks", docName, len(chunks))

	passages := make([]domain.Passage, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.embedding.GenerateEmbedding(ctx, chunk.Content)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", i+1, docName, err)
		}

		title := chunk.Title
		if title == "" {
			title = string(cat)
		}

		passages = append(passages, domain.Passage{
			ID:        fmt.Sprintf("%s-chunk-%d", strings.ToLower(string(cat)), i+1),
			Category:  cat,
			Title:     title,
			Section:   chunk.Section,
			Content:   chunk.Content,
			Embedding: embedding,
		})
	}

	partition := cat.PartitionName(s.prefix)
	if err := s.store.ReplacePartition(ctx, partition, passages); err != nil {
		return 0, fmt.Errorf("failed to replace partition %s: %w", partition, err)
	}

	return len(passages), nil
}

// Fingerprints returns a change marker for every category document, used by
// the reseed worker to detect edits.
func (s *Seeder) Fingerprints(ctx context.Context) (map[domain.Category]string, error) {
	prints := make(map[domain.Category]string, len(domain.Categories()))
	for _, cat := range domain.Categories() {
		fp, err := s.source.Fingerprint(ctx, DocumentName(cat))
		if err != nil {
			return nil, err
		}
		prints[cat] = fp
	}
	return prints, nil
}
