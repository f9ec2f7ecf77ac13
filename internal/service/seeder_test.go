package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolabs/folio/internal/domain"
)

// fakeEmbedder returns a fixed-width vector for any text.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, domain.EmbeddingDimensions), nil
}

func writeKnowledgeDoc(t *testing.T, dir string, cat domain.Category, content string) {
	t.Helper()
	path := filepath.Join(dir, DocumentName(cat))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDocumentName(t *testing.T) {
	assert.Equal(t, "Experience.md", DocumentName(domain.CategoryExperience))
	assert.Equal(t, "About.md", DocumentName(domain.CategoryAbout))
}

func TestSeeder_SeedCategory(t *testing.T) {
	dir := t.TempDir()
	writeKnowledgeDoc(t, dir, domain.CategoryProjects, "## NeoBank\n\nA payments platform.\n\n## Folio\n\nA chatbot.")

	store := newStubStore()
	seeder := NewSeeder(NewDirSource(dir), &fakeEmbedder{}, store, "portfolio")

	count, err := seeder.SeedCategory(context.Background(), domain.CategoryProjects)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stored := store.results["portfolio-projects"]
	require.Len(t, stored, 2)
	assert.Equal(t, "projects-chunk-1", stored[0].ID)
	assert.Equal(t, "projects-chunk-2", stored[1].ID)
	assert.Equal(t, domain.CategoryProjects, stored[0].Category)
	assert.Equal(t, "NeoBank", stored[0].Title)
	assert.Len(t, stored[0].Embedding, domain.EmbeddingDimensions)
}

func TestSeeder_SeedCategory_TitleFallsBackToCategory(t *testing.T) {
	dir := t.TempDir()
	writeKnowledgeDoc(t, dir, domain.CategoryContact, "email me at test@example.com")

	store := newStubStore()
	seeder := NewSeeder(NewDirSource(dir), &fakeEmbedder{}, store, "portfolio")

	_, err := seeder.SeedCategory(context.Background(), domain.CategoryContact)
	require.NoError(t, err)

	stored := store.results["portfolio-contact"]
	require.Len(t, stored, 1)
	assert.Equal(t, "Contact", stored[0].Title)
}

func TestSeeder_SeedCategory_MissingDocumentSkips(t *testing.T) {
	store := newStubStore()
	seeder := NewSeeder(NewDirSource(t.TempDir()), &fakeEmbedder{}, store, "portfolio")

	count, err := seeder.SeedCategory(context.Background(), domain.CategoryEducation)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NotContains(t, store.results, "portfolio-education")
}

func TestSeeder_SeedCategory_EmbeddingFailureAborts(t *testing.T) {
	dir := t.TempDir()
	writeKnowledgeDoc(t, dir, domain.CategorySkills, "## Languages\n\nGo and SQL.")

	store := newStubStore()
	seeder := NewSeeder(NewDirSource(dir), &fakeEmbedder{err: errors.New("quota exceeded")}, store, "portfolio")

	_, err := seeder.SeedCategory(context.Background(), domain.CategorySkills)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed chunk")
	assert.NotContains(t, store.results, "portfolio-skills")
}

func TestSeeder_SeedAll(t *testing.T) {
	dir := t.TempDir()
	for i, cat := range domain.Categories() {
		writeKnowledgeDoc(t, dir, cat, fmt.Sprintf("## Section %d\n\ncontent for %s", i, cat))
	}

	store := newStubStore()
	seeder := NewSeeder(NewDirSource(dir), &fakeEmbedder{}, store, "portfolio")

	count, err := seeder.SeedAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(domain.Categories()), count)

	for _, cat := range domain.Categories() {
		assert.Contains(t, store.results, cat.PartitionName("portfolio"))
	}
}

func TestSeeder_SeedAll_PartialDocumentsOK(t *testing.T) {
	dir := t.TempDir()
	writeKnowledgeDoc(t, dir, domain.CategoryAbout, "## Me\n\nhello")

	store := newStubStore()
	seeder := NewSeeder(NewDirSource(dir), &fakeEmbedder{}, store, "portfolio")

	count, err := seeder.SeedAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeKnowledgeDoc(t, dir, domain.CategoryAbout, "hello")

	source := NewDirSource(dir)

	data, err := source.ReadDocument(context.Background(), "About.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = source.ReadDocument(context.Background(), "Missing.md")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	fp, err := source.Fingerprint(context.Background(), "About.md")
	require.NoError(t, err)
	assert.NotEmpty(t, fp)

	fp, err = source.Fingerprint(context.Background(), "Missing.md")
	require.NoError(t, err)
	assert.Empty(t, fp)
}

func TestSeeder_Fingerprints(t *testing.T) {
	dir := t.TempDir()
	writeKnowledgeDoc(t, dir, domain.CategoryAbout, "hello")

	seeder := NewSeeder(NewDirSource(dir), &fakeEmbedder{}, newStubStore(), "portfolio")

	prints, err := seeder.Fingerprints(context.Background())
	require.NoError(t, err)
	assert.Len(t, prints, len(domain.Categories()))
	assert.NotEmpty(t, prints[domain.CategoryAbout])
	assert.Empty(t, prints[domain.CategoryExperience])
}
