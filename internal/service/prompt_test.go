package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foliolabs/folio/internal/domain"
)

func TestBuildContext(t *testing.T) {
	passages := []domain.Passage{
		{ID: "a", Content: "first passage"},
		{ID: "b", Content: "second passage"},
		{ID: "c", Content: "third passage"},
	}

	got := BuildContext(passages)

	assert.Equal(t, "first passage\n\n---\n\nsecond passage\n\n---\n\nthird passage", got)
	// n passages carry exactly n-1 separators.
	assert.Equal(t, len(passages)-1, strings.Count(got, ContextSeparator))
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
	assert.Equal(t, "", BuildContext([]domain.Passage{}))
}

func TestBuildContext_SinglePassage(t *testing.T) {
	got := BuildContext([]domain.Passage{{ID: "a", Content: "only one"}})
	assert.Equal(t, "only one", got)
	assert.NotContains(t, got, ContextSeparator)
}

func TestRefusalSentence(t *testing.T) {
	got := RefusalSentence("Safin")
	assert.Contains(t, got, "I'm here to help you learn about Safin.")
	assert.Contains(t, got, "What would you like to know?")
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt("Safin", "ctx-block-marker")

	assert.Contains(t, prompt, "Safin's portfolio website")
	assert.Contains(t, prompt, "CONTEXT:\nctx-block-marker")
	assert.Contains(t, prompt, RefusalSentence("Safin"))
	assert.Contains(t, prompt, "REVERSE CHRONOLOGICAL ORDER")
	assert.Contains(t, prompt, "repository link for EVERY project")
	assert.NotContains(t, prompt, "%[1]s")
}

func TestBuildSystemPrompt_EmptyContext(t *testing.T) {
	prompt := BuildSystemPrompt("Safin", "")
	assert.Contains(t, prompt, "CONTEXT:\n\n")
}
