//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolabs/folio/internal/domain"
)

var testDocuments = map[domain.Category]string{
	domain.CategoryProjects: `## NeoBank

A payments platform side project built with Go and Postgres.

## Folio

This very chatbot.`,
	domain.CategorySkills: `## Languages

Go, TypeScript, SQL.`,
}

func postChat(t *testing.T, env *E2ETestEnv, payload string) *http.Response {
	t.Helper()
	resp, err := env.HTTPClient.Post(env.ServerURL+"/chat", "application/json",
		bytes.NewReader([]byte(payload)))
	require.NoError(t, err)
	return resp
}

func TestE2E_ChatFlow(t *testing.T) {
	env := SetupE2EEnv(t, testDocuments)
	defer env.Cleanup()

	resp := postChat(t, env, `{"messages":[{"role":"user","content":"What projects have you built?"}]}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "I build payments systems.", string(body))

	// The assembled system prompt carries the retrieved project passages.
	last := env.Chat.LastRequest()
	assert.Contains(t, last.System, "NeoBank")
	assert.Contains(t, last.System, "Safin")
}

func TestE2E_ChatKeepsHistory(t *testing.T) {
	env := SetupE2EEnv(t, testDocuments)
	defer env.Cleanup()

	resp := postChat(t, env, `{"messages":[
		{"role":"user","content":"What projects have you built?"},
		{"role":"assistant","content":"I built NeoBank."},
		{"role":"user","content":"What language did you use?"}
	]}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	io.Copy(io.Discard, resp.Body)

	last := env.Chat.LastRequest()
	require.Len(t, last.Messages, 3)
	assert.Equal(t, "assistant", last.Messages[1].Role)
	assert.Equal(t, "What language did you use?", last.Messages[2].Content)
}

func TestE2E_ChatValidation(t *testing.T) {
	env := SetupE2EEnv(t, testDocuments)
	defer env.Cleanup()

	resp := postChat(t, env, `{"messages":[]}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.NotEmpty(t, payload["error"])
}

func TestE2E_MissingPartitionTolerated(t *testing.T) {
	// Only two categories are seeded; a question routed at unseeded
	// categories must still produce an answer.
	env := SetupE2EEnv(t, testDocuments)
	defer env.Cleanup()

	resp := postChat(t, env, `{"messages":[{"role":"user","content":"How can I contact you about work experience?"}]}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, string(body))
}

func TestE2E_ReseedReplacesPartition(t *testing.T) {
	env := SetupE2EEnv(t, testDocuments)
	defer env.Cleanup()

	count, err := env.Seeder.SeedCategory(env.Ctx, domain.CategoryProjects)
	require.NoError(t, err)
	require.Greater(t, count, 0)

	// Re-seeding must not duplicate passages.
	var n int
	partition := domain.CategoryProjects.PartitionName("portfolio")
	err = env.Pool.QueryRow(env.Ctx,
		`SELECT count(*) FROM passages WHERE partition = $1`, partition).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, count, n)

	// Passage ids follow the deterministic naming scheme.
	var id string
	err = env.Pool.QueryRow(env.Ctx,
		`SELECT id FROM passages WHERE partition = $1 ORDER BY id LIMIT 1`, partition).Scan(&id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "projects-chunk-"))
}
