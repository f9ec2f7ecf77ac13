//go:build e2e

package e2e

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foliolabs/folio/internal/api/handlers"
	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/domain"
	"github.com/foliolabs/folio/internal/openai"
	"github.com/foliolabs/folio/internal/server"
	"github.com/foliolabs/folio/internal/service"
	"github.com/foliolabs/folio/internal/testutil"
	"github.com/foliolabs/folio/internal/vectorstore"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	Store        vectorstore.Store
	Seeder       *service.Seeder
	Chat         *fakeChatClient
	KnowledgeDir string
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client
}

// SetupE2EEnv starts a pgvector container, migrates it, seeds the knowledge
// documents, and serves the chat API against deterministic fake model
// clients.
func SetupE2EEnv(t *testing.T, documents map[domain.Category]string) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	knowledgeDir := t.TempDir()
	for cat, content := range documents {
		path := filepath.Join(knowledgeDir, service.DocumentName(cat))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write knowledge document: %v", err)
		}
	}

	cfg := &config.Config{
		VectorBackend: config.VectorBackendPgvector,
		IndexPrefix:   "portfolio",
		TopKDefault:   5,
	}
	store, err := vectorstore.New(cfg, pool)
	if err != nil {
		t.Fatalf("failed to create vector store: %v", err)
	}

	embedding := &fakeEmbeddingClient{}
	seeder := service.NewSeeder(service.NewDirSource(knowledgeDir), embedding, store, cfg.IndexPrefix)
	if _, err := seeder.SeedAll(ctx); err != nil {
		t.Fatalf("failed to seed knowledge: %v", err)
	}

	chat := &fakeChatClient{tokens: []string{"I build ", "payments ", "systems."}}
	chatSvc := service.NewChatService(
		service.NewFallbackRouter(),
		embedding,
		service.NewRetriever(store, cfg.IndexPrefix, cfg.TopK),
		chat,
		service.ChatConfig{SubjectName: "Safin", Temperature: 0.7},
	)

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}
	serverURL, serverCloser := startServer(t, chatSvc, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		Store:        store,
		Seeder:       seeder,
		Chat:         chat,
		KnowledgeDir: knowledgeDir,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// startServer starts the HTTP server with the chat handler
func startServer(t *testing.T, chatSvc *service.ChatService, port int) (string, func()) {
	router := server.NewRouter(server.RouterConfig{
		ChatHandler: handlers.NewChatHandler(chatSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// fakeEmbeddingClient derives a deterministic unit-ish vector from the text,
// so identical text always lands on the same point in the index.
type fakeEmbeddingClient struct{}

func (c *fakeEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, domain.EmbeddingDimensions)
	for i := range vec {
		word := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
		vec[i] = float32(word%1000)/1000.0 - 0.5
	}
	return vec, nil
}

// fakeChatClient streams a fixed answer and records the last request so tests
// can inspect the assembled system prompt.
type fakeChatClient struct {
	mu       sync.Mutex
	tokens   []string
	lastReq  openai.ChatRequest
	requests int
}

func (c *fakeChatClient) StreamChat(ctx context.Context, req openai.ChatRequest) (openai.Stream, error) {
	c.mu.Lock()
	c.lastReq = req
	c.requests++
	c.mu.Unlock()
	return &fixedStream{tokens: c.tokens}, nil
}

func (c *fakeChatClient) LastRequest() openai.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReq
}

type fixedStream struct {
	tokens []string
	pos    int
}

func (s *fixedStream) Recv() (string, error) {
	if s.pos >= len(s.tokens) {
		return "", io.EOF
	}
	token := s.tokens[s.pos]
	s.pos++
	return token, nil
}

func (s *fixedStream) Close() error { return nil }
