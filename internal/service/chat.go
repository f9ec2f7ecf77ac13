package service

import (
	"context"
	"log"
	"time"

	"github.com/foliolabs/folio/internal/domain"
	"github.com/foliolabs/folio/internal/openai"
	"github.com/foliolabs/folio/internal/telemetry"
)

const embeddingTimeout = 15 * time.Second

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChatClient opens streaming completions.
type ChatClient interface {
	StreamChat(ctx context.Context, req openai.ChatRequest) (openai.Stream, error)
}

// QueryRouter resolves a question to knowledge categories.
type QueryRouter interface {
	Route(ctx context.Context, query string) []domain.Category
}

// PassageRetriever fans retrieval out across category partitions.
type PassageRetriever interface {
	Retrieve(ctx context.Context, vector []float32, categories []domain.Category) []domain.Passage
}

// ChatConfig controls answer generation.
type ChatConfig struct {
	SubjectName string
	Temperature float32
}

// DefaultChatConfig returns the default generation settings.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		SubjectName: "Safin",
		Temperature: 0.7,
	}
}

// ChatService runs the retrieval-augmented answer pipeline for one request:
// route the question, embed it, fan retrieval out over the resolved
// partitions, assemble the context block, and open the answer stream.
// Routing and retrieval failures are absorbed inside their components; only
// embedding and generation failures reach the caller.
type ChatService struct {
	router    QueryRouter
	embedding EmbeddingClient
	retriever PassageRetriever
	chat      ChatClient
	cfg       ChatConfig
}

func NewChatService(
	router QueryRouter,
	embedding EmbeddingClient,
	retriever PassageRetriever,
	chat ChatClient,
	cfg ChatConfig,
) *ChatService {
	if cfg.SubjectName == "" {
		cfg.SubjectName = DefaultChatConfig().SubjectName
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultChatConfig().Temperature
	}
	return &ChatService{
		router:    router,
		embedding: embedding,
		retriever: retriever,
		chat:      chat,
		cfg:       cfg,
	}
}

// Ask validates the conversation and returns the answer token stream. The
// caller owns the stream and must Close it; cancelling ctx cancels the
// provider stream.
func (s *ChatService) Ask(ctx context.Context, conv domain.Conversation) (openai.Stream, error) {
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	query := conv.Question()

	ctx, span := telemetry.StartSpan(ctx, "ChatService.Ask", telemetry.SpanAttributes{
		Operation: "ask",
	})
	defer span.End()

	routed := domain.RoutedQuery{Raw: query, Categories: s.router.Route(ctx, query)}
	log.Printf("chat: query routed to categories %v", routed.Categories)

	embedCtx, cancel := context.WithTimeout(ctx, embeddingTimeout)
	vector, err := s.embedding.GenerateEmbedding(embedCtx, query)
	cancel()
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "failed to generate query embedding", err)
	}

	passages := s.retriever.Retrieve(ctx, vector, routed.Categories)
	log.Printf("chat: retrieved %d passages", len(passages))

	contextBlock := BuildContext(passages)
	system := BuildSystemPrompt(s.cfg.SubjectName, contextBlock)

	messages := make([]openai.Message, 0, len(conv))
	for _, m := range conv.History() {
		messages = append(messages, openai.Message{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, openai.Message{Role: string(domain.RoleUser), Content: query})

	stream, err := s.chat.StreamChat(ctx, openai.ChatRequest{
		System:      system,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "failed to generate answer", err)
	}

	return stream, nil
}
