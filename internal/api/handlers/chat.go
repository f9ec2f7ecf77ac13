package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/domain"
	"github.com/foliolabs/folio/internal/openai"
	"github.com/foliolabs/folio/internal/telemetry"
)

// ChatService runs the retrieval-augmented answer pipeline.
type ChatService interface {
	Ask(ctx context.Context, conv domain.Conversation) (openai.Stream, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// Chat accepts a full conversation and streams the assistant's answer as
// plain text. Success is a streamed 200; every failure before the first
// token is a JSON {error, details} body. Once streaming has begun the
// response cannot change status, so mid-stream failures just end the body.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv := make(domain.Conversation, 0, len(req.Messages))
	for _, m := range req.Messages {
		conv = append(conv, domain.Message{Role: domain.Role(m.Role), Content: m.Content})
	}

	// Reject malformed conversations before any external call.
	if err := conv.Validate(); err != nil {
		api.ErrorWithDetails(w, http.StatusBadRequest, "invalid chat request", errorDetails(err))
		return
	}

	stream, err := h.svc.Ask(r.Context(), conv)
	if err != nil {
		status := api.DomainErrorToHTTP(err)
		if status < http.StatusInternalServerError {
			api.ErrorWithDetails(w, status, "invalid chat request", errorDetails(err))
			return
		}
		api.ErrorWithDetails(w, http.StatusInternalServerError, "Failed to process chat request", errorDetails(err))
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for {
		token, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				// Headers are gone; all we can do is report and end the body.
				log.Printf("chat: stream interrupted: %v", err)
				telemetry.CaptureError(r.Context(), err)
			}
			return
		}
		if _, err := io.WriteString(w, token); err != nil {
			// Client went away; the deferred Close cancels the provider stream.
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// errorDetails extracts the underlying cause for the details field.
func errorDetails(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Err != nil {
			return domainErr.Err.Error()
		}
		return domainErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return "Unknown error"
}
