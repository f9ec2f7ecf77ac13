package domain

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func isValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Conversation is the full message history supplied by the caller on every
// request. The server keeps no session state; the last entry must be the
// current user question.
type Conversation []Message

// Validate rejects malformed conversations before any external call is made.
func (c Conversation) Validate() error {
	if len(c) == 0 {
		return ErrEmptyConversation
	}
	for _, m := range c {
		if !isValidRole(m.Role) {
			return NewDomainError(ErrCodeValidation, "unknown message role: "+string(m.Role))
		}
	}
	last := c[len(c)-1]
	if last.Role != RoleUser {
		return ErrLastTurnNotUser
	}
	if strings.TrimSpace(last.Content) == "" {
		return ErrEmptyQuestion
	}
	return nil
}

// Question returns the current user question (the last turn's content).
func (c Conversation) Question() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1].Content
}

// History returns all turns before the current question, replayed to the
// answer generator as prior context.
func (c Conversation) History() []Message {
	if len(c) <= 1 {
		return nil
	}
	return c[:len(c)-1]
}
