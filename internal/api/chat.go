package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pavelanni/protu/internal/model"
)

// ListChats fetches the user's chat sessions.
func (s *Session) ListChats(ctx context.Context) ([]model.ChatSession, error) {
	var out []model.ChatSession
	if err := s.do(ctx, call{name: "chats.list", method: http.MethodGet, path: "/v1/chats", out: &out, auth: true}); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateChat starts a named chat session.
func (s *Session) CreateChat(ctx context.Context, name string) (*model.ChatSession, error) {
	var out model.ChatSession
	body := map[string]string{"name": name}
	if err := s.do(ctx, call{name: "chats.create", method: http.MethodPost, path: "/v1/chats", body: body, out: &out, auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessages fetches the messages of a chat.
func (s *Session) ListMessages(ctx context.Context, chatID string) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	if err := s.do(ctx, call{name: "messages.list", method: http.MethodGet, path: "/v1/messages/" + url.PathEscape(chatID), out: &out, auth: true}); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a user message and returns the messages the backend produced
// in response (the stored user message and the tutor reply).
func (s *Session) SendMessage(ctx context.Context, chatID, content string) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	body := map[string]string{"content": content}
	if err := s.do(ctx, call{name: "messages.send", method: http.MethodPost, path: "/v1/messages/" + url.PathEscape(chatID), body: body, out: &out, auth: true}); err != nil {
		return nil, err
	}
	return out, nil
}
