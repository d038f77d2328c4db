package model

import (
	"context"
	"time"
)

// User is the signed-in account as reported by the backend.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// AuthSession maps a browser session cookie to the backend bearer token.
type AuthSession struct {
	ID        string
	UserID    string
	Username  string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type sessionCtxKey struct{}

// ContextWithSession stores the authenticated session in the request context.
func ContextWithSession(ctx context.Context, s *AuthSession) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext retrieves the authenticated session from context, or nil.
func SessionFromContext(ctx context.Context) *AuthSession {
	s, _ := ctx.Value(sessionCtxKey{}).(*AuthSession)
	return s
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// Role represents a chat message role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatSession is a tutoring conversation owned by the backend.
type ChatSession struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMessage is one message in a chat or lesson tutor conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Preferences holds per-user UI settings kept by the web front.
type Preferences struct {
	Theme string
	Lang  string
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/ru")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	Lang          string // default UI language
}
