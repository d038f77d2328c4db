// Package tutor answers learner questions about a lesson through an
// OpenAI-compatible chat completion API.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/pavelanni/protu/internal/model"
	"github.com/pavelanni/protu/internal/tutor/prompts"
)

// UnavailableMessage is the reply when no model is configured.
const UnavailableMessage = "The lesson assistant is not available right now. Please try again later."

// maxHistory is the number of earlier messages sent along with a question.
const maxHistory = 20

var (
	// ErrRateLimited is returned when a learner asks too often.
	ErrRateLimited = errors.New("too many questions, please wait a moment")
	// ErrEmptyReply is returned when the model produced no choices.
	ErrEmptyReply = errors.New("LLM returned no choices")
)

// Config configures the tutor.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Variant prompts.Variant
	// Rate is questions per minute per learner; 0 disables limiting.
	Rate  float64
	Burst int
}

// Tutor wraps an OpenAI-compatible API client.
type Tutor struct {
	api     *openai.Client
	model   string
	variant prompts.Variant
	limit   rate.Limit
	burst   int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a tutor. With an empty model name the tutor is unavailable and
// replies with UnavailableMessage.
func New(cfg Config) (*Tutor, error) {
	if cfg.Variant == "" {
		cfg.Variant = prompts.VariantStandard
	}
	if !prompts.IsValidVariant(string(cfg.Variant)) {
		return nil, fmt.Errorf("invalid tutor variant %q", cfg.Variant)
	}
	if err := prompts.Load(prompts.FS); err != nil {
		return nil, fmt.Errorf("loading tutor prompts: %w", err)
	}
	t := &Tutor{
		model:    cfg.Model,
		variant:  cfg.Variant,
		limit:    rate.Inf,
		burst:    max(1, cfg.Burst),
		limiters: make(map[string]*rate.Limiter),
	}
	if cfg.Rate > 0 {
		t.limit = rate.Every(time.Duration(float64(time.Minute) / cfg.Rate))
	}
	if cfg.Model != "" {
		config := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
		t.api = openai.NewClientWithConfig(config)
	}
	return t, nil
}

// Available reports whether a model is configured.
func (t *Tutor) Available() bool { return t.api != nil }

// Ask answers question in the context of lesson. learner keys the rate limit;
// history is the conversation so far, oldest first.
func (t *Tutor) Ask(ctx context.Context, learner string, lesson prompts.Lesson, history []model.ChatMessage, question string) (model.ChatMessage, error) {
	reply := model.ChatMessage{Role: model.RoleAssistant, CreatedAt: time.Now()}
	if !t.Available() {
		reply.Content = UnavailableMessage
		return reply, nil
	}
	if !t.limiter(learner).Allow() {
		return model.ChatMessage{}, ErrRateLimited
	}

	system, err := prompts.BuildSystemPrompt(t.variant, lesson)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("building tutor prompt: %w", err)
	}

	chatMsgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
	}
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompts.SanitizeQuestion(question),
	})

	start := time.Now()
	resp, err := t.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.model,
		Messages:    chatMsgs,
		Temperature: 0.4,
	})
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.ChatMessage{}, ErrEmptyReply
	}
	reply.Content = strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("tutor reply",
		"lesson", lesson.Lesson,
		"variant", t.variant,
		"duration", time.Since(start),
		"tokens", resp.Usage.TotalTokens,
	)
	return reply, nil
}

func (t *Tutor) limiter(learner string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[learner]
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[learner] = l
	}
	return l
}

// Forget drops the rate limiter of learner, e.g. on sign-out.
func (t *Tutor) Forget(learner string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.limiters, learner)
}
