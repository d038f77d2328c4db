package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/protu/internal/model"
	"github.com/pavelanni/protu/internal/tutor/prompts"
)

func fakeLLM(t *testing.T, reply string, got *openai.ChatCompletionRequest) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func TestUnavailable(t *testing.T) {
	tu, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tu.Available() {
		t.Fatal("tutor without model should be unavailable")
	}
	msg, err := tu.Ask(context.Background(), "u1", prompts.Lesson{}, nil, "hello")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if msg.Content != UnavailableMessage || msg.Role != model.RoleAssistant {
		t.Errorf("reply = %+v", msg)
	}
}

func TestInvalidVariant(t *testing.T) {
	if _, err := New(Config{Variant: "strict"}); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestAsk(t *testing.T) {
	var req openai.ChatCompletionRequest
	url := fakeLLM(t, "  A closure keeps its scope.  ", &req)
	tu, err := New(Config{BaseURL: url, APIKey: "k", Model: "test-model", Variant: prompts.VariantConcise})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	history := []model.ChatMessage{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	}
	msg, err := tu.Ask(context.Background(), "u1", prompts.Lesson{Course: "JS", Lesson: "Closures"}, history, "what is a closure?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if msg.Content != "A closure keeps its scope." {
		t.Errorf("reply = %q", msg.Content)
	}
	if req.Model != "test-model" || len(req.Messages) != 4 {
		t.Fatalf("request = %+v", req)
	}
	if req.Messages[0].Role != openai.ChatMessageRoleSystem || !strings.Contains(req.Messages[0].Content, "LESSON: Closures") {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if req.Messages[2].Role != openai.ChatMessageRoleAssistant || req.Messages[3].Content != "what is a closure?" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestRateLimit(t *testing.T) {
	url := fakeLLM(t, "ok", nil)
	tu, err := New(Config{BaseURL: url, Model: "m", Rate: 1, Burst: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if _, err := tu.Ask(ctx, "u1", prompts.Lesson{}, nil, "one"); err != nil {
		t.Fatalf("first Ask: %v", err)
	}
	if _, err := tu.Ask(ctx, "u1", prompts.Lesson{}, nil, "two"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("second Ask = %v, want ErrRateLimited", err)
	}
	if _, err := tu.Ask(ctx, "u2", prompts.Lesson{}, nil, "other learner"); err != nil {
		t.Errorf("other learner limited: %v", err)
	}
	tu.Forget("u1")
	if _, err := tu.Ask(ctx, "u1", prompts.Lesson{}, nil, "after forget"); err != nil {
		t.Errorf("Ask after Forget: %v", err)
	}
}
