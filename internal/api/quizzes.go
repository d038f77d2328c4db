package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pavelanni/protu/internal/model"
)

// Stage1Request creates a quiz draft from a prompt and parameters.
type Stage1Request struct {
	Prompt        string               `json:"prompt"`
	Difficulty    model.Difficulty     `json:"difficultyLevel"`
	NumQuestions  int                  `json:"numberOfQuestions"`
	QuestionTypes []model.QuestionType `json:"questionTypes"`
	TimeLimit     int                  `json:"timeLimit"` // seconds
}

// Stage1Response is the draft id plus subtopic suggestions.
type Stage1Response struct {
	ID                  string           `json:"id"`
	SubtopicSuggestions []model.Subtopic `json:"subtopicSuggestions"`
}

// Stage2Request finalizes a draft into a full quiz.
type Stage2Request struct {
	QuizID          string   `json:"quizID"`
	Subtopics       []string `json:"subtopics"`
	AdditionalPrefs string   `json:"additionalPrefs"`
}

// AttemptFilter selects the completed-attempt collection.
type AttemptFilter string

const (
	FilterPassed AttemptFilter = "passed"
	FilterFailed AttemptFilter = "failed"
)

// ListQuery is the pagination and sorting of a dashboard listing.
type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string // empty omits the parameter
	SortOrder string // asc or desc
}

func (q ListQuery) encode() string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v.Encode()
}

// CreateDraft runs the first generation stage.
func (s *Session) CreateDraft(ctx context.Context, req Stage1Request) (*Stage1Response, error) {
	var out Stage1Response
	err := s.do(ctx, call{name: "quizzes.stage1", method: http.MethodPost, path: "/v1/quizzes/stage1", body: req, out: &out, auth: true})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FinalizeDraft runs the second generation stage.
func (s *Session) FinalizeDraft(ctx context.Context, req Stage2Request) error {
	return s.do(ctx, call{name: "quizzes.stage2", method: http.MethodPost, path: "/v1/quizzes/stage2", body: req, out: nil, auth: true})
}

// GetQuiz fetches a quiz with its questions for taking.
func (s *Session) GetQuiz(ctx context.Context, quizID string) (*model.Quiz, error) {
	var out model.Quiz
	err := s.do(ctx, call{name: "quizzes.get", method: http.MethodGet, path: "/v1/quizzes/" + url.PathEscape(quizID), out: &out, auth: true})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitAttempt hands in answers and returns the graded attempt.
func (s *Session) SubmitAttempt(ctx context.Context, sub model.Submission) (*model.QuizAttempt, error) {
	var out model.QuizAttempt
	err := s.do(ctx, call{name: "attempts.submit", method: http.MethodPost, path: "/v1/attempts", body: sub, out: &out, auth: true})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AttemptPreview fetches the best attempt of a quiz with its review.
func (s *Session) AttemptPreview(ctx context.Context, quizID string) (*model.QuizAttempt, error) {
	var out model.QuizAttempt
	err := s.do(ctx, call{name: "attempts.preview", method: http.MethodGet, path: "/v1/attempts/attempted-preview/" + url.PathEscape(quizID), out: &out, auth: true})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAttempts fetches one page of passed or failed attempts.
func (s *Session) ListAttempts(ctx context.Context, filter AttemptFilter, q ListQuery) (*model.AttemptPage, error) {
	if filter != FilterPassed && filter != FilterFailed {
		return nil, fmt.Errorf("unknown attempt filter %q", filter)
	}
	var out model.AttemptPage
	path := "/v1/quizzes/dashboard/" + string(filter) + "?" + q.encode()
	if err := s.do(ctx, call{name: "dashboard." + string(filter), method: http.MethodGet, path: path, out: &out, auth: true}); err != nil {
		return nil, err
	}
	if out.Quizzes == nil {
		return nil, fmt.Errorf("invalid data format from API: quizzes array missing")
	}
	return &out, nil
}

// ListDrafts fetches one page of drafts.
func (s *Session) ListDrafts(ctx context.Context, q ListQuery) (*model.DraftPage, error) {
	var out model.DraftPage
	path := "/v1/quizzes/dashboard/drafts?" + q.encode()
	if err := s.do(ctx, call{name: "dashboard.drafts", method: http.MethodGet, path: path, out: &out, auth: true}); err != nil {
		return nil, err
	}
	if out.Quizzes == nil {
		return nil, fmt.Errorf("invalid data format from API: drafts array missing")
	}
	return &out, nil
}

// Summary fetches the dashboard aggregates.
func (s *Session) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	var out model.DashboardSummary
	err := s.do(ctx, call{name: "dashboard.summary", method: http.MethodGet, path: "/v1/quizzes/dashboard/summary", out: &out, auth: true})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDraft removes a draft.
func (s *Session) DeleteDraft(ctx context.Context, draftID string) error {
	return s.do(ctx, call{name: "drafts.delete", method: http.MethodDelete, path: "/v1/quizzes/drafts/" + url.PathEscape(draftID), auth: true})
}
