package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/model"
)

var (
	// ErrUnknownQuestion is returned when selecting for a question not in the quiz.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrUnknownChoice is returned when the choice does not belong to the question.
	ErrUnknownChoice = errors.New("unknown choice")
	// ErrAlreadySubmitted is returned once the attempt has been graded.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrSubmitInFlight is returned while another submission is pending.
	ErrSubmitInFlight = errors.New("submission already in progress")
)

// Submitter hands in answers for grading.
type Submitter interface {
	SubmitAttempt(ctx context.Context, sub model.Submission) (*model.QuizAttempt, error)
}

// Session is one user taking one quiz: answer selection plus countdown.
type Session struct {
	mu         sync.Mutex
	ctx        context.Context
	quiz       model.Quiz
	choices    map[string]map[string]bool
	answers    map[string]string
	countdown  *Countdown
	submitter  Submitter
	submitting bool
	attempt    *model.QuizAttempt
	err        string
}

// NewSession prepares a session for quiz. tick is the countdown interval.
func NewSession(quiz model.Quiz, sub Submitter, tick time.Duration) *Session {
	s := &Session{
		ctx:       context.Background(),
		quiz:      quiz,
		choices:   make(map[string]map[string]bool, len(quiz.Questions)),
		answers:   make(map[string]string),
		submitter: sub,
	}
	for _, q := range quiz.Questions {
		if err := q.Validate(); err != nil {
			slog.Warn("quiz question violates choice invariant", "quiz_id", quiz.ID, "error", err)
		}
		set := make(map[string]bool, len(q.Choices))
		for _, c := range q.Choices {
			set[c.ID] = true
		}
		s.choices[q.ID] = set
	}
	s.countdown = NewCountdown(quiz.TimeLimit, tick, s.expire)
	return s
}

// Start begins the countdown. ctx must outlive the request that started the
// session; expiry submits with it.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.countdown.Start(ctx)
}

// Cancel stops the countdown, e.g. when the user navigates away.
func (s *Session) Cancel() {
	s.countdown.Cancel()
}

// expire submits through the same path as a manual submit.
func (s *Session) expire() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	slog.Info("quiz time expired, submitting", "quiz_id", s.quiz.ID)
	if _, err := s.Submit(ctx); err != nil {
		slog.Error("auto-submit failed", "quiz_id", s.quiz.ID, "error", err)
	}
}

// Quiz returns the quiz being taken.
func (s *Session) Quiz() model.Quiz { return s.quiz }

// Select records choiceID as the single answer for questionID, replacing any
// earlier selection for that question.
func (s *Session) Select(questionID, choiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != nil {
		return ErrAlreadySubmitted
	}
	set, ok := s.choices[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if !set[choiceID] {
		return fmt.Errorf("%w: %s for question %s", ErrUnknownChoice, choiceID, questionID)
	}
	s.answers[questionID] = choiceID
	return nil
}

// Selected returns the chosen choice id for questionID, if any.
func (s *Session) Selected(questionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.answers[questionID]
	return c, ok
}

// Answers returns a copy of the current selection.
func (s *Session) Answers() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.answers)
}

// Remaining is the number of unanswered questions.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(0, len(s.quiz.Questions)-len(s.answers))
}

// TimeLeft is the countdown value in seconds.
func (s *Session) TimeLeft() int { return s.countdown.Remaining() }

// Clock is TimeLeft formatted as MM:SS.
func (s *Session) Clock() string { return FormatClock(s.countdown.Remaining()) }

// Err is the message of the last failed submission.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Attempt is the graded attempt once submission succeeded.
func (s *Session) Attempt() *model.QuizAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Submit hands in the current answers. On failure the session stays
// interactive and may be submitted again.
func (s *Session) Submit(ctx context.Context) (*model.QuizAttempt, error) {
	s.mu.Lock()
	if s.attempt != nil {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	s.submitting = true
	s.err = ""
	sub := model.Submission{
		QuizID:    s.quiz.ID,
		Answers:   maps.Clone(s.answers),
		TimeSpent: max(0, s.quiz.TimeLimit-s.countdown.Remaining()),
	}
	s.mu.Unlock()

	attempt, err := s.submitter.SubmitAttempt(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		slog.Error("error submitting quiz", "quiz_id", s.quiz.ID, "error", err)
		s.err = api.MessageOf(err, "Failed to submit quiz.")
		return nil, err
	}
	s.attempt = attempt
	s.countdown.Cancel()
	slog.Info("quiz submitted",
		"quiz_id", s.quiz.ID,
		"answered", len(sub.Answers),
		"total", len(s.quiz.Questions),
		"time_spent", sub.TimeSpent,
	)
	return attempt, nil
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	seconds = max(0, seconds)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
