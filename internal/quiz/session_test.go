package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/protu/internal/model"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	subs    []model.Submission
	err     error
	entered chan struct{}
	block   chan struct{}
	done    chan struct{}
}

func (f *fakeSubmitter) SubmitAttempt(_ context.Context, sub model.Submission) (*model.QuizAttempt, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	err := f.err
	f.mu.Unlock()
	if f.done != nil {
		defer close(f.done)
	}
	if err != nil {
		return nil, err
	}
	return &model.QuizAttempt{ID: "a1", QuizID: sub.QuizID, Score: 80, Passed: true}, nil
}

func (f *fakeSubmitter) calls() []model.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Submission(nil), f.subs...)
}

func testQuiz(timeLimit int) model.Quiz {
	return model.Quiz{
		ID:        "quiz-1",
		Title:     "JS basics",
		TimeLimit: timeLimit,
		Questions: []model.Question{
			{ID: "q1", Number: 1, Type: model.MultipleChoice, Choices: []model.Choice{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}, {ID: "c", Text: "C"}}},
			{ID: "q2", Number: 2, Type: model.TrueFalse, Choices: []model.Choice{{ID: "t", Text: "True"}, {ID: "f", Text: "False"}}},
			{ID: "q3", Number: 3, Type: model.MultipleChoice, Choices: []model.Choice{{ID: "x", Text: "X"}, {ID: "y", Text: "Y"}}},
		},
	}
}

func TestSelectRemaining(t *testing.T) {
	s := NewSession(testQuiz(600), &fakeSubmitter{}, time.Second)

	steps := []struct {
		question, choice string
		wantErr          error
		wantRemaining    int
	}{
		{"q1", "a", nil, 2},
		{"q1", "b", nil, 2},
		{"q2", "t", nil, 1},
		{"q2", "t", nil, 1},
		{"q9", "a", ErrUnknownQuestion, 1},
		{"q3", "a", ErrUnknownChoice, 1},
		{"q3", "y", nil, 0},
		{"q3", "x", nil, 0},
	}
	for _, st := range steps {
		err := s.Select(st.question, st.choice)
		if !errors.Is(err, st.wantErr) {
			t.Errorf("Select(%s, %s) = %v, want %v", st.question, st.choice, err, st.wantErr)
		}
		if got := s.Remaining(); got != st.wantRemaining {
			t.Errorf("after Select(%s, %s) remaining = %d, want %d", st.question, st.choice, got, st.wantRemaining)
		}
		if s.Remaining() < 0 {
			t.Fatal("remaining went negative")
		}
	}
	answers := s.Answers()
	if len(answers) != 3 || answers["q1"] != "b" || answers["q3"] != "x" {
		t.Errorf("answers = %v", answers)
	}
}

func TestSubmit(t *testing.T) {
	sub := &fakeSubmitter{}
	s := NewSession(testQuiz(600), sub, time.Second)
	_ = s.Select("q1", "a")

	a, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if a.ID != "a1" || s.Attempt() != a {
		t.Errorf("attempt not stored: %+v", s.Attempt())
	}
	calls := sub.calls()
	if len(calls) != 1 {
		t.Fatalf("submit calls = %d", len(calls))
	}
	if calls[0].QuizID != "quiz-1" || calls[0].Answers["q1"] != "a" {
		t.Errorf("submission = %+v", calls[0])
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second Submit = %v, want ErrAlreadySubmitted", err)
	}
	if err := s.Select("q2", "t"); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("Select after submit = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmitFailureStaysInteractive(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("boom")}
	s := NewSession(testQuiz(600), sub, time.Second)
	if _, err := s.Submit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.Err() != "Failed to submit quiz." {
		t.Errorf("Err = %q", s.Err())
	}
	if err := s.Select("q1", "a"); err != nil {
		t.Errorf("Select after failed submit: %v", err)
	}
	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if s.Err() != "" {
		t.Errorf("Err after retry = %q", s.Err())
	}
}

func TestSubmitInFlight(t *testing.T) {
	sub := &fakeSubmitter{entered: make(chan struct{}, 1), block: make(chan struct{})}
	s := NewSession(testQuiz(600), sub, time.Second)

	first := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		first <- err
	}()
	<-sub.entered
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("concurrent Submit = %v, want ErrSubmitInFlight", err)
	}
	close(sub.block)
	if err := <-first; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if n := len(sub.calls()); n != 1 {
		t.Errorf("submit calls = %d, want 1", n)
	}
}

func TestExpiryAutoSubmits(t *testing.T) {
	sub := &fakeSubmitter{done: make(chan struct{})}
	s := NewSession(testQuiz(3), sub, time.Millisecond)
	_ = s.Select("q2", "f")
	s.Start(context.Background())

	select {
	case <-sub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown expiry did not submit")
	}
	calls := sub.calls()
	if len(calls) != 1 {
		t.Fatalf("submit calls = %d", len(calls))
	}
	if calls[0].TimeSpent != 3 {
		t.Errorf("timeSpent = %d, want 3", calls[0].TimeSpent)
	}
	if s.TimeLeft() != 0 || s.Clock() != "00:00" {
		t.Errorf("time left = %d clock = %s", s.TimeLeft(), s.Clock())
	}
}

func TestCountdownCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	c := NewCountdown(1000, time.Millisecond, func() { fired <- struct{}{} })
	c.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	c.Cancel()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown did not stop")
	}
	left := c.Remaining()
	if left == 0 {
		t.Errorf("remaining = %d, countdown ran out", left)
	}
	time.Sleep(5 * time.Millisecond)
	if c.Remaining() != left {
		t.Error("countdown kept ticking after Cancel")
	}
	select {
	case <-fired:
		t.Error("OnExpire fired after Cancel")
	default:
	}
}

func TestCountdownContextEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCountdown(1000, time.Millisecond, nil)
	c.Start(ctx)
	cancel()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown ignored context cancellation")
	}
}

func TestCountdownExpiresOnce(t *testing.T) {
	var mu sync.Mutex
	n := 0
	c := NewCountdown(2, time.Millisecond, func() {
		mu.Lock()
		n++
		mu.Unlock()
	})
	c.Start(context.Background())
	c.Start(context.Background())
	<-c.Done()
	mu.Lock()
	defer mu.Unlock()
	if n != 1 || !c.Expired() {
		t.Errorf("expire count = %d expired = %v", n, c.Expired())
	}
}

func TestCountdownZeroExpiresImmediately(t *testing.T) {
	fired := make(chan struct{})
	c := NewCountdown(0, time.Hour, func() { close(fired) })
	c.Start(context.Background())
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("zero countdown did not expire")
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{60, "01:00"},
		{745, "12:25"},
		{-5, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
