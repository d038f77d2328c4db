package quiz

import (
	"testing"

	"github.com/pavelanni/protu/internal/model"
)

func TestBandForIsTotal(t *testing.T) {
	for s := 0; s <= 100; s++ {
		matches := 0
		for _, b := range bands {
			if s >= b.Min && s <= b.Max {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("score %d matches %d bands", s, matches)
		}
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score    int
		color    string
		headline string
	}{
		{0, "red", "NEEDS IMPROVEMENT"},
		{49, "red", "NEEDS IMPROVEMENT"},
		{50, "amber", "ALMOST THERE!"},
		{55, "amber", "ALMOST THERE!"},
		{59, "amber", "ALMOST THERE!"},
		{60, "green", "NICE WORK!"},
		{89, "green", "NICE WORK!"},
		{90, "cyan", "EXCELLENT PERFORMANCE!"},
		{100, "cyan", "EXCELLENT PERFORMANCE!"},
		{-3, "red", "NEEDS IMPROVEMENT"},
		{140, "cyan", "EXCELLENT PERFORMANCE!"},
	}
	for _, tt := range tests {
		b := BandFor(tt.score)
		if b.Color != tt.color || b.Headline != tt.headline {
			t.Errorf("BandFor(%d) = %s %q, want %s %q", tt.score, b.Color, b.Headline, tt.color, tt.headline)
		}
	}
}

func TestReportKeepsBackendPassFlag(t *testing.T) {
	for _, passed := range []bool{true, false} {
		r := NewReport(model.QuizAttempt{Score: 55, Passed: passed})
		if r.Band.Headline != "ALMOST THERE!" || r.Band.Color != "amber" {
			t.Errorf("band = %+v", r.Band)
		}
		if r.Passed != passed {
			t.Errorf("passed = %v, want %v", r.Passed, passed)
		}
	}
}

func TestReviewStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		review model.QuestionReview
		want   ReviewStatus
		label  string
	}{
		{"correct", model.QuestionReview{SelectedAnswer: "A", CorrectAnswer: "A", IsCorrect: true}, StatusCorrect, "Correct Answer"},
		{"incorrect", model.QuestionReview{SelectedAnswer: "B", CorrectAnswer: "A"}, StatusIncorrect, "Incorrect Answer"},
		{"no answer", model.QuestionReview{SelectedAnswer: "", CorrectAnswer: "A", IsCorrect: false}, StatusNoAnswer, "No Answer Given"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReviewStatusOf(tt.review)
			if got != tt.want {
				t.Errorf("status = %v, want %v", got, tt.want)
			}
			if got.Label() != tt.label {
				t.Errorf("label = %q, want %q", got.Label(), tt.label)
			}
		})
	}
}

func TestChoiceTone(t *testing.T) {
	r := model.QuestionReview{Options: []string{"A", "B", "C"}, SelectedAnswer: "B", CorrectAnswer: "A"}
	want := map[string]Tone{"A": TonePositive, "B": ToneNegative, "C": ToneNeutral}
	for opt, tone := range want {
		if got := ChoiceTone(r, opt); got != tone {
			t.Errorf("ChoiceTone(%s) = %s, want %s", opt, got, tone)
		}
	}
	r.SelectedAnswer = "A"
	if got := ChoiceTone(r, "A"); got != TonePositive {
		t.Errorf("correct selection tone = %s, want positive", got)
	}
}

func TestNewReport(t *testing.T) {
	a := model.QuizAttempt{
		QuizID:    "quiz-1",
		Score:     92,
		Passed:    true,
		TimeTaken: 745,
		Questions: []model.QuestionReview{
			{Text: "Q1", Options: []string{"A", "B"}, SelectedAnswer: "A", CorrectAnswer: "A", IsCorrect: true},
			{Text: "Q2", Options: []string{"True", "False"}, CorrectAnswer: "False", Explanation: "Because."},
		},
	}
	r := NewReport(a)
	if r.TimeTaken != "12m 25s" {
		t.Errorf("time taken = %q", r.TimeTaken)
	}
	if len(r.Items) != 2 || r.Items[1].Status != StatusNoAnswer {
		t.Fatalf("items = %+v", r.Items)
	}
	if r.Items[0].Choices[0].Tone != TonePositive || !r.Items[0].Choices[0].Selected {
		t.Errorf("choice = %+v", r.Items[0].Choices[0])
	}
	if r.HasRecommendations() {
		t.Error("recommendations panel shown for empty list")
	}
	r.Toggle(1)
	if !r.Items[1].Open || r.Items[0].Open {
		t.Error("toggle opened the wrong item")
	}
	r.Toggle(1)
	r.Toggle(7)
	if r.Items[1].Open {
		t.Error("second toggle did not close")
	}

	a.RecommendedCourses = []model.RecommendedCourse{{Name: "JavaScript Fundamentals"}}
	if !NewReport(a).HasRecommendations() {
		t.Error("recommendations panel hidden for non-empty list")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "0m 0s", 59: "0m 59s", 745: "12m 25s", -1: "0m 0s"}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
