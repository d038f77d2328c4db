package quiz

import (
	"fmt"

	"github.com/pavelanni/protu/internal/model"
)

// Band is the color and copy for a score range.
type Band struct {
	Min, Max    int
	Color       string
	Headline    string
	Description string
}

// bands is ordered and covers 0–100 with inclusive, non-overlapping ranges.
var bands = []Band{
	{Min: 0, Max: 49, Color: "red", Headline: "NEEDS IMPROVEMENT",
		Description: "Keep practicing. Review the explanations below and try again."},
	{Min: 50, Max: 59, Color: "amber", Headline: "ALMOST THERE!",
		Description: "You are close. A little more review will get you over the line."},
	{Min: 60, Max: 89, Color: "green", Headline: "NICE WORK!",
		Description: "Solid result. You have a good grasp of this topic."},
	{Min: 90, Max: 100, Color: "cyan", Headline: "EXCELLENT PERFORMANCE!",
		Description: "Outstanding. You have mastered this material."},
}

// BandFor returns the band of score. Scores outside 0–100 are clamped.
func BandFor(score int) Band {
	score = min(100, max(0, score))
	for _, b := range bands {
		if score >= b.Min && score <= b.Max {
			return b
		}
	}
	return bands[0]
}

// ReviewStatus is the correctness state of one reviewed question.
type ReviewStatus int

const (
	StatusNoAnswer ReviewStatus = iota
	StatusIncorrect
	StatusCorrect
)

func (s ReviewStatus) String() string {
	switch s {
	case StatusCorrect:
		return "correct"
	case StatusIncorrect:
		return "incorrect"
	default:
		return "no-answer"
	}
}

// Label is the user-visible status text.
func (s ReviewStatus) Label() string {
	switch s {
	case StatusCorrect:
		return "Correct Answer"
	case StatusIncorrect:
		return "Incorrect Answer"
	default:
		return "No Answer Given"
	}
}

// ReviewStatusOf derives the status: correct if isCorrect, incorrect if an
// answer was selected, no-answer otherwise.
func ReviewStatusOf(r model.QuestionReview) ReviewStatus {
	switch {
	case r.IsCorrect:
		return StatusCorrect
	case r.SelectedAnswer != "":
		return StatusIncorrect
	default:
		return StatusNoAnswer
	}
}

// Tone is the highlight of a single choice in the review.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

// ChoiceTone styles option: the correct answer is always positive, a wrong
// selection negative, everything else neutral.
func ChoiceTone(r model.QuestionReview, option string) Tone {
	switch {
	case option == r.CorrectAnswer:
		return TonePositive
	case option == r.SelectedAnswer:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

// ReviewChoice is one rendered option.
type ReviewChoice struct {
	Text     string
	Tone     Tone
	Selected bool
}

// ReviewItem is one rendered question with its disclosure state.
type ReviewItem struct {
	Number      int
	Text        string
	Status      ReviewStatus
	Choices     []ReviewChoice
	CodeBlock   *model.CodeBlock
	Explanation string
	Open        bool
}

// Report is the feedback page view model of a graded attempt.
type Report struct {
	QuizID             string
	Score              int
	Band               Band
	Passed             bool
	TimeTaken          string
	Correct            int
	Incorrect          int
	Items              []ReviewItem
	AIFeedback         *model.AIFeedback
	RecommendedCourses []model.RecommendedCourse
}

// NewReport builds the view model. Pass/fail is taken from the backend as is.
func NewReport(a model.QuizAttempt) *Report {
	r := &Report{
		QuizID:             a.QuizID,
		Score:              a.Score,
		Band:               BandFor(a.Score),
		Passed:             a.Passed,
		TimeTaken:          FormatDuration(a.TimeTaken),
		Correct:            a.CorrectAnswers,
		Incorrect:          a.IncorrectAnswers,
		AIFeedback:         a.AIFeedback,
		RecommendedCourses: a.RecommendedCourses,
	}
	for i, q := range a.Questions {
		item := ReviewItem{
			Number:      i + 1,
			Text:        q.Text,
			Status:      ReviewStatusOf(q),
			CodeBlock:   q.CodeBlock,
			Explanation: q.Explanation,
		}
		for _, opt := range q.Options {
			item.Choices = append(item.Choices, ReviewChoice{
				Text:     opt,
				Tone:     ChoiceTone(q, opt),
				Selected: opt == q.SelectedAnswer,
			})
		}
		r.Items = append(r.Items, item)
	}
	return r
}

// HasRecommendations reports whether the course panel should be shown.
func (r *Report) HasRecommendations() bool { return len(r.RecommendedCourses) > 0 }

// Toggle flips the disclosure of item i. Out-of-range indexes are ignored.
func (r *Report) Toggle(i int) {
	if i < 0 || i >= len(r.Items) {
		return
	}
	r.Items[i].Open = !r.Items[i].Open
}

// FormatDuration renders seconds as "Xm Ys".
func FormatDuration(seconds int) string {
	seconds = max(0, seconds)
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
