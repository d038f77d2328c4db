package model

import (
	"fmt"
	"time"
)

// Difficulty represents the requested quiz difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the three supported levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// QuestionType is the tagged kind of a question.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
)

// Subtopic is a backend-suggested refinement tag.
type Subtopic struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuizDraft is an in-progress quiz generation request.
type QuizDraft struct {
	ID                  string         `json:"id"`
	Prompt              string         `json:"prompt"`
	Difficulty          Difficulty     `json:"difficultyLevel"`
	NumQuestions        int            `json:"numberOfQuestions"`
	TimeLimit           int            `json:"timeLimit"`
	QuestionTypes       []QuestionType `json:"questionTypes"`
	SubtopicSuggestions []Subtopic     `json:"subtopicSuggestions"`
	Selected            []string       `json:"subtopics,omitempty"`
	AdditionalPrefs     string         `json:"additionalPrefs,omitempty"`
}

// Choice is one selectable option of a question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CodeBlock is an optional source snippet attached to a question.
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Question is a quiz question as served for taking.
type Question struct {
	ID        string       `json:"id"`
	Number    int          `json:"questionNumber"`
	Text      string       `json:"questionText"`
	Type      QuestionType `json:"type"`
	Choices   []Choice     `json:"choices"`
	CodeBlock *CodeBlock   `json:"codeBlock,omitempty"`
}

// Validate checks the choice-count invariant for the question type.
func (q Question) Validate() error {
	switch q.Type {
	case TrueFalse:
		if len(q.Choices) != 2 {
			return fmt.Errorf("question %s: true_false needs exactly 2 choices, got %d", q.ID, len(q.Choices))
		}
	case MultipleChoice:
		if len(q.Choices) < 2 {
			return fmt.Errorf("question %s: multiple_choice needs at least 2 choices, got %d", q.ID, len(q.Choices))
		}
	default:
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
	return nil
}

// Quiz is the read-only projection of a generated quiz.
type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficultyLevel"`
	TimeLimit     int        `json:"timeLimit"` // seconds
	QuestionCount int        `json:"numberOfQuestions"`
	CreatedAt     time.Time  `json:"createdAt"`
	Questions     []Question `json:"questions"`
}

// QuestionReview is the per-question breakdown of a graded attempt.
type QuestionReview struct {
	QuestionID     string       `json:"questionId"`
	Text           string       `json:"questionText"`
	Type           QuestionType `json:"type"`
	Options        []string     `json:"options"`
	SelectedAnswer string       `json:"selectedAnswer"`
	CorrectAnswer  string       `json:"correctAnswer"`
	IsCorrect      bool         `json:"isCorrect"`
	Explanation    string       `json:"explanation,omitempty"`
	CodeBlock      *CodeBlock   `json:"codeBlock,omitempty"`
}

// AIFeedback is the optional model-generated remark on an attempt.
type AIFeedback struct {
	Signal  string `json:"signal"`
	Message string `json:"message"`
}

// RecommendedCourse is a course suggested after an attempt.
type RecommendedCourse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Picture     string `json:"picture"`
	Lessons     int    `json:"lessonsCount"`
}

// QuizAttempt is a completed, scored instance of a quiz.
type QuizAttempt struct {
	ID                 string              `json:"id"`
	QuizID             string              `json:"quizId"`
	Score              int                 `json:"score"`
	Passed             bool                `json:"passed"`
	TimeTaken          int                 `json:"timeTaken"` // seconds
	CompletedAt        time.Time           `json:"completedAt"`
	CorrectAnswers     int                 `json:"correctAnswers"`
	IncorrectAnswers   int                 `json:"incorrectAnswers"`
	Questions          []QuestionReview    `json:"questions"`
	AIFeedback         *AIFeedback         `json:"aiFeedback,omitempty"`
	RecommendedCourses []RecommendedCourse `json:"recommendedCourses,omitempty"`
}

// Submission is the payload posted when a quiz is handed in.
type Submission struct {
	QuizID    string            `json:"quizId"`
	Answers   map[string]string `json:"answers"`
	TimeSpent int               `json:"timeSpent"`
}

// AttemptSummary is one row of the completed-quiz listing.
type AttemptSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	Score     int       `json:"score"`
	DateTaken time.Time `json:"dateTaken"`
}

// DraftSummary is one row of the draft listing.
type DraftSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Topic       string    `json:"topic"`
	CreatedDate time.Time `json:"createdDate"`
}

// Pagination is the page cursor reported by the backend.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

// HasMore reports whether pages remain after the current one.
func (p Pagination) HasMore() bool {
	return p.CurrentPage < p.TotalPages
}

// AttemptPage is one fetched page of completed attempts.
type AttemptPage struct {
	Quizzes    []AttemptSummary `json:"quizzes"`
	Pagination Pagination       `json:"pagination"`
}

// DraftPage is one fetched page of drafts.
type DraftPage struct {
	Quizzes    []DraftSummary `json:"quizzes"`
	Pagination Pagination     `json:"pagination"`
}

// DashboardSummary aggregates the user's quiz history.
type DashboardSummary struct {
	TotalQuizzes int     `json:"totalQuizzes"`
	AverageScore float64 `json:"averageScore"`
	SuccessRate  float64 `json:"successRate"`
}
