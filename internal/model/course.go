package model

// Lesson is a read-only projection of a course lesson.
type Lesson struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content,omitempty"`
	Order      int    `json:"order"`
	Duration   int    `json:"duration"` // minutes
	IsFinished bool   `json:"isFinished"`
}

// Course is a read-only projection of a backend course.
type Course struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Picture     string   `json:"picture"`
	Lessons     []Lesson `json:"lessons"`
}

// FinishedLessons counts lessons marked finished.
func (c Course) FinishedLessons() int {
	n := 0
	for _, l := range c.Lessons {
		if l.IsFinished {
			n++
		}
	}
	return n
}

// LessonProgress is the completion state of one lesson for the current user.
type LessonProgress struct {
	LessonID   string `json:"lessonId"`
	IsFinished bool   `json:"isFinished"`
}

// HistoryExport is the top-level JSON structure written by the history command.
type HistoryExport struct {
	ExportedAt string           `json:"exported_at"`
	Summary    DashboardSummary `json:"summary"`
	Passed     []AttemptSummary `json:"passed"`
	Failed     []AttemptSummary `json:"failed"`
	Drafts     []DraftSummary   `json:"drafts"`
}
