package views

import (
	"github.com/a-h/templ"

	"github.com/pavelanni/protu/internal/account"
	"github.com/pavelanni/protu/internal/model"
	"github.com/pavelanni/protu/internal/quiz"
)

type LoginData struct {
	Page
	Form   account.SignIn
	Errors account.FieldErrors
}

func LoginPage(d LoginData) templ.Component { return render("login", d) }

type RegisterData struct {
	Page
	Form   account.SignUp
	Errors account.FieldErrors
}

func RegisterPage(d RegisterData) templ.Component { return render("register", d) }

// ForgotData drives the four forgot-password steps: email, code, new password, done.
type ForgotData struct {
	Page
	Step   int
	Email  string
	Code   string
	Errors account.FieldErrors
}

func ForgotPage(d ForgotData) templ.Component { return render("forgot", d) }

type HistoryData struct {
	Page
	Dashboard *quiz.Dashboard
}

// Arrow marks the active sort column and its direction.
func (d HistoryData) Arrow(key string) string {
	if string(d.Dashboard.SortKey) != key {
		return ""
	}
	if d.Dashboard.SortDir == quiz.Asc {
		return "▲"
	}
	return "▼"
}

func HistoryPage(d HistoryData) templ.Component { return render("history", d) }

type ConfirmDeleteData struct {
	Page
	ID     string
	Title  string
	Prompt string
}

func ConfirmDeletePage(d ConfirmDeleteData) templ.Component {
	return withLayout(d.Page, confirmDelete(d))
}

type GeneratorData struct {
	Page
	Wizard       *quiz.Wizard
	CustomInput  string
	Difficulties []model.Difficulty
	Refine       *quiz.RefineStep
	Done         *quiz.DoneStep
}

// GeneratorPage renders the wizard at its current step.
func GeneratorPage(d GeneratorData) templ.Component {
	d.Difficulties = []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}
	switch s := d.Wizard.Step().(type) {
	case *quiz.RefineStep:
		d.Refine = s
	case *quiz.DoneStep:
		d.Done = s
	}
	return render("generator", d)
}

type TakeData struct {
	Page
	Session *quiz.Session
}

// IsChosen reports whether choiceID is the current answer of questionID.
func (d TakeData) IsChosen(questionID, choiceID string) bool {
	c, ok := d.Session.Selected(questionID)
	return ok && c == choiceID
}

func TakePage(d TakeData) templ.Component { return render("take", d) }

type FeedbackData struct {
	Page
	Report *quiz.Report
}

func FeedbackPage(d FeedbackData) templ.Component { return render("feedback", d) }

type CourseData struct {
	Page
	Slug     string
	Course   model.Course
	Finished int
}

func CoursePage(d CourseData) templ.Component { return render("course", d) }

type LessonData struct {
	Page
	CourseSlug     string
	CourseName     string
	Lesson         model.Lesson
	Lessons        []model.Lesson
	Messages       []model.ChatMessage
	TutorAvailable bool
}

func LessonPage(d LessonData) templ.Component { return render("lesson", d) }

type ChatData struct {
	Page
	Chats    []model.ChatSession
	Current  string
	Messages []model.ChatMessage
}

func ChatPage(d ChatData) templ.Component { return render("chat", d) }

type SettingsData struct {
	Page
	Prefs  model.Preferences
	Errors account.FieldErrors
	Themes []string
	Langs  []string
}

func SettingsPage(d SettingsData) templ.Component { return render("settings", d) }

type ErrorData struct {
	Page
	Status  int
	Message string
}

func ErrorPage(d ErrorData) templ.Component { return render("error", d) }
