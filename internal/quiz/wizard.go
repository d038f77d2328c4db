// Package quiz implements the quiz lifecycle: generation wizard, taking session,
// feedback report and history dashboard. It holds transient UI state only; the
// backend owns every quiz, draft and attempt.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/model"
)

const (
	// MaxSubtopics is the displayed subtopic cap. Selection past it is not blocked.
	MaxSubtopics = 10
	// MinCustomTagLen is the minimum trimmed length of a custom subtopic.
	MinCustomTagLen = 3
)

// ErrWrongStep is returned when an operation does not apply to the current step.
var ErrWrongStep = errors.New("operation not valid at this wizard step")

// Generator runs the two backend generation stages.
type Generator interface {
	CreateDraft(ctx context.Context, req api.Stage1Request) (*api.Stage1Response, error)
	FinalizeDraft(ctx context.Context, req api.Stage2Request) error
}

// Params are the step-one inputs.
type Params struct {
	Prompt           string
	Difficulty       model.Difficulty
	NumQuestions     int
	TimeLimitMinutes int
	MultipleChoice   bool
	TrueFalse        bool
}

// DefaultParams mirrors the initial state of the generator form.
func DefaultParams() Params {
	return Params{
		Difficulty:       model.DifficultyMedium,
		NumQuestions:     12,
		TimeLimitMinutes: 12,
		MultipleChoice:   true,
		TrueFalse:        true,
	}
}

// IncQuestions adds one question.
func (p *Params) IncQuestions() { p.NumQuestions++ }

// DecQuestions removes one question, never going below one.
func (p *Params) DecQuestions() { p.NumQuestions = max(1, p.NumQuestions-1) }

// IncTime adds one minute.
func (p *Params) IncTime() { p.TimeLimitMinutes++ }

// DecTime removes one minute, never going below one.
func (p *Params) DecTime() { p.TimeLimitMinutes = max(1, p.TimeLimitMinutes-1) }

// QuestionTypes lists the selected types in a stable order.
func (p Params) QuestionTypes() []model.QuestionType {
	types := []model.QuestionType{}
	if p.MultipleChoice {
		types = append(types, model.MultipleChoice)
	}
	if p.TrueFalse {
		types = append(types, model.TrueFalse)
	}
	return types
}

// NoTypesSelected reports the unvalidated zero-type case so the page can warn about it.
func (p Params) NoTypesSelected() bool {
	return !p.MultipleChoice && !p.TrueFalse
}

// Request builds the stage-one body. The time limit is sent in seconds.
func (p Params) Request() api.Stage1Request {
	return api.Stage1Request{
		Prompt:        p.Prompt,
		Difficulty:    p.Difficulty,
		NumQuestions:  max(1, p.NumQuestions),
		QuestionTypes: p.QuestionTypes(),
		TimeLimit:     max(1, p.TimeLimitMinutes) * 60,
	}
}

// Step is one state of the wizard: *ParamsStep, *RefineStep or *DoneStep.
type Step interface {
	Number() int
	step()
}

// ParamsStep collects the generation parameters.
type ParamsStep struct{}

func (*ParamsStep) Number() int { return 1 }
func (*ParamsStep) step() {}

// RefineStep refines a created draft. It exists only after a successful stage one.
type RefineStep struct {
	quizID      string
	prompt      string
	suggestions []model.Subtopic
	custom      []string
	selected    []string

	Preferences string
}

func newRefineStep(quizID, prompt string, suggestions []model.Subtopic) *RefineStep {
	return &RefineStep{quizID: quizID, prompt: prompt, suggestions: suggestions}
}

func (*RefineStep) Number() int { return 2 }
func (*RefineStep) step() {}

// QuizID is the draft identifier returned by stage one.
func (s *RefineStep) QuizID() string { return s.quizID }

// Prompt is the step-one prompt, read-only here.
func (s *RefineStep) Prompt() string { return s.prompt }

// Suggestions are the backend subtopic suggestions.
func (s *RefineStep) Suggestions() []model.Subtopic { return s.suggestions }

// Custom are the user-added tags in insertion order.
func (s *RefineStep) Custom() []string { return s.custom }

// Selected lists the selected tags in selection order.
func (s *RefineStep) Selected() []string { return s.selected }

// IsSelected reports whether tag is selected.
func (s *RefineStep) IsSelected(tag string) bool { return slices.Contains(s.selected, tag) }

// Toggle selects or deselects tag.
func (s *RefineStep) Toggle(tag string) {
	if i := slices.Index(s.selected, tag); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		return
	}
	s.selected = append(s.selected, tag)
}

// HasTag reports whether tag is already a suggestion or custom tag.
func (s *RefineStep) HasTag(tag string) bool {
	if slices.Contains(s.custom, tag) {
		return true
	}
	return slices.ContainsFunc(s.suggestions, func(st model.Subtopic) bool { return st.Text == tag })
}

// CanAdd reports whether the add action is active for input.
func CanAdd(input string) bool {
	return len([]rune(strings.TrimSpace(input))) >= MinCustomTagLen
}

// AddCustom adds a custom tag and selects it. It returns what the input field
// should hold afterwards: empty on acceptance, the original input on rejection.
func (s *RefineStep) AddCustom(input string) (string, bool) {
	tag := strings.TrimSpace(input)
	if !CanAdd(tag) || s.HasTag(tag) {
		return input, false
	}
	s.custom = append(s.custom, tag)
	s.selected = append(s.selected, tag)
	return "", true
}

// SelectionLabel renders the "N/10" counter.
func (s *RefineStep) SelectionLabel() string {
	return fmt.Sprintf("%d/%d", len(s.selected), MaxSubtopics)
}

// OverCap reports a selection past the displayed cap.
func (s *RefineStep) OverCap() bool { return len(s.selected) > MaxSubtopics }

// DoneStep is the terminal confirmation step.
type DoneStep struct {
	quizID string
}

func (*DoneStep) Number() int { return 3 }
func (*DoneStep) step() {}

// QuizID identifies the generated quiz.
func (s *DoneStep) QuizID() string { return s.quizID }

// Wizard drives the three-step generation flow.
type Wizard struct {
	Params Params

	step Step
	err  string
}

// NewWizard starts a wizard at step one with default parameters.
func NewWizard() *Wizard {
	return &Wizard{Params: DefaultParams(), step: &ParamsStep{}}
}

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Err is the message surfaced by the last failed transition.
func (w *Wizard) Err() string { return w.err }

// StepText is the heading shown for the current step.
func (w *Wizard) StepText() string {
	switch w.step.(type) {
	case *RefineStep:
		return "Step 2: Refine your quiz content"
	case *DoneStep:
		return "Step 3: Review & Generate"
	default:
		return "Step 1: Define your quiz parameters"
	}
}

// Submit runs stage one. On success the wizard moves to the refine step; on
// failure it stays on step one with the backend message and the inputs intact.
func (w *Wizard) Submit(ctx context.Context, gen Generator) error {
	if _, ok := w.step.(*ParamsStep); !ok {
		return ErrWrongStep
	}
	w.err = ""
	resp, err := gen.CreateDraft(ctx, w.Params.Request())
	if err != nil {
		slog.Error("quiz stage1 failed", "error", err)
		w.err = api.MessageOf(err, "Failed to create quiz.")
		return err
	}
	slog.Info("quiz draft created", "quiz_id", resp.ID, "suggestions", len(resp.SubtopicSuggestions))
	w.step = newRefineStep(resp.ID, w.Params.Prompt, resp.SubtopicSuggestions)
	return nil
}

// Refine returns the refine step, or ErrWrongStep.
func (w *Wizard) Refine() (*RefineStep, error) {
	s, ok := w.step.(*RefineStep)
	if !ok {
		return nil, ErrWrongStep
	}
	return s, nil
}

// Finalize runs stage two with the current selection and preferences.
func (w *Wizard) Finalize(ctx context.Context, gen Generator) error {
	s, err := w.Refine()
	if err != nil {
		return err
	}
	w.err = ""
	req := api.Stage2Request{
		QuizID:          s.quizID,
		Subtopics:       slices.Clone(s.selected),
		AdditionalPrefs: s.Preferences,
	}
	if req.Subtopics == nil {
		req.Subtopics = []string{}
	}
	if err := gen.FinalizeDraft(ctx, req); err != nil {
		slog.Error("quiz stage2 failed", "quiz_id", s.quizID, "error", err)
		w.err = api.MessageOf(err, "Failed to generate quiz.")
		return err
	}
	slog.Info("quiz generated", "quiz_id", s.quizID, "subtopics", len(req.Subtopics))
	w.step = &DoneStep{quizID: s.quizID}
	return nil
}

// Back returns from the refine step to step one, forgetting the refinement.
// There is no way back out of the done step.
func (w *Wizard) Back() error {
	if _, ok := w.step.(*RefineStep); !ok {
		return ErrWrongStep
	}
	w.err = ""
	w.step = &ParamsStep{}
	return nil
}
