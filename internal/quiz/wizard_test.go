package quiz

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/model"
)

type fakeGenerator struct {
	stage1    []api.Stage1Request
	stage2    []api.Stage2Request
	stage1Err error
	stage2Err error
}

func (g *fakeGenerator) CreateDraft(_ context.Context, req api.Stage1Request) (*api.Stage1Response, error) {
	g.stage1 = append(g.stage1, req)
	if g.stage1Err != nil {
		return nil, g.stage1Err
	}
	return &api.Stage1Response{
		ID: "quiz-1",
		SubtopicSuggestions: []model.Subtopic{
			{ID: "s1", Text: "Closures"},
			{ID: "s2", Text: "Promises"},
		},
	}, nil
}

func (g *fakeGenerator) FinalizeDraft(_ context.Context, req api.Stage2Request) error {
	g.stage2 = append(g.stage2, req)
	return g.stage2Err
}

func TestParamsRequest(t *testing.T) {
	p := Params{
		Prompt:           "JS basics",
		Difficulty:       model.DifficultyEasy,
		NumQuestions:     5,
		TimeLimitMinutes: 10,
		MultipleChoice:   true,
		TrueFalse:        false,
	}
	req := p.Request()
	if !slices.Equal(req.QuestionTypes, []model.QuestionType{model.MultipleChoice}) {
		t.Errorf("questionTypes = %v, want [multiple_choice]", req.QuestionTypes)
	}
	if req.TimeLimit != 600 {
		t.Errorf("timeLimit = %d, want 600", req.TimeLimit)
	}
	if req.NumQuestions != 5 || req.Difficulty != model.DifficultyEasy || req.Prompt != "JS basics" {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestParamsSteppers(t *testing.T) {
	p := DefaultParams()
	if p.NumQuestions != 12 || p.TimeLimitMinutes != 12 || p.Difficulty != model.DifficultyMedium {
		t.Fatalf("unexpected defaults %+v", p)
	}
	p.NumQuestions = 1
	p.DecQuestions()
	if p.NumQuestions != 1 {
		t.Errorf("questions went below 1: %d", p.NumQuestions)
	}
	p.IncQuestions()
	if p.NumQuestions != 2 {
		t.Errorf("questions = %d, want 2", p.NumQuestions)
	}
	p.TimeLimitMinutes = 1
	p.DecTime()
	if p.TimeLimitMinutes != 1 {
		t.Errorf("time went below 1: %d", p.TimeLimitMinutes)
	}

	p.MultipleChoice, p.TrueFalse = false, false
	if !p.NoTypesSelected() {
		t.Error("expected NoTypesSelected with both types off")
	}
	if got := p.Request().QuestionTypes; len(got) != 0 {
		t.Errorf("questionTypes = %v, want empty", got)
	}
}

func TestWizardHappyPath(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	w := NewWizard()
	w.Params.Prompt = "JavaScript"

	if w.Step().Number() != 1 {
		t.Fatalf("start step = %d", w.Step().Number())
	}
	if err := w.Submit(ctx, gen); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s, err := w.Refine()
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if s.QuizID() != "quiz-1" || s.Prompt() != "JavaScript" {
		t.Errorf("refine step = %q %q", s.QuizID(), s.Prompt())
	}
	s.Toggle("Closures")
	s.Preferences = "focus on examples"
	if err := w.Finalize(ctx, gen); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	done, ok := w.Step().(*DoneStep)
	if !ok {
		t.Fatalf("step = %T, want *DoneStep", w.Step())
	}
	if done.QuizID() != "quiz-1" {
		t.Errorf("done quiz id = %q", done.QuizID())
	}
	got := gen.stage2[0]
	if got.QuizID != "quiz-1" || !slices.Equal(got.Subtopics, []string{"Closures"}) || got.AdditionalPrefs != "focus on examples" {
		t.Errorf("stage2 = %+v", got)
	}
	if err := w.Back(); !errors.Is(err, ErrWrongStep) {
		t.Errorf("Back from done = %v, want ErrWrongStep", err)
	}
}

func TestWizardStage1FailureKeepsInput(t *testing.T) {
	gen := &fakeGenerator{stage1Err: &api.Error{Status: 400, Message: "Prompt is too short"}}
	w := NewWizard()
	w.Params.Prompt = "Go"
	w.Params.NumQuestions = 7

	if err := w.Submit(context.Background(), gen); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := w.Step().(*ParamsStep); !ok {
		t.Fatalf("step = %T, want *ParamsStep", w.Step())
	}
	if w.Err() != "Prompt is too short" {
		t.Errorf("Err = %q", w.Err())
	}
	if w.Params.Prompt != "Go" || w.Params.NumQuestions != 7 {
		t.Errorf("params lost: %+v", w.Params)
	}
}

func TestWizardStage2FailureStaysOnRefine(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{stage2Err: errors.New("connection refused")}
	w := NewWizard()
	if err := w.Submit(ctx, gen); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s, _ := w.Refine()
	s.Toggle("Promises")
	if err := w.Finalize(ctx, gen); err == nil {
		t.Fatal("expected error")
	}
	if _, err := w.Refine(); err != nil {
		t.Fatalf("left refine step: %v", err)
	}
	if !s.IsSelected("Promises") {
		t.Error("selection lost after failure")
	}
	if w.Err() != "Failed to generate quiz." {
		t.Errorf("Err = %q", w.Err())
	}
}

func TestWizardFinalizeSendsEmptySubtopics(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	w := NewWizard()
	if err := w.Submit(ctx, gen); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := w.Finalize(ctx, gen); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if gen.stage2[0].Subtopics == nil {
		t.Error("subtopics should be an empty slice, not nil")
	}
}

func TestWizardBackForgetsRefinement(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	w := NewWizard()
	if err := w.Finalize(ctx, gen); !errors.Is(err, ErrWrongStep) {
		t.Errorf("Finalize at step 1 = %v, want ErrWrongStep", err)
	}
	if err := w.Submit(ctx, gen); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s, _ := w.Refine()
	s.AddCustom("Generators")
	if err := w.Back(); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if w.Step().Number() != 1 {
		t.Fatalf("step = %d, want 1", w.Step().Number())
	}
	if err := w.Submit(ctx, gen); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s, _ = w.Refine()
	if len(s.Custom()) != 0 || len(s.Selected()) != 0 {
		t.Errorf("refinement survived Back: custom=%v selected=%v", s.Custom(), s.Selected())
	}
}

func TestAddCustomTag(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		accepted  bool
		wantInput string
	}{
		{"too short", "ab", false, "ab"},
		{"short after trim", "  ab  ", false, "  ab  "},
		{"duplicate suggestion", "Closures", false, "Closures"},
		{"duplicate suggestion with spaces", " Closures ", false, " Closures "},
		{"duplicate custom", "Generators", false, "Generators"},
		{"accepted", "Iterators", true, ""},
		{"accepted trimmed", "  Async  ", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newRefineStep("q", "p", []model.Subtopic{{ID: "s1", Text: "Closures"}})
			if _, ok := s.AddCustom("Generators"); !ok {
				t.Fatal("seed tag rejected")
			}
			input, ok := s.AddCustom(tt.input)
			if ok != tt.accepted {
				t.Errorf("accepted = %v, want %v", ok, tt.accepted)
			}
			if input != tt.wantInput {
				t.Errorf("input = %q, want %q", input, tt.wantInput)
			}
			if tt.accepted {
				tag := tt.input
				if tag != "Iterators" {
					tag = "Async"
				}
				if !s.IsSelected(tag) {
					t.Errorf("accepted tag %q not auto-selected", tag)
				}
			}
		})
	}
}

func TestSelectionCap(t *testing.T) {
	s := newRefineStep("q", "p", nil)
	for _, tag := range []string{"aaa", "bbb", "ccc", "ddd", "eee", "fff", "ggg", "hhh", "iii", "jjj"} {
		s.AddCustom(tag)
	}
	if s.SelectionLabel() != "10/10" || s.OverCap() {
		t.Errorf("label = %q overCap = %v", s.SelectionLabel(), s.OverCap())
	}
	s.AddCustom("kkk")
	if s.SelectionLabel() != "11/10" || !s.OverCap() {
		t.Errorf("label = %q overCap = %v", s.SelectionLabel(), s.OverCap())
	}
	s.Toggle("kkk")
	if s.IsSelected("kkk") || s.OverCap() {
		t.Error("toggle did not deselect")
	}
}
