package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/handler/views"
	appI18n "github.com/pavelanni/protu/internal/i18n"
	"github.com/pavelanni/protu/internal/model"
	"github.com/pavelanni/protu/internal/quiz"
)

// Generator wizard.

func (h *Handler) renderGenerator(w http.ResponseWriter, r *http.Request, st *uiState) {
	h.render(w, r, http.StatusOK, views.GeneratorPage(views.GeneratorData{
		Page:        views.Page{Title: appI18n.T(r.Context(), "GenerateQuiz")},
		Wizard:      st.wizard,
		CustomInput: st.customInput,
	}))
}

func (h *Handler) handleGenerator(w http.ResponseWriter, r *http.Request) {
	st := h.state(r.Context())
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.wizard == nil {
		st.wizard = quiz.NewWizard()
	}
	h.renderGenerator(w, r, st)
}

// paramsFromForm reads the step-one inputs over the current values.
func paramsFromForm(r *http.Request, p quiz.Params) quiz.Params {
	p.Prompt = strings.TrimSpace(r.FormValue("prompt"))
	if d := model.Difficulty(r.FormValue("difficulty")); d.Valid() {
		p.Difficulty = d
	}
	if n, err := strconv.Atoi(r.FormValue("questions")); err == nil && n >= 1 {
		p.NumQuestions = n
	}
	if n, err := strconv.Atoi(r.FormValue("minutes")); err == nil && n >= 1 {
		p.TimeLimitMinutes = n
	}
	p.MultipleChoice = r.FormValue("multiple_choice") == "on"
	p.TrueFalse = r.FormValue("true_false") == "on"
	return p
}

func (h *Handler) handleGeneratorParams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := h.state(ctx)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.wizard == nil {
		st.wizard = quiz.NewWizard()
	}
	wz := st.wizard
	if _, ok := wz.Step().(*quiz.ParamsStep); !ok {
		http.Redirect(w, r, h.path("/quizzes/new"), http.StatusSeeOther)
		return
	}

	wz.Params = paramsFromForm(r, wz.Params)
	switch r.FormValue("action") {
	case "dec-questions":
		wz.Params.DecQuestions()
	case "inc-questions":
		wz.Params.IncQuestions()
	case "dec-time":
		wz.Params.DecTime()
	case "inc-time":
		wz.Params.IncTime()
	case "submit":
		if err := wz.Submit(ctx, h.apiFor(ctx)); err == nil {
			st.customInput = ""
			http.Redirect(w, r, h.path("/quizzes/new"), http.StatusSeeOther)
			return
		}
	}
	h.renderGenerator(w, r, st)
}

func (h *Handler) handleGeneratorRefine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := h.state(ctx)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.wizard == nil {
		http.Redirect(w, r, h.path("/quizzes/new"), http.StatusSeeOther)
		return
	}
	refine, err := st.wizard.Refine()
	if err != nil {
		http.Redirect(w, r, h.path("/quizzes/new"), http.StatusSeeOther)
		return
	}

	refine.Preferences = r.FormValue("preferences")
	st.customInput = r.FormValue("custom")

	if tag := r.FormValue("toggle"); tag != "" {
		refine.Toggle(tag)
	}
	switch r.FormValue("action") {
	case "add":
		st.customInput, _ = refine.AddCustom(st.customInput)
	case "back":
		if err := st.wizard.Back(); err == nil {
			st.customInput = ""
		}
	case "finalize":
		if err := st.wizard.Finalize(ctx, h.apiFor(ctx)); err != nil {
			h.renderGenerator(w, r, st)
			return
		}
		st.customInput = ""
	}
	http.Redirect(w, r, h.path("/quizzes/new"), http.StatusSeeOther)
}

func (h *Handler) handleGeneratorReset(w http.ResponseWriter, r *http.Request) {
	st := h.state(r.Context())
	st.mu.Lock()
	st.wizard = quiz.NewWizard()
	st.customInput = ""
	st.mu.Unlock()
	http.Redirect(w, r, h.path("/quizzes/new"), http.StatusSeeOther)
}

// Taking session.

func (h *Handler) takePath(quizID string) string {
	return h.path("/quizzes/" + quizID + "/take")
}

func (h *Handler) feedbackPath(quizID string) string {
	return h.path("/quizzes/" + quizID + "/feedback")
}

// session returns the running taking session of quizID, or nil.
func (st *uiState) session(quizID string) *quiz.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[quizID]
}

func (h *Handler) handleTake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	quizID := chi.URLParam(r, "quizID")
	st := h.state(ctx)

	sess := st.session(quizID)
	if sess != nil && sess.Attempt() != nil {
		http.Redirect(w, r, h.feedbackPath(quizID), http.StatusSeeOther)
		return
	}
	if sess == nil {
		backend := h.apiFor(ctx)
		q, err := backend.GetQuiz(ctx, quizID)
		if err != nil {
			slog.Error("failed to load quiz", "quiz_id", quizID, "error", err)
			h.renderError(w, r, statusFor(err), api.MessageOf(err, "Failed to load quiz."))
			return
		}
		st.mu.Lock()
		if running, ok := st.sessions[quizID]; ok {
			// Another request started it while the quiz was loading.
			sess = running
		} else {
			sess = quiz.NewSession(*q, backend, h.tick)
			sess.Start(st.ctx)
			st.sessions[quizID] = sess
			delete(st.reports, quizID)
			slog.Info("quiz started", "quiz_id", quizID, "questions", len(q.Questions), "time_limit", q.TimeLimit)
		}
		st.mu.Unlock()
	}

	h.render(w, r, http.StatusOK, views.TakePage(views.TakeData{
		Page:    views.Page{Title: sess.Quiz().Title},
		Session: sess,
	}))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	sess := h.state(r.Context()).session(quizID)
	if sess == nil {
		http.Redirect(w, r, h.takePath(quizID), http.StatusSeeOther)
		return
	}
	questionID, choiceID, ok := strings.Cut(r.FormValue("answer"), "|")
	if !ok {
		http.Error(w, "malformed answer", http.StatusBadRequest)
		return
	}
	if err := sess.Select(questionID, choiceID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, h.takePath(quizID)+"#q-"+questionID, http.StatusSeeOther)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	sess := h.state(r.Context()).session(quizID)
	if sess == nil {
		http.Redirect(w, r, h.takePath(quizID), http.StatusSeeOther)
		return
	}
	_, err := sess.Submit(r.Context())
	switch {
	case err == nil, errors.Is(err, quiz.ErrAlreadySubmitted), errors.Is(err, quiz.ErrSubmitInFlight):
		if sess.Attempt() != nil {
			http.Redirect(w, r, h.feedbackPath(quizID), http.StatusSeeOther)
			return
		}
	}
	// Failed: the session stays interactive and shows the error.
	http.Redirect(w, r, h.takePath(quizID), http.StatusSeeOther)
}

type sessionStatus struct {
	Clock     string `json:"clock"`
	TimeLeft  int    `json:"timeLeft"`
	Remaining int    `json:"remaining"`
	Submitted bool   `json:"submitted"`
	Error     string `json:"error,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

// handleStatus reports the countdown to the polling take page and tells it
// where to go once the quiz has been handed in.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	sess := h.state(r.Context()).session(quizID)

	var st sessionStatus
	if sess == nil {
		st.Redirect = h.takePath(quizID)
	} else {
		st = sessionStatus{
			Clock:     sess.Clock(),
			TimeLeft:  sess.TimeLeft(),
			Remaining: sess.Remaining(),
			Error:     sess.Err(),
		}
		if sess.Attempt() != nil {
			st.Submitted = true
			st.Redirect = h.feedbackPath(quizID)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		slog.Error("failed to encode status", "error", err)
	}
}

// Feedback.

// report returns the feedback report of quizID. A just-submitted attempt is
// handed over from the taking session once; otherwise the report is kept for
// disclosure toggles, or fetched from the backend.
func (h *Handler) report(r *http.Request, st *uiState, quizID string) (*quiz.Report, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok := st.sessions[quizID]; ok {
		if a := sess.Attempt(); a != nil {
			delete(st.sessions, quizID)
			rep := quiz.NewReport(*a)
			st.reports[quizID] = rep
			return rep, nil
		}
	}
	if rep, ok := st.reports[quizID]; ok {
		return rep, nil
	}
	ctx := r.Context()
	a, err := h.apiFor(ctx).AttemptPreview(ctx, quizID)
	if err != nil {
		return nil, err
	}
	rep := quiz.NewReport(*a)
	st.reports[quizID] = rep
	return rep, nil
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	rep, err := h.report(r, h.state(r.Context()), quizID)
	if err != nil {
		slog.Error("failed to load attempt", "quiz_id", quizID, "error", err)
		h.renderError(w, r, statusFor(err), api.MessageOf(err, "Failed to load quiz results."))
		return
	}
	h.render(w, r, http.StatusOK, views.FeedbackPage(views.FeedbackData{
		Page:   views.Page{Title: rep.Band.Headline},
		Report: rep,
	}))
}

func (h *Handler) handleFeedbackToggle(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	st := h.state(r.Context())
	st.mu.Lock()
	if rep, ok := st.reports[quizID]; ok {
		if i, err := strconv.Atoi(r.FormValue("item")); err == nil {
			rep.Toggle(i)
		}
	}
	st.mu.Unlock()
	http.Redirect(w, r, h.feedbackPath(quizID), http.StatusSeeOther)
}

// Dashboard.

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, d *quiz.Dashboard) {
	data := views.HistoryData{
		Page:      views.Page{Title: appI18n.T(r.Context(), "DashboardTitle")},
		Dashboard: d,
	}
	if n := d.TakeNotice(); n != nil {
		data.Notice = &views.Notice{Error: n.Error, Text: n.Text}
	}
	h.render(w, r, http.StatusOK, views.HistoryPage(data))
}

// handleDashboard mounts a fresh dashboard: summary plus the first page of
// passed attempts.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := h.state(ctx)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.dashboard = quiz.NewDashboard()
	_ = st.dashboard.Load(ctx, h.apiFor(ctx))
	h.renderDashboard(w, r, st.dashboard)
}

// handleDashboardView applies one dashboard action: filter, drafts toggle,
// sort or load more.
func (h *Handler) handleDashboardView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := h.state(ctx)
	st.mu.Lock()
	defer st.mu.Unlock()
	backend := h.apiFor(ctx)
	if st.dashboard == nil {
		st.dashboard = quiz.NewDashboard()
		_ = st.dashboard.Load(ctx, backend)
	}
	d := st.dashboard

	switch {
	case r.FormValue("filter") != "":
		f := api.AttemptFilter(r.FormValue("filter"))
		if f == api.FilterPassed || f == api.FilterFailed {
			_ = d.SetFilter(ctx, backend, f)
		}
	case r.FormValue("drafts") != "":
		_ = d.ToggleDrafts(ctx, backend)
	case r.FormValue("sort") != "":
		if key, ok := quiz.ParseSortKey(r.FormValue("sort")); ok {
			_ = d.ToggleSort(ctx, backend, key)
		}
	case r.FormValue("more") != "":
		_ = d.LoadMore(ctx, backend)
	}
	h.renderDashboard(w, r, d)
}

func (h *Handler) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	h.render(w, r, http.StatusOK, views.ConfirmDeletePage(views.ConfirmDeleteData{
		Page:   views.Page{Title: appI18n.T(r.Context(), "Delete")},
		ID:     chi.URLParam(r, "draftID"),
		Title:  title,
		Prompt: quiz.DeleteConfirmation(title),
	}))
}

func (h *Handler) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := h.state(ctx)
	st.mu.Lock()
	defer st.mu.Unlock()
	backend := h.apiFor(ctx)
	if st.dashboard == nil {
		st.dashboard = quiz.NewDashboard()
		_ = st.dashboard.Load(ctx, backend)
		_ = st.dashboard.ToggleDrafts(ctx, backend)
	}

	confirmed := r.FormValue("confirm") == "yes"
	_, err := st.dashboard.DeleteDraft(ctx, backend, chi.URLParam(r, "draftID"), r.FormValue("title"),
		func(string) bool { return confirmed })
	if err != nil {
		slog.Error("failed to delete draft", "draft_id", chi.URLParam(r, "draftID"), "error", err)
	}
	h.renderDashboard(w, r, st.dashboard)
}
