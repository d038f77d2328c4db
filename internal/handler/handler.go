package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/handler/views"
	appI18n "github.com/pavelanni/protu/internal/i18n"
	"github.com/pavelanni/protu/internal/model"
	"github.com/pavelanni/protu/internal/store"
	"github.com/pavelanni/protu/internal/tutor"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	api    *api.Client
	tutor  *tutor.Tutor
	config model.AppConfig
	states *registry

	// tick is the countdown interval of quiz sessions.
	tick time.Duration
}

// New creates a new Handler.
func New(s *store.Store, c *api.Client, t *tutor.Tutor, cfg model.AppConfig) (*Handler, error) {
	return &Handler{
		store:  s,
		api:    c,
		tutor:  t,
		config: cfg,
		states: newRegistry(),
		tick:   time.Second,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.csrfMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(h.withSession)
		r.Use(h.leaveTaking(false))
		r.Get("/", h.handleIndex)
		r.Get("/login", h.handleLoginPage)
		r.Post("/login", h.handleLogin)
		r.Get("/register", h.handleRegisterPage)
		r.Post("/register", h.handleRegister)
		r.Get("/forgot-password", h.handleForgotPage)
		r.Post("/forgot-password", h.handleForgot)
		r.Get("/courses/{slug}", h.handleCoursePage)
		r.Get("/courses/{slug}/lessons/{lessonID}", h.handleLessonPage)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Group(func(r chi.Router) {
			r.Use(h.leaveTaking(true))
			r.Get("/quizzes/{quizID}/take", h.handleTake)
			r.Post("/quizzes/{quizID}/answer", h.handleAnswer)
			r.Post("/quizzes/{quizID}/submit", h.handleSubmit)
			r.Get("/quizzes/{quizID}/status", h.handleStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.leaveTaking(false))
			r.Post("/logout", h.handleLogout)

			r.Get("/quizzes", h.handleDashboard)
			r.Post("/quizzes/view", h.handleDashboardView)
			r.Get("/quizzes/drafts/{draftID}/delete", h.handleConfirmDelete)
			r.Post("/quizzes/drafts/{draftID}/delete", h.handleDeleteDraft)

			r.Get("/quizzes/new", h.handleGenerator)
			r.Post("/quizzes/new", h.handleGeneratorParams)
			r.Post("/quizzes/new/refine", h.handleGeneratorRefine)
			r.Post("/quizzes/new/reset", h.handleGeneratorReset)

			r.Get("/quizzes/{quizID}/feedback", h.handleFeedback)
			r.Post("/quizzes/{quizID}/feedback/toggle", h.handleFeedbackToggle)

			r.Post("/courses/{slug}/lessons/{lessonID}/ask", h.handleLessonAsk)

			r.Get("/chat", h.handleChatPage)
			r.Get("/chat/{chatID}", h.handleChatPage)
			r.Post("/chat/send", h.handleChatSend)

			r.Get("/settings", h.handleSettingsPage)
			r.Post("/settings/preferences", h.handleSavePreferences)
			r.Post("/settings/password", h.handleChangePassword)
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Prune drops the UI state of browsers idle for longer than idle.
func (h *Handler) Prune(idle time.Duration) int {
	return h.states.prune(idle)
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

// apiFor returns a backend session carrying the bearer token of the signed-in
// user, or an anonymous one.
func (h *Handler) apiFor(ctx context.Context) *api.Session {
	if s := model.SessionFromContext(ctx); s != nil {
		return h.api.Session(api.StaticToken(s.Token))
	}
	return h.api.Anonymous()
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if model.SessionFromContext(r.Context()) == nil {
		http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.path("/quizzes"), http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, r, status, views.ErrorPage(views.ErrorData{
		Page:    views.Page{Title: http.StatusText(status)},
		Status:  status,
		Message: msg,
	}))
}

// statusFor maps a backend error to the status of the page showing it.
func statusFor(err error) int {
	switch api.StatusOf(err) {
	case http.StatusNotFound:
		return http.StatusNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return http.StatusForbidden
	}
	return http.StatusBadGateway
}

func errorNotice(text string) *views.Notice {
	return &views.Notice{Error: true, Text: text}
}

func infoNotice(ctx context.Context, id string) *views.Notice {
	return &views.Notice{Text: appI18n.T(ctx, id)}
}
