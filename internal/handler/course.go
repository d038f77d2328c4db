package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/handler/views"
	appI18n "github.com/pavelanni/protu/internal/i18n"
	"github.com/pavelanni/protu/internal/model"
	"github.com/pavelanni/protu/internal/tutor"
	"github.com/pavelanni/protu/internal/tutor/prompts"
)

// loadCourse fetches a course with its lessons in order. For a signed-in user
// the lessons carry completion state.
func (h *Handler) loadCourse(ctx context.Context, slug string) (*model.Course, error) {
	backend := h.apiFor(ctx)
	course, err := backend.GetCourse(ctx, slug)
	if err != nil {
		return nil, err
	}

	lessons, err := backend.ListLessons(ctx, slug)
	if err != nil {
		slog.Warn("failed to load lessons", "course", slug, "error", err)
	} else if len(lessons) > 0 {
		course.Lessons = lessons
	}

	if model.SessionFromContext(ctx) != nil {
		progress, err := backend.LessonProgress(ctx, slug)
		if err != nil {
			slog.Warn("failed to load lesson progress", "course", slug, "error", err)
		}
		finished := make(map[string]bool, len(progress))
		for _, p := range progress {
			finished[p.LessonID] = p.IsFinished
		}
		for i := range course.Lessons {
			if finished[course.Lessons[i].ID] {
				course.Lessons[i].IsFinished = true
			}
		}
	}

	slices.SortStableFunc(course.Lessons, func(a, b model.Lesson) int { return a.Order - b.Order })
	return course, nil
}

func (h *Handler) handleCoursePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	course, err := h.loadCourse(ctx, slug)
	if err != nil {
		slog.Error("failed to load course", "course", slug, "error", err)
		h.renderError(w, r, statusFor(err), api.MessageOf(err, "Failed to load course."))
		return
	}
	if model.SessionFromContext(ctx) != nil {
		if err := h.apiFor(ctx).Enroll(ctx, slug); err != nil {
			slog.Warn("enrollment failed", "course", slug, "error", err)
		}
	}

	h.render(w, r, http.StatusOK, views.CoursePage(views.CourseData{
		Page:     views.Page{Title: course.Name},
		Slug:     slug,
		Course:   *course,
		Finished: course.FinishedLessons(),
	}))
}

func lessonKey(slug, lessonID string) string {
	return slug + "/" + lessonID
}

func findLesson(c *model.Course, id string) (model.Lesson, bool) {
	i := slices.IndexFunc(c.Lessons, func(l model.Lesson) bool { return l.ID == id })
	if i < 0 {
		return model.Lesson{}, false
	}
	return c.Lessons[i], true
}

func (h *Handler) renderLesson(w http.ResponseWriter, r *http.Request, notice *views.Notice) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	lessonID := chi.URLParam(r, "lessonID")

	course, err := h.loadCourse(ctx, slug)
	if err != nil {
		slog.Error("failed to load course", "course", slug, "error", err)
		h.renderError(w, r, statusFor(err), api.MessageOf(err, "Failed to load course."))
		return
	}
	lesson, ok := findLesson(course, lessonID)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Lesson not found.")
		return
	}

	var messages []model.ChatMessage
	if model.SessionFromContext(ctx) != nil {
		st := h.state(ctx)
		st.mu.Lock()
		messages = slices.Clone(st.lessonChats[lessonKey(slug, lessonID)])
		st.mu.Unlock()
	}

	h.render(w, r, http.StatusOK, views.LessonPage(views.LessonData{
		Page:           views.Page{Title: lesson.Title, Notice: notice},
		CourseSlug:     slug,
		CourseName:     course.Name,
		Lesson:         lesson,
		Lessons:        course.Lessons,
		Messages:       messages,
		TutorAvailable: h.tutor.Available(),
	}))
}

func (h *Handler) handleLessonPage(w http.ResponseWriter, r *http.Request) {
	h.renderLesson(w, r, nil)
}

// handleLessonAsk sends a question to the lesson tutor and appends both sides
// of the exchange to the lesson conversation.
func (h *Handler) handleLessonAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	lessonID := chi.URLParam(r, "lessonID")
	lessonPath := h.path("/courses/" + slug + "/lessons/" + lessonID)

	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		http.Redirect(w, r, lessonPath, http.StatusSeeOther)
		return
	}

	course, err := h.loadCourse(ctx, slug)
	if err != nil {
		h.renderError(w, r, statusFor(err), api.MessageOf(err, "Failed to load course."))
		return
	}
	lesson, ok := findLesson(course, lessonID)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Lesson not found.")
		return
	}

	authSess := model.SessionFromContext(ctx)
	st := h.state(ctx)
	key := lessonKey(slug, lessonID)
	st.mu.Lock()
	history := slices.Clone(st.lessonChats[key])
	st.mu.Unlock()

	reply, err := h.tutor.Ask(ctx, authSess.ID, prompts.Lesson{
		Course:  course.Name,
		Lesson:  lesson.Title,
		Content: lesson.Content,
		Lang:    appI18n.LangFromContext(ctx),
	}, history, question)
	if err != nil {
		slog.Error("tutor request failed", "course", slug, "lesson", lessonID, "error", err)
		msg := "The assistant could not answer. Please try again."
		if errors.Is(err, tutor.ErrRateLimited) {
			msg = tutor.ErrRateLimited.Error()
		}
		h.renderLesson(w, r, errorNotice(msg))
		return
	}

	st.mu.Lock()
	st.lessonChats[key] = append(st.lessonChats[key],
		model.ChatMessage{Role: model.RoleUser, Content: question, CreatedAt: reply.CreatedAt},
		reply,
	)
	st.mu.Unlock()
	http.Redirect(w, r, lessonPath, http.StatusSeeOther)
}
