package api

import (
	"context"
	"net/http"

	"github.com/gosimple/slug"

	"github.com/pavelanni/protu/internal/model"
)

// CoursePath turns a course name into its URL path segment.
func CoursePath(name string) string {
	return slug.Make(name)
}

// GetCourse fetches a course by name. It works without a token.
func (s *Session) GetCourse(ctx context.Context, name string) (*model.Course, error) {
	var out model.Course
	err := s.do(ctx, call{name: "courses.get", method: http.MethodGet, path: "/v1/courses/" + CoursePath(name), out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Enroll enrolls the current user in a course.
func (s *Session) Enroll(ctx context.Context, name string) error {
	return s.do(ctx, call{name: "progress.enroll", method: http.MethodPost, path: "/v1/progress/courses/" + CoursePath(name) + "/enrollments", auth: true})
}

// ListLessons fetches the lessons of a course.
func (s *Session) ListLessons(ctx context.Context, name string) ([]model.Lesson, error) {
	var out []model.Lesson
	err := s.do(ctx, call{name: "courses.lessons", method: http.MethodGet, path: "/v1/courses/" + CoursePath(name) + "/lessons", out: &out})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LessonProgress fetches per-lesson completion for the current user.
func (s *Session) LessonProgress(ctx context.Context, name string) ([]model.LessonProgress, error) {
	var out []model.LessonProgress
	err := s.do(ctx, call{name: "courses.progress", method: http.MethodGet, path: "/v1/courses/" + CoursePath(name) + "/lessons/progress", out: &out, auth: true})
	if err != nil {
		return nil, err
	}
	return out, nil
}
