package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/protu/internal/model"
	"github.com/pavelanni/protu/internal/quiz"
)

// uiState is the transient page state of one signed-in browser. It lives only
// in memory; the backend stays the source of truth.
type uiState struct {
	mu sync.Mutex

	// ctx outlives single requests so countdowns keep running between them.
	ctx      context.Context
	cancel   context.CancelFunc
	lastSeen time.Time

	wizard      *quiz.Wizard
	customInput string
	dashboard   *quiz.Dashboard

	sessions map[string]*quiz.Session // by quiz id
	reports  map[string]*quiz.Report  // by quiz id

	lessonChats map[string][]model.ChatMessage // by course slug and lesson id
}

func newUIState() *uiState {
	ctx, cancel := context.WithCancel(context.Background())
	return &uiState{
		ctx:         ctx,
		cancel:      cancel,
		lastSeen:    time.Now(),
		sessions:    make(map[string]*quiz.Session),
		reports:     make(map[string]*quiz.Report),
		lessonChats: make(map[string][]model.ChatMessage),
	}
}

// close stops every running countdown.
func (s *uiState) close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.Cancel()
	}
}

// abandon cancels the taking sessions the user has left and forgets their
// answers. The session of keep survives; with submittedOnly it survives only
// once handed in, so the feedback page can still pick up the attempt.
func (s *uiState) abandon(keep string, submittedOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		submitted := sess.Attempt() != nil
		if id == keep && (submitted || !submittedOnly) {
			continue
		}
		sess.Cancel()
		delete(s.sessions, id)
		if !submitted {
			slog.Info("quiz abandoned", "quiz_id", id)
		}
	}
}

type registry struct {
	mu     sync.Mutex
	states map[string]*uiState
}

func newRegistry() *registry {
	return &registry{states: make(map[string]*uiState)}
}

// get returns the state of auth session id, creating it on first use.
func (r *registry) get(id string) *uiState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[id]
	if !ok {
		st = newUIState()
		r.states[id] = st
	}
	st.lastSeen = time.Now()
	return st
}

func (r *registry) drop(id string) {
	r.mu.Lock()
	st, ok := r.states[id]
	delete(r.states, id)
	r.mu.Unlock()
	if ok {
		st.close()
	}
}

func (r *registry) prune(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	r.mu.Lock()
	var stale []*uiState
	for id, st := range r.states {
		if st.lastSeen.Before(cutoff) {
			stale = append(stale, st)
			delete(r.states, id)
		}
	}
	r.mu.Unlock()
	for _, st := range stale {
		st.close()
	}
	if len(stale) > 0 {
		slog.Info("pruned idle UI state", "count", len(stale))
	}
	return len(stale)
}

// state returns the UI state of the signed-in user of ctx.
func (h *Handler) state(ctx context.Context) *uiState {
	return h.states.get(model.SessionFromContext(ctx).ID)
}

// leaveTaking cancels the taking sessions a signed-in request navigates away
// from. Taking routes keep the session of their own quiz running.
func (h *Handler) leaveTaking(taking bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if model.SessionFromContext(r.Context()) != nil {
				h.state(r.Context()).abandon(chi.URLParam(r, "quizID"), !taking)
			}
			next.ServeHTTP(w, r)
		})
	}
}
