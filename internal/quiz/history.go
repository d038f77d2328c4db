package quiz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/model"
)

// PageSize is the number of rows fetched per dashboard page.
const PageSize = 5

// SortKey is a dashboard sort column.
type SortKey string

const (
	SortDate  SortKey = "date"
	SortTopic SortKey = "topic"
	SortScore SortKey = "score"
)

// ParseSortKey maps a query value to a SortKey.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(s); k {
	case SortDate, SortTopic, SortScore:
		return k, true
	}
	return "", false
}

// SortDir is ascending or descending.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Lister is the backend surface the dashboard reads from.
type Lister interface {
	ListAttempts(ctx context.Context, filter api.AttemptFilter, q api.ListQuery) (*model.AttemptPage, error)
	ListDrafts(ctx context.Context, q api.ListQuery) (*model.DraftPage, error)
	Summary(ctx context.Context) (*model.DashboardSummary, error)
	DeleteDraft(ctx context.Context, draftID string) error
}

// Notice is a transient toast-style message.
type Notice struct {
	Error bool
	Text  string
}

// Dashboard holds the quiz history view: a passed/failed attempt list or the
// draft list, each paginated by "load more", plus the summary aggregate.
type Dashboard struct {
	Filter     api.AttemptFilter
	ShowDrafts bool
	SortKey    SortKey
	SortDir    SortDir

	Summary  model.DashboardSummary
	Attempts []model.AttemptSummary
	Drafts   []model.DraftSummary

	attemptsPage model.Pagination
	draftsPage   model.Pagination
	pending      bool // criteria changed, page 1 not fetched yet
	notice       *Notice
}

// NewDashboard returns a dashboard showing passed attempts, newest first.
func NewDashboard() *Dashboard {
	return &Dashboard{Filter: api.FilterPassed, SortKey: SortDate, SortDir: Desc}
}

// Load fetches the summary and the first page of the visible collection.
func (d *Dashboard) Load(ctx context.Context, l Lister) error {
	sum, err := l.Summary(ctx)
	if err != nil {
		d.fail(err, "Failed to load dashboard data.")
		return fmt.Errorf("loading summary: %w", err)
	}
	d.Summary = *sum
	return d.reload(ctx, l)
}

// SetFilter switches between passed and failed attempts and hides drafts.
func (d *Dashboard) SetFilter(ctx context.Context, l Lister, f api.AttemptFilter) error {
	if f != api.FilterPassed && f != api.FilterFailed {
		return fmt.Errorf("unknown filter %q", f)
	}
	d.Filter = f
	d.ShowDrafts = false
	return d.reload(ctx, l)
}

// ToggleDrafts flips between the draft list and the attempt list.
func (d *Dashboard) ToggleDrafts(ctx context.Context, l Lister) error {
	d.ShowDrafts = !d.ShowDrafts
	return d.reload(ctx, l)
}

// ToggleSort flips the direction when key is the current key, otherwise
// switches to key sorted descending.
func (d *Dashboard) ToggleSort(ctx context.Context, l Lister, key SortKey) error {
	if d.SortKey == key {
		if d.SortDir == Asc {
			d.SortDir = Desc
		} else {
			d.SortDir = Asc
		}
	} else {
		d.SortKey = key
		d.SortDir = Desc
	}
	return d.reload(ctx, l)
}

// HasMore reports whether "load more" is offered for the visible collection.
func (d *Dashboard) HasMore() bool {
	if d.pending {
		return false
	}
	if d.ShowDrafts {
		return d.draftsPage.HasMore()
	}
	return d.attemptsPage.HasMore()
}

// Page is the last fetched page of the visible collection.
func (d *Dashboard) Page() int {
	if d.ShowDrafts {
		return d.draftsPage.CurrentPage
	}
	return d.attemptsPage.CurrentPage
}

// LoadMore appends the next page of the visible collection.
func (d *Dashboard) LoadMore(ctx context.Context, l Lister) error {
	if !d.HasMore() {
		return nil
	}
	if d.ShowDrafts {
		p, err := d.listDrafts(ctx, l, d.draftsPage.CurrentPage+1)
		if err != nil {
			return err
		}
		d.Drafts, d.draftsPage = append(d.Drafts, p.Quizzes...), p.Pagination
		return nil
	}
	p, err := d.listAttempts(ctx, l, d.attemptsPage.CurrentPage+1)
	if err != nil {
		return err
	}
	d.Attempts, d.attemptsPage = append(d.Attempts, p.Quizzes...), p.Pagination
	return nil
}

// DeleteConfirmation is the prompt shown before deleting a draft.
func DeleteConfirmation(title string) string {
	return fmt.Sprintf("Are you sure you want to delete draft \"%s\"?", title)
}

// DeleteDraft removes a draft after confirm approves DeleteConfirmation(title).
// A declined confirmation issues no request. On success the current draft
// page is fetched again; on failure the list is left as it was.
func (d *Dashboard) DeleteDraft(ctx context.Context, l Lister, id, title string, confirm func(string) bool) (bool, error) {
	if !confirm(DeleteConfirmation(title)) {
		return false, nil
	}
	if err := l.DeleteDraft(ctx, id); err != nil {
		d.fail(err, "Failed to delete draft.")
		return false, fmt.Errorf("deleting draft %s: %w", id, err)
	}
	slog.Info("draft deleted", "draft_id", id)
	d.notice = &Notice{Text: fmt.Sprintf("Draft \"%s\" deleted successfully!", title)}
	p, err := d.listDrafts(ctx, l, max(1, d.draftsPage.CurrentPage))
	if err != nil {
		return true, err
	}
	d.Drafts, d.draftsPage = p.Quizzes, p.Pagination
	return true, nil
}

// TakeNotice returns and clears the pending notification.
func (d *Dashboard) TakeNotice() *Notice {
	n := d.notice
	d.notice = nil
	return n
}

// reload fetches page 1 of the visible collection for the current criteria.
// The lists are replaced only once that page arrives; until then "load more"
// is withheld.
func (d *Dashboard) reload(ctx context.Context, l Lister) error {
	d.pending = true
	if d.ShowDrafts {
		p, err := d.listDrafts(ctx, l, 1)
		if err != nil {
			return err
		}
		d.Drafts, d.draftsPage = p.Quizzes, p.Pagination
		d.Attempts, d.attemptsPage = nil, model.Pagination{}
	} else {
		p, err := d.listAttempts(ctx, l, 1)
		if err != nil {
			return err
		}
		d.Attempts, d.attemptsPage = p.Quizzes, p.Pagination
		d.Drafts, d.draftsPage = nil, model.Pagination{}
	}
	d.pending = false
	return nil
}

func (d *Dashboard) listAttempts(ctx context.Context, l Lister, page int) (*model.AttemptPage, error) {
	q := api.ListQuery{Page: page, Limit: PageSize, SortBy: d.attemptSortBy(), SortOrder: string(d.SortDir)}
	p, err := l.ListAttempts(ctx, d.Filter, q)
	if err != nil {
		d.fail(err, "Failed to load quizzes.")
		return nil, fmt.Errorf("listing %s attempts: %w", d.Filter, err)
	}
	return p, nil
}

func (d *Dashboard) listDrafts(ctx context.Context, l Lister, page int) (*model.DraftPage, error) {
	q := api.ListQuery{Page: page, Limit: PageSize, SortBy: d.draftSortBy(), SortOrder: string(d.SortDir)}
	p, err := l.ListDrafts(ctx, q)
	if err != nil {
		d.fail(err, "Failed to load draft quizzes.")
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	return p, nil
}

func (d *Dashboard) attemptSortBy() string {
	if d.SortKey == SortDate || d.SortKey == "" {
		return "dateTaken"
	}
	return string(d.SortKey)
}

// draftSortBy omits score, which drafts do not have.
func (d *Dashboard) draftSortBy() string {
	switch d.SortKey {
	case SortDate:
		return "createdDate"
	case SortScore:
		return ""
	}
	return string(d.SortKey)
}

func (d *Dashboard) fail(err error, fallback string) {
	slog.Error("dashboard request failed", "error", err)
	d.notice = &Notice{Error: true, Text: api.MessageOf(err, fallback)}
}
