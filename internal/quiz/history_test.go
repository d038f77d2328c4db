package quiz

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/model"
)

type fakeLister struct {
	attemptQueries []api.ListQuery
	filters        []api.AttemptFilter
	draftQueries   []api.ListQuery
	deleted        []string
	totalPages     int
	drafts         []model.DraftSummary
	listErr        error
	deleteErr      error
	summaryCalls   int
}

func (f *fakeLister) ListAttempts(_ context.Context, filter api.AttemptFilter, q api.ListQuery) (*model.AttemptPage, error) {
	f.filters = append(f.filters, filter)
	f.attemptQueries = append(f.attemptQueries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &model.AttemptPage{
		Quizzes:    []model.AttemptSummary{{ID: string(filter) + "-" + strconv.Itoa(q.Page), Score: 70}},
		Pagination: model.Pagination{CurrentPage: q.Page, TotalPages: f.totalPages},
	}, nil
}

func (f *fakeLister) ListDrafts(_ context.Context, q api.ListQuery) (*model.DraftPage, error) {
	f.draftQueries = append(f.draftQueries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &model.DraftPage{
		Quizzes:    f.drafts,
		Pagination: model.Pagination{CurrentPage: q.Page, TotalPages: f.totalPages},
	}, nil
}

func (f *fakeLister) Summary(context.Context) (*model.DashboardSummary, error) {
	f.summaryCalls++
	return &model.DashboardSummary{TotalQuizzes: 12, AverageScore: 71.5, SuccessRate: 66.7}, nil
}

func (f *fakeLister) DeleteDraft(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestDashboardLoad(t *testing.T) {
	l := &fakeLister{totalPages: 3}
	d := NewDashboard()
	if err := d.Load(context.Background(), l); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.summaryCalls != 1 || d.Summary.TotalQuizzes != 12 {
		t.Errorf("summary = %+v after %d calls", d.Summary, l.summaryCalls)
	}
	q := l.attemptQueries[0]
	want := api.ListQuery{Page: 1, Limit: PageSize, SortBy: "dateTaken", SortOrder: "desc"}
	if q != want || l.filters[0] != api.FilterPassed {
		t.Errorf("first query = %+v %s, want %+v passed", q, l.filters[0], want)
	}
	if !d.HasMore() {
		t.Error("load more hidden with pages remaining")
	}
}

func TestDashboardLoadMoreAppends(t *testing.T) {
	ctx := context.Background()
	l := &fakeLister{totalPages: 2}
	d := NewDashboard()
	if err := d.Load(ctx, l); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := d.LoadMore(ctx, l); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if len(d.Attempts) != 2 || d.Page() != 2 {
		t.Errorf("attempts = %d page = %d, want 2 rows on page 2", len(d.Attempts), d.Page())
	}
	if d.HasMore() {
		t.Error("load more offered on last page")
	}
	calls := len(l.attemptQueries)
	if err := d.LoadMore(ctx, l); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if len(l.attemptQueries) != calls {
		t.Error("LoadMore fetched past the last page")
	}
}

func TestDashboardSortToggle(t *testing.T) {
	ctx := context.Background()
	l := &fakeLister{totalPages: 1}
	d := NewDashboard()

	steps := []struct {
		key     SortKey
		wantKey SortKey
		wantDir SortDir
		sortBy  string
	}{
		{SortDate, SortDate, Asc, "dateTaken"},
		{SortDate, SortDate, Desc, "dateTaken"},
		{SortScore, SortScore, Desc, "score"},
		{SortScore, SortScore, Asc, "score"},
		{SortTopic, SortTopic, Desc, "topic"},
	}
	for _, st := range steps {
		if err := d.ToggleSort(ctx, l, st.key); err != nil {
			t.Fatalf("ToggleSort: %v", err)
		}
		if d.SortKey != st.wantKey || d.SortDir != st.wantDir {
			t.Errorf("after %s: %s %s, want %s %s", st.key, d.SortKey, d.SortDir, st.wantKey, st.wantDir)
		}
		last := l.attemptQueries[len(l.attemptQueries)-1]
		if last.Page != 1 || last.SortBy != st.sortBy || last.SortOrder != string(st.wantDir) {
			t.Errorf("after %s: query %+v", st.key, last)
		}
	}
}

func TestDashboardDraftSortBy(t *testing.T) {
	ctx := context.Background()
	l := &fakeLister{totalPages: 1}
	d := NewDashboard()
	if err := d.ToggleDrafts(ctx, l); err != nil {
		t.Fatalf("ToggleDrafts: %v", err)
	}
	if l.draftQueries[0].SortBy != "createdDate" {
		t.Errorf("date sort for drafts = %q", l.draftQueries[0].SortBy)
	}
	if err := d.ToggleSort(ctx, l, SortScore); err != nil {
		t.Fatalf("ToggleSort: %v", err)
	}
	if got := l.draftQueries[1].SortBy; got != "" {
		t.Errorf("score sort sent for drafts: %q", got)
	}
}

func TestDashboardFilterResetsPagination(t *testing.T) {
	ctx := context.Background()
	l := &fakeLister{totalPages: 3}
	d := NewDashboard()
	if err := d.Load(ctx, l); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := d.LoadMore(ctx, l); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if err := d.ToggleDrafts(ctx, l); err != nil {
		t.Fatalf("ToggleDrafts: %v", err)
	}
	if d.Attempts != nil {
		t.Error("attempts still visible while showing drafts")
	}

	l.listErr = errors.New("offline")
	if err := d.SetFilter(ctx, l, api.FilterFailed); err == nil {
		t.Fatal("expected error")
	}
	if d.ShowDrafts {
		t.Error("drafts still visible after filter change")
	}
	if d.HasMore() {
		t.Error("load more offered before the first page for the new filter was fetched")
	}
	n := d.TakeNotice()
	if n == nil || !n.Error || n.Text != "Failed to load quizzes." {
		t.Errorf("notice = %+v", n)
	}
	if d.TakeNotice() != nil {
		t.Error("notice not cleared")
	}

	l.listErr = nil
	if err := d.SetFilter(ctx, l, api.FilterFailed); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if l.filters[len(l.filters)-1] != api.FilterFailed || d.Page() != 1 {
		t.Errorf("filter %s page %d", l.filters[len(l.filters)-1], d.Page())
	}
}

func TestDashboardFailedReloadKeepsRows(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		change func(*Dashboard, Lister) error
	}{
		{"filter", func(d *Dashboard, l Lister) error { return d.SetFilter(ctx, l, api.FilterFailed) }},
		{"sort", func(d *Dashboard, l Lister) error { return d.ToggleSort(ctx, l, SortScore) }},
		{"drafts", func(d *Dashboard, l Lister) error { return d.ToggleDrafts(ctx, l) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLister{totalPages: 3}
			d := NewDashboard()
			if err := d.Load(ctx, l); err != nil {
				t.Fatalf("Load: %v", err)
			}
			if err := d.LoadMore(ctx, l); err != nil {
				t.Fatalf("LoadMore: %v", err)
			}

			l.listErr = errors.New("offline")
			if err := tt.change(d, l); err == nil {
				t.Fatal("expected error")
			}
			if len(d.Attempts) != 2 || d.Attempts[1].ID != "passed-2" {
				t.Errorf("attempts after failed %s = %+v", tt.name, d.Attempts)
			}
			if d.HasMore() {
				t.Error("load more offered before the first page for the new criteria was fetched")
			}
			calls := len(l.attemptQueries) + len(l.draftQueries)
			if err := d.LoadMore(ctx, l); err != nil {
				t.Fatalf("LoadMore: %v", err)
			}
			if len(l.attemptQueries)+len(l.draftQueries) != calls {
				t.Error("LoadMore fetched with stale pagination")
			}
			if n := d.TakeNotice(); n == nil || !n.Error {
				t.Errorf("notice = %+v", n)
			}

			l.listErr = nil
			if err := tt.change(d, l); err != nil {
				t.Fatalf("retry: %v", err)
			}
			if !d.HasMore() || d.Page() != 1 {
				t.Errorf("after retry: page %d, has more %v", d.Page(), d.HasMore())
			}
		})
	}
}

func TestDashboardDeleteDeclined(t *testing.T) {
	ctx := context.Background()
	l := &fakeLister{totalPages: 1, drafts: []model.DraftSummary{{ID: "d1", Title: "Algebra Quiz"}}}
	d := NewDashboard()
	if err := d.ToggleDrafts(ctx, l); err != nil {
		t.Fatalf("ToggleDrafts: %v", err)
	}
	var prompt string
	deleted, err := d.DeleteDraft(ctx, l, "d1", "Algebra Quiz", func(msg string) bool {
		prompt = msg
		return false
	})
	if err != nil || deleted {
		t.Fatalf("DeleteDraft = %v, %v", deleted, err)
	}
	if prompt != `Are you sure you want to delete draft "Algebra Quiz"?` {
		t.Errorf("prompt = %q", prompt)
	}
	if len(l.deleted) != 0 {
		t.Error("delete request issued after declined confirmation")
	}
	if len(d.Drafts) != 1 || len(l.draftQueries) != 1 {
		t.Error("draft list changed after declined confirmation")
	}
}

func TestDashboardDelete(t *testing.T) {
	ctx := context.Background()
	l := &fakeLister{totalPages: 1, drafts: []model.DraftSummary{{ID: "d1", Title: "Algebra Quiz"}}}
	d := NewDashboard()
	if err := d.ToggleDrafts(ctx, l); err != nil {
		t.Fatalf("ToggleDrafts: %v", err)
	}
	yes := func(string) bool { return true }

	l.deleteErr = &api.Error{Status: 500, Message: "Draft is locked"}
	if _, err := d.DeleteDraft(ctx, l, "d1", "Algebra Quiz", yes); err == nil {
		t.Fatal("expected error")
	}
	if len(d.Drafts) != 1 || len(l.draftQueries) != 1 {
		t.Error("list changed after failed delete")
	}
	if n := d.TakeNotice(); n == nil || n.Text != "Draft is locked" {
		t.Errorf("notice = %+v", n)
	}

	l.deleteErr = nil
	l.drafts = []model.DraftSummary{}
	deleted, err := d.DeleteDraft(ctx, l, "d1", "Algebra Quiz", yes)
	if err != nil || !deleted {
		t.Fatalf("DeleteDraft = %v, %v", deleted, err)
	}
	if len(l.draftQueries) != 2 || l.draftQueries[1].Page != 1 {
		t.Errorf("draft page not re-fetched: %+v", l.draftQueries)
	}
	if len(d.Drafts) != 0 {
		t.Errorf("drafts = %+v", d.Drafts)
	}
}
