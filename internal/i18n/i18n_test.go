package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Protu" {
		t.Errorf("T(AppTitle) = %q, want 'Protu'", got)
	}

	got = T(ctx, "DashboardTitle")
	if got != "Your Quiz Dashboard" {
		t.Errorf("T(DashboardTitle) = %q, want 'Your Quiz Dashboard'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "SubmitQuiz")
	if got != "Завершить тест" {
		t.Errorf("T(SubmitQuiz) = %q, want 'Завершить тест'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "QuestionsRemaining", 1)
	if got1 != "1 question remaining" {
		t.Errorf("Tp(QuestionsRemaining, 1) = %q, want '1 question remaining'", got1)
	}

	got5 := Tp(ctx, "QuestionsRemaining", 5)
	if got5 != "5 questions remaining" {
		t.Errorf("Tp(QuestionsRemaining, 5) = %q, want '5 questions remaining'", got5)
	}
}

func TestPluralTranslationRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	tests := []struct {
		count int
		want  string
	}{
		{1, "1 урок"},
		{3, "3 урока"},
		{5, "5 уроков"},
		{21, "21 урок"},
	}
	for _, tt := range tests {
		if got := Tp(ctx, "LessonsCount", tt.count); got != tt.want {
			t.Errorf("Tp(LessonsCount, %d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "StepOf", map[string]any{"Step": 2, "Total": 3})
	if got != "Step 2 of 3" {
		t.Errorf("Td(StepOf) = %q, want 'Step 2 of 3'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"russian header", []string{"ru-RU,ru;q=0.9,en;q=0.8"}, "ru"},
		{"english tag", []string{"en-GB"}, "en"},
		{"unsupported falls back", []string{"ja"}, "en"},
		{"empty", nil, "en"},
		{"fallback used", []string{"", "ru"}, "ru"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.prefs...); got != tt.want {
				t.Errorf("Match(%v) = %q, want %q", tt.prefs, got, tt.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	for lang, want := range map[string]bool{"en": true, "ru": true, "de": false, "??": false} {
		if got := IsSupported(lang); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", lang, got, want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatal(err)
	}
	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LangFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"default", "", "", "en"},
		{"accept header", "", "ru,en;q=0.5", "ru"},
		{"cookie wins", "en", "ru", "en"},
		{"bad cookie ignored", "xx", "ru", "ru"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("lang = %q, want %q", got, tt.want)
			}
		})
	}
}
