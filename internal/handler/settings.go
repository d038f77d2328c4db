package handler

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/pavelanni/protu/internal/account"
	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/handler/views"
	appI18n "github.com/pavelanni/protu/internal/i18n"
	"github.com/pavelanni/protu/internal/model"
)

var themes = []string{"light", "dark", "system"}

func supportedLangs() []string {
	out := make([]string, 0, len(appI18n.Supported))
	for _, t := range appI18n.Supported {
		out = append(out, t.String())
	}
	return out
}

func (h *Handler) renderSettings(w http.ResponseWriter, r *http.Request, status int, d views.SettingsData) {
	ctx := r.Context()
	authSess := model.SessionFromContext(ctx)
	prefs, err := h.store.GetPreferences(authSess.UserID)
	if err != nil {
		slog.Error("failed to load preferences", "user_id", authSess.UserID, "error", err)
	}
	if prefs.Theme == "" {
		prefs.Theme = "system"
	}
	if prefs.Lang == "" {
		prefs.Lang = appI18n.LangFromContext(ctx)
	}
	d.Page.Title = appI18n.T(ctx, "Preferences")
	d.Prefs = prefs
	d.Themes = themes
	d.Langs = supportedLangs()
	h.render(w, r, status, views.SettingsPage(d))
}

func (h *Handler) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	h.renderSettings(w, r, http.StatusOK, views.SettingsData{})
}

func (h *Handler) handleSavePreferences(w http.ResponseWriter, r *http.Request) {
	authSess := model.SessionFromContext(r.Context())
	p := model.Preferences{Theme: r.FormValue("theme"), Lang: r.FormValue("lang")}
	if !slices.Contains(themes, p.Theme) {
		p.Theme = ""
	}
	if !appI18n.IsSupported(p.Lang) {
		p.Lang = ""
	}

	if err := h.store.SavePreferences(authSess.UserID, p); err != nil {
		slog.Error("failed to save preferences", "user_id", authSess.UserID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if p.Lang != "" {
		h.setLangCookie(w, p.Lang)
		r = r.WithContext(appI18n.WithLang(r.Context(), p.Lang))
	}
	h.renderSettings(w, r, http.StatusOK, views.SettingsData{
		Page: views.Page{Notice: infoNotice(r.Context(), "PreferencesSaved")},
	})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := account.PasswordChange{
		Current: r.FormValue("current_password"),
		New:     r.FormValue("new_password"),
		Confirm: r.FormValue("confirm_new_password"),
	}
	if fe := form.Validate(); !fe.OK() {
		h.renderSettings(w, r, http.StatusUnprocessableEntity, views.SettingsData{Errors: fe})
		return
	}

	err := h.apiFor(ctx).ChangePassword(ctx, api.PasswordChange{
		CurrentPassword: form.Current,
		NewPassword:     form.New,
	})
	if err != nil {
		slog.Warn("password change failed", "error", err)
		h.renderSettings(w, r, http.StatusOK, views.SettingsData{
			Page: views.Page{Notice: errorNotice(api.MessageOf(err, "Failed to update password."))},
		})
		return
	}
	slog.Info("password changed", "user_id", model.SessionFromContext(ctx).UserID)
	h.renderSettings(w, r, http.StatusOK, views.SettingsData{
		Page: views.Page{Notice: infoNotice(ctx, "PasswordUpdated")},
	})
}
