package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/protu/internal/account"
	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/handler/views"
	appI18n "github.com/pavelanni/protu/internal/i18n"
	"github.com/pavelanni/protu/internal/model"
	"github.com/pavelanni/protu/internal/store"
)

const (
	sessionCookieName = "session"
	csrfCookieName    = "csrf_token"
)

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *Handler) setCSRFCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: false,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// csrfMiddleware implements double-submit cookies. Safe requests reuse the
// current token so polling does not invalidate forms already on the page;
// each accepted unsafe request rotates it.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			token := ""
			if c, err := r.Cookie(csrfCookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				var err error
				if token, err = generateCSRFToken(); err != nil {
					slog.Error("failed to generate CSRF token", "error", err)
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				h.setCSRFCookie(w, token)
			}
			ctx := model.ContextWithCSRFToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			slog.Warn("CSRF cookie missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		formToken := r.FormValue("csrf_token")
		if formToken == "" {
			slog.Warn("CSRF form token missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
			slog.Warn("CSRF token mismatch")
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		token, err := generateCSRFToken()
		if err != nil {
			slog.Error("failed to generate CSRF token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.setCSRFCookie(w, token)

		ctx := model.ContextWithCSRFToken(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// lookupSession resolves the session cookie, or returns nil.
func (h *Handler) lookupSession(r *http.Request) *model.AuthSession {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	authSess, err := h.store.GetAuthSession(cookie.Value)
	if err != nil {
		slog.Error("failed to get auth session", "error", err)
		return nil
	}
	return authSess
}

// withSession attaches the signed-in session, if any, without requiring one.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authSess := h.lookupSession(r); authSess != nil {
			r = r.WithContext(model.ContextWithSession(r.Context(), authSess))
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth is middleware that checks for a valid session cookie.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authSess := h.lookupSession(r)
		if authSess == nil {
			h.redirectToLogin(w, r)
			return
		}
		ctx := model.ContextWithSession(r.Context(), authSess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	loginPath := h.path("/login")
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", loginPath)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.LoginPage(views.LoginData{
		Page: views.Page{Title: appI18n.T(r.Context(), "SignIn")},
	}))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d := views.LoginData{
		Page: views.Page{Title: appI18n.T(ctx, "SignIn")},
		Form: account.SignIn{
			Email:    strings.TrimSpace(r.FormValue("email")),
			Password: r.FormValue("password"),
		},
	}
	if d.Errors = d.Form.Validate(); !d.Errors.OK() {
		h.render(w, r, http.StatusUnprocessableEntity, views.LoginPage(d))
		return
	}

	res, err := h.api.Anonymous().Login(ctx, api.Credentials{Email: d.Form.Email, Password: d.Form.Password})
	if err != nil {
		slog.Warn("login failed", "email", d.Form.Email, "error", err)
		d.Notice = errorNotice(api.MessageOf(err, appI18n.T(ctx, "LoginFailed")))
		h.render(w, r, http.StatusUnauthorized, views.LoginPage(d))
		return
	}
	if err := h.startSession(w, res); err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/quizzes"), http.StatusSeeOther)
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.RegisterPage(views.RegisterData{
		Page: views.Page{Title: appI18n.T(r.Context(), "SignUp")},
	}))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d := views.RegisterData{
		Page: views.Page{Title: appI18n.T(ctx, "SignUp")},
		Form: account.SignUp{
			Name:            strings.TrimSpace(r.FormValue("name")),
			Email:           strings.TrimSpace(r.FormValue("email")),
			Username:        strings.TrimSpace(r.FormValue("username")),
			Password:        r.FormValue("password"),
			ConfirmPassword: r.FormValue("confirm_password"),
		},
	}
	if d.Errors = d.Form.Validate(); !d.Errors.OK() {
		h.render(w, r, http.StatusUnprocessableEntity, views.RegisterPage(d))
		return
	}

	res, err := h.api.Anonymous().Register(ctx, api.Registration{
		Name:     d.Form.Name,
		Email:    d.Form.Email,
		Username: d.Form.Username,
		Password: d.Form.Password,
	})
	if err != nil {
		slog.Warn("registration failed", "email", d.Form.Email, "error", err)
		d.Notice = errorNotice(api.MessageOf(err, appI18n.T(ctx, "RegisterFailed")))
		h.render(w, r, http.StatusOK, views.RegisterPage(d))
		return
	}
	if err := h.startSession(w, res); err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/quizzes"), http.StatusSeeOther)
}

// startSession records the backend token under a new session cookie. The
// session expires with the token, or after store.DefaultSessionTTL when the
// token carries no expiry.
func (h *Handler) startSession(w http.ResponseWriter, res *api.AuthResult) error {
	expires := time.Now().Add(store.DefaultSessionTTL)
	claims, err := api.ParseToken(res.Token)
	if err != nil {
		slog.Warn("could not read token claims", "error", err)
	} else if !claims.ExpiresAt.IsZero() {
		expires = claims.ExpiresAt
	}

	user := res.User
	if user.ID == "" {
		user.ID = claims.Subject
	}
	if err := h.store.UpsertUser(user); err != nil {
		return err
	}
	id, err := h.store.CreateAuthSession(user.ID, res.Token, expires)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     h.cookiePath(),
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})

	prefs, err := h.store.GetPreferences(user.ID)
	if err != nil {
		slog.Warn("failed to load preferences", "user_id", user.ID, "error", err)
	} else if prefs.Lang != "" {
		h.setLangCookie(w, prefs.Lang)
	}
	slog.Info("user signed in", "user_id", user.ID, "username", user.Username, "expires", expires)
	return nil
}

func (h *Handler) setLangCookie(w http.ResponseWriter, lang string) {
	http.SetCookie(w, &http.Cookie{
		Name:     appI18n.CookieName,
		Value:    lang,
		Path:     h.cookiePath(),
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authSess := model.SessionFromContext(ctx)
	if err := h.apiFor(ctx).Logout(ctx); err != nil {
		slog.Warn("backend logout failed", "error", err)
	}
	if err := h.store.DeleteAuthSession(authSess.ID); err != nil {
		slog.Error("failed to delete auth session", "error", err)
	}
	h.states.drop(authSess.ID)
	h.tutor.Forget(authSess.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
}

func (h *Handler) handleForgotPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.ForgotPage(views.ForgotData{
		Page: views.Page{Title: appI18n.T(r.Context(), "ResetPassword")},
		Step: 1,
	}))
}

// handleForgot advances the forgot-password flow: email, code, new password.
// Each step stays put on a validation or backend error.
func (h *Handler) handleForgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	step, _ := strconv.Atoi(r.FormValue("step"))
	d := views.ForgotData{
		Page:  views.Page{Title: appI18n.T(ctx, "ResetPassword")},
		Step:  max(1, min(step, 3)),
		Email: strings.TrimSpace(r.FormValue("email")),
		Code:  strings.TrimSpace(r.FormValue("code")),
	}
	backend := h.api.Anonymous()

	var err error
	switch d.Step {
	case 1:
		if d.Errors = account.ValidateEmail(d.Email); d.Errors.OK() {
			err = backend.RequestPasswordReset(ctx, d.Email)
		}
	case 2:
		if d.Errors = account.ValidateCode(d.Code); d.Errors.OK() {
			err = backend.VerifyResetCode(ctx, d.Email, d.Code)
		}
	case 3:
		form := account.Reset{Password: r.FormValue("password"), Confirm: r.FormValue("confirm_password")}
		if d.Errors = form.Validate(); d.Errors.OK() {
			err = backend.ResetPassword(ctx, d.Email, d.Code, form.Password)
		}
	}

	switch {
	case !d.Errors.OK():
		h.render(w, r, http.StatusUnprocessableEntity, views.ForgotPage(d))
		return
	case err != nil:
		slog.Warn("password reset step failed", "step", d.Step, "error", err)
		d.Notice = errorNotice(api.MessageOf(err, "Something went wrong. Please try again."))
	default:
		d.Step++
	}
	h.render(w, r, http.StatusOK, views.ForgotPage(d))
}
