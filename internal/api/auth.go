package api

import (
	"context"
	"net/http"

	"github.com/pavelanni/protu/internal/model"
)

// Credentials are the sign-in fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration are the sign-up fields.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// PasswordChange is the body of a password update.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Login exchanges credentials for a bearer token.
func (s *Session) Login(ctx context.Context, cr Credentials) (*AuthResult, error) {
	var out AuthResult
	if err := s.do(ctx, call{name: "auth.login", method: http.MethodPost, path: "/auth/login", body: cr, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns a bearer token.
func (s *Session) Register(ctx context.Context, r Registration) (*AuthResult, error) {
	var out AuthResult
	if err := s.do(ctx, call{name: "auth.register", method: http.MethodPost, path: "/auth/register", body: r, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the token on the backend.
func (s *Session) Logout(ctx context.Context) error {
	return s.do(ctx, call{name: "auth.logout", method: http.MethodPost, path: "/auth/logout", auth: true})
}

// RequestPasswordReset sends a verification code to email.
func (s *Session) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return s.do(ctx, call{name: "auth.forgot", method: http.MethodPost, path: "/auth/forgot-password", body: body})
}

// VerifyResetCode checks the emailed code.
func (s *Session) VerifyResetCode(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return s.do(ctx, call{name: "auth.verify", method: http.MethodPost, path: "/auth/verify-code", body: body})
}

// ResetPassword sets a new password after code verification.
func (s *Session) ResetPassword(ctx context.Context, email, code, password string) error {
	body := map[string]string{"email": email, "code": code, "password": password}
	return s.do(ctx, call{name: "auth.reset", method: http.MethodPost, path: "/auth/reset-password", body: body})
}

// ChangePassword updates the current user's password.
func (s *Session) ChangePassword(ctx context.Context, pc PasswordChange) error {
	return s.do(ctx, call{name: "users.password", method: http.MethodPut, path: "/v1/users/me/password", body: pc, auth: true})
}
