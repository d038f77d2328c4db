// Package account validates the sign-in, sign-up, password reset and password
// change forms before anything is sent to the backend.
package account

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLen is the minimum password length.
const MinPasswordLen = 8

// ResetCodeLen is the number of digits in a password reset code.
const ResetCodeLen = 6

const specialChars = "!@#$%^&*"

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldErrors maps a form field name to its message. An empty map is valid.
type FieldErrors map[string]string

// OK reports whether there are no errors.
func (fe FieldErrors) OK() bool { return len(fe) == 0 }

// Get returns the message of field, or "".
func (fe FieldErrors) Get(field string) string { return fe[field] }

// SignIn is the sign-in form.
type SignIn struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// SignUp is the sign-up form.
type SignUp struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Username        string `validate:"required,min=3,max=32,alphanum"`
	Password        string
	ConfirmPassword string
}

// PasswordChange is the settings page password form.
type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

// Reset is the final forgot-password step.
type Reset struct {
	Password string
	Confirm  string
}

var fieldLabels = map[string]string{
	"email":    "Email",
	"password": "Password",
	"name":     "Name",
	"username": "Username",
}

// Validate checks the sign-in form.
func (f SignIn) Validate() FieldErrors {
	return structErrors(f)
}

// Validate checks the sign-up form.
func (f SignUp) Validate() FieldErrors {
	fe := structErrors(f)
	if msg := PasswordError("Password", f.Password); msg != "" {
		fe["password"] = msg
	}
	if msg := ConfirmError("Confirm password", f.Password, f.ConfirmPassword); msg != "" {
		fe["confirm_password"] = msg
	}
	return fe
}

// Validate checks the password change form. The current password is held to
// the same rules as the new one.
func (f PasswordChange) Validate() FieldErrors {
	fe := FieldErrors{}
	if msg := PasswordError("Current password", f.Current); msg != "" {
		fe["current_password"] = msg
	}
	if msg := PasswordError("New password", f.New); msg != "" {
		fe["new_password"] = msg
	}
	if msg := ConfirmError("Confirm new password", f.New, f.Confirm); msg != "" {
		fe["confirm_new_password"] = msg
	}
	return fe
}

// Validate checks the new password of a reset.
func (f Reset) Validate() FieldErrors {
	fe := FieldErrors{}
	if msg := PasswordError("New password", f.Password); msg != "" {
		fe["password"] = msg
	}
	if msg := ConfirmError("Confirm password", f.Password, f.Confirm); msg != "" {
		fe["confirm_password"] = msg
	}
	return fe
}

// ValidateEmail checks a single email field.
func ValidateEmail(email string) FieldErrors {
	fe := FieldErrors{}
	switch {
	case strings.TrimSpace(email) == "":
		fe["email"] = "Email is required"
	case validate.Var(email, "email") != nil:
		fe["email"] = "Email is not a valid address"
	}
	return fe
}

// ValidateCode checks a reset code: exactly ResetCodeLen digits.
func ValidateCode(code string) FieldErrors {
	fe := FieldErrors{}
	code = strings.TrimSpace(code)
	if utf8.RuneCountInString(code) != ResetCodeLen || strings.ContainsFunc(code, func(r rune) bool { return r < '0' || r > '9' }) {
		fe["code"] = "Enter the 6-digit code"
	}
	return fe
}

// PasswordError returns the first complexity rule pw breaks, prefixed with
// label, or "" when pw is acceptable.
func PasswordError(label, pw string) string {
	switch {
	case pw == "":
		return label + " is required"
	case utf8.RuneCountInString(pw) < MinPasswordLen:
		return label + " must be at least 8 characters"
	case !strings.ContainsFunc(pw, unicode.IsUpper):
		return label + " must contain at least one uppercase letter"
	case !strings.ContainsFunc(pw, unicode.IsLower):
		return label + " must contain at least one lowercase letter"
	case !strings.ContainsFunc(pw, unicode.IsDigit):
		return label + " must contain at least one number"
	case !strings.ContainsAny(pw, specialChars):
		return label + " must contain at least one special character"
	}
	return ""
}

// ConfirmError checks the confirmation field against pw.
func ConfirmError(label, pw, confirm string) string {
	switch {
	case confirm == "":
		return label + " is required"
	case confirm != pw:
		return "Passwords do not match"
	}
	return ""
}

func structErrors(v any) FieldErrors {
	fe := FieldErrors{}
	err := validate.Struct(v)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fe
	}
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		if _, seen := fe[field]; seen {
			continue
		}
		fe[field] = ruleMessage(fieldLabels[field], e)
	}
	return fe
}

func ruleMessage(label string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " is not a valid address"
	case "min":
		return label + " must be at least " + e.Param() + " characters"
	case "max":
		return label + " must be at most " + e.Param() + " characters"
	case "alphanum":
		return label + " may contain only letters and digits"
	}
	return label + " is invalid"
}
