package models

import (
	"regexp"
	"strings"
	"time"
)

const MinPasswordLength = 6

var (
	studentIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{3,20}$`)
	fullNamePattern  = regexp.MustCompile(`^[A-Za-z\s]{2,50}$`)
)

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	StudentID string `json:"student_id"`

	RecaptchaToken string `json:"recaptcha_token,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Session is returned by sign-in, sign-up and session lookup.
type Session struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	User      User      `json:"user"`
	Profile   *Profile  `json:"profile"`
	IsAdmin   bool      `json:"is_admin"`
}

// NormalizeEmail lower-cases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidStudentID reports whether id is 3-20 ASCII letters or digits.
func ValidStudentID(id string) bool {
	return studentIDPattern.MatchString(id)
}

// ValidFullName reports whether name is 2-50 letters and spaces.
func ValidFullName(name string) bool {
	return fullNamePattern.MatchString(name)
}

func (r *SignUpRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	r.StudentID = strings.TrimSpace(r.StudentID)
}

func (r *SignUpRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if len(r.Password) < MinPasswordLength {
		errors["password"] = "Password must be at least 6 characters long"
	}
	if r.StudentID == "" {
		errors["student_id"] = "Student ID is required"
	} else if !ValidStudentID(r.StudentID) {
		errors["student_id"] = "Student ID must be 3-20 characters (letters and numbers only)"
	}
	if r.FullName == "" {
		errors["full_name"] = "Name is required"
	} else if !ValidFullName(r.FullName) {
		errors["full_name"] = "Name must be 2-50 characters (letters and spaces only)"
	}

	return errors
}

func (r *SignInRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

func (r *UpdatePasswordRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.CurrentPassword == "" {
		errors["current_password"] = "Current password is required"
	}
	if r.NewPassword == "" {
		errors["new_password"] = "New password is required"
	} else if len(r.NewPassword) < MinPasswordLength {
		errors["new_password"] = "Password must be at least 6 characters"
	}
	if r.ConfirmPassword == "" {
		errors["confirm_password"] = "Please confirm your password"
	} else if r.ConfirmPassword != r.NewPassword {
		errors["confirm_password"] = "Passwords must match"
	}

	return errors
}
