package dto

import (
	"errors"
	"regexp"
	"strings"

	"github.com/whisperwall/whisperwall-backend/internal/models"

	"github.com/google/uuid"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername checks the shared username rules. The value is matched
// before lowercasing; storage always lowercases.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters long")
	}
	if len(username) > 30 {
		return errors.New("username must be at most 30 characters long")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username can only contain letters, numbers, and underscores")
	}
	return nil
}

type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *SignUpRequest) Validate() error {
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if !emailRe.MatchString(r.Email) {
		return errors.New("please enter a valid email address")
	}
	if len(r.Password) < 6 {
		return errors.New("password must be at least 6 characters long")
	}
	return nil
}

type VerifyRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

func (r *VerifyRequest) Validate() error {
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.Code)) != 6 {
		return errors.New("verification code must be 6 digits")
	}
	return nil
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *SignInRequest) Validate() error {
	if !emailRe.MatchString(r.Email) {
		return errors.New("please enter a valid email address")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// UserResponse is the redacted user shape sent to clients. It never carries
// the password hash or the verification code.
type UserResponse struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	IsVerified         bool      `json:"is_verified"`
	IsAcceptingMessage bool      `json:"is_accepting_message"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		IsVerified:         u.IsVerified,
		IsAcceptingMessage: u.IsAcceptingMessage,
	}
}

type SignInResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// APIResponse is the common success/message envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
