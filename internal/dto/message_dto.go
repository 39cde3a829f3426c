package dto

import (
	"errors"
	"strings"

	"github.com/whisperwall/whisperwall-backend/internal/models"
)

type AcceptMessagesRequest struct {
	AcceptMessages bool `json:"acceptMessages"`
}

type SendMessageRequest struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

func (r *SendMessageRequest) Validate() error {
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if strings.TrimSpace(r.Content) == "" {
		return errors.New("message content is required")
	}
	if len(r.Content) > 2000 {
		return errors.New("message content too long (max 2000 characters)")
	}
	return nil
}

type AcceptStatusResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	IsAcceptingMessage bool   `json:"isAcceptingMessage"`
}

type AcceptUpdateResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	UpdatedUser UserResponse `json:"updatedUser"`
}

type MessagesResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Messages []models.Message `json:"messages"`
}

type SuggestRequest struct {
	Prompt string `json:"prompt"`
}
