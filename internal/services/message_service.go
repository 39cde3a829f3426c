package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/dto"
	"github.com/whisperwall/whisperwall-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotAccepting    = errors.New("user is not accepting messages")
	ErrMessageNotFound = errors.New("message not found or already deleted")
)

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// SetAccepting flips the owner's accept-messages toggle and returns the
// updated user. The caller's identity check happens at the handler; a stale
// id (account deleted underneath a live session) reports ErrUserNotFound.
func (s *MessageService) SetAccepting(userID uuid.UUID, accepting bool) (*dto.UserResponse, error) {
	result := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_accepting_message", accepting)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update accept-messages flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	resp := dto.NewUserResponse(&user)
	return &resp, nil
}

// AcceptingStatus reads the current accept-messages flag.
func (s *MessageService) AcceptingStatus(userID uuid.UUID) (bool, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return user.IsAcceptingMessage, nil
}

// Submit appends an anonymous message to a user's inbox. The flag check and
// the append are separate statements; a toggle racing in between is
// acceptable because the append is independent of any prior message state.
func (s *MessageService) Submit(username, content string) error {
	username = strings.ToLower(username)

	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsAcceptingMessage {
		return ErrNotAccepting
	}

	message := models.Message{
		ID:        uuid.New(),
		UserID:    user.ID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&message).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// List returns the owner's messages newest first. The id is the secondary
// sort key so ordering stays deterministic when timestamps collide.
func (s *MessageService) List(userID uuid.UUID) ([]models.Message, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	var messages []models.Message
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// Delete removes one of the owner's messages. The query is scoped by owner,
// so a foreign message id reports not-found rather than leaking that the
// message exists. Deleting twice is safe: the second call reports not-found
// and changes nothing.
func (s *MessageService) Delete(userID, messageID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", messageID, userID).
		Delete(&models.Message{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
