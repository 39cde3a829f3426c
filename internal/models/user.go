package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that receives anonymous messages at its profile link.
//
// Username and email uniqueness is only enforced among verified users, so
// neither column carries a DB unique index: an unverified registration may
// legally collide with (and later be overwritten by) another attempt. The
// service layer owns that check.
type User struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username           string    `gorm:"size:30;not null;index" json:"username"`
	Email              string    `gorm:"size:255;not null;index" json:"email"`
	Password           string    `gorm:"not null" json:"-"`
	VerifyCode         string    `gorm:"size:6" json:"-"`
	VerifyCodeExpiry   time.Time `json:"-"`
	IsVerified         bool      `gorm:"default:false" json:"is_verified"`
	IsAcceptingMessage bool      `gorm:"default:true" json:"is_accepting_message"`
	Messages           []Message `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Message is a single anonymous message. It has no life outside its owner:
// deleting the owner cascades, and every query is scoped by UserID.
type Message struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"-"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
