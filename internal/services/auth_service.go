package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/config"
	"github.com/whisperwall/whisperwall-backend/internal/dto"
	"github.com/whisperwall/whisperwall-backend/internal/mail"
	"github.com/whisperwall/whisperwall-backend/internal/models"
	"github.com/whisperwall/whisperwall-backend/internal/session"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("this email is already registered")
	ErrEmailDelivery      = errors.New("failed to send verification email")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCode        = errors.New("incorrect verification code")
	ErrCodeExpired        = errors.New("verification code has expired, please sign up again to get a new code")
	ErrNotVerified        = errors.New("account is not verified yet")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const verifyCodeTTL = time.Hour

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer mail.Mailer
}

func NewAuthService(db *gorm.DB, cfg *config.Config, mailer mail.Mailer) *AuthService {
	return &AuthService{db: db, cfg: cfg, mailer: mailer}
}

// Register creates (or refreshes) an unverified account and emails its
// verification code.
//
// Uniqueness only counts among verified users: a verified owner of the
// username or email blocks registration, while an unverified owner of the
// email gets overwritten in place so the same person can retry before
// verifying. A failed email dispatch fails the whole call even though the
// row persists; re-registration through the overwrite path is the recovery
// route.
func (s *AuthService) Register(req *dto.SignUpRequest) error {
	username := strings.ToLower(req.Username)
	email := strings.ToLower(req.Email)

	var verifiedOwner models.User
	err := s.db.Where("username = ? AND is_verified = ?", username, true).First(&verifiedOwner).Error
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	code, err := generateVerifyCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	expiry := time.Now().Add(verifyCodeTTL)

	var existing models.User
	err = s.db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil && existing.IsVerified:
		return ErrEmailTaken

	case err == nil:
		// Unverified registration for this email: overwrite it in place.
		updates := map[string]interface{}{
			"username":           username,
			"password":           string(hash),
			"verify_code":        code,
			"verify_code_expiry": expiry,
		}
		if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update registration: %w", err)
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		user := models.User{
			ID:                 uuid.New(),
			Username:           username,
			Email:              email,
			Password:           string(hash),
			VerifyCode:         code,
			VerifyCodeExpiry:   expiry,
			IsVerified:         false,
			IsAcceptingMessage: true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

	default:
		return fmt.Errorf("failed to look up email: %w", err)
	}

	if err := s.mailer.SendVerification(email, username, code); err != nil {
		return fmt.Errorf("%w: %s", ErrEmailDelivery, err)
	}
	return nil
}

// VerifyUser checks a verification code and marks the account verified.
// The code mismatch check runs before the expiry check, and re-verifying
// with a still-valid code succeeds idempotently.
func (s *AuthService) VerifyUser(username, code string) error {
	username = strings.ToLower(username)

	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if user.VerifyCode != code {
		return ErrInvalidCode
	}
	if time.Now().After(user.VerifyCodeExpiry) {
		return ErrCodeExpired
	}

	if err := s.db.Model(&user).Update("is_verified", true).Error; err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}
	return nil
}

// CheckUsernameUnique reports whether a username is still claimable, i.e.
// not owned by a verified user.
func (s *AuthService) CheckUsernameUnique(username string) (bool, error) {
	username = strings.ToLower(username)

	var count int64
	err := s.db.Model(&models.User{}).
		Where("username = ? AND is_verified = ?", username, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count == 0, nil
}

// Login authenticates by email and password and mints a session token.
// It performs no write: sessions are stateless.
func (s *AuthService) Login(req *dto.SignInRequest) (string, *dto.UserResponse, error) {
	email := strings.ToLower(req.Email)

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsVerified {
		return "", nil, ErrNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := session.Sign(&user, s.cfg.JWTSecret, s.cfg.JWTExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	resp := dto.NewUserResponse(&user)
	return token, &resp, nil
}

// generateVerifyCode uniformly samples a 6-digit numeric code.
func generateVerifyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
