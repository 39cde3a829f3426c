package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/dto"
	"github.com/whisperwall/whisperwall-backend/internal/models"
	"github.com/whisperwall/whisperwall-backend/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func signUp(username, email, password string) *dto.SignUpRequest {
	return &dto.SignUpRequest{Username: username, Email: email, Password: password}
}

func TestRegisterCreatesUnverifiedUser(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := NewAuthService(db, newTestConfig(), mailer)

	require.NoError(t, svc.Register(signUp("Alice", "a@x.com", "secret1")))

	var user models.User
	require.NoError(t, db.Where("email = ?", "a@x.com").First(&user).Error)

	assert.Equal(t, "alice", user.Username, "username is stored lowercased")
	assert.False(t, user.IsVerified)
	assert.True(t, user.IsAcceptingMessage)
	assert.NotEqual(t, "secret1", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret1")))
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), user.VerifyCode)
	assert.True(t, user.VerifyCodeExpiry.After(time.Now().Add(50*time.Minute)))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "a@x.com", mailer.sent[0].to)
	assert.Equal(t, user.VerifyCode, mailer.sent[0].code)
}

func TestRegisterUsernameTakenByVerifiedUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestConfig(), &fakeMailer{})

	require.NoError(t, svc.Register(signUp("alice", "a@x.com", "secret1")))
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "alice").Update("is_verified", true).Error)

	err := svc.Register(signUp("alice", "other@x.com", "secret2"))
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterUnverifiedUsernameCollisionAllowed(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestConfig(), &fakeMailer{})

	require.NoError(t, svc.Register(signUp("alice", "a@x.com", "secret1")))
	require.NoError(t, svc.Register(signUp("alice", "b@x.com", "secret2")))

	var count int64
	db.Model(&models.User{}).Where("username = ?", "alice").Count(&count)
	assert.EqualValues(t, 2, count, "unverified username collisions may coexist")
}

func TestRegisterOverwritesUnverifiedEmailOwner(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := NewAuthService(db, newTestConfig(), mailer)

	require.NoError(t, svc.Register(signUp("alice", "a@x.com", "secret1")))

	var before models.User
	require.NoError(t, db.Where("email = ?", "a@x.com").First(&before).Error)

	require.NoError(t, svc.Register(signUp("alice2", "a@x.com", "secret2")))

	var count int64
	db.Model(&models.User{}).Where("email = ?", "a@x.com").Count(&count)
	assert.EqualValues(t, 1, count, "re-registration overwrites rather than duplicates")

	var after models.User
	require.NoError(t, db.Where("email = ?", "a@x.com").First(&after).Error)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "alice2", after.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(after.Password), []byte("secret2")))
	assert.False(t, after.IsVerified)
	require.Len(t, mailer.sent, 2)
}

func TestRegisterEmailTakenByVerifiedUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestConfig(), &fakeMailer{})

	require.NoError(t, svc.Register(signUp("alice", "a@x.com", "secret1")))
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "a@x.com").Update("is_verified", true).Error)

	err := svc.Register(signUp("bob", "a@x.com", "secret2"))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterFailsWhenEmailDeliveryFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestConfig(), &fakeMailer{fail: true})

	err := svc.Register(signUp("alice", "a@x.com", "secret1"))
	assert.ErrorIs(t, err, ErrEmailDelivery)

	// The row persists; the unverified-overwrite path is the recovery route.
	var count int64
	db.Model(&models.User{}).Where("email = ?", "a@x.com").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestVerifyUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestConfig(), &fakeMailer{})

	require.NoError(t, svc.Register(signUp("alice", "a@x.com", "secret1")))

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	wrong := "000000"
	if user.VerifyCode == wrong {
		wrong = "000001"
	}

	assert.ErrorIs(t, svc.VerifyUser("missing", user.VerifyCode), ErrUserNotFound)
	assert.ErrorIs(t, svc.VerifyUser("alice", wrong), ErrInvalidCode)

	require.NoError(t, svc.VerifyUser("alice", user.VerifyCode))

	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	assert.True(t, user.IsVerified)

	// Re-verifying with the same still-valid code succeeds idempotently.
	require.NoError(t, svc.VerifyUser("Alice", user.VerifyCode))
}

func TestVerifyUserExpiredCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestConfig(), &fakeMailer{})

	require.NoError(t, svc.Register(signUp("alice", "a@x.com", "secret1")))

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	require.NoError(t, db.Model(&user).Update("verify_code_expiry", time.Now().Add(-time.Minute)).Error)

	// Mismatch is reported before expiry.
	wrong := "000000"
	if user.VerifyCode == wrong {
		wrong = "000001"
	}
	assert.ErrorIs(t, svc.VerifyUser("alice", wrong), ErrInvalidCode)

	// The correct code is still rejected once expired.
	assert.ErrorIs(t, svc.VerifyUser("alice", user.VerifyCode), ErrCodeExpired)

	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	assert.False(t, user.IsVerified)
}

func TestCheckUsernameUnique(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestConfig(), &fakeMailer{})

	available, err := svc.CheckUsernameUnique("alice")
	require.NoError(t, err)
	assert.True(t, available)

	require.NoError(t, svc.Register(signUp("alice", "a@x.com", "secret1")))

	// Unverified owners do not claim the name.
	available, err = svc.CheckUsernameUnique("alice")
	require.NoError(t, err)
	assert.True(t, available)

	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "alice").Update("is_verified", true).Error)

	available, err = svc.CheckUsernameUnique("Alice")
	require.NoError(t, err)
	assert.False(t, available)
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewAuthService(db, cfg, &fakeMailer{})

	require.NoError(t, svc.Register(signUp("alice", "a@x.com", "secret1")))

	_, _, err := svc.Login(&dto.SignInRequest{Email: "missing@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = svc.Login(&dto.SignInRequest{Email: "a@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrNotVerified)

	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "a@x.com").Update("is_verified", true).Error)

	_, _, err = svc.Login(&dto.SignInRequest{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, user, err := svc.Login(&dto.SignInRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.IsVerified)

	identity, err := session.Verify(token, cfg.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "a@x.com", identity.Email)
	assert.True(t, identity.IsVerified)
	assert.True(t, identity.IsAcceptingMessage)
}
