package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, username string, accepting bool) *models.User {
	t.Helper()
	user := &models.User{
		ID:                 uuid.New(),
		Username:           username,
		Email:              username + "@x.com",
		Password:           "hash",
		IsVerified:         true,
		IsAcceptingMessage: accepting,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func messageCount(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Message{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

func TestSubmitAppendsMessage(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)
	user := seedUser(t, db, "alice", true)

	require.NoError(t, svc.Submit("Alice", "hello there"))

	messages, err := svc.List(user.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello there", messages[0].Content)
	assert.WithinDuration(t, time.Now(), messages[0].CreatedAt, 5*time.Second)
}

func TestSubmitUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)

	assert.ErrorIs(t, svc.Submit("nobody", "hello"), ErrUserNotFound)
}

func TestSubmitRejectedWhenNotAccepting(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)
	user := seedUser(t, db, "alice", false)

	assert.ErrorIs(t, svc.Submit("alice", "hello"), ErrNotAccepting)
	assert.EqualValues(t, 0, messageCount(t, db, user.ID))
}

func TestSetAccepting(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)
	user := seedUser(t, db, "alice", true)

	updated, err := svc.SetAccepting(user.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsAcceptingMessage)
	assert.Equal(t, user.ID, updated.ID)

	accepting, err := svc.AcceptingStatus(user.ID)
	require.NoError(t, err)
	assert.False(t, accepting)

	updated, err = svc.SetAccepting(user.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsAcceptingMessage)
}

func TestSetAcceptingUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)

	_, err := svc.SetAccepting(uuid.New(), true)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.AcceptingStatus(uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListSortsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)
	user := seedUser(t, db, "alice", true)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		msg := models.Message{
			ID:        uuid.New(),
			UserID:    user.ID,
			Content:   fmt.Sprintf("msg-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&msg).Error)
	}

	messages, err := svc.List(user.ID)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.After(messages[i-1].CreatedAt),
			"createdAt must be non-increasing")
	}
	assert.Equal(t, "msg-4", messages[0].Content)
}

func TestListDeterministicOnTimestampTies(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)
	user := seedUser(t, db, "alice", true)

	shared := time.Now().Truncate(time.Second)
	for i := 0; i < 10; i++ {
		msg := models.Message{
			ID:        uuid.New(),
			UserID:    user.ID,
			Content:   fmt.Sprintf("tie-%d", i),
			CreatedAt: shared,
		}
		require.NoError(t, db.Create(&msg).Error)
	}

	first, err := svc.List(user.ID)
	require.NoError(t, err)

	for round := 0; round < 3; round++ {
		again, err := svc.List(user.ID)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for i := range first {
			assert.Equal(t, first[i].ID, again[i].ID, "ordering must be stable across calls")
		}
	}
}

func TestListUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)

	_, err := svc.List(uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteMessage(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)
	user := seedUser(t, db, "alice", true)

	require.NoError(t, svc.Submit("alice", "to be deleted"))
	messages, err := svc.List(user.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	require.NoError(t, svc.Delete(user.ID, messages[0].ID))
	assert.EqualValues(t, 0, messageCount(t, db, user.ID))

	// Deleting again reports not-found and changes nothing.
	assert.ErrorIs(t, svc.Delete(user.ID, messages[0].ID), ErrMessageNotFound)
	assert.ErrorIs(t, svc.Delete(user.ID, uuid.New()), ErrMessageNotFound)
}

func TestDeleteDoesNotCrossOwners(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)
	alice := seedUser(t, db, "alice", true)
	bob := seedUser(t, db, "bob", true)

	require.NoError(t, svc.Submit("bob", "bob's message"))
	bobMessages, err := svc.List(bob.ID)
	require.NoError(t, err)
	require.Len(t, bobMessages, 1)

	// Alice supplying Bob's message id gets the same not-found as a missing
	// id, and Bob's message survives.
	assert.ErrorIs(t, svc.Delete(alice.ID, bobMessages[0].ID), ErrMessageNotFound)
	assert.EqualValues(t, 1, messageCount(t, db, bob.ID))
}

func TestRegistrationToMessagingFlow(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	authSvc := NewAuthService(db, cfg, &fakeMailer{})
	msgSvc := NewMessageService(db)

	require.NoError(t, authSvc.Register(signUp("alice", "a@x.com", "secret1")))

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)

	wrong := "000000"
	if user.VerifyCode == wrong {
		wrong = "000001"
	}
	assert.ErrorIs(t, authSvc.VerifyUser("alice", wrong), ErrInvalidCode)
	require.NoError(t, authSvc.VerifyUser("alice", user.VerifyCode))

	require.NoError(t, msgSvc.Submit("alice", "hi"))
	assert.EqualValues(t, 1, messageCount(t, db, user.ID))

	updated, err := msgSvc.SetAccepting(user.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsAcceptingMessage)

	assert.ErrorIs(t, msgSvc.Submit("alice", "hi2"), ErrNotAccepting)
	assert.EqualValues(t, 1, messageCount(t, db, user.ID))
}
