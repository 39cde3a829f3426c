package services

import (
	"testing"
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/config"
	"github.com/whisperwall/whisperwall-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Message{}))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret",
		JWTExpiry: 24 * time.Hour,
	}
}

// fakeMailer records dispatches and can be told to fail.
type fakeMailer struct {
	sent []sentMail
	fail bool
}

type sentMail struct {
	to       string
	username string
	code     string
}

func (m *fakeMailer) SendVerification(to, username, code string) error {
	if m.fail {
		return errDelivery
	}
	m.sent = append(m.sent, sentMail{to: to, username: username, code: code})
	return nil
}

var errDelivery = &deliveryError{}

type deliveryError struct{}

func (e *deliveryError) Error() string { return "smtp unreachable" }
