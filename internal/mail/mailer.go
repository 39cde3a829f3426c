package mail

import (
	"fmt"

	"github.com/whisperwall/whisperwall-backend/internal/config"

	gomail "gopkg.in/gomail.v2"
)

// Mailer is the external send-mail collaborator. Delivery is opaque to the
// rest of the app: callers only see success or failure.
type Mailer interface {
	SendVerification(to, username, code string) error
}

// SMTPMailer delivers verification emails over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.MailFrom,
	}
}

func (m *SMTPMailer) SendVerification(to, username, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your email address")
	msg.SetBody("text/html", verificationBody(username, code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func verificationBody(username, code string) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif">
  <h2>Hello %s,</h2>
  <p>Thanks for registering. Use the following code to verify your account:</p>
  <p style="font-size: 24px; font-weight: bold; letter-spacing: 4px">%s</p>
  <p>The code expires in one hour. If you did not request this, you can ignore this email.</p>
</div>`, username, code)
}
