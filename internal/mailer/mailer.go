package mailer

import (
	"fmt"

	"github.com/movapay/movapay/config"
	"github.com/movapay/movapay/internal/models"
	"gopkg.in/gomail.v2"
)

// Notifier delivers a completed translation to its owner. Failures are
// logged by callers and never roll back pipeline state.
type Notifier interface {
	SendTranslationResult(user *models.User, translation *models.Translation) error
}

type SMTPNotifier struct {
	cfg config.SMTPConfig
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) SendTranslationResult(user *models.User, translation *models.Translation) error {
	if user.Email == "" {
		return fmt.Errorf("user %s has no email address", user.ID)
	}

	body := fmt.Sprintf(
		"Source: %s\nTranslated (%s): %s",
		translation.SourceText,
		translation.TargetLang,
		translation.TranslatedText,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", "Your translation is ready")
	m.SetBody("text/plain", body)

	dialer := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.Username, n.cfg.Password)
	return dialer.DialAndSend(m)
}
