package email

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/admissions-api/internal/config"
)

// NewSender builds the configured provider.
func NewSender(cfg config.EmailConfig, logger zerolog.Logger) (BatchSender, error) {
	switch cfg.Provider {
	case "resend":
		return NewResendSender(cfg.APIKey, cfg.From), nil
	case "sendgrid":
		return NewSendGridSender(cfg.APIKey, cfg.From)
	case "smtp":
		return NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.From), nil
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
