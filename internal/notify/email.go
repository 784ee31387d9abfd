package notify

import (
	"context"
	"fmt"

	"observo/internal/config"
	"observo/internal/logger"
)

// EmailRequest is one message addressed to all recipients.
type EmailRequest struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	Name() string
	Send(ctx context.Context, req EmailRequest) error
}

// NewEmailSender builds the transport selected by notify.email.provider.
func NewEmailSender(ctx context.Context, cfg config.NotifyConfig, log *logger.Logger) (EmailSender, error) {
	switch cfg.Email.Provider {
	case "", "smtp":
		return NewSMTPSender(cfg.SMTP), nil
	case "resend":
		if cfg.Resend.APIKey == "" {
			return nil, fmt.Errorf("notify.resend.api_key is required for the resend provider")
		}
		return NewResendSender(cfg.Resend.APIKey, log), nil
	case "ses":
		ses, err := NewSESSender(ctx, cfg.SES.Region, log)
		if err != nil {
			return nil, err
		}
		return ses, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}

func validateRequest(req EmailRequest) error {
	if len(req.To) == 0 {
		return fmt.Errorf("invalid email request: no recipients")
	}
	if req.From == "" {
		return fmt.Errorf("invalid email request: empty sender")
	}
	return nil
}
