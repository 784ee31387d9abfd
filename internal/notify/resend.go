package notify

import (
	"context"
	"fmt"

	"observo/internal/logger"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	log    *logger.Logger
}

func NewResendSender(apiKey string, log *logger.Logger) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), log: log}
}

func (p *ResendSender) Name() string { return "resend" }

func (p *ResendSender) Send(ctx context.Context, req EmailRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
		Text:    req.Text,
		Html:    req.HTML,
	}
	result, err := p.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	p.log.Debugw("email_sent", "provider", p.Name(), "email_id", result.Id, "to", req.To)
	return nil
}
