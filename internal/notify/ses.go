package notify

import (
	"context"
	"fmt"

	"observo/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the subset of the SES v2 client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers mail through AWS SES v2.
type SESSender struct {
	client sesAPI
	log    *logger.Logger
}

// NewSESSender loads the default AWS credential chain for region.
func NewSESSender(ctx context.Context, region string, log *logger.Logger) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESSender{client: sesv2.NewFromConfig(cfg), log: log}, nil
}

func (p *SESSender) Name() string { return "ses" }

func (p *SESSender) Send(ctx context.Context, req EmailRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	body := &types.Body{Text: &types.Content{Data: aws.String(req.Text)}}
	if req.HTML != "" {
		body.Html = &types.Content{Data: aws.String(req.HTML)}
	}

	out, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(req.From),
		Destination:      &types.Destination{ToAddresses: req.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(req.Subject)},
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	p.log.Debugw("email_sent", "provider", p.Name(), "message_id", aws.ToString(out.MessageId), "to", req.To)
	return nil
}
