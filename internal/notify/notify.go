// Package notify delivers alerts over email, Slack incoming webhooks and
// generic webhooks. Channels run independently; a failing channel never
// blocks or cancels the others.
package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"observo/internal/apperrors"
	"observo/internal/logger"
	"observo/internal/metrics"
	"observo/internal/models"

	"golang.org/x/sync/errgroup"
)

// Alert kinds, used as the webhook "type" field.
const (
	KindLogError    = "logError"
	KindSystemCheck = "systemCheck"
)

// Alert is a rendered notification ready for every channel.
type Alert struct {
	Kind     string
	Subject  string
	Text     string
	HTML     string
	Record   *models.LogRecord
	Endpoint *models.Endpoint
}

type Options struct {
	From       string
	Email      EmailSender
	HTTPClient *http.Client
	Retry      RetryConfig
	Log        *logger.Logger
	Metrics    *metrics.Metrics
}

type Dispatcher struct {
	from    string
	email   EmailSender
	client  *http.Client
	retry   RetryConfig
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(opts Options) *Dispatcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	retry := opts.Retry
	if retry == (RetryConfig{}) {
		retry = DefaultRetryConfig()
	}
	return &Dispatcher{
		from:    opts.From,
		email:   opts.Email,
		client:  client,
		retry:   retry,
		log:     log,
		metrics: opts.Metrics,
	}
}

type channelJob struct {
	channel     string
	destination string
	send        func(ctx context.Context) error
}

// Dispatch sends the alert to every enabled channel concurrently and
// returns one result per attempted channel. Failures are logged and
// reported in the results, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, settings models.AlertSettings, alert Alert) []models.DispatchResult {
	jobs := d.jobs(settings.Notifications, alert)
	if len(jobs) == 0 {
		return nil
	}

	results := make([]models.DispatchResult, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			err := WithRetry(ctx, d.retry, func() error { return job.send(ctx) })
			if err != nil {
				err = &apperrors.NotificationDispatchError{
					Channel:     job.channel,
					Destination: job.destination,
					Cause:       err,
				}
				d.log.Errorw("alert_dispatch_failed",
					"channel", job.channel,
					"destination", job.destination,
					"kind", alert.Kind,
					"error", err,
				)
			} else {
				d.log.Infow("alert_dispatched",
					"channel", job.channel,
					"destination", job.destination,
					"kind", alert.Kind,
				)
			}
			d.metrics.AlertDispatched(job.channel, err)
			results[i] = models.DispatchResult{
				AlertDispatch: models.AlertDispatch{
					Channel:     job.channel,
					Destination: job.destination,
					Subject:     alert.Subject,
					Body:        alert.Text,
				},
				Err: err,
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) jobs(n models.NotificationSettings, alert Alert) []channelJob {
	var jobs []channelJob

	if n.Email && len(n.Emails) > 0 {
		recipients := append([]string(nil), n.Emails...)
		jobs = append(jobs, channelJob{
			channel:     models.ChannelEmail,
			destination: strings.Join(recipients, ","),
			send: func(ctx context.Context) error {
				return d.sendEmail(ctx, recipients, alert)
			},
		})
	}
	if n.Slack && n.SlackWebhookURL != "" {
		url := n.SlackWebhookURL
		jobs = append(jobs, channelJob{
			channel:     models.ChannelSlack,
			destination: maskURL(url),
			send: func(ctx context.Context) error {
				return d.postJSON(ctx, url, slackPayload{Text: alert.Text})
			},
		})
	}
	if n.Webhook && n.WebhookURL != "" {
		url := n.WebhookURL
		jobs = append(jobs, channelJob{
			channel:     models.ChannelWebhook,
			destination: maskURL(url),
			send: func(ctx context.Context) error {
				return d.postJSON(ctx, url, buildWebhookPayload(alert))
			},
		})
	}
	return jobs
}

func (d *Dispatcher) sendEmail(ctx context.Context, to []string, alert Alert) error {
	if d.email == nil {
		return errNoEmailSender
	}
	return d.email.Send(ctx, EmailRequest{
		From:    d.from,
		To:      to,
		Subject: alert.Subject,
		Text:    alert.Text,
		HTML:    alert.HTML,
	})
}
