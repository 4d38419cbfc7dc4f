// Package notifier delivers reset codes through the mail transports in pkg/mailer.
package notifier

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/config"
	"github.com/oksasatya/storyverse-api/internal/application"
	"github.com/oksasatya/storyverse-api/pkg/mailer"
	"github.com/oksasatya/storyverse-api/pkg/mailer/templates"
)

func resetCodeJob(cfg *config.Config, msg application.ResetCodeMessage, now time.Time, extra ...templates.Option) mailer.EmailJob {
	opts := append([]templates.Option{
		templates.WithExpiresAt(msg.ExpiresAt),
		templates.WithIP(msg.IP),
		templates.WithUserAgent(msg.UserAgent),
		templates.WithTime(now),
	}, extra...)
	return mailer.EmailJob{
		To:       msg.Email,
		Template: templates.ResetOTP,
		Data:     templates.NewResetOTPData(cfg, msg.Nickname, msg.Email, msg.Code, opts...),
	}
}

// QueueNotifier hands reset codes to the email worker over RabbitMQ.
type QueueNotifier struct {
	Publisher mailer.JobPublisher
	Cfg       *config.Config
}

func (n *QueueNotifier) NotifyResetCode(ctx context.Context, msg application.ResetCodeMessage) error {
	return n.Publisher.PublishJSON(ctx, resetCodeJob(n.Cfg, msg, time.Now()))
}

// DirectNotifier renders and sends in the request path. Used when no queue is configured.
type DirectNotifier struct {
	Sender mailer.Sender
	Cfg    *config.Config
	Geo    templates.GeoResolver
}

func (n *DirectNotifier) NotifyResetCode(ctx context.Context, msg application.ResetCodeMessage) error {
	job := resetCodeJob(n.Cfg, msg, time.Now(), templates.WithGeoFromIP(ctx, n.Geo, msg.IP))
	subject, text, html, err := job.Build()
	if err != nil {
		return err
	}
	return n.Sender.Send(ctx, job.To, subject, text, html)
}

// LogNotifier records that a code was issued without delivering it.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n *LogNotifier) NotifyResetCode(_ context.Context, msg application.ResetCodeMessage) error {
	if n.Logger != nil {
		n.Logger.WithFields(logrus.Fields{
			"to":         msg.Email,
			"expires_at": msg.ExpiresAt.UTC().Format(time.RFC3339),
		}).Info("mail sending disabled, reset code not delivered")
	}
	return nil
}

// NewResetCodeNotifier picks the delivery path: disabled sending logs, a queue
// publisher wins over direct Mailgun, and without either codes are only logged.
func NewResetCodeNotifier(cfg *config.Config, pub mailer.JobPublisher, sender mailer.Sender, logger *logrus.Logger) application.ResetCodeNotifier {
	switch {
	case !cfg.MailSendEnabled:
		return &LogNotifier{Logger: logger}
	case pub != nil:
		return &QueueNotifier{Publisher: pub, Cfg: cfg}
	case sender != nil:
		var geo templates.GeoResolver
		if cfg.GeoLookupEnabled {
			geo = templates.IPAPIResolver{}
		}
		return &DirectNotifier{Sender: sender, Cfg: cfg, Geo: geo}
	default:
		if logger != nil {
			logger.Warn("no mail transport configured, reset codes will only be logged")
		}
		return &LogNotifier{Logger: logger}
	}
}
