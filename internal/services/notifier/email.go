package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/NordCoder/checkin/internal/domain/reminder"
)

// RecipientLookup resolves a user id to an email address.
type RecipientLookup interface {
	EmailByID(ctx context.Context, userID string) (string, error)
}

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	UseTLS     bool
	SubjPrefix string
	Domain     string
}

var _ reminder.Provider = (*Email)(nil)

type Email struct {
	sender     MailSender
	recipients RecipientLookup
	from       string
	subjPrefix string
	domain     string
	log        *zap.Logger
}

func NewDialer(cfg EmailConfig) *gomail.Dialer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.UseTLS
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return d
}

func NewEmail(cfg EmailConfig, sender MailSender, recipients RecipientLookup, log *zap.Logger) *Email {
	if log == nil {
		log = zap.L()
	}
	domain := cfg.Domain
	if domain == "" {
		domain = "localhost"
	}
	return &Email{
		sender:     sender,
		recipients: recipients,
		from:       cfg.From,
		subjPrefix: cfg.SubjPrefix,
		domain:     domain,
		log:        log.With(zap.String("component", "notifier.email")),
	}
}

func (e *Email) Name() string { return ProviderEmail }

func (e *Email) Send(ctx context.Context, in reminder.SendInput) (reminder.SendResult, error) {
	to, err := e.recipients.EmailByID(ctx, in.UserID)
	if err != nil {
		return reminder.SendResult{}, fmt.Errorf("resolve recipient: %w", err)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), e.domain)
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", strings.TrimSpace(e.subjPrefix+" Time for your check-in"))
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/plain", reminderBody(in))

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- e.sender.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return reminder.SendResult{}, fmt.Errorf("send email: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return reminder.SendResult{}, fmt.Errorf("send email: %w", err)
		}
	}
	e.log.Debug("email sent",
		zap.String("user_id", in.UserID),
		zap.String("message_id", messageID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reminder.SendResult{Provider: ProviderEmail, Delivered: true, MessageID: messageID}, nil
}

func reminderBody(in reminder.SendInput) string {
	return fmt.Sprintf(
		"It is %02d:00 in %s on %s.\r\nTake a minute for today's check-in.\r\n",
		in.ReminderHourLocal, in.Timezone, in.LocalDate,
	)
}
