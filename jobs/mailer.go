package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"
)

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	Addr   string
	From   string
	Logger *slog.Logger
}

// Send delivers one message. An empty relay address turns delivery into
// a logged no-op so development environments work without SMTP.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	if m.Addr == "" {
		if m.Logger != nil {
			m.Logger.Info("mail delivery skipped", slog.String("to", to), slog.String("subject", subject))
		}
		return nil
	}
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// SendEmailJob processes queued email tasks.
type SendEmailJob struct {
	Mailer Mailer
	Logger *slog.Logger
}

// Handle executes one send-email task.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.Mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		j.Logger.Error("send email", slog.Any("error", err), slog.String("to", payload.To))
		return err
	}
	return nil
}
