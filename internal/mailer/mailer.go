package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/config"
)

// Message is an outbound plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP sender, or a logging sender when no host is set.
func New(cfg config.MailConfig, logger *zap.Logger) Sender {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST not set; outbound mail will only be logged")
		return &LogSender{logger: logger, from: cfg.From}
	}
	return &SMTPSender{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// SMTPSender sends through a relay with optional PLAIN auth.
type SMTPSender struct {
	cfg    config.MailConfig
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Send delivers msg. The context only bounds the wait; net/smtp has no
// cancellation hook.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, s.cfg.From, msg.To, render(s.cfg.From, msg, time.Now()))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		s.logger.Debug("mail sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender writes mail to the log instead of delivering it.
type LogSender struct {
	logger *zap.Logger
	from   string
}

// NewLogSender builds a LogSender.
func NewLogSender(logger *zap.Logger, from string) *LogSender {
	return &LogSender{logger: logger, from: from}
}

func (l *LogSender) Send(_ context.Context, msg Message) error {
	l.logger.Info("outbound mail",
		zap.String("from", l.from),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return nil
}

func render(from string, msg Message, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
