// Package notify delivers confirmation messages to callers after a staged
// action executes. Delivery is best effort: a failed notification is logged
// and counted but never fails the action that triggered it.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/config"
)

// Notifier sends one message to one recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPNotifier sends mail over implicit TLS, the way Gmail's port 465
// expects it.
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTP creates a notifier from the SMTP config.
func NewSMTP(cfg config.SMTPConfig, logger *zap.Logger) *SMTPNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPNotifier{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "smtp_notifier")),
	}
}

// Send delivers one plain-text message.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    &tls.Config{ServerName: n.cfg.Host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake with %s: %w", addr, err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth as %s: %w", n.cfg.User, err)
	}

	from := n.cfg.From
	if from == "" {
		from = n.cfg.User
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	msg := buildMessage(from, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	n.logger.Info("notification sent", zap.String("to", to), zap.String("subject", subject))
	return client.Quit()
}

func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}

// LogNotifier writes notifications to the log instead of sending them.
// Used when no SMTP credentials are configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLog creates a log-only notifier.
func NewLog(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.With(zap.String("component", "log_notifier"))}
}

// Send logs the message.
func (n *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	n.logger.Info("notification (not sent, no SMTP configured)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}

// Recorder captures sent messages for assertions in tests.
type Recorder struct {
	mu   sync.Mutex
	Sent []RecordedMessage
	Err  error
}

// RecordedMessage is one captured notification.
type RecordedMessage struct {
	To      string
	Subject string
	Body    string
}

// Send records the message, returning the configured error, if any.
func (r *Recorder) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, RecordedMessage{To: to, Subject: subject, Body: body})
	return nil
}

// Last returns the most recently recorded message.
func (r *Recorder) Last() (RecordedMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		return RecordedMessage{}, false
	}
	return r.Sent[len(r.Sent)-1], true
}
