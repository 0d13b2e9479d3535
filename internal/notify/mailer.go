package notify

import (
	"context"
	"log/slog"
	"sync"

	"gopkg.in/gomail.v2"
)

// Message is a rendered e-mail ready for delivery.
type Message struct {
	To       string
	Cc       []string
	Subject  string
	HTMLBody string
}

// Mailer delivers messages. Delivery is synchronous.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	if len(msg.Cc) > 0 {
		gm.SetHeader("Cc", msg.Cc...)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)
	return m.dialer.DialAndSend(gm)
}

// LogMailer only logs messages. Used when no SMTP relay is configured.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("email not sent, no smtp relay configured",
		"to", msg.To, "cc", msg.Cc, "subject", msg.Subject)
	return nil
}

// RecordingMailer keeps every message in memory. Err, when set, is returned
// from Send instead of recording.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

func (m *RecordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *RecordingMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
