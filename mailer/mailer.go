// Package mailer sends outbound notification emails. Delivery is
// best-effort everywhere in this codebase: callers log failures and
// never fail the triggering operation.
package mailer

import (
	"github.com/go-gomail/gomail"
	log "github.com/sirupsen/logrus"

	"github.com/docpoint/clinic-booking-api/config"
)

// Sender delivers a single message to one recipient.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	return d.DialAndSend(m)
}

// LogSender logs messages instead of sending them. Used when no SMTP
// relay is configured (dev, tests).
type LogSender struct{}

func (LogSender) Send(to, subject, body string) error {
	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("email delivery skipped (no SMTP configured)")
	return nil
}

// FromConfig picks the SMTP sender when a relay host is configured and
// the log-only sender otherwise.
func FromConfig(cfg config.Config) Sender {
	if cfg.SMTPHost == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
}
