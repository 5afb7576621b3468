// internal/mailer/mailer.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer delivers a plain-text message to a single recipient. Delivery is
// best-effort and at-most-once; callers decide whether a failure matters.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTP creates a Mailer backed by an SMTP server.
func NewSMTP(host string, port int, username, password, from string) Mailer {
	return &smtpMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
