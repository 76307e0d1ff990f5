package service

import (
	mail "github.com/go-mail/mail/v2"
)

// Mailer sends transactional mail over SMTP with mandatory STARTTLS.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	d := mail.NewDialer(host, port, username, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return &Mailer{dialer: d, from: from}
}

// SendPasswordReset emails the reset link. The link embeds a reset token
// valid for one hour.
func (m *Mailer) SendPasswordReset(to, link string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your password")
	msg.SetBody("text/html", `<p>Click <a href="`+link+`">here</a> to reset your password. This link will only be open for one hour.</p>`)
	return m.dialer.DialAndSend(msg)
}
