package mailer

import (
	"github.com/diagnosis/inkbook/pkg/config"
)

// Sender delivers one email and returns the provider message id when there is one.
type Sender interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
}

// New picks the transport: dev mode logs, a MailerSend key sends through the API, anything else goes to SMTP.
func New(cfg config.EmailConfig) Sender {
	switch {
	case cfg.DevMode:
		return NewDevMailer()
	case cfg.MailerSendKey != "":
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	default:
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}
