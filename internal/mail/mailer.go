package mail

import (
	"fmt"
	"net/smtp"
)

// Mailer sends transactional email. Implementations receive the plaintext
// token link; they never see the stored hash.
type Mailer interface {
	SendVerificationEmail(to, name, verifyURL string) error
	SendPasswordResetEmail(to, name, resetURL string) error
}

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer sends HTML email over plain-auth SMTP.
type SMTPMailer struct {
	cfg Config
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendVerificationEmail(to, name, verifyURL string) error {
	return m.send(to, "Email Verification", verificationEmailBody(name, verifyURL))
}

func (m *SMTPMailer) SendPasswordResetEmail(to, name, resetURL string) error {
	return m.send(to, "Password Reset Request", resetPasswordEmailBody(name, resetURL))
}

func (m *SMTPMailer) send(to, subject, body string) error {
	if m.cfg.Host == "" || m.cfg.Port == "" || m.cfg.Username == "" || m.cfg.Password == "" {
		return fmt.Errorf("smtp is not configured")
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	msg := "From: " + m.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n\r\n" +
		body + "\r\n"

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

var _ Mailer = (*SMTPMailer)(nil)
