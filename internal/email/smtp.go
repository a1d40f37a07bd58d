package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

type smtpService struct {
	dialer *gomail.Dialer
	cfg    SMTPConfig
}

// NewSMTPService returns an email service backed by an SMTP relay
func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cfg:    cfg,
	}
}

func (s *smtpService) SendVerification(_ context.Context, to string, token string) error {
	link := fmt.Sprintf("%s/verify-email/%s", s.cfg.FrontendURL, token)
	body := fmt.Sprintf("Click the link to verify your email: %s", link)
	return s.send(to, "Email Verification", body)
}

func (s *smtpService) SendPasswordReset(_ context.Context, to string, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", s.cfg.FrontendURL, token)
	body := fmt.Sprintf("Click the link to reset your password: %s", link)
	return s.send(to, "Password Reset Request", body)
}

func (s *smtpService) SendCustom(_ context.Context, to string, subject string, content string) error {
	return s.send(to, subject, content)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
