package mailer

import (
	"fmt"

	"github.com/wneessen/go-mail"
)

// Sender is the notification sink for one-time codes. Delivery failures are
// reported to the caller but never abort the write that triggered the send.
type Sender interface {
	SendRegistrationOTP(to string, code string) error
	SendPasswordResetOTP(to string, code string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg    Config
	client *mail.Client
}

func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	return &SMTPSender{cfg: cfg, client: client}, nil
}

func (s *SMTPSender) SendRegistrationOTP(to string, code string) error {
	body := fmt.Sprintf("Your Quizify verification code is: %s\nIt expires in a few minutes.", code)
	return s.send(to, "Verify your Quizify account", body)
}

func (s *SMTPSender) SendPasswordResetOTP(to string, code string) error {
	body := fmt.Sprintf("A password reset was requested for %s.\nYour reset code is: %s\nIt expires in a few minutes.", to, code)
	return s.send(to, "Reset Password Code", body)
}

func (s *SMTPSender) send(to string, subject string, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return s.client.DialAndSend(msg)
}
