package mailer

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("mailer: recipient address is empty")

type Message struct {
	To      string
	Subject string
	HTML    string
}

type IEmailService interface {
	Send(ctx context.Context, msg Message) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send %q to %s: %v\n", msg.Subject, msg.To, err)
		return err
	}

	fmt.Printf("[MAILER] %q sent to %s\n", msg.Subject, msg.To)
	return nil
}

type consoleEmailService struct{}

// NewConsoleEmailService prints messages instead of sending them. Used when
// SMTP is not configured.
func NewConsoleEmailService() IEmailService {
	return consoleEmailService{}
}

func (consoleEmailService) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	fmt.Printf("[MAILER] (console) to=%s subject=%q\n", msg.To, msg.Subject)
	return nil
}
