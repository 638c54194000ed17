package notify

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "enrollpay/errors"

	// External Packages
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends the confirmation straight through an SMTP server.
type SMTPNotifier struct {
	From    string
	Subject string
	dialer  sender
	Logger  *zap.Logger
}

func NewSMTPNotifier(host string, port int, user, pass, from, subject string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		From:    from,
		Subject: subject,
		dialer:  gomail.NewDialer(host, port, user, pass),
		Logger:  logger,
	}
}

func (n *SMTPNotifier) Notify(_ context.Context, recipientEmail string, data TemplateData) error {
	body, err := Render(data)
	if err != nil {
		return errors.DeliveryErr(recipientEmail, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.From)
	m.SetAddressHeader("To", recipientEmail, data.ParentName)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return errors.DeliveryErr(recipientEmail, err)
	}

	n.Logger.Info("confirmation email sent", zap.String("reference", data.Reference), zap.String("recipient", recipientEmail))
	return nil
}
