package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPSender relays a batch over a single SMTP session.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) SendBatch(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out := make([]*gomail.Message, 0, len(msgs))
	for _, m := range msgs {
		from := m.From
		if from == "" {
			from = s.from
		}
		gm := gomail.NewMessage()
		gm.SetHeader("From", from)
		gm.SetHeader("To", m.To...)
		gm.SetHeader("Subject", m.Subject)
		gm.SetBody("text/html", m.HTML)
		out = append(out, gm)
	}

	if err := s.dialer.DialAndSend(out...); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
