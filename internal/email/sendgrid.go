package email

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender maps a batch onto v3 mail sends. Messages sharing the same
// HTML go out as one request with a personalization per message.
type SendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridSender(apiKey, from string) (*SendGridSender, error) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(addr.Name, addr.Address),
	}, nil
}

func (s *SendGridSender) SendBatch(ctx context.Context, msgs []Message) error {
	for _, group := range groupByHTML(msgs) {
		m := sgmail.NewV3Mail()
		m.SetFrom(s.from)
		for _, msg := range group {
			p := sgmail.NewPersonalization()
			p.Subject = msg.Subject
			for _, to := range msg.To {
				p.AddTos(sgmail.NewEmail("", to))
			}
			m.AddPersonalizations(p)
		}
		m.AddContent(sgmail.NewContent("text/html", group[0].HTML))

		res, err := s.client.SendWithContext(ctx, m)
		if err != nil {
			return fmt.Errorf("sendgrid send failed: %w", err)
		}
		if res.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("sendgrid send failed: status %d: %s", res.StatusCode, res.Body)
		}
	}
	return nil
}

// groupByHTML keeps first-seen order of both groups and members.
func groupByHTML(msgs []Message) [][]Message {
	index := make(map[string]int)
	var groups [][]Message
	for _, m := range msgs {
		i, ok := index[m.HTML]
		if !ok {
			i = len(groups)
			index[m.HTML] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], m)
	}
	return groups
}
