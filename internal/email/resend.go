package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends through the Resend batch API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendSender) SendBatch(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) > MaxBatchSize {
		return fmt.Errorf("resend batch of %d exceeds %d", len(msgs), MaxBatchSize)
	}

	params := make([]*resend.SendEmailRequest, 0, len(msgs))
	for _, m := range msgs {
		from := m.From
		if from == "" {
			from = s.from
		}
		params = append(params, &resend.SendEmailRequest{
			From:    from,
			To:      m.To,
			Subject: m.Subject,
			Html:    m.HTML,
		})
	}

	if _, err := s.client.Batch.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend batch send failed: %w", err)
	}
	return nil
}
