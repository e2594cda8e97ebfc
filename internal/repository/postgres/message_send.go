package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
)

type messageSendRepository struct {
	BaseRepository
}

func NewMessageSendRepository(base BaseRepository) repository.MessageSendRepository {
	return &messageSendRepository{base}
}

// sendRecordedPayload is what downstream consumers receive for each history row.
type sendRecordedPayload struct {
	SendID          uuid.UUID      `json:"send_id"`
	Channel         model.Channel  `json:"channel"`
	Audience        model.Audience `json:"audience"`
	TotalRecipients int            `json:"total_recipients"`
	SentBy          string         `json:"sent_by"`
	NewsID          *uuid.UUID     `json:"news_id,omitempty"`
	DateID          *uuid.UUID     `json:"date_id,omitempty"`
}

func (r *messageSendRepository) Create(ctx context.Context, send *model.MessageSend) error {
	if send.ID == uuid.Nil {
		send.ID = uuid.New()
	}
	if send.CreatedAt.IsZero() {
		send.CreatedAt = time.Now()
	}
	if send.Filters == nil {
		send.Filters = model.JSONMap{}
	}

	event, err := model.NewOutboxEvent(model.EventMessageSendRecorded, sendRecordedPayload{
		SendID:          send.ID,
		Channel:         send.Channel,
		Audience:        send.Audience,
		TotalRecipients: send.TotalRecipients,
		SentBy:          send.SentBy,
		NewsID:          send.NewsID,
		DateID:          send.DateID,
	})
	if err != nil {
		return fmt.Errorf("failed to build send event: %w", err)
	}

	query := `
		INSERT INTO message_sends (
			id, channel, audience, filters, subject, body, total_recipients,
			sent_by, news_id, date_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			send.ID,
			send.Channel,
			send.Audience,
			send.Filters,
			send.Subject,
			send.Body,
			send.TotalRecipients,
			send.SentBy,
			send.NewsID,
			send.DateID,
			send.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message send: %w", err)
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (r *messageSendRepository) ListByAudience(ctx context.Context, audience model.Audience, limit int) ([]*model.MessageSend, error) {
	query := `
		SELECT id, channel, audience, filters, subject, body, total_recipients,
			sent_by, news_id, date_id, created_at
		FROM message_sends
		WHERE audience = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`
	var sends []*model.MessageSend
	if err := r.db.SelectContext(ctx, &sends, query, audience, limit); err != nil {
		return nil, fmt.Errorf("failed to list message sends: %w", err)
	}
	return sends, nil
}

func (r *messageSendRepository) ListByNews(ctx context.Context, newsID uuid.UUID) ([]*model.MessageSend, error) {
	query := `
		SELECT id, channel, audience, filters, subject, body, total_recipients,
			sent_by, news_id, date_id, created_at
		FROM message_sends
		WHERE news_id = $1
		ORDER BY created_at DESC, id
	`
	var sends []*model.MessageSend
	if err := r.db.SelectContext(ctx, &sends, query, newsID); err != nil {
		return nil, fmt.Errorf("failed to list news sends: %w", err)
	}
	return sends, nil
}

func (r *messageSendRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM message_sends WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete message sends: %w", err)
	}
	return res.RowsAffected()
}
