package model

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelEmail        Channel = "email"
	ChannelWhatsAppList Channel = "whatsapp_list"
)

// MessageSend is one append-only send history row.
type MessageSend struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Channel         Channel    `db:"channel" json:"channel"`
	Audience        Audience   `db:"audience" json:"audience"`
	Filters         JSONMap    `db:"filters" json:"filters"`
	Subject         string     `db:"subject" json:"subject"`
	Body            string     `db:"body" json:"body"`
	TotalRecipients int        `db:"total_recipients" json:"total_recipients"`
	SentBy          string     `db:"sent_by" json:"sent_by"`
	NewsID          *uuid.UUID `db:"news_id" json:"news_id,omitempty"`
	DateID          *uuid.UUID `db:"date_id" json:"date_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Identity is the authenticated admin performing an operation.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// WhatsAppContact is one row of a copy/paste contact list.
type WhatsAppContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type SendEmailRequest struct {
	FilterRequest
	RecipientIDs []uuid.UUID `json:"recipient_ids" binding:"required"`
	Subject      string      `json:"subject" binding:"required"`
	Body         string      `json:"body" binding:"required"`
	NewsID       *uuid.UUID  `json:"news_id"`
	DateID       *uuid.UUID  `json:"date_id"`
}

type WhatsAppListRequest struct {
	FilterRequest
	RecipientIDs []uuid.UUID `json:"recipient_ids" binding:"required"`
	Subject      string      `json:"subject"`
	Body         string      `json:"body"`
}
