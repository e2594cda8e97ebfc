// Package dispatch delivers a composed message to a resolved recipient set
// and records the send history.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/email"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
	"github.com/jwalitptl/admissions-api/internal/service/composer"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
	"github.com/jwalitptl/admissions-api/pkg/logger"
	"github.com/jwalitptl/admissions-api/pkg/metrics"
)

const DefaultBatchSize = 50

// State is the lifecycle of one dispatch invocation.
type State string

const (
	StateIdle           State = "idle"
	StateResolving      State = "resolving_contacts"
	StateSending        State = "sending"
	StateSuccess        State = "success"
	StatePartialSuccess State = "partial_success"
	StateFailed         State = "failed"
)

// ContactSource resolves recipients. *audience.Resolver implements it.
type ContactSource interface {
	Contacts(ctx context.Context, audience model.Audience, ids []uuid.UUID) ([]model.Contact, error)
	List(ctx context.Context, filter model.AudienceFilter) ([]model.Recipient, error)
}

// NewsSource loads news items for broadcasts. LoadNews must read current
// state, not a cached copy.
type NewsSource interface {
	LoadNews(ctx context.Context, id uuid.UUID) (*model.News, error)
}

type Config struct {
	// BatchSize is capped at email.MaxBatchSize.
	BatchSize int
	SiteURL   string
}

// EmailRequest is a bulk email to exactly RecipientIDs.
type EmailRequest struct {
	Audience     model.Audience
	Filter       model.AudienceFilter
	RecipientIDs []uuid.UUID
	Subject      string
	Body         string
	Link         *model.ContentLink
}

type WhatsAppRequest struct {
	Audience     model.Audience
	Filter       model.AudienceFilter
	RecipientIDs []uuid.UUID
	Subject      string
	Body         string
}

// Result describes a completed email dispatch. HistoryError is set when the
// messages went out but the history row could not be written.
type Result struct {
	State        State     `json:"state"`
	Sent         int       `json:"count"`
	Batches      int       `json:"batches"`
	SendID       uuid.UUID `json:"send_id,omitempty"`
	HistoryError error     `json:"-"`
}

type WhatsAppResult struct {
	Contacts     []model.WhatsAppContact `json:"contacts"`
	SendID       uuid.UUID               `json:"send_id,omitempty"`
	HistoryError error                   `json:"-"`
}

type Engine struct {
	contacts ContactSource
	news     NewsSource
	sender   email.BatchSender
	sends    repository.MessageSendRepository
	config   Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewEngine(
	contacts ContactSource,
	news NewsSource,
	sender email.BatchSender,
	sends repository.MessageSendRepository,
	config Config,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Engine {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.BatchSize > email.MaxBatchSize {
		config.BatchSize = email.MaxBatchSize
	}
	return &Engine{
		contacts: contacts,
		news:     news,
		sender:   sender,
		sends:    sends,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
}

// run tracks one invocation's state for logs and metrics.
type run struct {
	channel model.Channel
	state   State
	log     *logger.Logger
}

func (e *Engine) start(ctx context.Context, channel model.Channel, actor model.Identity) *run {
	return &run{
		channel: channel,
		state:   StateIdle,
		log: logger.FromContext(ctx, e.logger).WithFields(map[string]interface{}{
			"channel": string(channel),
			"actor":   actor.Email,
		}),
	}
}

func (r *run) to(s State) {
	r.log.Debug("dispatch state", "from", string(r.state), "to", string(s))
	r.state = s
}

func (e *Engine) finish(r *run, err error) error {
	e.metrics.Dispatches.WithLabelValues(string(r.channel), string(r.state)).Inc()
	return err
}

func authorize(actor model.Identity) error {
	if strings.TrimSpace(actor.Email) == "" {
		return apperrors.NotAuthenticated
	}
	return nil
}

// emailJob is a rendered message and the addresses it goes to.
type emailJob struct {
	audience model.Audience
	filter   model.AudienceFilter
	subject  string
	body     string
	html     string
	link     *model.ContentLink
	contacts []model.Contact
}

// SendEmail delivers req to the unique addresses behind its recipient ids.
// Once started, a dispatch runs to completion even if ctx is cancelled; only
// the provider transport bounds each batch.
func (e *Engine) SendEmail(ctx context.Context, actor model.Identity, req EmailRequest) (*Result, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, apperrors.NewBadRequest("subject and body are required", nil)
	}
	r := e.start(ctx, model.ChannelEmail, actor)
	if len(req.RecipientIDs) == 0 {
		r.to(StateFailed)
		return nil, e.finish(r, apperrors.NewNoRecipients())
	}

	r.to(StateResolving)
	contacts, err := e.contacts.Contacts(ctx, req.Audience, req.RecipientIDs)
	if err != nil {
		r.to(StateFailed)
		return nil, e.finish(r, err)
	}

	html, err := email.RenderTargeted(req.Subject, req.Body, composer.CTA(e.config.SiteURL, req.Link))
	if err != nil {
		r.to(StateFailed)
		return nil, e.finish(r, apperrors.NewInternal(fmt.Errorf("failed to render email: %w", err)))
	}

	return e.deliver(ctx, r, actor, emailJob{
		audience: req.Audience,
		filter:   req.Filter,
		subject:  req.Subject,
		body:     req.Body,
		html:     html,
		link:     req.Link,
		contacts: contacts,
	})
}

// BroadcastNews emails a published news item to every applicant matching
// filter.
func (e *Engine) BroadcastNews(ctx context.Context, actor model.Identity, newsID uuid.UUID, filter model.ApplicantFilter) (*Result, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	n, err := e.news.LoadNews(ctx, newsID)
	if err != nil {
		return nil, err
	}
	if !n.Published {
		return nil, apperrors.NewNotFound("news", nil)
	}

	r := e.start(ctx, model.ChannelEmail, actor)
	r.to(StateResolving)
	recipients, err := e.contacts.List(ctx, filter)
	if err != nil {
		r.to(StateFailed)
		return nil, e.finish(r, err)
	}
	contacts := make([]model.Contact, 0, len(recipients))
	for _, rec := range recipients {
		contacts = append(contacts, model.Contact{ID: rec.ID, Name: rec.Name, Email: rec.Email, Phone: rec.Phone})
	}

	link := &model.ContentLink{Kind: model.ContentNews, ID: n.ID, Title: n.Title, Slug: n.Slug}
	html, err := email.RenderNews(n.Title, n.Excerpt, composer.CTA(e.config.SiteURL, link))
	if err != nil {
		r.to(StateFailed)
		return nil, e.finish(r, apperrors.NewInternal(fmt.Errorf("failed to render email: %w", err)))
	}

	return e.deliver(ctx, r, actor, emailJob{
		audience: model.AudienceApplicants,
		filter:   filter,
		subject:  n.Title,
		body:     n.Excerpt,
		html:     html,
		link:     link,
		contacts: contacts,
	})
}

// deliver sends job in sequential batches. A failed first batch fails the
// whole dispatch with nothing recorded; a later failure stops and keeps what
// was already sent.
func (e *Engine) deliver(ctx context.Context, r *run, actor model.Identity, job emailJob) (*Result, error) {
	addresses := uniqueEmails(job.contacts)
	if len(addresses) == 0 {
		r.to(StateFailed)
		return nil, e.finish(r, apperrors.NewNoRecipients())
	}

	r.to(StateSending)
	res := &Result{}
	batches := partition(addresses, e.config.BatchSize)
	for i, batch := range batches {
		msgs := make([]email.Message, 0, len(batch))
		for _, addr := range batch {
			msgs = append(msgs, email.Message{To: []string{addr}, Subject: job.subject, HTML: job.html})
		}

		began := time.Now()
		err := e.sender.SendBatch(ctx, msgs)
		e.metrics.BatchLatency.Observe(time.Since(began).Seconds())
		if err != nil {
			e.metrics.Batches.WithLabelValues("error").Inc()
			r.log.Error(err, "email batch failed", "batch", i+1, "of", len(batches), "sent", res.Sent)
			if i == 0 {
				r.to(StateFailed)
				return nil, e.finish(r, apperrors.NewSendFailed(err))
			}
			r.to(StatePartialSuccess)
			break
		}
		e.metrics.Batches.WithLabelValues("ok").Inc()
		res.Sent += len(batch)
		res.Batches++
	}
	if r.state == StateSending {
		r.to(StateSuccess)
	}
	res.State = r.state
	e.metrics.RecipientsSent.WithLabelValues(string(model.ChannelEmail)).Add(float64(res.Sent))

	send := &model.MessageSend{
		Channel:         model.ChannelEmail,
		Audience:        job.audience,
		Filters:         snapshot(job.filter),
		Subject:         job.subject,
		Body:            job.body,
		TotalRecipients: res.Sent,
		SentBy:          actor.Email,
		NewsID:          job.link.NewsID(),
		DateID:          job.link.DateID(),
	}
	if err := e.sends.Create(ctx, send); err != nil {
		r.log.Error(err, "failed to record message send", "sent", res.Sent)
		res.HistoryError = apperrors.NewStore("failed to record message send", err)
	} else {
		res.SendID = send.ID
	}

	r.log.Info("email dispatch finished", "state", string(res.State), "sent", res.Sent, "batches", res.Batches)
	return res, e.finish(r, nil)
}

// WhatsAppList resolves unique phone numbers for a manual WhatsApp broadcast.
// No provider is contacted.
func (e *Engine) WhatsAppList(ctx context.Context, actor model.Identity, req WhatsAppRequest) (*WhatsAppResult, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	r := e.start(ctx, model.ChannelWhatsAppList, actor)
	if len(req.RecipientIDs) == 0 {
		r.to(StateFailed)
		return nil, e.finish(r, apperrors.NewNoRecipients())
	}

	r.to(StateResolving)
	contacts, err := e.contacts.Contacts(ctx, req.Audience, req.RecipientIDs)
	if err != nil {
		r.to(StateFailed)
		return nil, e.finish(r, err)
	}
	pairs := uniquePhones(contacts)
	if len(pairs) == 0 {
		r.to(StateFailed)
		return nil, e.finish(r, apperrors.NewNoRecipients())
	}

	r.to(StateSuccess)
	e.metrics.RecipientsSent.WithLabelValues(string(model.ChannelWhatsAppList)).Add(float64(len(pairs)))
	res := &WhatsAppResult{Contacts: pairs}

	send := &model.MessageSend{
		Channel:         model.ChannelWhatsAppList,
		Audience:        req.Audience,
		Filters:         snapshot(req.Filter),
		Subject:         req.Subject,
		Body:            req.Body,
		TotalRecipients: len(pairs),
		SentBy:          actor.Email,
	}
	if err := e.sends.Create(ctx, send); err != nil {
		r.log.Error(err, "failed to record whatsapp list")
		res.HistoryError = apperrors.NewStore("failed to record message send", err)
	} else {
		res.SendID = send.ID
	}
	return res, e.finish(r, nil)
}

func snapshot(f model.AudienceFilter) model.JSONMap {
	if f == nil {
		return model.JSONMap{}
	}
	return f.Snapshot()
}
