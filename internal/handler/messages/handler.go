// Package messages serves filter counts, recipient lists, search, bulk
// dispatch and send history for the admin messaging screen.
package messages

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/handler"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/service/audience"
	"github.com/jwalitptl/admissions-api/internal/service/composer"
	"github.com/jwalitptl/admissions-api/internal/service/dispatch"
	"github.com/jwalitptl/admissions-api/internal/service/history"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

type Handler struct {
	resolver *audience.Resolver
	content  *composer.ContentResolver
	engine   *dispatch.Engine
	history  *history.Service
}

func NewHandler(resolver *audience.Resolver, content *composer.ContentResolver, engine *dispatch.Engine, history *history.Service) *Handler {
	return &Handler{
		resolver: resolver,
		content:  content,
		engine:   engine,
		history:  history,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	messages := r.Group("/messages")
	{
		messages.POST("/count", h.Count)
		messages.POST("/recipients", h.Recipients)
		messages.GET("/search", h.Search)
		messages.POST("/email", h.SendEmail)
		messages.POST("/whatsapp", h.WhatsApp)
		messages.GET("/history", h.History)
	}
}

func bindFilter(c *gin.Context) (model.AudienceFilter, bool) {
	var req model.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return nil, false
	}
	f, err := req.ToFilter()
	if err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid filter", err))
		return nil, false
	}
	return f, true
}

func (h *Handler) Count(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	n, err := h.resolver.Count(c.Request.Context(), f)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"count": n}))
}

func (h *Handler) Recipients(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	list, err := h.resolver.List(c.Request.Context(), f)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"recipients": list, "count": len(list)}))
}

// Search takes ?audience=&q= and an optional comma separated ?exclude= list.
func (h *Handler) Search(c *gin.Context) {
	exclude, err := ParseIDs(c.Query("exclude"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	found, err := h.resolver.Search(c.Request.Context(), model.Audience(c.Query("audience")), c.Query("q"), exclude)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) SendEmail(c *gin.Context) {
	var req model.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	actor, _ := handler.CurrentIdentity(c)
	f, err := req.ToFilter()
	if err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid filter", err))
		return
	}
	link, err := h.content.Link(c.Request.Context(), req.NewsID, req.DateID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	res, err := h.engine.SendEmail(c.Request.Context(), actor, dispatch.EmailRequest{
		Audience:     f.Audience(),
		Filter:       f,
		RecipientIDs: req.RecipientIDs,
		Subject:      req.Subject,
		Body:         req.Body,
		Link:         link,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	RespondDispatch(c, res)
}

// RespondDispatch reports an email dispatch outcome, flagging partial
// delivery and a missing history row in the message.
func RespondDispatch(c *gin.Context, res *dispatch.Result) {
	var message string
	switch res.State {
	case dispatch.StatePartialSuccess:
		message = fmt.Sprintf("sending stopped early: %d recipients reached", res.Sent)
	default:
		message = fmt.Sprintf("email sent to %d recipients", res.Sent)
	}
	if res.HistoryError != nil {
		_ = c.Error(res.HistoryError)
		message += "; the send could not be recorded in history"
	}
	c.JSON(http.StatusOK, &handler.Response{Status: "success", Message: message, Data: res})
}

func (h *Handler) WhatsApp(c *gin.Context) {
	var req model.WhatsAppListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	actor, _ := handler.CurrentIdentity(c)
	f, err := req.ToFilter()
	if err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid filter", err))
		return
	}

	res, err := h.engine.WhatsAppList(c.Request.Context(), actor, dispatch.WhatsAppRequest{
		Audience:     f.Audience(),
		Filter:       f,
		RecipientIDs: req.RecipientIDs,
		Subject:      req.Subject,
		Body:         req.Body,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	RespondWhatsApp(c, res)
}

func RespondWhatsApp(c *gin.Context, res *dispatch.WhatsAppResult) {
	message := fmt.Sprintf("%d contacts ready", len(res.Contacts))
	if res.HistoryError != nil {
		_ = c.Error(res.HistoryError)
		message += "; the list could not be recorded in history"
	}
	c.JSON(http.StatusOK, &handler.Response{Status: "success", Message: message, Data: res})
}

func (h *Handler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			handler.RespondError(c, apperrors.NewBadRequest("invalid limit", err))
			return
		}
		limit = n
	}
	sends, err := h.history.List(c.Request.Context(), model.Audience(c.Query("audience")), limit)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(sends))
}

// ParseIDs splits a comma separated uuid list. Blank input is an empty list.
func ParseIDs(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, apperrors.NewBadRequest("invalid id in list", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
