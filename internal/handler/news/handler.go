package news

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/handler"
	"github.com/jwalitptl/admissions-api/internal/handler/messages"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/service/dispatch"
	"github.com/jwalitptl/admissions-api/internal/service/history"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

type NewsLookup interface {
	News(ctx context.Context, id uuid.UUID) (*model.News, error)
}

type Handler struct {
	engine  *dispatch.Engine
	news    NewsLookup
	history *history.Service
}

func NewHandler(engine *dispatch.Engine, news NewsLookup, history *history.Service) *Handler {
	return &Handler{engine: engine, news: news, history: history}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/news/:id/broadcast", h.Broadcast)
	r.GET("/news/:id/sends", h.Sends)
}

type broadcastRequest struct {
	ProgramID        string `json:"program_id"`
	Status           string `json:"status"`
	MissingDocuments bool   `json:"missing_docs"`
}

// Broadcast emails a published news item to applicants. The body is an
// optional applicant filter.
func (h *Handler) Broadcast(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	var req broadcastRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handler.RespondBindError(c, err)
			return
		}
	}
	f, err := model.FilterRequest{
		Audience:         model.AudienceApplicants,
		ProgramID:        req.ProgramID,
		Status:           req.Status,
		MissingDocuments: req.MissingDocuments,
	}.ToFilter()
	if err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid filter", err))
		return
	}

	actor, _ := handler.CurrentIdentity(c)
	res, err := h.engine.BroadcastNews(c.Request.Context(), actor, id, f.(model.ApplicantFilter))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	messages.RespondDispatch(c, res)
}

// Sends lists every broadcast recorded for one news item.
func (h *Handler) Sends(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if _, err := h.news.News(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	sends, err := h.history.ListByNews(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(sends))
}
