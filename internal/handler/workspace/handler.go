// Package workspace serves the per-admin selection and draft used to build a
// message step by step.
package workspace

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/handler"
	"github.com/jwalitptl/admissions-api/internal/handler/messages"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/service/audience"
	"github.com/jwalitptl/admissions-api/internal/service/composer"
	"github.com/jwalitptl/admissions-api/internal/service/dispatch"
	"github.com/jwalitptl/admissions-api/internal/service/selection"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

type Handler struct {
	store    *selection.Store
	resolver *audience.Resolver
	content  *composer.ContentResolver
	engine   *dispatch.Engine
}

func NewHandler(store *selection.Store, resolver *audience.Resolver, content *composer.ContentResolver, engine *dispatch.Engine) *Handler {
	return &Handler{
		store:    store,
		resolver: resolver,
		content:  content,
		engine:   engine,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	ws := r.Group("/messages/workspace")
	{
		ws.GET("", h.Get)
		ws.DELETE("", h.Discard)
		ws.PUT("/audience", h.SetAudience)
		ws.PUT("/filter", h.SetFilter)
		ws.POST("/load", h.Load)
		ws.GET("/search", h.Search)
		ws.POST("/add", h.Add)
		ws.POST("/toggle/:id", h.Toggle)
		ws.POST("/select-all", h.SelectAll)
		ws.POST("/deselect-all", h.DeselectAll)
		ws.PUT("/draft", h.SetDraft)
		ws.PUT("/link", h.SetLink)
		ws.POST("/send", h.Send)
	}
}

type audienceRequest struct {
	Audience model.Audience `json:"audience" binding:"required"`
}

type draftRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type linkRequest struct {
	NewsID *uuid.UUID `json:"news_id"`
	DateID *uuid.UUID `json:"date_id"`
}

type sendRequest struct {
	Channel model.Channel `json:"channel" binding:"required"`
}

// workspace returns the caller's locked workspace; callers must Unlock it.
func (h *Handler) workspace(c *gin.Context) (*selection.Workspace, model.Identity) {
	identity, _ := handler.CurrentIdentity(c)
	w := h.store.Get(identity.UserID.String())
	w.Lock()
	return w, identity
}

func respond(c *gin.Context, w *selection.Workspace) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(w.Snapshot()))
}

func (h *Handler) Get(c *gin.Context) {
	w, _ := h.workspace(c)
	defer w.Unlock()
	respond(c, w)
}

func (h *Handler) Discard(c *gin.Context) {
	identity, _ := handler.CurrentIdentity(c)
	h.store.Discard(identity.UserID.String())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) SetAudience(c *gin.Context) {
	var req audienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	if !req.Audience.Valid() {
		handler.RespondError(c, apperrors.NewBadRequest("invalid audience "+string(req.Audience), nil))
		return
	}
	w, _ := h.workspace(c)
	defer w.Unlock()
	w.SetAudience(req.Audience)
	respond(c, w)
}

// SetFilter replaces the filter. A filter for the other audience switches
// audience first.
func (h *Handler) SetFilter(c *gin.Context) {
	var req model.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	f, err := req.ToFilter()
	if err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid filter", err))
		return
	}
	w, _ := h.workspace(c)
	defer w.Unlock()
	if f.Audience() != w.Selection.Audience() {
		w.SetAudience(f.Audience())
	}
	w.SetFilter(f)
	respond(c, w)
}

func emptyFilter(a model.Audience) model.AudienceFilter {
	if a == model.AudienceApplicants {
		return model.ApplicantFilter{}
	}
	return model.StudentFilter{}
}

// Load lists the recipients matching the current filter and selects them all.
func (h *Handler) Load(c *gin.Context) {
	w, _ := h.workspace(c)
	defer w.Unlock()

	f := w.Selection.Filter()
	if f == nil {
		f = emptyFilter(w.Selection.Audience())
	}
	list, err := h.resolver.List(c.Request.Context(), f)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	w.Selection.Load(list)
	respond(c, w)
}

// Search finds recipients of the current audience not yet in the list.
func (h *Handler) Search(c *gin.Context) {
	w, _ := h.workspace(c)
	defer w.Unlock()

	found, err := h.resolver.Search(c.Request.Context(), w.Selection.Audience(), c.Query("q"), w.Selection.IDs())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

// Add appends a search result to the list, selected.
func (h *Handler) Add(c *gin.Context) {
	var rec model.Recipient
	if err := c.ShouldBindJSON(&rec); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	if rec.ID == uuid.Nil {
		handler.RespondError(c, apperrors.NewBadRequest("recipient id is required", nil))
		return
	}
	w, _ := h.workspace(c)
	defer w.Unlock()
	w.Selection.Add(rec)
	respond(c, w)
}

func (h *Handler) Toggle(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	w, _ := h.workspace(c)
	defer w.Unlock()
	if !w.Selection.Toggle(id) {
		handler.RespondError(c, apperrors.NewNotFound("recipient", nil))
		return
	}
	respond(c, w)
}

func (h *Handler) SelectAll(c *gin.Context) {
	w, _ := h.workspace(c)
	defer w.Unlock()
	w.Selection.SelectAll()
	respond(c, w)
}

func (h *Handler) DeselectAll(c *gin.Context) {
	w, _ := h.workspace(c)
	defer w.Unlock()
	w.Selection.DeselectAll()
	respond(c, w)
}

func (h *Handler) SetDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	w, _ := h.workspace(c)
	defer w.Unlock()
	w.Draft.Subject = req.Subject
	w.Draft.Body = req.Body
	respond(c, w)
}

// SetLink links a news item or an important date. An empty body unlinks.
func (h *Handler) SetLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	if req.NewsID != nil && req.DateID != nil {
		handler.RespondError(c, apperrors.NewBadRequest("a message links at most one news item or date", nil))
		return
	}

	ctx := c.Request.Context()
	w, _ := h.workspace(c)
	defer w.Unlock()
	switch {
	case req.NewsID != nil:
		n, err := h.content.News(ctx, *req.NewsID)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		w.Draft.LinkNews(n)
	case req.DateID != nil:
		d, err := h.content.ImportantDate(ctx, *req.DateID)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		w.Draft.LinkDate(d)
	default:
		w.Draft.Unlink()
	}
	respond(c, w)
}

// Send dispatches the draft to the selected recipients. The draft is cleared
// once anything was delivered; the selection stays.
func (h *Handler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	w, actor := h.workspace(c)
	defer w.Unlock()

	switch req.Channel {
	case model.ChannelEmail:
		res, err := h.engine.SendEmail(ctx, actor, dispatch.EmailRequest{
			Audience:     w.Selection.Audience(),
			Filter:       w.Selection.Filter(),
			RecipientIDs: w.Selection.SelectedIDs(),
			Subject:      w.Draft.Subject,
			Body:         w.Draft.Body,
			Link:         w.Draft.Link,
		})
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		w.Draft.Clear()
		messages.RespondDispatch(c, res)
	case model.ChannelWhatsAppList:
		res, err := h.engine.WhatsAppList(ctx, actor, dispatch.WhatsAppRequest{
			Audience:     w.Selection.Audience(),
			Filter:       w.Selection.Filter(),
			RecipientIDs: w.Selection.SelectedIDs(),
			Subject:      w.Draft.Subject,
			Body:         w.Draft.Body,
		})
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		messages.RespondWhatsApp(c, res)
	default:
		handler.RespondError(c, apperrors.NewBadRequest("invalid channel "+string(req.Channel), nil))
	}
}
