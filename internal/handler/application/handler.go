package application

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/admissions-api/internal/handler"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/service/admission"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

type Handler struct {
	svc *admission.Service
}

func NewHandler(svc *admission.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	applications := r.Group("/applications")
	{
		applications.GET("", h.List)
		applications.GET("/:id", h.Get)
		applications.GET("/:id/documents", h.Documents)
		applications.GET("/:id/communications", h.Communications)
		applications.PUT("/:id/status", h.UpdateStatus)
		applications.PUT("/:id/notes", h.UpdateNotes)
		applications.POST("/:id/email", h.SendEmail)
		applications.PUT("/:id/documents/:docId", h.UpdateDocument)
	}
}

// List serves the applications table. Optional query parameters: status,
// program_id, missing_docs and q.
func (h *Handler) List(c *gin.Context) {
	q := admission.ListQuery{
		Filter: model.ApplicantFilter{
			ProgramID: c.Query("program_id"),
			Status:    model.ApplicantStatus(c.Query("status")),
		},
		Search: c.Query("q"),
	}
	if raw := c.Query("missing_docs"); raw != "" {
		missing, err := strconv.ParseBool(raw)
		if err != nil {
			handler.RespondError(c, apperrors.NewBadRequest("invalid missing_docs", err))
			return
		}
		q.Filter.MissingDocuments = missing
	}
	list, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if list == nil {
		list = []*model.Applicant{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	var req model.UpdateApplicantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	a, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}

func (h *Handler) UpdateNotes(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	var req model.UpdateInternalNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	if err := h.svc.UpdateNotes(c.Request.Context(), id, req.Notes); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"notes": req.Notes}))
}

func (h *Handler) SendEmail(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	var req model.ApplicantEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	actor, _ := handler.CurrentIdentity(c)
	comm, err := h.svc.SendEmail(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(comm))
}

func (h *Handler) UpdateDocument(c *gin.Context) {
	docID, err := handler.ParamUUID(c, "docId")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	var req model.UpdateDocumentStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	if err := h.svc.UpdateDocumentState(c.Request.Context(), docID, &req); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"id": docID, "state": req.State}))
}

func (h *Handler) Documents(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	docs, err := h.svc.Documents(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if docs == nil {
		docs = []*model.ApplicationDocument{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(docs))
}

func (h *Handler) Communications(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	list, err := h.svc.Communications(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if list == nil {
		list = []*model.Communication{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}
