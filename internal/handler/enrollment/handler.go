// Package enrollment serves the public enrollment form.
package enrollment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/admissions-api/internal/handler"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/service/admission"
)

type Handler struct {
	svc *admission.Service
}

func NewHandler(svc *admission.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public routes; limit guards submissions.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, limit gin.HandlerFunc) {
	r.POST("/enrollments", limit, h.Submit)
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	a, err := h.svc.Submit(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"id":     a.ID,
		"status": a.Status,
	}))
}
