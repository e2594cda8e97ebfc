package student

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/admissions-api/internal/handler"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/service/student"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

type Handler struct {
	svc *student.Service
}

func NewHandler(svc *student.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	students := r.Group("/students")
	{
		students.GET("", h.List)
		students.POST("", h.Create)
		students.GET("/:id", h.Get)
		students.PUT("/:id", h.Update)
		students.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	st, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(st))
}

// List serves the student records table, filtered by status, program_id,
// term and a free text q.
func (h *Handler) List(c *gin.Context) {
	q := student.ListQuery{
		Filter: model.StudentFilter{
			ProgramID: c.Query("program_id"),
			Status:    model.StudentStatus(c.Query("status")),
		},
		Search: c.Query("q"),
	}
	if raw := c.Query("term"); raw != "" {
		term, err := strconv.Atoi(raw)
		if err != nil {
			handler.RespondError(c, apperrors.NewBadRequest("invalid term", err))
			return
		}
		q.Filter.Term = &term
	}
	list, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if list == nil {
		list = []*model.Student{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	st, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	var req model.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	st, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse("student deleted successfully"))
}
