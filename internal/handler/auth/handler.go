package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/admissions-api/internal/handler"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/service/auth"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
	}
}

// RegisterProtectedRoutes mounts routes that need a valid token.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/auth/me", h.Me)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

// Me returns the admin the bearer token belongs to.
func (h *Handler) Me(c *gin.Context) {
	identity, ok := handler.CurrentIdentity(c)
	if !ok {
		handler.RespondError(c, apperrors.NotAuthenticated)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(identity))
}
