package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/model"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

// ContextIdentity is the gin context key holding the authenticated admin.
const ContextIdentity = "identity"

func SetIdentity(c *gin.Context, id *model.Identity) {
	c.Set(ContextIdentity, id)
}

// CurrentIdentity returns the admin set by the auth middleware.
func CurrentIdentity(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return model.Identity{}, false
	}
	id, ok := v.(*model.Identity)
	if !ok || id == nil {
		return model.Identity{}, false
	}
	return *id, true
}

// ParamUUID parses the named path parameter.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequest("invalid "+name, err)
	}
	return id, nil
}
