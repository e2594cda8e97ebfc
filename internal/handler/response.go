package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// ValidationError is one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validationMessages = map[string]string{
	"required": "Field is required",
	"email":    "Invalid email format",
	"min":      "Value is too short",
	"max":      "Value is too long",
	"curp":     "Invalid CURP",
	"phone":    "Invalid phone number",
	"datetime": "Invalid date, expected YYYY-MM-DD",
}

// RespondError writes err in the response envelope. AppErrors choose the
// status; anything else is a 500 with a generic message.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)

	appErr, ok := apperrors.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}
	message := appErr.Message
	if appErr.Code == apperrors.ErrBadRequest && appErr.Err != nil {
		message = appErr.Error()
	}
	c.JSON(appErr.StatusCode(), NewErrorResponse(message))
}

// RespondBindError reports a request that failed to bind or validate.
func RespondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}
	fields := make([]ValidationError, 0, len(verrs))
	for _, e := range verrs {
		msg := validationMessages[e.Tag()]
		if msg == "" {
			msg = e.Error()
		}
		fields = append(fields, ValidationError{Field: e.Field(), Message: msg})
	}
	c.JSON(http.StatusBadRequest, &Response{
		Status:  "error",
		Message: "validation failed",
		Data:    gin.H{"errors": fields},
	})
}
