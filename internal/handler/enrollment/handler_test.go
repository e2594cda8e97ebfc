package enrollment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/admissions-api/internal/email"
	"github.com/jwalitptl/admissions-api/internal/middleware"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository/memory"
	"github.com/jwalitptl/admissions-api/internal/service/admission"
	"github.com/jwalitptl/admissions-api/internal/service/student"
	"github.com/jwalitptl/admissions-api/pkg/logger"
	"github.com/jwalitptl/admissions-api/pkg/validator"
)

type nopSender struct{}

func (nopSender) SendBatch(ctx context.Context, msgs []email.Message) error { return nil }

func newRouter(store *memory.Store, perMinute int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.RegisterGin()

	students := student.NewService(store.StudentRepository(), store.ApplicantRepository(), store.MatriculaSequence(), logger.Nop())
	svc := admission.NewService(store.ApplicantRepository(), store.DocumentRepository(), store.CommunicationRepository(), students, nopSender{}, logger.Nop())
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{RequestsPerMinute: perMinute, Burst: perMinute})

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"), limiter.RateLimit())
	return r
}

func submit(r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	buf, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func form() gin.H {
	return gin.H{
		"name":        "Mariana Treviño",
		"email":       "mariana@gmail.com",
		"phone":       "899-555-0101",
		"curp":        "TEGM050101MTSRRN08",
		"high_school": "CBTIS 7",
		"address":     "Calle Hidalgo 120, Reynosa",
		"program_id":  "ing-ind",
	}
}

func TestSubmit(t *testing.T) {
	store := memory.NewStore()
	r := newRouter(store, 10)

	w := submit(r, form())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID     string                `json:"id"`
			Status model.ApplicantStatus `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ApplicantStatusNew, resp.Data.Status)
	assert.Len(t, store.Applicants, 1)
}

func TestSubmit_ValidationNamesFields(t *testing.T) {
	r := newRouter(memory.NewStore(), 10)
	body := form()
	body["curp"] = "XXXX"
	body["phone"] = "12"

	w := submit(r, body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Data struct {
			Errors []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"errors"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	fields := map[string]string{}
	for _, e := range resp.Data.Errors {
		fields[e.Field] = e.Message
	}
	assert.Equal(t, "Invalid CURP", fields["curp"])
	assert.Equal(t, "Invalid phone number", fields["phone"])
}

func TestSubmit_RateLimited(t *testing.T) {
	r := newRouter(memory.NewStore(), 1)

	assert.Equal(t, http.StatusCreated, submit(r, form()).Code)
	assert.Equal(t, http.StatusTooManyRequests, submit(r, form()).Code)
}
