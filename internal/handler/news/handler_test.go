package news

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/admissions-api/internal/email"
	"github.com/jwalitptl/admissions-api/internal/handler"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository/memory"
	"github.com/jwalitptl/admissions-api/internal/service/audience"
	"github.com/jwalitptl/admissions-api/internal/service/composer"
	"github.com/jwalitptl/admissions-api/internal/service/dispatch"
	"github.com/jwalitptl/admissions-api/internal/service/history"
	"github.com/jwalitptl/admissions-api/pkg/logger"
	"github.com/jwalitptl/admissions-api/pkg/metrics"
)

type recorder struct{ batches [][]email.Message }

func (r *recorder) SendBatch(ctx context.Context, msgs []email.Message) error {
	r.batches = append(r.batches, msgs)
	return nil
}

func setup(t *testing.T) (*memory.Store, *recorder, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	mail := &recorder{}
	content := composer.NewContentResolver(store.ContentRepository())
	engine := dispatch.NewEngine(
		audience.NewResolver(store.StudentRepository(), store.ApplicantRepository(), store.DocumentRepository()),
		content,
		mail,
		store.MessageSendRepository(),
		dispatch.Config{BatchSize: 50, SiteURL: "https://ufn.edu.mx"},
		logger.Nop(),
		metrics.NewWithRegistry("test", prometheus.NewRegistry()),
	)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		handler.SetIdentity(c, &model.Identity{UserID: uuid.New(), Email: "admisiones@ufn.edu.mx"})
		c.Next()
	})
	NewHandler(engine, content, history.NewService(store.MessageSendRepository())).RegisterRoutes(api)
	return store, mail, r
}

func addApplicant(store *memory.Store, email, program string) {
	a := &model.Applicant{Name: "Aspirante", Email: email, Phone: "899-555-0101", ProgramID: program, Status: model.ApplicantStatusNew}
	a.ID = uuid.New()
	store.Applicants[a.ID] = a
}

func addNews(store *memory.Store, published bool) uuid.UUID {
	n := &model.News{ID: uuid.New(), Title: "Abren inscripciones", Slug: "abren-inscripciones", Excerpt: "Consulta las fechas.", Published: published}
	store.News[n.ID] = n
	return n.ID
}

func broadcast(r *gin.Engine, id string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/news/"+id+"/broadcast", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBroadcast(t *testing.T) {
	store, mail, r := setup(t)
	addApplicant(store, "a@gmail.com", "ing-ind")
	addApplicant(store, "b@gmail.com", "lic-admin")
	id := addNews(store, true)

	w := broadcast(r, id.String(), gin.H{"program_id": "ing-ind"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "email sent to 1 recipients")

	require.Len(t, mail.batches, 1)
	require.Len(t, mail.batches[0], 1)
	assert.Equal(t, "Abren inscripciones", mail.batches[0][0].Subject)

	require.Len(t, store.Sends, 1)
	require.NotNil(t, store.Sends[0].NewsID)
	assert.Equal(t, id, *store.Sends[0].NewsID)
}

func TestBroadcast_NoBodyTargetsEveryApplicant(t *testing.T) {
	store, mail, r := setup(t)
	addApplicant(store, "a@gmail.com", "ing-ind")
	addApplicant(store, "b@gmail.com", "lic-admin")

	w := broadcast(r, addNews(store, true).String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, mail.batches, 1)
	assert.Len(t, mail.batches[0], 2)
}

func TestBroadcast_Rejections(t *testing.T) {
	store, mail, r := setup(t)
	addApplicant(store, "a@gmail.com", "ing-ind")

	assert.Equal(t, http.StatusNotFound, broadcast(r, addNews(store, false).String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, broadcast(r, uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, broadcast(r, "latest", nil).Code)
	assert.Equal(t, http.StatusBadRequest, broadcast(r, addNews(store, true).String(), gin.H{"status": "pending"}).Code)
	assert.Empty(t, mail.batches)
}

func TestSends_ListsBroadcastsOfOneNewsItem(t *testing.T) {
	store, _, r := setup(t)
	addApplicant(store, "a@gmail.com", "ing-ind")
	id := addNews(store, true)
	other := addNews(store, true)

	require.Equal(t, http.StatusOK, broadcast(r, id.String(), nil).Code)
	require.Equal(t, http.StatusOK, broadcast(r, other.String(), nil).Code)
	require.Equal(t, http.StatusOK, broadcast(r, id.String(), gin.H{"program_id": "ing-ind"}).Code)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/api/v1/news/" + id.String() + "/sends")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data []model.MessageSend `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	for _, s := range resp.Data {
		require.NotNil(t, s.NewsID)
		assert.Equal(t, id, *s.NewsID)
	}
	assert.Equal(t, "ing-ind", resp.Data[0].Filters["program"])

	assert.Equal(t, http.StatusNotFound, get("/api/v1/news/"+uuid.NewString()+"/sends").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/v1/news/latest/sends").Code)
}
