package messages

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

type stubSender struct {
	calls int
	err   error
}

func (s *stubSender) SendBatch(ctx context.Context, msgs []email.Message) error {
	s.calls++
	return s.err
}

type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	store  *memory.Store
	sender *stubSender
	router *gin.Engine
}

func newTestServer(t *testing.T, identity *model.Identity) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	sender := &stubSender{}
	resolver := audience.NewResolver(store.StudentRepository(), store.ApplicantRepository(), store.DocumentRepository())
	content := composer.NewContentResolver(store.ContentRepository())
	engine := dispatch.NewEngine(
		resolver,
		content,
		sender,
		store.MessageSendRepository(),
		dispatch.Config{BatchSize: 50, SiteURL: "https://ufn.edu.mx"},
		logger.Nop(),
		metrics.NewWithRegistry("test", prometheus.NewRegistry()),
	)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if identity != nil {
			handler.SetIdentity(c, identity)
		}
		c.Next()
	})
	NewHandler(resolver, content, engine, history.NewService(store.MessageSendRepository())).RegisterRoutes(api)

	return &testServer{store: store, sender: sender, router: r}
}

func (s *testServer) addStudent(name string, term int) uuid.UUID {
	st := &model.Student{
		Name:      name,
		Email:     fmt.Sprintf("%s@ufn.edu.mx", name),
		Phone:     "899-555-0101",
		ProgramID: "ing-sistemas",
		Term:      term,
		Status:    model.StudentStatusActive,
	}
	st.ID = uuid.New()
	s.store.Students[st.ID] = st
	return st.ID
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

var admin = &model.Identity{UserID: uuid.New(), Email: "admin@ufn.edu.mx"}

func TestCountAndRecipientsAgree(t *testing.T) {
	s := newTestServer(t, admin)
	s.addStudent("ana", 1)
	s.addStudent("beto", 1)
	s.addStudent("carla", 3)

	filter := gin.H{"audience": "students", "term": 1}
	w, resp := s.do(t, http.MethodPost, "/api/v1/messages/count", filter)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":2}`, string(resp.Data))

	w, resp = s.do(t, http.MethodPost, "/api/v1/messages/recipients", filter)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Recipients []model.Recipient `json:"recipients"`
		Count      int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 2, list.Count)
	assert.Len(t, list.Recipients, 2)
}

func TestCount_RejectsBadFilters(t *testing.T) {
	s := newTestServer(t, admin)

	w, resp := s.do(t, http.MethodPost, "/api/v1/messages/count", gin.H{"program_id": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation failed", resp.Message)

	w, _ = s.do(t, http.MethodPost, "/api/v1/messages/count", gin.H{"audience": "parents"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/messages/count", gin.H{"audience": "students", "status": "asleep"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_ExcludesIDs(t *testing.T) {
	s := newTestServer(t, admin)
	ana := s.addStudent("ana", 1)
	s.addStudent("anabel", 2)

	w, resp := s.do(t, http.MethodGet, "/api/v1/messages/search?audience=students&q=ana&exclude="+ana.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []model.Recipient
	require.NoError(t, json.Unmarshal(resp.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "anabel", found[0].Name)

	w, _ = s.do(t, http.MethodGet, "/api/v1/messages/search?audience=students&q=ana&exclude=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendEmail(t *testing.T) {
	s := newTestServer(t, admin)
	id := s.addStudent("ana", 1)

	w, resp := s.do(t, http.MethodPost, "/api/v1/messages/email", gin.H{
		"audience":      "students",
		"term":          1,
		"recipient_ids": []uuid.UUID{id},
		"subject":       "Aviso",
		"body":          "Hola",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "email sent to 1 recipients", resp.Message)
	assert.Equal(t, 1, s.sender.calls)
	require.Len(t, s.store.Sends, 1)
	assert.Equal(t, "admin@ufn.edu.mx", s.store.Sends[0].SentBy)
}

func TestSendEmail_Errors(t *testing.T) {
	t.Run("no recipients", func(t *testing.T) {
		s := newTestServer(t, admin)
		w, _ := s.do(t, http.MethodPost, "/api/v1/messages/email", gin.H{
			"audience": "students", "recipient_ids": []uuid.UUID{}, "subject": "a", "body": "b",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Zero(t, s.sender.calls)
	})

	t.Run("provider down", func(t *testing.T) {
		s := newTestServer(t, admin)
		id := s.addStudent("ana", 1)
		s.sender.err = errors.New("timeout")
		w, resp := s.do(t, http.MethodPost, "/api/v1/messages/email", gin.H{
			"audience": "students", "recipient_ids": []uuid.UUID{id}, "subject": "a", "body": "b",
		})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "error", resp.Status)
		assert.Empty(t, s.store.Sends)
	})

	t.Run("unknown news", func(t *testing.T) {
		s := newTestServer(t, admin)
		id := s.addStudent("ana", 1)
		w, _ := s.do(t, http.MethodPost, "/api/v1/messages/email", gin.H{
			"audience": "students", "recipient_ids": []uuid.UUID{id}, "subject": "a", "body": "b",
			"news_id": uuid.New(),
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Zero(t, s.sender.calls)
	})

	t.Run("anonymous", func(t *testing.T) {
		s := newTestServer(t, nil)
		id := s.addStudent("ana", 1)
		w, _ := s.do(t, http.MethodPost, "/api/v1/messages/email", gin.H{
			"audience": "students", "recipient_ids": []uuid.UUID{id}, "subject": "a", "body": "b",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSendEmail_HistoryFailureStillSucceeds(t *testing.T) {
	s := newTestServer(t, admin)
	id := s.addStudent("ana", 1)
	s.store.SendErr = errors.New("disk full")

	w, resp := s.do(t, http.MethodPost, "/api/v1/messages/email", gin.H{
		"audience": "students", "recipient_ids": []uuid.UUID{id}, "subject": "a", "body": "b",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp.Message, "could not be recorded")
	assert.Equal(t, 1, s.sender.calls)
}

func TestWhatsApp(t *testing.T) {
	s := newTestServer(t, admin)
	a := s.addStudent("ana", 1)
	b := s.addStudent("beto", 1)
	s.store.Students[b].Phone = "(899) 555 0101"

	w, resp := s.do(t, http.MethodPost, "/api/v1/messages/whatsapp", gin.H{
		"audience": "students", "recipient_ids": []uuid.UUID{a, b},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1 contacts ready", resp.Message)
	assert.Zero(t, s.sender.calls)
	require.Len(t, s.store.Sends, 1)
	assert.Equal(t, model.ChannelWhatsAppList, s.store.Sends[0].Channel)
}

func TestHistory(t *testing.T) {
	s := newTestServer(t, admin)
	s.store.Sends = append(s.store.Sends,
		&model.MessageSend{ID: uuid.New(), Audience: model.AudienceStudents, Channel: model.ChannelEmail},
		&model.MessageSend{ID: uuid.New(), Audience: model.AudienceApplicants, Channel: model.ChannelEmail},
	)

	w, resp := s.do(t, http.MethodGet, "/api/v1/messages/history?audience=students&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sends []model.MessageSend
	require.NoError(t, json.Unmarshal(resp.Data, &sends))
	require.Len(t, sends, 1)
	assert.Equal(t, model.AudienceStudents, sends[0].Audience)

	w, _ = s.do(t, http.MethodGet, "/api/v1/messages/history?audience=students&limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ids, err := ParseIDs(" " + a.String() + ",," + b.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	ids, err = ParseIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
