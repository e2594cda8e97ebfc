package worker

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/pkg/logger"
	"github.com/jwalitptl/admissions-api/pkg/messaging"
	"github.com/jwalitptl/admissions-api/pkg/metrics"
)

// txDriver hands out transactions that do nothing, so the processor's
// transaction handling runs without a database.
type txDriver struct{}

func (txDriver) Open(string) (driver.Conn, error) { return txConn{}, nil }

type txConn struct{}

func (txConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (txConn) Close() error                        { return nil }
func (txConn) Begin() (driver.Tx, error)           { return nopTx{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

func init() {
	sql.Register("outbox-test", txDriver{})
}

type update struct {
	status  model.OutboxStatus
	errMsg  *string
	retryAt *time.Time
}

type fakeOutbox struct {
	db      *sql.DB
	pending []*model.OutboxEvent
	updates map[uuid.UUID]update
	listErr error
}

func newFakeOutbox(t *testing.T, events ...*model.OutboxEvent) *fakeOutbox {
	db, err := sql.Open("outbox-test", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &fakeOutbox{db: db, pending: events, updates: map[uuid.UUID]update{}}
}

func (f *fakeOutbox) Create(ctx context.Context, event *model.OutboxEvent) error {
	f.pending = append(f.pending, event)
	return nil
}

func (f *fakeOutbox) GetPendingEventsWithLock(ctx context.Context, tx *sql.Tx, limit int) ([]*model.OutboxEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutbox) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return f.db.BeginTx(ctx, nil)
}

func (f *fakeOutbox) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	f.updates[id] = update{status: status, errMsg: errorMessage, retryAt: retryAt}
	return nil
}

func (f *fakeOutbox) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func event(t *testing.T, retries int) *model.OutboxEvent {
	e, err := model.NewOutboxEvent(model.EventStudentCreated, map[string]string{"matricula": "UFN-2026-001"})
	require.NoError(t, err)
	e.ID = uuid.New()
	e.RetryCount = retries
	return e
}

var testConfig = OutboxProcessorConfig{
	BatchSize:     10,
	PollInterval:  time.Second,
	RetryAttempts: 3,
	RetryDelay:    time.Second,
}

func newProcessor(t *testing.T, repo *fakeOutbox, broker messaging.Broker) (*OutboxProcessor, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewWithRegistry("test", prometheus.NewRegistry())
	p, err := NewOutboxProcessor(repo, broker, testConfig, logger.Nop(), m)
	require.NoError(t, err)
	p.sleep = func(time.Duration) {}
	return p, m
}

func TestProcessOnce_PublishesEnvelopes(t *testing.T) {
	e := event(t, 0)
	repo := newFakeOutbox(t, e)
	broker := messaging.NewMemoryBroker()
	p, m := newProcessor(t, repo, broker)

	require.NoError(t, p.ProcessOnce(context.Background()))

	published := broker.Published(Channel)
	require.Len(t, published, 1)
	env := published[0].(messaging.Envelope)
	assert.Equal(t, e.ID.String(), env.ID)
	assert.Equal(t, model.EventStudentCreated, env.Type)
	assert.JSONEq(t, `{"matricula":"UFN-2026-001"}`, string(env.Payload.(json.RawMessage)))

	assert.Equal(t, model.OutboxStatusProcessed, repo.updates[e.ID].status)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxEventsProcessed))
}

func TestProcessOnce_SchedulesRetry(t *testing.T) {
	e := event(t, 0)
	repo := newFakeOutbox(t, e)
	broker := messaging.NewMemoryBroker()
	broker.Fail = errors.New("connection refused")
	p, m := newProcessor(t, repo, broker)

	before := time.Now()
	require.NoError(t, p.ProcessOnce(context.Background()))

	u := repo.updates[e.ID]
	assert.Equal(t, model.OutboxStatusRetry, u.status)
	require.NotNil(t, u.errMsg)
	assert.Equal(t, "connection refused", *u.errMsg)
	require.NotNil(t, u.retryAt)
	assert.True(t, u.retryAt.After(before))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OutboxRetries.WithLabelValues(model.EventStudentCreated)))
}

func TestProcessOnce_GivesUpAfterMaxRetries(t *testing.T) {
	e := event(t, MaxRetries-1)
	repo := newFakeOutbox(t, e)
	broker := messaging.NewMemoryBroker()
	broker.Fail = errors.New("connection refused")
	p, _ := newProcessor(t, repo, broker)

	require.NoError(t, p.ProcessOnce(context.Background()))

	u := repo.updates[e.ID]
	assert.Equal(t, model.OutboxStatusFailed, u.status)
	assert.Nil(t, u.retryAt)
}

func TestProcessOnce_ListFailure(t *testing.T) {
	repo := newFakeOutbox(t)
	repo.listErr = errors.New("relation does not exist")
	p, _ := newProcessor(t, repo, messaging.NewMemoryBroker())

	err := p.ProcessOnce(context.Background())
	assert.ErrorContains(t, err, "failed to get pending events")
}

func TestNewOutboxProcessor_RejectsBadConfig(t *testing.T) {
	m := metrics.NewWithRegistry("test", prometheus.NewRegistry())
	bad := testConfig
	bad.PollInterval = 0
	_, err := NewOutboxProcessor(newFakeOutbox(t), messaging.NewMemoryBroker(), bad, logger.Nop(), m)
	assert.Error(t, err)
}
