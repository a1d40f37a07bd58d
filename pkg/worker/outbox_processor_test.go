package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/pkg/logger"
	"github.com/careloop/booking-api/pkg/metrics"
)

type fakeOutboxRepo struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]*time.Time
}

func newFakeOutboxRepo(events ...*model.OutboxEvent) *fakeOutboxRepo {
	return &fakeOutboxRepo{
		pending: events,
		failed:  make(map[uuid.UUID]*time.Time),
	}
}

func (r *fakeOutboxRepo) Create(_ context.Context, _ *model.OutboxEvent) error { return nil }

func (r *fakeOutboxRepo) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.processed = append(r.processed, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, _ string, retryAt *time.Time) error {
	r.failed[id] = retryAt
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeBroker struct {
	published []string
	fail      bool
}

func (b *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if b.fail {
		return errors.New("broker down")
	}
	b.published = append(b.published, channel)
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

type fakeHandler struct {
	handled []uuid.UUID
	fail    bool
}

func (h *fakeHandler) HandleEvent(_ context.Context, evt *model.OutboxEvent) error {
	if h.fail {
		return errors.New("handler failed")
	}
	h.handled = append(h.handled, evt.ID)
	return nil
}

func newProcessor(repo *fakeOutboxRepo, broker *fakeBroker, handler *fakeHandler, cfg OutboxProcessorConfig) *OutboxProcessor {
	m := metrics.NewWith("test_worker", prometheus.NewRegistry())
	return NewOutboxProcessor(repo, broker, handler, cfg, logger.NewLogger(nil), m)
}

func pendingEvent() *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventAppointmentCreated,
		Payload:   []byte(`{}`),
		Status:    model.OutboxStatusPending,
	}
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	evt := pendingEvent()
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{}
	handler := &fakeHandler{}
	p := newProcessor(repo, broker, handler, OutboxProcessorConfig{})

	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, []string{model.EventAppointmentCreated}, broker.published)
	assert.Equal(t, []uuid.UUID{evt.ID}, handler.handled)
	assert.Equal(t, []uuid.UUID{evt.ID}, repo.processed)
	assert.Empty(t, repo.failed)
}

func TestProcessEventSchedulesRetry(t *testing.T) {
	evt := pendingEvent()
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{fail: true}
	p := newProcessor(repo, broker, &fakeHandler{}, OutboxProcessorConfig{
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
	})

	require.NoError(t, p.processEvents(context.Background()))

	retryAt, ok := repo.failed[evt.ID]
	require.True(t, ok)
	require.NotNil(t, retryAt, "first failure schedules a retry")
	assert.WithinDuration(t, time.Now().Add(time.Minute), *retryAt, 5*time.Second)
	assert.Empty(t, repo.processed)
}

func TestProcessEventExhaustsRetryBudget(t *testing.T) {
	evt := pendingEvent()
	evt.RetryCount = 2
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{fail: true}
	p := newProcessor(repo, broker, &fakeHandler{}, OutboxProcessorConfig{
		RetryAttempts: 3,
	})

	require.NoError(t, p.processEvents(context.Background()))

	retryAt, ok := repo.failed[evt.ID]
	require.True(t, ok)
	assert.Nil(t, retryAt, "final failure is terminal")
}

func TestHandlerFailureCountsAgainstRetries(t *testing.T) {
	evt := pendingEvent()
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{}
	handler := &fakeHandler{fail: true}
	p := newProcessor(repo, broker, handler, OutboxProcessorConfig{})

	require.NoError(t, p.processEvents(context.Background()))

	// Published, but the handler failure keeps it pending for retry.
	assert.Len(t, broker.published, 1)
	assert.Empty(t, repo.processed)
	_, ok := repo.failed[evt.ID]
	assert.True(t, ok)
}

func TestBatchSizeLimit(t *testing.T) {
	var events []*model.OutboxEvent
	for i := 0; i < 5; i++ {
		events = append(events, pendingEvent())
	}
	repo := newFakeOutboxRepo(events...)
	broker := &fakeBroker{}
	p := newProcessor(repo, broker, &fakeHandler{}, OutboxProcessorConfig{BatchSize: 2})

	require.NoError(t, p.processEvents(context.Background()))
	assert.Len(t, repo.processed, 2)
}
