package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/repository"
	"github.com/careloop/booking-api/pkg/logger"
	"github.com/careloop/booking-api/pkg/messaging"
	"github.com/careloop/booking-api/pkg/metrics"
)

// EventHandler consumes an outbox event after it has been published.
type EventHandler interface {
	HandleEvent(ctx context.Context, evt *model.OutboxEvent) error
}

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// OutboxProcessor drains pending outbox events: each event is
// published to the broker channel and handed to the handler. Failures
// are retried with a delay until the retry budget runs out, then the
// event is marked FAILED.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	handler EventHandler
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	handler EventHandler,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 30 * time.Second
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		handler: handler,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox events")
			}
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, evt := range events {
		if err := p.processEvent(ctx, evt); err != nil {
			p.logger.Error(err, "failed to process event",
				"event_id", evt.ID.String(),
				"event_type", evt.EventType)
		}
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, evt *model.OutboxEvent) error {
	err := p.dispatch(ctx, evt)
	if err != nil {
		errStr := err.Error()
		if evt.RetryCount+1 >= p.config.RetryAttempts {
			p.metrics.OutboxEventsFailed.Inc()
			if updateErr := p.repo.MarkFailed(ctx, evt.ID, errStr, nil); updateErr != nil {
				p.logger.Error(updateErr, "failed to update event status")
			}
			return err
		}
		retryAt := time.Now().Add(p.config.RetryDelay)
		if updateErr := p.repo.MarkFailed(ctx, evt.ID, errStr, &retryAt); updateErr != nil {
			p.logger.Error(updateErr, "failed to update event status")
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	return p.repo.MarkProcessed(ctx, evt.ID)
}

func (p *OutboxProcessor) dispatch(ctx context.Context, evt *model.OutboxEvent) error {
	if err := p.broker.Publish(ctx, evt.EventType, evt.Payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if p.handler != nil {
		if err := p.handler.HandleEvent(ctx, evt); err != nil {
			return fmt.Errorf("failed to handle event: %w", err)
		}
	}
	return nil
}
