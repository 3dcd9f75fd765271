package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
	"github.com/pawtrail/petcare-api/pkg/logger"
	"github.com/pawtrail/petcare-api/pkg/messaging"
	"github.com/pawtrail/petcare-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// RetainProcessed controls how long processed rows are kept before
	// the cleanup pass deletes them.
	RetainProcessed time.Duration
}

// OutboxProcessor drains pending outbox events to the message broker.
// Events that keep failing past MaxRetries move to the dead letter
// table rather than blocking the queue.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		panic("MaxRetries must be greater than 0")
	}
	if config.RetryBackoff <= 0 {
		panic("RetryBackoff must be greater than 0")
	}
	if config.RetainProcessed <= 0 {
		config.RetainProcessed = 7 * 24 * time.Hour
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process events")
			}
		case <-cleanup.C:
			if n, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.RetainProcessed)); err != nil {
				p.logger.Error(err, "failed to clean up processed events")
			} else if n > 0 {
				p.logger.Info("cleaned up processed events", "deleted", n)
			}
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEventsWithLock(ctx, p.config.BatchSize)
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
	if err := p.broker.Publish(ctx, evt.EventType, evt.Payload); err != nil {
		return p.handleFailure(ctx, evt, err)
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.UpdateStatusTx(ctx, nil, evt.ID, string(model.OutboxStatusProcessed), nil, nil); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// handleFailure schedules a retry with linear backoff, or moves the
// event to the dead letter table once retries are exhausted.
func (p *OutboxProcessor) handleFailure(ctx context.Context, evt *model.OutboxEvent, pubErr error) error {
	p.metrics.OutboxEventsFailed.Inc()
	errStr := pubErr.Error()

	if evt.RetryCount+1 < p.config.MaxRetries {
		p.metrics.OutboxRetries.WithLabelValues(evt.EventType).Inc()
		retryAt := time.Now().Add(p.config.RetryBackoff * time.Duration(evt.RetryCount+1))
		if err := p.repo.UpdateStatusTx(ctx, nil, evt.ID, string(model.OutboxStatusRetry), &errStr, &retryAt); err != nil {
			return fmt.Errorf("failed to schedule retry: %w", err)
		}
		return pubErr
	}

	tx, err := p.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin dead letter tx: %w", err)
	}
	defer tx.Rollback()

	evt.ErrorMessage = &errStr
	if err := p.repo.MoveToDeadLetter(ctx, tx, evt); err != nil {
		return fmt.Errorf("failed to move event to dead letter: %w", err)
	}
	if err := p.repo.UpdateStatusTx(ctx, tx, evt.ID, string(model.OutboxStatusFailed), &errStr, nil); err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dead letter tx: %w", err)
	}
	return pubErr
}
