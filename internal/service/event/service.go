package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
	"github.com/pawtrail/petcare-api/pkg/logger"
)

// Service writes domain events to the outbox table for the worker to
// publish. Emission is best-effort: a failed outbox write is logged and
// reported to the caller, who decides whether it fails the operation.
type Service struct {
	outbox repository.OutboxRepository
	logger *logger.Logger
}

func NewService(outbox repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{outbox: outbox, logger: logger}
}

// Emit marshals payload and enqueues an outbox event of the given type.
func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}
	if err := s.outbox.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to enqueue outbox event", "event_type", eventType)
		return fmt.Errorf("failed to enqueue event: %w", err)
	}
	return nil
}
