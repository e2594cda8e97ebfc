package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/admissions-api/internal/repository"
	"github.com/jwalitptl/admissions-api/pkg/logger"
)

// RetentionWorker prunes published outbox rows past their retention window.
// Send history is pruned only when a message_sends window is configured.
type RetentionWorker struct {
	sends           repository.MessageSendRepository
	outbox          repository.OutboxRepository
	sendRetention   time.Duration
	eventRetention  time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

func NewRetentionWorker(
	sends repository.MessageSendRepository,
	outbox repository.OutboxRepository,
	sendRetention, eventRetention, cleanupInterval time.Duration,
	logger *logger.Logger,
) *RetentionWorker {
	return &RetentionWorker{
		sends:           sends,
		outbox:          outbox,
		sendRetention:   sendRetention,
		eventRetention:  eventRetention,
		cleanupInterval: cleanupInterval,
		logger:          logger,
		now:             time.Now,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Retention cleanup failed")
			}
		}
	}
}

// Cleanup runs one pass. A zero retention disables that table.
func (w *RetentionWorker) Cleanup(ctx context.Context) error {
	now := w.now()

	if w.sendRetention > 0 {
		cutoff := now.Add(-w.sendRetention)
		rows, err := w.sends.DeleteBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to cleanup message sends: %w", err)
		}
		w.logger.Info("Cleaned up message sends", "rows", rows, "cutoff", cutoff)
	}

	if w.eventRetention > 0 {
		cutoff := now.Add(-w.eventRetention)
		rows, err := w.outbox.DeleteProcessedBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to cleanup outbox events: %w", err)
		}
		w.logger.Info("Cleaned up outbox events", "rows", rows, "cutoff", cutoff)
	}
	return nil
}
