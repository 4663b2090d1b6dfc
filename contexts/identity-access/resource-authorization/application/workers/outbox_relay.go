package workers

import (
	"context"
	"log/slog"
	"time"

	application "aegis/contexts/identity-access/resource-authorization/application"
	"aegis/contexts/identity-access/resource-authorization/ports"
)

// OutboxRelay drains pending permission-change rows to the event bus.
// It runs in the worker process, not in the serving path.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = "authz.permission_changed"
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("authz outbox list failed",
			"event", "authz_outbox_list_failed",
			"module", "identity-access/resource-authorization",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		envelope := ports.EventEnvelope{
			EventID:   row.OutboxID,
			EventType: row.EventType,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
		}
		if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("authz outbox publish failed",
				"event", "authz_outbox_publish_failed",
				"module", "identity-access/resource-authorization",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", row.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("authz outbox mark published failed",
				"event", "authz_outbox_mark_failed",
				"module", "identity-access/resource-authorization",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("authz outbox relay cycle completed",
			"event", "authz_outbox_relay_completed",
			"module", "identity-access/resource-authorization",
			"layer", "worker",
			"published_count", len(pending),
		)
	}
	return nil
}
