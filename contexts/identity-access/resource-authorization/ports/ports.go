package ports

import (
	"context"
	"time"

	"aegis/contexts/identity-access/resource-authorization/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for grant/outbox rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// GrantInput is persisted atomically with its outbox record.
type GrantInput struct {
	GrantID          string
	OutboxID         string
	UserID           string
	Resource         entities.Resource
	AccessLevel      entities.AccessLevel
	PermissionSource string
	GrantedBy        string
	Reason           string
	GrantedAt        time.Time
}

// RevokeInput captures tombstone metadata for an existing grant.
type RevokeInput struct {
	GrantID   string
	OutboxID  string
	RevokedBy string
	Reason    string
	RevokedAt time.Time
}

// GrantFilter narrows grant listings. Zero values mean no filtering.
type GrantFilter struct {
	Resource       entities.Resource
	IncludeRevoked bool
}

// GrantStore is the append-only permission record boundary. History is
// never overwritten; revocation writes a tombstone on the target row.
type GrantStore interface {
	Grant(ctx context.Context, input GrantInput) (entities.GrantRecord, error)
	ListGrants(ctx context.Context, userID string, filter GrantFilter) ([]entities.GrantRecord, error)
	Revoke(ctx context.Context, input RevokeInput) (entities.GrantRecord, error)
}

// PolicyCatalog maps resources to their default access rule. Register is
// an idempotent upsert keyed by resource; last committed write wins.
type PolicyCatalog interface {
	Register(ctx context.Context, entry entities.PolicyEntry, outboxID string) (entities.PolicyEntry, error)
	Lookup(ctx context.Context, resource entities.Resource) (entities.PolicyEntry, bool, error)
	ListPolicies(ctx context.Context) ([]entities.PolicyEntry, error)
}

// IdempotencyRecord stores request hash and previous response payload.
type IdempotencyRecord struct {
	Key             string
	Operation       string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

// IdempotencyStore guarantees replay/conflict behavior for mutating
// endpoints that send an idempotency key.
type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

// OutboxMessage represents a pending relay message.
type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxRepository supports worker relay polling and acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventEnvelope is the payload shape handed to the event bus.
type EventEnvelope struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// EventPublisher emits permission change events to the bus adapter.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
