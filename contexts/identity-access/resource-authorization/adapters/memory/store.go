package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"aegis/contexts/identity-access/resource-authorization/domain/entities"
	domainerrors "aegis/contexts/identity-access/resource-authorization/domain/errors"
	"aegis/contexts/identity-access/resource-authorization/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the grant store, policy
// catalog, idempotency, and outbox ports. It is intended for tests and
// local development wiring. One mutex guards all state, so a concurrent
// check observes the store before or after a mutation, never mid-record.
type Store struct {
	mu sync.RWMutex

	grants   map[string]entities.GrantRecord
	policies map[string]entities.PolicyEntry

	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRow
}

type outboxRow struct {
	ports.OutboxMessage
	PublishedAt *time.Time
}

// NewStore builds an in-memory adapter seeded with the default resource
// catalog: the policy rows an administrator would register on a fresh
// deployment.
func NewStore() *Store {
	defaults := []entities.PolicyEntry{
		{Resource: entities.Resource{ResourceType: "blockchain_api", ResourceName: "status"}, RequiredSubscription: entities.TierFree, AccessLevel: entities.AccessReadOnly, Description: "Blockchain status check"},
		{Resource: entities.Resource{ResourceType: "blockchain_api", ResourceName: "balance_check"}, RequiredSubscription: entities.TierFree, AccessLevel: entities.AccessReadOnly, Description: "Check wallet balance"},
		{Resource: entities.Resource{ResourceType: "blockchain_api", ResourceName: "transaction"}, RequiredSubscription: entities.TierPro, AccessLevel: entities.AccessReadWrite, Description: "Create blockchain transactions"},
		{Resource: entities.Resource{ResourceType: "agent_api", ResourceName: "chat"}, RequiredSubscription: entities.TierFree, AccessLevel: entities.AccessReadWrite, Description: "AI chat functionality"},
		{Resource: entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"}, RequiredSubscription: entities.TierFree, AccessLevel: entities.AccessReadOnly, Description: "MCP search functionality"},
		{Resource: entities.Resource{ResourceType: "mcp_tool", ResourceName: "tool_execution"}, RequiredSubscription: entities.TierPro, AccessLevel: entities.AccessReadWrite, Description: "Execute MCP tools"},
		{Resource: entities.Resource{ResourceType: "mcp_tool", ResourceName: "prompt_access"}, RequiredSubscription: entities.TierFree, AccessLevel: entities.AccessReadOnly, Description: "Access MCP prompts"},
		{Resource: entities.Resource{ResourceType: "gateway_api", ResourceName: "management"}, RequiredSubscription: entities.TierFree, AccessLevel: entities.AccessReadOnly, Description: "Gateway service information"},
	}

	policies := make(map[string]entities.PolicyEntry, len(defaults))
	for _, entry := range defaults {
		policies[entry.Resource.Key()] = entry
	}
	return &Store{
		grants:      make(map[string]entities.GrantRecord),
		policies:    policies,
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRow),
	}
}

// NewEmptyStore builds an adapter with no seeded catalog entries.
func NewEmptyStore() *Store {
	store := NewStore()
	store.policies = make(map[string]entities.PolicyEntry)
	return store
}

func (s *Store) Grant(_ context.Context, input ports.GrantInput) (entities.GrantRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant := entities.GrantRecord{
		GrantID:          input.GrantID,
		UserID:           input.UserID,
		Resource:         input.Resource,
		AccessLevel:      input.AccessLevel,
		PermissionSource: input.PermissionSource,
		GrantedBy:        input.GrantedBy,
		Reason:           input.Reason,
		GrantedAt:        input.GrantedAt.UTC(),
	}
	s.grants[grant.GrantID] = grant

	payload, err := json.Marshal(map[string]string{
		"user_id":       input.UserID,
		"resource_type": input.Resource.ResourceType,
		"resource_name": input.Resource.ResourceName,
		"access_level":  string(input.AccessLevel),
		"action_type":   "access_granted",
	})
	if err != nil {
		return entities.GrantRecord{}, err
	}
	if err := s.appendOutbox(input.OutboxID, "authz.permission_changed", payload, input.GrantedAt.UTC()); err != nil {
		return entities.GrantRecord{}, err
	}
	return grant, nil
}

// ListGrants returns the user's grants ordered by granted_at descending.
// Empty filter resource fields match everything; revoked grants are only
// included when the filter asks for them.
func (s *Store) ListGrants(_ context.Context, userID string, filter ports.GrantFilter) ([]entities.GrantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.GrantRecord, 0)
	for _, grant := range s.grants {
		if grant.UserID != userID {
			continue
		}
		if filter.Resource.ResourceType != "" && grant.Resource.ResourceType != filter.Resource.ResourceType {
			continue
		}
		if filter.Resource.ResourceName != "" && grant.Resource.ResourceName != filter.Resource.ResourceName {
			continue
		}
		if grant.IsRevoked() && !filter.IncludeRevoked {
			continue
		}
		items = append(items, grant)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].GrantedAt.After(items[j].GrantedAt)
	})
	return items, nil
}

func (s *Store) Revoke(_ context.Context, input ports.RevokeInput) (entities.GrantRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[input.GrantID]
	if !ok {
		return entities.GrantRecord{}, domainerrors.ErrGrantNotFound
	}
	if grant.IsRevoked() {
		return entities.GrantRecord{}, domainerrors.ErrGrantAlreadyRevoked
	}

	revokedAt := input.RevokedAt.UTC()
	grant.RevokedAt = &revokedAt
	s.grants[input.GrantID] = grant

	payload, err := json.Marshal(map[string]string{
		"user_id":       grant.UserID,
		"resource_type": grant.Resource.ResourceType,
		"resource_name": grant.Resource.ResourceName,
		"grant_id":      grant.GrantID,
		"action_type":   "access_revoked",
	})
	if err != nil {
		return entities.GrantRecord{}, err
	}
	if err := s.appendOutbox(input.OutboxID, "authz.permission_changed", payload, revokedAt); err != nil {
		return entities.GrantRecord{}, err
	}
	return grant, nil
}

// Register upserts the catalog entry for its resource. Last write wins.
func (s *Store) Register(_ context.Context, entry entities.PolicyEntry, outboxID string) (entities.PolicyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.UpdatedAt = entry.UpdatedAt.UTC()
	s.policies[entry.Resource.Key()] = entry

	payload, err := json.Marshal(map[string]string{
		"resource_type": entry.Resource.ResourceType,
		"resource_name": entry.Resource.ResourceName,
		"action_type":   "policy_registered",
	})
	if err != nil {
		return entities.PolicyEntry{}, err
	}
	if err := s.appendOutbox(outboxID, "authz.permission_changed", payload, entry.UpdatedAt); err != nil {
		return entities.PolicyEntry{}, err
	}
	return entry, nil
}

func (s *Store) Lookup(_ context.Context, resource entities.Resource) (entities.PolicyEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.policies[resource.Key()]
	return entry, ok, nil
}

func (s *Store) ListPolicies(_ context.Context) ([]entities.PolicyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.PolicyEntry, 0, len(s.policies))
	for _, entry := range s.policies {
		items = append(items, entry)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Resource.Key() < items[j].Resource.Key()
	})
	return items, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.idempotency[record.Key]
	if exists && existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.PublishedAt == nil {
			rows = append(rows, row.OutboxMessage)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[outboxID]
	if !ok {
		return errors.New("outbox record not found")
	}
	value := publishedAt.UTC()
	row.PublishedAt = &value
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) appendOutbox(outboxID string, eventType string, payload []byte, createdAt time.Time) error {
	if _, exists := s.outbox[outboxID]; exists {
		return domainerrors.ErrIdempotencyConflict
	}
	s.outbox[outboxID] = outboxRow{
		OutboxMessage: ports.OutboxMessage{
			OutboxID:  outboxID,
			EventType: eventType,
			Payload:   append([]byte(nil), payload...),
			CreatedAt: createdAt,
		},
	}
	return nil
}
