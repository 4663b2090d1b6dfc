package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"aegis/contexts/identity-access/resource-authorization/domain/entities"
	domainerrors "aegis/contexts/identity-access/resource-authorization/domain/errors"
	"aegis/contexts/identity-access/resource-authorization/ports"
)

func appendGrant(t *testing.T, store *Store, grantID string, userID string, resource entities.Resource, level entities.AccessLevel, grantedAt time.Time) {
	t.Helper()
	_, err := store.Grant(context.Background(), ports.GrantInput{
		GrantID:     grantID,
		OutboxID:    grantID + "-outbox",
		UserID:      userID,
		Resource:    resource,
		AccessLevel: level,
		GrantedAt:   grantedAt,
	})
	if err != nil {
		t.Fatalf("grant %s failed: %v", grantID, err)
	}
}

func TestStoreSeedsDefaultCatalog(t *testing.T) {
	store := NewStore()

	policies, err := store.ListPolicies(context.Background())
	if err != nil {
		t.Fatalf("list policies failed: %v", err)
	}
	if len(policies) != 8 {
		t.Fatalf("expected 8 seeded policies, got %d", len(policies))
	}

	entry, found, err := store.Lookup(context.Background(), entities.Resource{
		ResourceType: "blockchain_api",
		ResourceName: "transaction",
	})
	if err != nil || !found {
		t.Fatalf("lookup failed: found=%v err=%v", found, err)
	}
	if entry.RequiredSubscription != entities.TierPro || entry.AccessLevel != entities.AccessReadWrite {
		t.Fatalf("unexpected seeded entry: %+v", entry)
	}
}

func TestStoreListGrantsNewestFirst(t *testing.T) {
	store := NewEmptyStore()
	resource := entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"}
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	appendGrant(t, store, "grant-old", "user-1", resource, entities.AccessReadOnly, base)
	appendGrant(t, store, "grant-new", "user-1", resource, entities.AccessReadWrite, base.Add(time.Hour))

	grants, err := store.ListGrants(context.Background(), "user-1", ports.GrantFilter{})
	if err != nil {
		t.Fatalf("list grants failed: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(grants))
	}
	if grants[0].GrantID != "grant-new" || grants[1].GrantID != "grant-old" {
		t.Fatalf("expected newest first, got %s then %s", grants[0].GrantID, grants[1].GrantID)
	}
}

func TestStoreListGrantsResourceFilter(t *testing.T) {
	store := NewEmptyStore()
	now := time.Now().UTC()

	appendGrant(t, store, "grant-a", "user-1", entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"}, entities.AccessReadOnly, now)
	appendGrant(t, store, "grant-b", "user-1", entities.Resource{ResourceType: "agent_api", ResourceName: "chat"}, entities.AccessReadOnly, now)
	appendGrant(t, store, "grant-c", "user-2", entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"}, entities.AccessReadOnly, now)

	grants, err := store.ListGrants(context.Background(), "user-1", ports.GrantFilter{
		Resource: entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"},
	})
	if err != nil {
		t.Fatalf("list grants failed: %v", err)
	}
	if len(grants) != 1 || grants[0].GrantID != "grant-a" {
		t.Fatalf("unexpected filter result: %+v", grants)
	}
}

func TestStoreRevokeKeepsHistory(t *testing.T) {
	store := NewEmptyStore()
	resource := entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"}
	appendGrant(t, store, "grant-1", "user-1", resource, entities.AccessReadOnly, time.Now().UTC())

	revoked, err := store.Revoke(context.Background(), ports.RevokeInput{
		GrantID:   "grant-1",
		OutboxID:  "revoke-1-outbox",
		RevokedBy: "admin-1",
		RevokedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if !revoked.IsRevoked() {
		t.Fatalf("expected tombstoned record")
	}

	active, err := store.ListGrants(context.Background(), "user-1", ports.GrantFilter{})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected 0 active grants, got %d", len(active))
	}
	history, err := store.ListGrants(context.Background(), "user-1", ports.GrantFilter{IncludeRevoked: true})
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 1 || !history[0].IsRevoked() {
		t.Fatalf("expected revoked row in history: %+v", history)
	}
}

func TestStoreRevokeErrors(t *testing.T) {
	store := NewEmptyStore()

	_, err := store.Revoke(context.Background(), ports.RevokeInput{GrantID: "missing", OutboxID: "o-1"})
	if !errors.Is(err, domainerrors.ErrGrantNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	appendGrant(t, store, "grant-1", "user-1", entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"}, entities.AccessReadOnly, time.Now().UTC())
	if _, err := store.Revoke(context.Background(), ports.RevokeInput{GrantID: "grant-1", OutboxID: "o-2", RevokedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	_, err = store.Revoke(context.Background(), ports.RevokeInput{GrantID: "grant-1", OutboxID: "o-3", RevokedAt: time.Now().UTC()})
	if !errors.Is(err, domainerrors.ErrGrantAlreadyRevoked) {
		t.Fatalf("expected already revoked, got %v", err)
	}
}

func TestStoreIdempotencyRecordExpiry(t *testing.T) {
	store := NewEmptyStore()
	now := time.Now().UTC()

	if err := store.PutRecord(context.Background(), ports.IdempotencyRecord{
		Key:         "key-1",
		Operation:   "grant_access",
		RequestHash: "hash-1",
		ExpiresAt:   now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("put record failed: %v", err)
	}

	_, found, err := store.GetRecord(context.Background(), "key-1", now)
	if err != nil || !found {
		t.Fatalf("expected live record: found=%v err=%v", found, err)
	}

	_, found, err = store.GetRecord(context.Background(), "key-1", now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("get after expiry failed: %v", err)
	}
	if found {
		t.Fatalf("expected expired record to be dropped")
	}
}

func TestStoreOutboxLifecycle(t *testing.T) {
	store := NewEmptyStore()
	resource := entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"}
	appendGrant(t, store, "grant-1", "user-1", resource, entities.AccessReadOnly, time.Now().UTC())

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending row, got %d", len(pending))
	}

	if err := store.MarkOutboxPublished(context.Background(), pending[0].OutboxID, time.Now().UTC()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending after publish failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %d rows", len(pending))
	}
}
