package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"aegis/contexts/identity-access/resource-authorization/adapters/memory"
	"aegis/contexts/identity-access/resource-authorization/domain/entities"
	domainerrors "aegis/contexts/identity-access/resource-authorization/domain/errors"
	"aegis/contexts/identity-access/resource-authorization/ports"
)

func newRevokeUseCase(store *memory.Store) RevokeGrantUseCase {
	return RevokeGrantUseCase{
		Grants:         store,
		Idempotency:    store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: time.Hour,
	}
}

func TestRevokeGrantTombstonesRecord(t *testing.T) {
	store := memory.NewEmptyStore()
	granted, err := newGrantUseCase(store).Execute(context.Background(), GrantAccessCommand{
		UserID:      "user-1",
		Resource:    entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"},
		AccessLevel: entities.AccessReadOnly,
		GrantedBy:   "admin-1",
	})
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	result, err := newRevokeUseCase(store).Execute(context.Background(), RevokeGrantCommand{
		GrantID:   granted.Grant.GrantID,
		RevokedBy: "admin-1",
		Reason:    "offboarding",
	})
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if result.Grant.RevokedAt == nil {
		t.Fatalf("expected tombstone timestamp")
	}

	// History keeps the revoked row; active listings exclude it.
	history, err := store.ListGrants(context.Background(), "user-1", ports.GrantFilter{IncludeRevoked: true})
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected revoked grant in history, got %d rows", len(history))
	}
	active, err := store.ListGrants(context.Background(), "user-1", ports.GrantFilter{})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active grants, got %d", len(active))
	}
}

func TestRevokeGrantUnknownID(t *testing.T) {
	store := memory.NewEmptyStore()

	_, err := newRevokeUseCase(store).Execute(context.Background(), RevokeGrantCommand{
		GrantID: "missing-grant",
	})
	if !errors.Is(err, domainerrors.ErrGrantNotFound) {
		t.Fatalf("expected grant not found, got %v", err)
	}
}

func TestRevokeGrantTwice(t *testing.T) {
	store := memory.NewEmptyStore()
	granted, err := newGrantUseCase(store).Execute(context.Background(), GrantAccessCommand{
		UserID:      "user-2",
		Resource:    entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"},
		AccessLevel: entities.AccessReadOnly,
	})
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	revoke := newRevokeUseCase(store)
	if _, err := revoke.Execute(context.Background(), RevokeGrantCommand{GrantID: granted.Grant.GrantID}); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	_, err = revoke.Execute(context.Background(), RevokeGrantCommand{GrantID: granted.Grant.GrantID})
	if !errors.Is(err, domainerrors.ErrGrantAlreadyRevoked) {
		t.Fatalf("expected already revoked, got %v", err)
	}
}

func TestRevokeGrantIdempotencyReplay(t *testing.T) {
	store := memory.NewEmptyStore()
	granted, err := newGrantUseCase(store).Execute(context.Background(), GrantAccessCommand{
		UserID:      "user-3",
		Resource:    entities.Resource{ResourceType: "mcp_tool", ResourceName: "search"},
		AccessLevel: entities.AccessReadOnly,
	})
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	revoke := newRevokeUseCase(store)
	cmd := RevokeGrantCommand{
		IdempotencyKey: "revoke-replay-1",
		GrantID:        granted.Grant.GrantID,
		RevokedBy:      "admin-1",
	}
	if _, err := revoke.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	second, err := revoke.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replayed revoke failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed response")
	}
}

func TestRegisterPolicyUpsert(t *testing.T) {
	store := memory.NewEmptyStore()
	useCase := RegisterPolicyUseCase{Catalog: store, Clock: store, IDGenerator: store}

	resource := entities.Resource{ResourceType: "gateway_api", ResourceName: "management"}
	first, err := useCase.Execute(context.Background(), RegisterPolicyCommand{
		Resource:             resource,
		RequiredSubscription: entities.TierFree,
		AccessLevel:          entities.AccessReadOnly,
		Description:          "Gateway service information",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if first.AccessLevel != entities.AccessReadOnly {
		t.Fatalf("unexpected stored level: %s", first.AccessLevel)
	}

	// Re-registering the same resource overwrites instead of appending.
	second, err := useCase.Execute(context.Background(), RegisterPolicyCommand{
		Resource:             resource,
		RequiredSubscription: entities.TierPro,
		AccessLevel:          entities.AccessReadWrite,
	})
	if err != nil {
		t.Fatalf("re-register failed: %v", err)
	}
	if second.RequiredSubscription != entities.TierPro {
		t.Fatalf("expected upserted subscription, got %s", second.RequiredSubscription)
	}

	entry, found, err := store.Lookup(context.Background(), resource)
	if err != nil || !found {
		t.Fatalf("lookup failed: found=%v err=%v", found, err)
	}
	if entry.AccessLevel != entities.AccessReadWrite {
		t.Fatalf("expected last write to win, got %s", entry.AccessLevel)
	}

	policies, err := store.ListPolicies(context.Background())
	if err != nil {
		t.Fatalf("list policies failed: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("expected single catalog entry, got %d", len(policies))
	}
}

func TestRegisterPolicyValidation(t *testing.T) {
	store := memory.NewEmptyStore()
	useCase := RegisterPolicyUseCase{Catalog: store, Clock: store, IDGenerator: store}

	_, err := useCase.Execute(context.Background(), RegisterPolicyCommand{
		Resource:             entities.Resource{ResourceName: "management"},
		RequiredSubscription: entities.TierFree,
		AccessLevel:          entities.AccessReadOnly,
	})
	if !errors.Is(err, domainerrors.ErrInvalidResourceType) {
		t.Fatalf("expected invalid resource type, got %v", err)
	}

	_, err = useCase.Execute(context.Background(), RegisterPolicyCommand{
		Resource:             entities.Resource{ResourceType: "gateway_api", ResourceName: "management"},
		RequiredSubscription: entities.SubscriptionTier("platinum"),
		AccessLevel:          entities.AccessReadOnly,
	})
	if !errors.Is(err, domainerrors.ErrInvalidSubscription) {
		t.Fatalf("expected invalid subscription, got %v", err)
	}
}
