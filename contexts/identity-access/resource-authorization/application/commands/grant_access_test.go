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

func newGrantUseCase(store *memory.Store) GrantAccessUseCase {
	return GrantAccessUseCase{
		Grants:         store,
		Idempotency:    store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: time.Hour,
	}
}

func TestGrantAccessCreatesRecordAndOutbox(t *testing.T) {
	store := memory.NewEmptyStore()
	useCase := newGrantUseCase(store)

	result, err := useCase.Execute(context.Background(), GrantAccessCommand{
		UserID:      "user-1",
		Resource:    entities.Resource{ResourceType: "mcp_tool", ResourceName: "tool_execution"},
		AccessLevel: entities.AccessReadWrite,
		GrantedBy:   "admin-1",
		Reason:      "pilot program",
	})
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if result.Grant.GrantID == "" {
		t.Fatalf("expected grant id")
	}
	if result.Grant.PermissionSource != entities.SourceAdminGrant {
		t.Fatalf("expected default permission source, got %s", result.Grant.PermissionSource)
	}
	if result.Replayed {
		t.Fatalf("expected fresh grant, got replay")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("outbox list failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending outbox row, got %d", len(pending))
	}
}

func TestGrantAccessIdempotencyReplay(t *testing.T) {
	store := memory.NewEmptyStore()
	useCase := newGrantUseCase(store)

	cmd := GrantAccessCommand{
		IdempotencyKey: "grant-replay-1",
		UserID:         "user-2",
		Resource:       entities.Resource{ResourceType: "agent_api", ResourceName: "chat"},
		AccessLevel:    entities.AccessReadWrite,
		GrantedBy:      "admin-1",
	}

	first, err := useCase.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first grant failed: %v", err)
	}
	second, err := useCase.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replayed grant failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed response")
	}
	if first.Grant.GrantID != second.Grant.GrantID {
		t.Fatalf("expected same grant id, got %s and %s", first.Grant.GrantID, second.Grant.GrantID)
	}

	grants, err := store.ListGrants(context.Background(), "user-2", ports.GrantFilter{})
	if err != nil {
		t.Fatalf("list grants failed: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected single stored grant, got %d", len(grants))
	}
}

func TestGrantAccessIdempotencyConflict(t *testing.T) {
	store := memory.NewEmptyStore()
	useCase := newGrantUseCase(store)

	_, err := useCase.Execute(context.Background(), GrantAccessCommand{
		IdempotencyKey: "grant-conflict-1",
		UserID:         "user-3",
		Resource:       entities.Resource{ResourceType: "agent_api", ResourceName: "chat"},
		AccessLevel:    entities.AccessReadOnly,
	})
	if err != nil {
		t.Fatalf("first grant failed: %v", err)
	}

	_, err = useCase.Execute(context.Background(), GrantAccessCommand{
		IdempotencyKey: "grant-conflict-1",
		UserID:         "user-3",
		Resource:       entities.Resource{ResourceType: "agent_api", ResourceName: "chat"},
		AccessLevel:    entities.AccessReadWrite,
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestGrantAccessValidation(t *testing.T) {
	store := memory.NewEmptyStore()
	useCase := newGrantUseCase(store)

	_, err := useCase.Execute(context.Background(), GrantAccessCommand{
		Resource:    entities.Resource{ResourceType: "agent_api", ResourceName: "chat"},
		AccessLevel: entities.AccessReadOnly,
	})
	if !errors.Is(err, domainerrors.ErrInvalidUserID) {
		t.Fatalf("expected invalid user id, got %v", err)
	}

	_, err = useCase.Execute(context.Background(), GrantAccessCommand{
		UserID:      "user-4",
		Resource:    entities.Resource{ResourceType: "agent_api", ResourceName: "chat"},
		AccessLevel: entities.AccessLevel("superuser"),
	})
	if !errors.Is(err, domainerrors.ErrInvalidAccessLevel) {
		t.Fatalf("expected invalid access level, got %v", err)
	}
}
