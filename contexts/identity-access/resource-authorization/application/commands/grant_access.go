package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "aegis/contexts/identity-access/resource-authorization/application"
	"aegis/contexts/identity-access/resource-authorization/domain/entities"
	domainerrors "aegis/contexts/identity-access/resource-authorization/domain/errors"
	"aegis/contexts/identity-access/resource-authorization/ports"
)

// GrantAccessCommand contains transport-agnostic input for a new grant.
// IdempotencyKey is optional; a grant without one always appends.
type GrantAccessCommand struct {
	IdempotencyKey   string
	UserID           string
	Resource         entities.Resource
	AccessLevel      entities.AccessLevel
	PermissionSource string
	GrantedBy        string
	Reason           string
}

// GrantAccessResult captures the created record and replay status.
type GrantAccessResult struct {
	Grant    entities.GrantRecord `json:"grant"`
	Replayed bool                 `json:"replayed"`
}

// GrantAccessUseCase coordinates validated, append-only grant creation.
type GrantAccessUseCase struct {
	Grants         ports.GrantStore
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Execute validates command input, enforces idempotency when a key is
// present, and appends the grant with its outbox record.
func (u GrantAccessUseCase) Execute(ctx context.Context, cmd GrantAccessCommand) (GrantAccessResult, error) {
	logger := application.ResolveLogger(u.Logger)
	logger.Info("grant access started",
		"event", "authz_grant_started",
		"module", "identity-access/resource-authorization",
		"layer", "application",
		"user_id", cmd.UserID,
		"resource", cmd.Resource.Key(),
		"access_level", string(cmd.AccessLevel),
	)

	if strings.TrimSpace(cmd.UserID) == "" {
		return GrantAccessResult{}, domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(cmd.Resource.ResourceType) == "" {
		return GrantAccessResult{}, domainerrors.ErrInvalidResourceType
	}
	if strings.TrimSpace(cmd.Resource.ResourceName) == "" {
		return GrantAccessResult{}, domainerrors.ErrInvalidResourceName
	}
	if !cmd.AccessLevel.IsValid() {
		return GrantAccessResult{}, domainerrors.ErrInvalidAccessLevel
	}
	if strings.TrimSpace(cmd.PermissionSource) == "" {
		cmd.PermissionSource = entities.SourceAdminGrant
	}

	now := u.now()

	var idempotencyKey, requestHash string
	if strings.TrimSpace(cmd.IdempotencyKey) != "" {
		hash, err := hashRequest(struct {
			UserID           string `json:"user_id"`
			ResourceType     string `json:"resource_type"`
			ResourceName     string `json:"resource_name"`
			AccessLevel      string `json:"access_level"`
			PermissionSource string `json:"permission_source"`
			GrantedBy        string `json:"granted_by"`
			Reason           string `json:"reason"`
		}{
			UserID:           cmd.UserID,
			ResourceType:     cmd.Resource.ResourceType,
			ResourceName:     cmd.Resource.ResourceName,
			AccessLevel:      string(cmd.AccessLevel),
			PermissionSource: cmd.PermissionSource,
			GrantedBy:        cmd.GrantedBy,
			Reason:           cmd.Reason,
		})
		if err != nil {
			return GrantAccessResult{}, err
		}
		requestHash = hash
		idempotencyKey = "authz_grant:" + cmd.IdempotencyKey

		existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
		if err != nil {
			logger.Error("grant idempotency lookup failed",
				"event", "authz_grant_idempotency_get_failed",
				"module", "identity-access/resource-authorization",
				"layer", "application",
				"user_id", cmd.UserID,
				"resource", cmd.Resource.Key(),
				"error", err.Error(),
			)
			return GrantAccessResult{}, err
		}
		if found {
			if existing.RequestHash != requestHash {
				return GrantAccessResult{}, domainerrors.ErrIdempotencyConflict
			}
			var replay GrantAccessResult
			if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
				return GrantAccessResult{}, err
			}
			replay.Replayed = true
			logger.Info("grant access replayed",
				"event", "authz_grant_replayed",
				"module", "identity-access/resource-authorization",
				"layer", "application",
				"user_id", cmd.UserID,
				"resource", cmd.Resource.Key(),
			)
			return replay, nil
		}
	}

	grantID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return GrantAccessResult{}, err
	}
	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return GrantAccessResult{}, err
	}

	grant, err := u.Grants.Grant(ctx, ports.GrantInput{
		GrantID:          grantID,
		OutboxID:         outboxID,
		UserID:           cmd.UserID,
		Resource:         cmd.Resource,
		AccessLevel:      cmd.AccessLevel,
		PermissionSource: cmd.PermissionSource,
		GrantedBy:        cmd.GrantedBy,
		Reason:           cmd.Reason,
		GrantedAt:        now,
	})
	if err != nil {
		logger.Error("grant write failed",
			"event", "authz_grant_write_failed",
			"module", "identity-access/resource-authorization",
			"layer", "application",
			"user_id", cmd.UserID,
			"resource", cmd.Resource.Key(),
			"error", err.Error(),
		)
		return GrantAccessResult{}, err
	}

	result := GrantAccessResult{Grant: grant}
	if idempotencyKey != "" {
		responsePayload, err := json.Marshal(result)
		if err != nil {
			return GrantAccessResult{}, err
		}
		if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
			Key:             idempotencyKey,
			Operation:       "grant_access",
			RequestHash:     requestHash,
			ResponsePayload: responsePayload,
			ExpiresAt:       now.Add(u.idempotencyTTL()),
		}); err != nil {
			logger.Error("grant idempotency save failed",
				"event", "authz_grant_idempotency_put_failed",
				"module", "identity-access/resource-authorization",
				"layer", "application",
				"user_id", cmd.UserID,
				"resource", cmd.Resource.Key(),
				"error", err.Error(),
			)
			return GrantAccessResult{}, err
		}
	}

	logger.Info("grant access completed",
		"event", "authz_grant_completed",
		"module", "identity-access/resource-authorization",
		"layer", "application",
		"user_id", cmd.UserID,
		"resource", cmd.Resource.Key(),
		"grant_id", grant.GrantID,
	)
	return result, nil
}

func (u GrantAccessUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u GrantAccessUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
