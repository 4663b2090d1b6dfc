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

// RevokeGrantCommand targets one grant id for tombstoning.
type RevokeGrantCommand struct {
	IdempotencyKey string
	GrantID        string
	RevokedBy      string
	Reason         string
}

// RevokeGrantResult captures the tombstoned record and replay status.
type RevokeGrantResult struct {
	Grant    entities.GrantRecord `json:"grant"`
	Replayed bool                 `json:"replayed"`
}

// RevokeGrantUseCase marks a tombstone on an existing grant. Revoked
// grants are excluded from evaluation but kept in history.
type RevokeGrantUseCase struct {
	Grants         ports.GrantStore
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (u RevokeGrantUseCase) Execute(ctx context.Context, cmd RevokeGrantCommand) (RevokeGrantResult, error) {
	logger := application.ResolveLogger(u.Logger)
	logger.Info("revoke grant started",
		"event", "authz_revoke_started",
		"module", "identity-access/resource-authorization",
		"layer", "application",
		"grant_id", cmd.GrantID,
	)

	if strings.TrimSpace(cmd.GrantID) == "" {
		return RevokeGrantResult{}, domainerrors.ErrInvalidGrantID
	}

	now := u.now()

	var idempotencyKey, requestHash string
	if strings.TrimSpace(cmd.IdempotencyKey) != "" {
		hash, err := hashRequest(struct {
			GrantID   string `json:"grant_id"`
			RevokedBy string `json:"revoked_by"`
			Reason    string `json:"reason"`
		}{
			GrantID:   cmd.GrantID,
			RevokedBy: cmd.RevokedBy,
			Reason:    cmd.Reason,
		})
		if err != nil {
			return RevokeGrantResult{}, err
		}
		requestHash = hash
		idempotencyKey = "authz_revoke:" + cmd.IdempotencyKey

		existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
		if err != nil {
			return RevokeGrantResult{}, err
		}
		if found {
			if existing.RequestHash != requestHash {
				return RevokeGrantResult{}, domainerrors.ErrIdempotencyConflict
			}
			var replay RevokeGrantResult
			if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
				return RevokeGrantResult{}, err
			}
			replay.Replayed = true
			return replay, nil
		}
	}

	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RevokeGrantResult{}, err
	}

	grant, err := u.Grants.Revoke(ctx, ports.RevokeInput{
		GrantID:   cmd.GrantID,
		OutboxID:  outboxID,
		RevokedBy: cmd.RevokedBy,
		Reason:    cmd.Reason,
		RevokedAt: now,
	})
	if err != nil {
		logger.Error("revoke grant write failed",
			"event", "authz_revoke_write_failed",
			"module", "identity-access/resource-authorization",
			"layer", "application",
			"grant_id", cmd.GrantID,
			"error", err.Error(),
		)
		return RevokeGrantResult{}, err
	}

	result := RevokeGrantResult{Grant: grant}
	if idempotencyKey != "" {
		responsePayload, err := json.Marshal(result)
		if err != nil {
			return RevokeGrantResult{}, err
		}
		if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
			Key:             idempotencyKey,
			Operation:       "revoke_grant",
			RequestHash:     requestHash,
			ResponsePayload: responsePayload,
			ExpiresAt:       now.Add(u.idempotencyTTL()),
		}); err != nil {
			return RevokeGrantResult{}, err
		}
	}

	logger.Info("revoke grant completed",
		"event", "authz_revoke_completed",
		"module", "identity-access/resource-authorization",
		"layer", "application",
		"grant_id", cmd.GrantID,
		"user_id", grant.UserID,
		"resource", grant.Resource.Key(),
	)
	return result, nil
}

func (u RevokeGrantUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u RevokeGrantUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
