package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"aegis/contexts/identity-access/resource-authorization/domain/entities"
	domainerrors "aegis/contexts/identity-access/resource-authorization/domain/errors"
	"aegis/contexts/identity-access/resource-authorization/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository implements the grant store, policy catalog, idempotency, and
// outbox ports on PostgreSQL. Mutations that carry an outbox record run in
// one transaction so relayed events never describe uncommitted state.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Grant(ctx context.Context, input ports.GrantInput) (entities.GrantRecord, error) {
	row := grantModel{
		GrantID:          input.GrantID,
		UserID:           input.UserID,
		ResourceType:     input.Resource.ResourceType,
		ResourceName:     input.Resource.ResourceName,
		AccessLevel:      string(input.AccessLevel),
		PermissionSource: input.PermissionSource,
		GrantedBy:        input.GrantedBy,
		Reason:           input.Reason,
		GrantedAt:        input.GrantedAt.UTC(),
	}

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

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrIdempotencyConflict
			}
			return err
		}
		return appendOutbox(tx, input.OutboxID, payload, input.GrantedAt.UTC())
	})
	if err != nil {
		return entities.GrantRecord{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListGrants(ctx context.Context, userID string, filter ports.GrantFilter) ([]entities.GrantRecord, error) {
	tx := r.db.WithContext(ctx).
		Model(&grantModel{}).
		Where("user_id = ?", userID)
	if filter.Resource.ResourceType != "" {
		tx = tx.Where("resource_type = ?", filter.Resource.ResourceType)
	}
	if filter.Resource.ResourceName != "" {
		tx = tx.Where("resource_name = ?", filter.Resource.ResourceName)
	}
	if !filter.IncludeRevoked {
		tx = tx.Where("revoked_at IS NULL")
	}

	var rows []grantModel
	if err := tx.Order("granted_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.GrantRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) Revoke(ctx context.Context, input ports.RevokeInput) (entities.GrantRecord, error) {
	var row grantModel

	payloadAt := input.RevokedAt.UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("grant_id = ?", input.GrantID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrGrantNotFound
			}
			return err
		}
		if row.RevokedAt != nil {
			return domainerrors.ErrGrantAlreadyRevoked
		}

		result := tx.Model(&grantModel{}).
			Where("grant_id = ? AND revoked_at IS NULL", input.GrantID).
			Updates(map[string]any{
				"revoked_at": payloadAt,
				"revoked_by": input.RevokedBy,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrGrantAlreadyRevoked
		}
		row.RevokedAt = &payloadAt
		row.RevokedBy = input.RevokedBy

		payload, err := json.Marshal(map[string]string{
			"user_id":       row.UserID,
			"resource_type": row.ResourceType,
			"resource_name": row.ResourceName,
			"grant_id":      row.GrantID,
			"action_type":   "access_revoked",
		})
		if err != nil {
			return err
		}
		return appendOutbox(tx, input.OutboxID, payload, payloadAt)
	})
	if err != nil {
		return entities.GrantRecord{}, err
	}
	return row.toEntity(), nil
}

// Register upserts by the (resource_type, resource_name) unique key; the
// conflict clause makes concurrent registrations last-committed-write-wins.
func (r *Repository) Register(ctx context.Context, entry entities.PolicyEntry, outboxID string) (entities.PolicyEntry, error) {
	row := policyModel{
		ResourceType:         entry.Resource.ResourceType,
		ResourceName:         entry.Resource.ResourceName,
		RequiredSubscription: string(entry.RequiredSubscription),
		AccessLevel:          string(entry.AccessLevel),
		Description:          entry.Description,
		UpdatedAt:            entry.UpdatedAt.UTC(),
	}

	payload, err := json.Marshal(map[string]string{
		"resource_type": entry.Resource.ResourceType,
		"resource_name": entry.Resource.ResourceName,
		"action_type":   "policy_registered",
	})
	if err != nil {
		return entities.PolicyEntry{}, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "resource_type"}, {Name: "resource_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"required_subscription", "access_level", "description", "updated_at",
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return appendOutbox(tx, outboxID, payload, entry.UpdatedAt.UTC())
	})
	if err != nil {
		return entities.PolicyEntry{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) Lookup(ctx context.Context, resource entities.Resource) (entities.PolicyEntry, bool, error) {
	var row policyModel
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_name = ?", resource.ResourceType, resource.ResourceName).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PolicyEntry{}, false, nil
		}
		return entities.PolicyEntry{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListPolicies(ctx context.Context) ([]entities.PolicyEntry, error) {
	var rows []policyModel
	if err := r.db.WithContext(ctx).
		Order("resource_type ASC, resource_name ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.PolicyEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", key).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return row.toPort(), true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             record.Key,
		Operation:       record.Operation,
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", record.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrGrantNotFound
	}
	return nil
}

func appendOutbox(tx *gorm.DB, outboxID string, payload []byte, createdAt time.Time) error {
	row := outboxModel{
		OutboxID:  outboxID,
		EventType: "authz.permission_changed",
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: createdAt,
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

type grantModel struct {
	GrantID          string     `gorm:"column:grant_id;primaryKey"`
	UserID           string     `gorm:"column:user_id"`
	ResourceType     string     `gorm:"column:resource_type"`
	ResourceName     string     `gorm:"column:resource_name"`
	AccessLevel      string     `gorm:"column:access_level"`
	PermissionSource string     `gorm:"column:permission_source"`
	GrantedBy        string     `gorm:"column:granted_by"`
	Reason           string     `gorm:"column:reason"`
	GrantedAt        time.Time  `gorm:"column:granted_at"`
	RevokedAt        *time.Time `gorm:"column:revoked_at"`
	RevokedBy        string     `gorm:"column:revoked_by"`
}

func (grantModel) TableName() string {
	return "resource_grants"
}

func (m grantModel) toEntity() entities.GrantRecord {
	grant := entities.GrantRecord{
		GrantID: m.GrantID,
		UserID:  m.UserID,
		Resource: entities.Resource{
			ResourceType: m.ResourceType,
			ResourceName: m.ResourceName,
		},
		AccessLevel:      entities.AccessLevel(m.AccessLevel),
		PermissionSource: m.PermissionSource,
		GrantedBy:        m.GrantedBy,
		Reason:           m.Reason,
		GrantedAt:        m.GrantedAt.UTC(),
	}
	if m.RevokedAt != nil {
		revokedAt := m.RevokedAt.UTC()
		grant.RevokedAt = &revokedAt
	}
	return grant
}

type policyModel struct {
	ResourceType         string    `gorm:"column:resource_type;primaryKey"`
	ResourceName         string    `gorm:"column:resource_name;primaryKey"`
	RequiredSubscription string    `gorm:"column:required_subscription"`
	AccessLevel          string    `gorm:"column:access_level"`
	Description          string    `gorm:"column:description"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (policyModel) TableName() string {
	return "resource_policies"
}

func (m policyModel) toEntity() entities.PolicyEntry {
	return entities.PolicyEntry{
		Resource: entities.Resource{
			ResourceType: m.ResourceType,
			ResourceName: m.ResourceName,
		},
		RequiredSubscription: entities.SubscriptionTier(m.RequiredSubscription),
		AccessLevel:          entities.AccessLevel(m.AccessLevel),
		Description:          m.Description,
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	Operation       string    `gorm:"column:operation"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "authz_idempotency"
}

func (m idempotencyModel) toPort() ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:             m.Key,
		Operation:       m.Operation,
		RequestHash:     m.RequestHash,
		ResponsePayload: m.ResponsePayload,
		ExpiresAt:       m.ExpiresAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "authz_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
