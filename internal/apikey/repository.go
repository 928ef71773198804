package apikey

import (
	"context"
	"errors"

	"gatewarden-api/internal/models"
	"gatewarden-api/pkg/db"

	"gorm.io/gorm"
)

// NewRepository creates a new API key repository
func NewRepository(database *gorm.DB) Repository {
	return &repo{
		keys: db.NewRepositoryWithDB[models.APIKey](database),
	}
}

type repo struct {
	keys *db.BaseRepository[models.APIKey]
}

// Save persists a new API key record
func (r *repo) Save(ctx context.Context, key *models.APIKey) error {
	return r.keys.Create(ctx, key)
}

// FindByHash looks up an active record by its secret hash. Returns
// (nil, nil) when no active record matches.
func (r *repo) FindByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	key, err := r.keys.FindOneWhere(ctx, "key_hash = ? AND is_active = ?", hash, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return key, nil
}

// FindByIDAndOwner fetches a record scoped to the owning principal. An id
// belonging to a different owner is indistinguishable from a missing one.
func (r *repo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.APIKey, error) {
	key, err := r.keys.FindOneWhere(ctx, "id = ? AND created_by = ?", id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return key, nil
}

// ListByOwner returns all keys created by the owner, newest first. The
// hash column is never selected.
func (r *repo) ListByOwner(ctx context.Context, ownerID string) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.keys.DB().WithContext(ctx).
		Select("id", "name", "display_key", "scopes", "created_by", "created_at", "last_used_at", "expires_at", "is_active").
		Where("created_by = ?", ownerID).
		Order("created_at DESC").
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// UpdateLastUsed records when a key last authenticated a request. Single
// column write, no locking; last-write-wins is fine here.
func (r *repo) UpdateLastUsed(ctx context.Context, id string, usedAt int64) error {
	return r.keys.DB().WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", usedAt).Error
}

// Deactivate flips the active flag, scoped to the owner
func (r *repo) Deactivate(ctx context.Context, id, ownerID string) (bool, error) {
	result := r.keys.DB().WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ? AND created_by = ? AND is_active = ?", id, ownerID, true).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByOwner permanently removes a record, scoped to the owner
func (r *repo) DeleteByOwner(ctx context.Context, id, ownerID string) (bool, error) {
	result := r.keys.DB().WithContext(ctx).
		Where("id = ? AND created_by = ?", id, ownerID).
		Delete(&models.APIKey{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
