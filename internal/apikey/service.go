package apikey

import (
	"context"
	"strings"
	"time"

	"gatewarden-api/internal/models"
	"gatewarden-api/internal/utils"
)

// IsAPIKey reports whether a credential string carries the API key prefix
func IsAPIKey(raw string) bool {
	return strings.HasPrefix(raw, KeyPrefix)
}

// Issue generates a new API key for the owner. The returned plaintext is
// handed out exactly once and never persisted or logged.
func (s *Service) Issue(ctx context.Context, ownerID, name string, scopes []string, expiresInDays *int) (*IssuedKey, error) {
	if ownerID == "" || name == "" {
		return nil, ErrInvalidInput
	}
	if expiresInDays != nil && *expiresInDays <= 0 {
		return nil, ErrInvalidInput
	}
	if scopes == nil {
		scopes = []string{}
	}

	plaintext := KeyPrefix + utils.GenerateSecret(secretBytes)

	// The hash covers the full formatted key, prefix included
	hash := utils.HashSHA256Hex(plaintext)

	var expiresAt *int64
	if expiresInDays != nil {
		exp := s.now().Add(time.Duration(*expiresInDays) * 24 * time.Hour).Unix()
		expiresAt = &exp
	}

	record := &models.APIKey{
		Name:       name,
		KeyHash:    hash,
		DisplayKey: plaintext[:displayRunes] + "...",
		Scopes:     scopes,
		CreatedBy:  ownerID,
		CreatedAt:  s.now().Unix(),
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}

	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.WithField("error", err).Error("Failed to persist API key record")
		return nil, ErrDatabaseError
	}

	return &IssuedKey{
		ID:         record.ID,
		Name:       record.Name,
		DisplayKey: record.DisplayKey,
		Plaintext:  plaintext,
		Scopes:     record.Scopes,
		ExpiresAt:  record.ExpiresAt,
	}, nil
}

// Verify recomputes the hash of the provided key and looks up an active
// record. Expired keys report as not found; existence is never leaked.
// Storage failures propagate so the caller can fail closed.
func (s *Service) Verify(ctx context.Context, rawKey string) (*models.APIKey, error) {
	if !IsAPIKey(rawKey) {
		return nil, nil
	}

	hash := utils.HashSHA256Hex(rawKey)

	record, err := s.lookupByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	// Expired keys are indistinguishable from unknown ones
	if record.IsExpired(s.now()) {
		return nil, nil
	}

	// Best-effort usage tracking; must never block or fail the read path
	go s.touchLastUsed(record.ID)

	return record, nil
}

// lookupByHash serves the verify path from the record cache when possible
func (s *Service) lookupByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	cacheKey := s.cacheKey(hash)

	if s.redisClient != nil {
		var cached models.APIKey
		if err := s.redisClient.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	record, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		s.logger.WithField("error", err).Error("API key lookup failed")
		return nil, ErrDatabaseError
	}
	if record == nil {
		return nil, nil
	}

	if s.redisClient != nil {
		if err := s.redisClient.SetJSON(ctx, cacheKey, record, cacheTTL); err != nil {
			s.logger.WithField("error", err).Warn("Failed to cache API key record")
		}
	}

	return record, nil
}

// touchLastUsed updates the last-used timestamp outside the request path
func (s *Service) touchLastUsed(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.UpdateLastUsed(ctx, id, s.now().Unix()); err != nil {
		s.logger.WithField("error", err).Warn("Failed to update API key last_used_at")
	}
}

// List returns the owner's keys. The secret hash never leaves the
// repository.
func (s *Service) List(ctx context.Context, ownerID string) ([]models.APIKey, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}

	keys, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.WithField("error", err).Error("Failed to list API keys")
		return nil, ErrDatabaseError
	}
	return keys, nil
}

// Revoke soft-deletes a key by flipping its active flag, scoped to the
// owner. Returns false when no matching active key exists.
func (s *Service) Revoke(ctx context.Context, id, ownerID string) (bool, error) {
	if id == "" || ownerID == "" {
		return false, ErrInvalidInput
	}

	record, err := s.repo.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		s.logger.WithField("error", err).Error("Failed to load API key for revocation")
		return false, ErrDatabaseError
	}
	if record == nil {
		return false, nil
	}

	revoked, err := s.repo.Deactivate(ctx, id, ownerID)
	if err != nil {
		s.logger.WithField("error", err).Error("Failed to revoke API key")
		return false, ErrDatabaseError
	}

	if revoked {
		s.invalidateCache(ctx, record.KeyHash)
	}

	return revoked, nil
}

// Delete permanently removes a key, scoped to the owner
func (s *Service) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	if id == "" || ownerID == "" {
		return false, ErrInvalidInput
	}

	record, err := s.repo.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		s.logger.WithField("error", err).Error("Failed to load API key for deletion")
		return false, ErrDatabaseError
	}
	if record == nil {
		return false, nil
	}

	deleted, err := s.repo.DeleteByOwner(ctx, id, ownerID)
	if err != nil {
		s.logger.WithField("error", err).Error("Failed to delete API key")
		return false, ErrDatabaseError
	}

	if deleted {
		s.invalidateCache(ctx, record.KeyHash)
	}

	return deleted, nil
}

// invalidateCache drops the cached record so a revoked key stops
// verifying within one request, not one TTL
func (s *Service) invalidateCache(ctx context.Context, hash string) {
	if s.redisClient == nil {
		return
	}
	if _, err := s.redisClient.Delete(ctx, s.cacheKey(hash)); err != nil {
		s.logger.WithField("error", err).Warn("Failed to invalidate API key cache")
	}
}

func (s *Service) cacheKey(hash string) string {
	return "apikey:hash:" + hash
}
