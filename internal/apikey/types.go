package apikey

import (
	"context"
	"time"

	"gatewarden-api/internal/logger"
	"gatewarden-api/internal/models"
	"gatewarden-api/pkg/redis"
)

const (
	// KeyPrefix makes credential strings self-describing so they can be
	// routed without a database lookup
	KeyPrefix = "gw_"

	// secretBytes is the entropy of a generated key secret
	secretBytes = 32

	// displayRunes is how much of the formatted key the non-secret display
	// form keeps
	displayRunes = 11

	// cacheTTL bounds how long a verified record may be served from cache;
	// revocation fan-out deletes the entry eagerly
	cacheTTL = 60 * time.Second
)

// Repository persists API key records
type Repository interface {
	Save(ctx context.Context, key *models.APIKey) error
	FindByHash(ctx context.Context, hash string) (*models.APIKey, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.APIKey, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.APIKey, error)
	UpdateLastUsed(ctx context.Context, id string, usedAt int64) error
	Deactivate(ctx context.Context, id, ownerID string) (bool, error)
	DeleteByOwner(ctx context.Context, id, ownerID string) (bool, error)
}

// IssuedKey is returned once at issuance. Plaintext is the full formatted
// key and is unrecoverable after this value is dropped.
type IssuedKey struct {
	ID         string
	Name       string
	DisplayKey string
	Plaintext  string
	Scopes     []string
	ExpiresAt  *int64
}

// Service manages API key issuance, verification and revocation
type Service struct {
	repo        Repository
	redisClient *redis.Client
	logger      *logger.Logger
	now         func() time.Time
}

// NewService creates a new API key service
func NewService(repo Repository, redisClient *redis.Client, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		redisClient: redisClient,
		logger:      log,
		now:         time.Now,
	}
}
