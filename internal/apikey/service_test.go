package apikey

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gatewarden-api/internal/logger"
	"gatewarden-api/internal/models"
	"gatewarden-api/internal/utils"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logger.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logger.New(log)
}

// fakeRepo is an in-memory Repository. Verify updates last_used_at from a
// goroutine, so all access is mutex-guarded.
type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*models.APIKey
	failing bool

	lastUsed chan string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records:  make(map[string]*models.APIKey),
		lastUsed: make(chan string, 8),
	}
}

func (r *fakeRepo) Save(ctx context.Context, key *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("storage down")
	}
	if key.ID == "" {
		key.ID = utils.GenerateKeyID()
	}
	clone := *key
	r.records[key.ID] = &clone
	return nil
}

func (r *fakeRepo) FindByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, errors.New("storage down")
	}
	for _, record := range r.records {
		if record.KeyHash == hash && record.IsActive {
			clone := *record
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, errors.New("storage down")
	}
	record, ok := r.records[id]
	if !ok || record.CreatedBy != ownerID {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (r *fakeRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, errors.New("storage down")
	}
	var keys []models.APIKey
	for _, record := range r.records {
		if record.CreatedBy == ownerID {
			keys = append(keys, *record)
		}
	}
	return keys, nil
}

func (r *fakeRepo) UpdateLastUsed(ctx context.Context, id string, usedAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.records[id]; ok {
		record.LastUsedAt = &usedAt
	}
	select {
	case r.lastUsed <- id:
	default:
	}
	return nil
}

func (r *fakeRepo) Deactivate(ctx context.Context, id, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return false, errors.New("storage down")
	}
	record, ok := r.records[id]
	if !ok || record.CreatedBy != ownerID || !record.IsActive {
		return false, nil
	}
	record.IsActive = false
	return true, nil
}

func (r *fakeRepo) DeleteByOwner(ctx context.Context, id, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return false, errors.New("storage down")
	}
	record, ok := r.records[id]
	if !ok || record.CreatedBy != ownerID {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, newTestLogger())
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	issued, err := service.Issue(context.Background(), "user-1", "ci-deploy", []string{"deploy"}, nil)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(issued.Plaintext, KeyPrefix))
	require.Equal(t, issued.Plaintext[:displayRunes]+"...", issued.DisplayKey)

	record, err := service.Verify(context.Background(), issued.Plaintext)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, issued.ID, record.ID)
	require.Equal(t, "user-1", record.CreatedBy)
	require.Equal(t, []string{"deploy"}, record.Scopes)

	// Usage tracking fires off the request path
	select {
	case id := <-repo.lastUsed:
		require.Equal(t, issued.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("expected last_used_at update")
	}
}

func TestIssueValidation(t *testing.T) {
	negative := -1
	zero := 0

	tests := []struct {
		name    string
		ownerID string
		keyName string
		days    *int
	}{
		{"missing owner", "", "ci", nil},
		{"missing name", "user-1", "", nil},
		{"negative expiry", "user-1", "ci", &negative},
		{"zero expiry", "user-1", "ci", &zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(newFakeRepo())
			_, err := service.Issue(context.Background(), tt.ownerID, tt.keyName, nil, tt.days)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestVerifyUnknownOrForeignCredential(t *testing.T) {
	service := newTestService(newFakeRepo())

	tests := []struct {
		name string
		raw  string
	}{
		{"not an api key", "Bearer abc.def.ghi"},
		{"unknown key", KeyPrefix + "definitely-not-issued"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := service.Verify(context.Background(), tt.raw)
			require.NoError(t, err)
			require.Nil(t, record)
		})
	}
}

func TestVerifyTamperedKey(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	issued, err := service.Issue(context.Background(), "user-1", "ci", nil, nil)
	require.NoError(t, err)

	tampered := issued.Plaintext[:len(issued.Plaintext)-1] + "x"
	record, err := service.Verify(context.Background(), tampered)
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestVerifyExpiredKeyReportsNotFound(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	days := 7
	issued, err := service.Issue(context.Background(), "user-1", "short-lived", nil, &days)
	require.NoError(t, err)

	// Move the clock past the expiry
	service.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	record, err := service.Verify(context.Background(), issued.Plaintext)
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestVerifyFailsClosedOnStorageError(t *testing.T) {
	repo := newFakeRepo()
	repo.failing = true
	service := newTestService(repo)

	_, err := service.Verify(context.Background(), KeyPrefix+"anything")
	require.ErrorIs(t, err, ErrDatabaseError)
}

func TestStorageErrorLoggedAsField(t *testing.T) {
	log, hook := logrustest.NewNullLogger()

	repo := newFakeRepo()
	repo.failing = true
	service := NewService(repo, nil, logger.New(log))

	_, err := service.Verify(context.Background(), KeyPrefix+"anything")
	require.ErrorIs(t, err, ErrDatabaseError)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Equal(t, "API key lookup failed", entry.Message)
	require.Contains(t, entry.Data, "error")
}

func TestRevoke(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	issued, err := service.Issue(context.Background(), "user-1", "ci", nil, nil)
	require.NoError(t, err)

	revoked, err := service.Revoke(context.Background(), issued.ID, "user-1")
	require.NoError(t, err)
	require.True(t, revoked)

	// The key stops verifying
	record, err := service.Verify(context.Background(), issued.Plaintext)
	require.NoError(t, err)
	require.Nil(t, record)

	// but still appears in the owner's listing, marked inactive
	keys, err := service.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.False(t, keys[0].IsActive)

	// Revoking again reports not found
	revoked, err = service.Revoke(context.Background(), issued.ID, "user-1")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeOwnerScoped(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	issued, err := service.Issue(context.Background(), "user-1", "ci", nil, nil)
	require.NoError(t, err)

	revoked, err := service.Revoke(context.Background(), issued.ID, "user-2")
	require.NoError(t, err)
	require.False(t, revoked)

	record, err := service.Verify(context.Background(), issued.Plaintext)
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	issued, err := service.Issue(context.Background(), "user-1", "ci", nil, nil)
	require.NoError(t, err)

	deleted, err := service.Delete(context.Background(), issued.ID, "user-2")
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = service.Delete(context.Background(), issued.ID, "user-1")
	require.NoError(t, err)
	require.True(t, deleted)

	keys, err := service.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, keys)
}
