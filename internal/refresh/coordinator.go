package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gatewarden-api/internal/logger"
)

// TokenPair is the result of a successful refresh exchange. It is never
// persisted server-side; ownership passes to the client via cookies.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RejectedError carries the upstream status and body when the identity
// provider refuses a refresh exchange
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("refresh rejected by identity provider: status %d: %s", e.StatusCode, e.Body)
}

// Coordinator exchanges a refresh credential for a new token pair. It
// performs no cookie I/O; rotation belongs to the request-handling layer,
// keeping this a pure network exchange.
type Coordinator struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewCoordinator creates a refresh coordinator against the identity
// provider's base URL
func NewCoordinator(baseURL string, httpClient *http.Client, log *logger.Logger) *Coordinator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Coordinator{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log,
	}
}

// Refresh exchanges the refresh token for a new token pair
func (c *Coordinator) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Cap diagnostic body size; upstream error pages can be large
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &RejectedError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	return &pair, nil
}

// Logout revokes the refresh token upstream. Best effort; failures are
// logged and ignored.
func (c *Coordinator) Logout(ctx context.Context, refreshToken string) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warnf("Best-effort logout revoke failed: %v", err)
		}
		return
	}
	resp.Body.Close()
}
