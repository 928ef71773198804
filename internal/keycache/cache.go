package keycache

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"gatewarden-api/internal/logger"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultTTL is how long fetched key material stays usable before a
// refetch is forced
const DefaultTTL = 5 * time.Minute

// JWK is one entry of the provider's published key set
type JWK struct {
	Kty string   `json:"kty"`
	Alg string   `json:"alg,omitempty"`
	Use string   `json:"use,omitempty"`
	Kid string   `json:"kid,omitempty"`
	X5c []string `json:"x5c,omitempty"`
	N   string   `json:"n,omitempty"`
	E   string   `json:"e,omitempty"`
}

type jwksDocument struct {
	Keys []JWK `json:"keys"`
}

// Material is usable public key material converted from a JWKS entry.
// Exactly one field is populated: PEM when the entry carried an X.509
// certificate chain, JWK when it was a raw RSA modulus/exponent pair.
type Material struct {
	PEM []byte
	JWK *JWK
}

// RSAPublicKey converts the material into an RSA public key for signature
// verification
func (m Material) RSAPublicKey() (*rsa.PublicKey, error) {
	if len(m.PEM) > 0 {
		key, err := jwt.ParseRSAPublicKeyFromPEM(m.PEM)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedKeyFormat, err)
		}
		return key, nil
	}

	if m.JWK != nil {
		n, err := base64.RawURLEncoding.DecodeString(m.JWK.N)
		if err != nil {
			return nil, fmt.Errorf("%w: bad modulus: %v", ErrUnsupportedKeyFormat, err)
		}
		e, err := base64.RawURLEncoding.DecodeString(m.JWK.E)
		if err != nil {
			return nil, fmt.Errorf("%w: bad exponent: %v", ErrUnsupportedKeyFormat, err)
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}, nil
	}

	return nil, ErrUnsupportedKeyFormat
}

// entry is one cached fetch result
type entry struct {
	material  Material
	fetchedAt time.Time
}

// Cache fetches and caches the identity provider's public signing key.
// A single slot holds the most recent material; replacement is an atomic
// slot write, so concurrent refetches after expiry are harmless
// (last-write-wins, at worst one extra network fetch).
type Cache struct {
	jwksURL    string
	httpClient *http.Client
	ttl        time.Duration
	now        func() time.Time
	logger     *logger.Logger

	mu   sync.RWMutex
	slot *entry
}

// NewCache creates a key cache for the given JWKS endpoint
func NewCache(jwksURL string, httpClient *http.Client, log *logger.Logger) *Cache {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Cache{
		jwksURL:    jwksURL,
		httpClient: httpClient,
		ttl:        DefaultTTL,
		now:        time.Now,
		logger:     log,
	}
}

// SigningKey returns cached key material, fetching the provider's key set
// only when the cache slot is empty or expired
func (c *Cache) SigningKey(ctx context.Context) (Material, error) {
	c.mu.RLock()
	cached := c.slot
	c.mu.RUnlock()

	if cached != nil && c.now().Sub(cached.fetchedAt) < c.ttl {
		return cached.material, nil
	}

	material, err := c.fetch(ctx)
	if err != nil {
		return Material{}, err
	}

	c.mu.Lock()
	c.slot = &entry{material: material, fetchedAt: c.now()}
	c.mu.Unlock()

	return material, nil
}

// fetch retrieves the key set and converts the first key to usable material
func (c *Cache) fetch(ctx context.Context) (Material, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return Material{}, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Material{}, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Material{}, fmt.Errorf("%w: unexpected status %d", ErrKeyFetch, resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Material{}, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}

	if len(doc.Keys) == 0 {
		return Material{}, ErrEmptyKeySet
	}

	return convertKey(doc.Keys[0])
}

// convertKey turns a JWKS entry into verification material
func convertKey(key JWK) (Material, error) {
	// X.509 certificate chain: decode the first certificate into PEM form
	if len(key.X5c) > 0 {
		return Material{PEM: certToPEM(key.X5c[0])}, nil
	}

	// Raw RSA key: pass the key structure through untransformed
	if key.Kty == "RSA" && key.N != "" && key.E != "" {
		k := key
		return Material{JWK: &k}, nil
	}

	return Material{}, fmt.Errorf("%w: kty=%q", ErrUnsupportedKeyFormat, key.Kty)
}

// certToPEM wraps a base64 DER certificate in PEM delimiters with
// 64-character line wrapping
func certToPEM(cert string) []byte {
	var b []byte
	b = append(b, "-----BEGIN CERTIFICATE-----\n"...)
	for len(cert) > 64 {
		b = append(b, cert[:64]...)
		b = append(b, '\n')
		cert = cert[64:]
	}
	if len(cert) > 0 {
		b = append(b, cert...)
		b = append(b, '\n')
	}
	b = append(b, "-----END CERTIFICATE-----\n"...)
	return b
}
