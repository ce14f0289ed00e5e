package oidc

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/docbrief/docbrief/pkg/slogx"
)

const (
	// DefaultKeyTTL is how long a fetched key set is considered fresh.
	DefaultKeyTTL = time.Hour

	// keyFetchTimeout bounds a single trip to the provider's key endpoint.
	keyFetchTimeout = 10 * time.Second

	// maxJWKSBody caps the key endpoint response size (1 MB).
	maxJWKSBody = 1 << 20
)

// ErrUnknownKey reports a key id that isn't in the provider's key set, even
// after a forced refresh.
var ErrUnknownKey = errors.New("oidc: unknown key id")

// KeyCache fetches and time-caches the provider's public signing keys.
//
// The cache is the only shared mutable state in the auth path. Replacement
// is atomic from a reader's perspective (old set or new set, never partial),
// and concurrent refreshes by simultaneous requests are tolerated rather
// than coordinated: a duplicate fetch is cheaper than a lock held across a
// network call, and a briefly stale set self-corrects on the next expiry.
//
// On fetch failure a previously fetched set is served stale instead of
// failing every request. That deliberately trades key-rotation promptness
// for availability while the provider is unreachable; every stale serve is
// logged at WARN so the trade is visible.
type KeyCache struct {
	provider Provider
	client   *http.Client
	ttl      time.Duration

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewKeyCache builds a cache for the provider's key set. A zero ttl means
// DefaultKeyTTL; a nil client gets one with the standard fetch timeout.
func NewKeyCache(provider Provider, ttl time.Duration, client *http.Client) *KeyCache {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	if client == nil {
		client = &http.Client{Timeout: keyFetchTimeout}
	}
	return &KeyCache{
		provider: provider,
		client:   client,
		ttl:      ttl,
	}
}

// Key returns the public key for the given kid. A miss in the current set
// forces exactly one refresh and one retry; a second miss is ErrUnknownKey.
// This is the hook that absorbs provider-side key rotation.
func (c *KeyCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	keys, err := c.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if pub, ok := keys[kid]; ok {
		return pub, nil
	}

	// Not in the cached set. Force one refetch in case the provider rotated
	// keys since we last looked, then give up.
	keys, err = c.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if pub, ok := keys[kid]; ok {
		return pub, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
}

// Keys returns the current key set, refetching if the cache is stale. It
// fails with ErrProviderUnavailable only when no cached keys exist and the
// fetch also fails.
func (c *KeyCache) Keys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	c.mu.RLock()
	keys, fetchedAt := c.keys, c.fetchedAt
	c.mu.RUnlock()

	if keys != nil && time.Since(fetchedAt) < c.ttl {
		return keys, nil
	}
	return c.refresh(ctx)
}

// Ready reports whether at least one key has been loaded.
func (c *KeyCache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys) > 0
}

// refresh fetches the key set and replaces the cache. On fetch failure it
// serves the previous set if one exists, logging the degradation.
func (c *KeyCache) refresh(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	log := slogx.FromContext(ctx)

	fetched, err := c.fetch(ctx)
	if err != nil {
		c.mu.RLock()
		stale := c.keys
		c.mu.RUnlock()

		if stale != nil {
			log.Warn("key set fetch failed, serving stale cache", "err", err)
			return stale, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	c.mu.Lock()
	c.keys = fetched
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	log.Debug("key set refreshed", "keys", len(fetched))
	return fetched, nil
}

// fetch performs the HTTP round trip to the provider's key endpoint.
func (c *KeyCache) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.provider.JWKSURL(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBody))
	if err != nil {
		return nil, err
	}

	var jwks JWKS
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("malformed key set: %w", err)
	}

	return parseJWKS(jwks), nil
}
