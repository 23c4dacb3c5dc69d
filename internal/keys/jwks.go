package keys

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

	"golang.org/x/time/rate"
)

// JWKSResolver fetches RSA public keys from a JWKS endpoint (RFC 7517), caches
// them by key id, and rate-limits fetches so a flood of tokens with unknown
// kids cannot hammer the endpoint.
type JWKSResolver struct {
	jwksURL         string
	httpClient      *http.Client
	refreshInterval time.Duration
	limiter         *rate.Limiter

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time
}

func NewJWKSResolver(jwksURL string) *JWKSResolver {
	return &JWKSResolver{
		jwksURL:         jwksURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		refreshInterval: time.Hour,
		limiter:         rate.NewLimiter(rate.Every(10*time.Second), 2),
		keys:            map[string]*rsa.PublicKey{},
	}
}

func (r *JWKSResolver) Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	r.mu.RLock()
	key, found := r.keys[kid]
	stale := time.Since(r.lastFetch) > r.refreshInterval
	r.mu.RUnlock()

	if found && !stale {
		return key, nil
	}

	if err := r.refresh(ctx); err != nil {
		if found {
			// Keep serving the cached key rather than failing every request
			// while the endpoint is down.
			return key, nil
		}
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if key, ok := r.keys[kid]; ok {
		return key, nil
	}

	if kid == "" {
		for _, k := range r.keys {
			return k, nil
		}
	}

	return nil, fmt.Errorf("jwks: key not found for kid %q", kid)
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (r *JWKSResolver) refresh(ctx context.Context) error {
	if !r.limiter.Allow() {
		return fmt.Errorf("jwks: fetch rate limit exceeded")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("jwks: create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jwks: fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks: fetch returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("jwks: decode: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}

		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	r.mu.Lock()
	r.keys = keys
	r.lastFetch = time.Now()
	r.mu.Unlock()

	return nil
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("jwks: decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("jwks: decode exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
