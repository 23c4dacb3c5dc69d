// Package keys supplies the signing key material: the RSA pair for access
// tokens and the symmetric secret for refresh tokens. The private key and the
// secret never leave this boundary; callers get signing/verification handles
// and nothing else.
package keys

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

type Provider interface {
	// PrivateKey returns the RSA signing key. An error means the key material
	// is unavailable, which is fatal to the signing operation, never a reason
	// to degrade to an unsigned token.
	PrivateKey() (*rsa.PrivateKey, error)
	// KeyID identifies the current signing key; it is stamped into the token
	// header so verifiers can resolve the matching public key.
	KeyID() string
	// RefreshSecret returns the symmetric secret for refresh tokens.
	RefreshSecret() ([]byte, error)
	// ResolvePublicKey returns the verification key for the given key id.
	ResolvePublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// FileProvider loads the private key from a PEM file on first use and keeps it
// for the process lifetime. Public keys are resolved remotely when a JWKS
// resolver is attached, otherwise from the local pair.
type FileProvider struct {
	privateKeyPath string
	keyID          string
	refreshSecret  string
	resolver       *JWKSResolver

	mu      sync.Mutex
	private *rsa.PrivateKey
}

func NewFileProvider(privateKeyPath string, keyID string, refreshSecret string) *FileProvider {
	return &FileProvider{
		privateKeyPath: privateKeyPath,
		keyID:          keyID,
		refreshSecret:  refreshSecret,
	}
}

// WithJWKS makes the provider resolve public keys from a remote JWKS endpoint
// instead of the local pair.
func (p *FileProvider) WithJWKS(resolver *JWKSResolver) *FileProvider {
	p.resolver = resolver
	return p
}

func (p *FileProvider) PrivateKey() (*rsa.PrivateKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.private != nil {
		return p.private, nil
	}

	data, err := os.ReadFile(p.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", p.privateKeyPath, err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", p.privateKeyPath, err)
	}

	p.private = key
	return key, nil
}

func (p *FileProvider) KeyID() string {
	return p.keyID
}

func (p *FileProvider) RefreshSecret() ([]byte, error) {
	if strings.TrimSpace(p.refreshSecret) == "" {
		return nil, fmt.Errorf("refresh token secret is not set")
	}
	return []byte(p.refreshSecret), nil
}

func (p *FileProvider) ResolvePublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if p.resolver != nil {
		return p.resolver.Resolve(ctx, kid)
	}

	private, err := p.PrivateKey()
	if err != nil {
		return nil, err
	}

	if kid != "" && kid != p.keyID {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}

	return &private.PublicKey, nil
}

// Static holds key material in memory. Used by tests and by deployments that
// inject the pair directly rather than through files.
type Static struct {
	Private *rsa.PrivateKey
	ID      string
	Secret  []byte
}

func (s *Static) PrivateKey() (*rsa.PrivateKey, error) {
	if s.Private == nil {
		return nil, fmt.Errorf("private key is not configured")
	}
	return s.Private, nil
}

func (s *Static) KeyID() string {
	return s.ID
}

func (s *Static) RefreshSecret() ([]byte, error) {
	if len(s.Secret) == 0 {
		return nil, fmt.Errorf("refresh token secret is not set")
	}
	return s.Secret, nil
}

func (s *Static) ResolvePublicKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	if s.Private == nil {
		return nil, fmt.Errorf("public key is not configured")
	}
	if kid != "" && kid != s.ID {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return &s.Private.PublicKey, nil
}
