package keys

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePrivateKeyPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "private.pem")
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestFileProviderLoadsPrivateKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	provider := NewFileProvider(writePrivateKeyPEM(t, key), "key-1", "secret")

	loaded, err := provider.PrivateKey()
	require.NoError(t, err)
	require.Equal(t, key.N, loaded.N)

	// Second call serves the cached key.
	again, err := provider.PrivateKey()
	require.NoError(t, err)
	require.Same(t, loaded, again)
}

func TestFileProviderMissingKeyFile(t *testing.T) {
	provider := NewFileProvider(filepath.Join(t.TempDir(), "absent.pem"), "key-1", "secret")

	_, err := provider.PrivateKey()
	require.Error(t, err)
}

func TestFileProviderRefreshSecret(t *testing.T) {
	provider := NewFileProvider("unused", "key-1", "hush")

	secret, err := provider.RefreshSecret()
	require.NoError(t, err)
	require.Equal(t, []byte("hush"), secret)

	empty := NewFileProvider("unused", "key-1", "   ")
	_, err = empty.RefreshSecret()
	require.Error(t, err)
}

func TestFileProviderResolvesLocalPublicKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	provider := NewFileProvider(writePrivateKeyPEM(t, key), "key-1", "secret")

	public, err := provider.ResolvePublicKey(context.Background(), "key-1")
	require.NoError(t, err)
	require.Equal(t, key.N, public.N)

	// An empty kid resolves to the only local key.
	public, err = provider.ResolvePublicKey(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, key.N, public.N)

	_, err = provider.ResolvePublicKey(context.Background(), "some-other-key")
	require.Error(t, err)
}

func jwksServer(t *testing.T, kid string, key *rsa.PublicKey) *httptest.Server {
	t.Helper()

	doc := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"use": "sig",
			"kid": kid,
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
}

func TestJWKSResolverFetchesAndCaches(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := jwksServer(t, "remote-key", &key.PublicKey)
	t.Cleanup(server.Close)

	resolver := NewJWKSResolver(server.URL)

	public, err := resolver.Resolve(context.Background(), "remote-key")
	require.NoError(t, err)
	require.Equal(t, key.N, public.N)
	require.Equal(t, key.E, public.E)

	// Cached: still resolvable after the endpoint goes away.
	server.Close()
	public, err = resolver.Resolve(context.Background(), "remote-key")
	require.NoError(t, err)
	require.Equal(t, key.N, public.N)
}

func TestJWKSResolverUnknownKid(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := jwksServer(t, "remote-key", &key.PublicKey)
	t.Cleanup(server.Close)

	resolver := NewJWKSResolver(server.URL)

	_, err = resolver.Resolve(context.Background(), "no-such-kid")
	require.Error(t, err)
}

func TestStaticProvider(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	static := &Static{Private: key, ID: "static-1", Secret: []byte("s3cret")}

	private, err := static.PrivateKey()
	require.NoError(t, err)
	require.Same(t, key, private)

	secret, err := static.RefreshSecret()
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), secret)

	public, err := static.ResolvePublicKey(context.Background(), "static-1")
	require.NoError(t, err)
	require.Equal(t, key.N, public.N)

	empty := &Static{}
	_, err = empty.PrivateKey()
	require.Error(t, err)
	_, err = empty.RefreshSecret()
	require.Error(t, err)
}
