package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = "findit-test"

type jwksFixture struct {
	server  *httptest.Server
	key     *rsa.PrivateKey
	fetches atomic.Int32
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pub, err := jwk.FromRaw(&priv.PublicKey)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, "k1"))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))
	payload, err := json.Marshal(set)
	require.NoError(t, err)

	f := &jwksFixture{key: priv}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *jwksFixture) sign(t *testing.T, kid string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func validClaims(now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://securetoken.google.com/" + testProject,
			Audience:  jwt.ClaimStrings{testProject},
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "ada@campus.edu",
		Name:  "Ada",
	}
}

func TestVerify_ValidToken(t *testing.T) {
	f := newJWKSFixture(t)
	verifier := NewVerifier(testProject, NewCachedJWKSFetcher(f.server.URL, time.Hour))

	token := f.sign(t, "k1", validClaims(time.Now()))

	id, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UID: "u1", Email: "ada@campus.edu", DisplayName: "Ada"}, id)

	_, err = verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.fetches.Load(), "JWKS should be served from cache")
}

func TestVerify_Expired(t *testing.T) {
	f := newJWKSFixture(t)
	verifier := NewVerifier(testProject, NewCachedJWKSFetcher(f.server.URL, time.Hour))

	token := f.sign(t, "k1", validClaims(time.Now().Add(-2*time.Hour)))

	_, err := verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_WrongAudience(t *testing.T) {
	f := newJWKSFixture(t)
	verifier := NewVerifier(testProject, NewCachedJWKSFetcher(f.server.URL, time.Hour))

	claims := validClaims(time.Now())
	claims.Audience = jwt.ClaimStrings{"someone-else"}

	_, err := verifier.Verify(context.Background(), f.sign(t, "k1", claims))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_UnknownKidRefetches(t *testing.T) {
	f := newJWKSFixture(t)
	verifier := NewVerifier(testProject, NewCachedJWKSFetcher(f.server.URL, time.Hour))

	_, err := verifier.Verify(context.Background(), f.sign(t, "rotated", validClaims(time.Now())))
	assert.True(t, errors.Is(err, ErrInvalidToken))
	assert.Equal(t, int32(2), f.fetches.Load())
}

func TestVerify_RejectsHS256(t *testing.T) {
	f := newJWKSFixture(t)
	verifier := NewVerifier(testProject, NewCachedJWKSFetcher(f.server.URL, time.Hour))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(time.Now()))
	token.Header["kid"] = "k1"
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
