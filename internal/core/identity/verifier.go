package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultJWKSURL publishes the signing keys for secure-token ID tokens
const DefaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// KeyFetcher resolves the public key for a token's key ID
type KeyFetcher interface {
	FetchPublicKey(ctx context.Context, kid string) (interface{}, error)
}

// CachedJWKSFetcher fetches the provider's JWKS and caches it for cacheTTL.
// An unknown key ID forces one refetch so rotated keys are picked up.
type CachedJWKSFetcher struct {
	expiresAt  time.Time
	set        jwk.Set
	httpClient *http.Client
	url        string
	cacheTTL   time.Duration
	cacheMutex sync.RWMutex
}

// NewCachedJWKSFetcher creates a new JWKS fetcher with caching
func NewCachedJWKSFetcher(url string, cacheTTL time.Duration) *CachedJWKSFetcher {
	if url == "" {
		url = DefaultJWKSURL
	}
	return &CachedJWKSFetcher{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cacheTTL: cacheTTL,
	}
}

// FetchPublicKey implements KeyFetcher
func (f *CachedJWKSFetcher) FetchPublicKey(ctx context.Context, kid string) (interface{}, error) {
	set, err := f.getSet(ctx, false)
	if err != nil {
		return nil, err
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		set, err = f.getSet(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
		}
		key, ok = set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("key %q not found in JWKS", kid)
		}
	}

	var raw rsa.PublicKey
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("failed to convert JWK %q: %w", kid, err)
	}
	return &raw, nil
}

func (f *CachedJWKSFetcher) getSet(ctx context.Context, force bool) (jwk.Set, error) {
	if !force {
		f.cacheMutex.RLock()
		set, expiresAt := f.set, f.expiresAt
		f.cacheMutex.RUnlock()

		if set != nil && time.Now().Before(expiresAt) {
			return set, nil
		}
	}

	set, err := jwk.Fetch(ctx, f.url, jwk.WithHTTPClient(f.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("no keys found in JWKS")
	}

	f.cacheMutex.Lock()
	f.set = set
	f.expiresAt = time.Now().Add(f.cacheTTL)
	f.cacheMutex.Unlock()

	return set, nil
}

// Claims are the ID token claims FindIt reads
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Verifier checks ID tokens issued for one project
type Verifier struct {
	keys      KeyFetcher
	now       func() time.Time
	projectID string
}

// NewVerifier creates a verifier for projectID's tokens
func NewVerifier(projectID string, keys KeyFetcher) *Verifier {
	return &Verifier{
		keys:      keys,
		now:       time.Now,
		projectID: projectID,
	}
}

// Issuer is the iss claim expected on every token
func (v *Verifier) Issuer() string {
	return "https://securetoken.google.com/" + v.projectID
}

// Verify validates signature, issuer, audience and expiry and returns the identity.
// Expired tokens yield ErrTokenExpired so callers can refresh.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(idToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("missing kid header")
		}
		return v.keys.FetchPublicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.Issuer()),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	return &Identity{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}
