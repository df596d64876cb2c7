package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// AuthenticatedUser is the caller described by a validated bearer token
type AuthenticatedUser struct {
	Sub      string   `json:"sub"`
	Iss      string   `json:"iss"`
	ClientId string   `json:"client_id"`
	Email    string   `json:"email,omitempty"`
	Exp      int64    `json:"exp"`
	Iat      int64    `json:"iat"`
	Aud      []string `json:"aud"`
	Roles    []string `json:"roles"`
	Scopes   []string `json:"scopes"`
}

// Identity is the value matched against team memberships
func (u *AuthenticatedUser) Identity() string {
	if u.Email != "" {
		return u.Email
	}
	return u.Sub
}

// JwtAuthenticator validates RS256/ES256 tokens against a JWKS endpoint
type JwtAuthenticator struct {
	JwksUri  string
	cacheTTL time.Duration
	client   *http.Client

	mu        sync.Mutex
	keySet    jwk.Set
	fetchedAt time.Time
}

func NewJwtAuthenticator(jwksUri string) *JwtAuthenticator {
	return &JwtAuthenticator{
		JwksUri:  jwksUri,
		cacheTTL: 5 * time.Minute,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// ValidateToken verifies the signature and standard claims of tokenString
func (a *JwtAuthenticator) ValidateToken(tokenString string) (*AuthenticatedUser, error) {
	if a.JwksUri == "" {
		return nil, errors.New("JWKS URI not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, _ := token.Header["kid"].(string)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		key, err := a.fetchKey(ctx, kid)
		if err != nil {
			return nil, err
		}
		var raw interface{}
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("failed to extract public key: %w", err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return a.mapClaimsToUser(claims)
}

// fetchKey returns the key with the given id, refreshing the cached set when
// it is stale or does not contain the key
func (a *JwtAuthenticator) fetchKey(ctx context.Context, kid string) (jwk.Key, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.keySet != nil && time.Since(a.fetchedAt) < a.cacheTTL {
		if key, ok := lookupKey(a.keySet, kid); ok {
			return key, nil
		}
	}

	set, err := jwk.Fetch(ctx, a.JwksUri, jwk.WithHTTPClient(a.client))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	a.keySet = set
	a.fetchedAt = time.Now()

	key, ok := lookupKey(set, kid)
	if !ok {
		return nil, fmt.Errorf("key %q not found in JWKS", kid)
	}
	return key, nil
}

func lookupKey(set jwk.Set, kid string) (jwk.Key, bool) {
	if kid == "" {
		if set.Len() == 1 {
			return set.Key(0)
		}
		return nil, false
	}
	return set.LookupKeyID(kid)
}

func (a *JwtAuthenticator) mapClaimsToUser(claims map[string]interface{}) (*AuthenticatedUser, error) {
	user := &AuthenticatedUser{
		Sub:      stringClaim(claims, "sub"),
		Iss:      stringClaim(claims, "iss"),
		ClientId: stringClaim(claims, "client_id"),
		Email:    stringClaim(claims, "email"),
		Exp:      numericClaim(claims, "exp"),
		Iat:      numericClaim(claims, "iat"),
		Aud:      stringsClaim(claims, "aud"),
		Roles:    stringsClaim(claims, "roles"),
		Scopes:   stringsClaim(claims, "scopes"),
	}
	return user, nil
}

func stringClaim(claims map[string]interface{}, name string) string {
	s, _ := claims[name].(string)
	return s
}

func numericClaim(claims map[string]interface{}, name string) int64 {
	switch v := claims[name].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func stringsClaim(claims map[string]interface{}, name string) []string {
	switch v := claims[name].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

type authenticatedUserKey struct{}

// WithAuthenticatedUser stores user in ctx
func WithAuthenticatedUser(ctx context.Context, user *AuthenticatedUser) context.Context {
	return context.WithValue(ctx, authenticatedUserKey{}, user)
}

// GetAuthenticatedUser returns the user stored by WithAuthenticatedUser
func GetAuthenticatedUser(ctx context.Context) (*AuthenticatedUser, bool) {
	user, ok := ctx.Value(authenticatedUserKey{}).(*AuthenticatedUser)
	return user, ok && user != nil
}
