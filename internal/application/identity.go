package application

import (
	"context"
	"strings"
	"time"

	"github.com/oksasatya/go-graphql-blog/pkg/helpers"
)

// TokenService signs and verifies session tokens.
type TokenService interface {
	GenerateToken(userID string) (string, time.Time, error)
	ParseToken(token string) (*helpers.Claims, error)
}

type credentialKey int

const (
	requestCredentialKey credentialKey = iota
	connectionCredentialKey
)

// WithRequestCredential stores the Authorization header of a request/response call.
func WithRequestCredential(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, requestCredentialKey, header)
}

// WithConnectionCredential stores the credential sent in a subscription
// connection's init payload.
func WithConnectionCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, connectionCredentialKey, credential)
}

func credentialFrom(ctx context.Context) string {
	if v, _ := ctx.Value(requestCredentialKey).(string); strings.TrimSpace(v) != "" {
		return v
	}
	if v, _ := ctx.Value(connectionCredentialKey).(string); strings.TrimSpace(v) != "" {
		return v
	}
	return ""
}

// BearerToken strips an optional, case-insensitive "Bearer " prefix.
func BearerToken(credential string) string {
	token := strings.TrimSpace(credential)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// Identity resolves the principal of an operation from its credential.
type Identity struct {
	Tokens TokenService
}

func NewIdentity(tokens TokenService) *Identity {
	return &Identity{Tokens: tokens}
}

// Principal returns the authenticated user id, or "" for an anonymous call
// when requireAuth is false. A credential that is present but fails
// verification is always rejected.
func (i *Identity) Principal(ctx context.Context, requireAuth bool) (string, error) {
	raw := strings.TrimSpace(credentialFrom(ctx))
	if raw == "" {
		if requireAuth {
			return "", ErrAuthenticationRequired
		}
		return "", nil
	}
	claims, err := i.Tokens.ParseToken(BearerToken(raw))
	if err != nil {
		return "", ErrAuthenticationRequired
	}
	return claims.UserID, nil
}
