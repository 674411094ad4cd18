package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tarunjit45/ExamGenius/internal/gamification"
)

// ErrInvalidToken is returned for tokens that fail verification or carry no subject.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the identity claims issued by the sign-in provider.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthenticator creates an Authenticator for tokens signed with secret.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify checks the token and returns the identity it names.
func (a *Authenticator) Verify(token string) (gamification.Identity, error) {
	if token == "" {
		return gamification.Identity{}, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := a.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return gamification.Identity{}, errors.Join(ErrInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return gamification.Identity{}, ErrInvalidToken
	}

	return gamification.Identity{
		ID:         claims.Subject,
		Name:       claims.Name,
		PictureURL: claims.Picture,
	}, nil
}

type identityKey struct{}

func withIdentity(ctx context.Context, id gamification.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity set by the auth middleware.
func IdentityFromContext(ctx context.Context) (gamification.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(gamification.Identity)
	return id, ok
}

// middleware rejects requests without a valid bearer token. Browsers cannot
// set headers on a websocket handshake, so upgrade requests may pass the
// token as the access_token query parameter instead.
func (a *Authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			token = r.URL.Query().Get("access_token")
		}

		identity, err := a.Verify(strings.TrimSpace(token))
		if err != nil {
			writeError(w, r, &AppError{Code: CodeUnauthorized, Message: "missing or invalid token", Status: http.StatusUnauthorized, Err: err})
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}
