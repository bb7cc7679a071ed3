package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nikolayk812/storefront/internal/domain"
)

type actorKey struct{}

// Claims are the token claims the service relies on: the subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Authenticator{secret: []byte(secret), issuer: issuer}, nil
}

// Parse validates an HMAC signed token and returns the actor it names.
func (a *Authenticator) Parse(tokenStr string) (domain.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("jwt.ParseWithClaims: %w", err)
	}

	if !token.Valid {
		return domain.Actor{}, errors.New("token is invalid")
	}

	role, err := domain.ToRole(claims.Role)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("role %q: %w", claims.Role, err)
	}

	actor := domain.Actor{UserID: claims.Subject, Role: role}
	if err := actor.Validate(); err != nil {
		return domain.Actor{}, err
	}

	return actor, nil
}

// Sign issues a token for actor, used by tooling and tests.
func (a *Authenticator) Sign(actor domain.Actor, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = actor.UserID
	if claims.Issuer == "" {
		claims.Issuer = a.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: string(actor.Role), RegisteredClaims: claims})
	return token.SignedString(a.secret)
}

// Authenticate expects "Authorization: Bearer <token>" and puts the actor into the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "missing authorization", http.StatusUnauthorized)
			return
		}

		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		actor, err := a.Parse(parts[1])
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
