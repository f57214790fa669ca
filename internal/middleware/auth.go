package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hunghnUIT/seft-203/internal/models"
)

type contextKey string

// PrincipalKey carries the authorized owner email in the request
// context once the authorizer allows the request.
const PrincipalKey contextKey = "userEmail"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing token")
)

// CreateToken signs claims with the shared symmetric secret.
func CreateToken(claims models.Claims, secret []byte, expiration time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken checks signature and expiry. Callers are not told which
// of the two failed; both come back as ErrInvalidToken.
func VerifyToken(tokenString string, secret []byte) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserResolver re-resolves a token's claimed identity against the
// stored user record. A nil user with a nil error means no such user.
type UserResolver interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserResolverFunc adapts a plain function to the UserResolver interface.
type UserResolverFunc func(ctx context.Context, email string) (*models.User, error)

func (f UserResolverFunc) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f(ctx, email)
}

// Decision is the authorizer verdict. A deny carries no claims.
type Decision struct {
	Allowed bool
	Email   string
}

var deny = Decision{}

// Authorizer decides allow/deny for each inbound request. It is a pure
// decision function over the token, the resource and the stored user
// state; it performs no writes.
type Authorizer struct {
	secret []byte
	users  UserResolver
}

func NewAuthorizer(secret []byte, users UserResolver) *Authorizer {
	return &Authorizer{secret: secret, users: users}
}

// Authorize fails closed: any missing input, bad signature, unknown
// identity or superseded session denies the request.
func (a *Authorizer) Authorize(ctx context.Context, token, resource string) (Decision, error) {
	if token == "" || resource == "" {
		return deny, nil
	}

	claims, err := VerifyToken(token, a.secret)
	if err != nil {
		return deny, nil
	}
	if claims.Email == "" {
		return deny, nil
	}

	user, err := a.users.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		return deny, err
	}
	if user == nil {
		return deny, nil
	}

	if !checkUniqueValidToken(claims, user) {
		return deny, nil
	}

	return Decision{Allowed: true, Email: user.Email}, nil
}

// checkUniqueValidToken confirms the token belongs to the one active
// session. A later login stores a new session id, so every token issued
// before it stops matching here.
func checkUniqueValidToken(claims *models.Claims, user *models.User) bool {
	return user.SessionID != "" && claims.SessionID == user.SessionID
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Auth guards a route subtree. On allow it injects the principal email
// into the request context for downstream ownership scoping.
func Auth(authorizer *Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			decision, err := authorizer.Authorize(r.Context(), token, r.URL.Path)
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if !decision.Allowed {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, decision.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Principal returns the authorized owner email stored by Auth.
func Principal(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(PrincipalKey).(string)
	return email, ok && email != ""
}
