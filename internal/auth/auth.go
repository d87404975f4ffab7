// Package auth issues and checks operator bearer tokens. Respondents taking
// a questionnaire never authenticate; tokens only guard bank authoring and
// the admin surface.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mind-engage/mindengage-psy/internal/rbac"
)

const issuer = "mindengage-psy"

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) Option { return func(a *Service) { a.now = now } }

// NewService signs with secret. Tokens live for ttl, 8h when ttl <= 0.
func NewService(secret string, ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	a := &Service{hmac: []byte(secret), ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs an HS256 token for sub carrying role.
func (a *Service) Issue(sub, role string) (string, error) {
	if _, ok := rbac.RolePermissions[role]; !ok {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := a.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.hmac)
}

func (a *Service) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return a.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// token's subject and role on the request context.
func Middleware(a *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := rbac.WithSubject(rbac.WithRole(r.Context(), c.Role), c.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
