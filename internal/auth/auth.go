// Package auth checks the single static admin credential pair and issues
// the signed tokens that guard the API when authentication is required.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fanatitra/internal/log"
)

const issuer = "fanatitra"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfigured      = errors.New("admin credentials are not configured")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type Config struct {
	AdminEmail    string
	AdminPassword string
	Secret        string
	TTL           time.Duration
}

// Claims are the token claims. The subject is the admin email.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Service struct {
	cfg    Config
	logger *log.Logger
	now    func() time.Time
}

func New(cfg Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Service{cfg: cfg, logger: logger.WithComponent(log.ComponentAuth), now: time.Now}
}

// Login compares the pair against the configured admin credentials and
// returns a signed token on match.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" || s.cfg.Secret == "" {
		s.logger.WarnContext(ctx, "Admin login attempted without configured credentials")
		return "", time.Time{}, ErrNotConfigured
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(email)), []byte(s.cfg.AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
	if !emailOK || !passOK {
		s.logger.WarnContext(ctx, "Admin login rejected", log.FieldOperation, log.OpLogin)
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.cfg.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.cfg.AdminEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: "admin",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	s.logger.InfoContext(ctx, "Admin logged in", log.FieldOperation, log.OpLogin)
	return token, expires, nil
}

// Verify parses and validates a token issued by Login.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	if s.cfg.Secret == "" {
		return nil, ErrNotConfigured
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenFromRequest reads "Authorization: Bearer <token>" or, failing that,
// the bare "token" header.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(r.Header.Get("token"))
}

// Middleware rejects requests without a valid token by calling deny.
func (s *Service) Middleware(deny func(w http.ResponseWriter, r *http.Request, msg string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := TokenFromRequest(r)
			if tok == "" {
				deny(w, r, "authentication required")
				return
			}
			if _, err := s.Verify(tok); err != nil {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected request token", log.FieldError, err)
				deny(w, r, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
