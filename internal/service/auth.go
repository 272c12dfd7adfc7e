package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

var authTracer = otel.Tracer("service/auth")

const (
	maxFailedAttempts = 5
	lockDuration      = 15 * time.Minute
)

// AuthService issues and validates the admin access token. The backend
// has a single admin identity whose bcrypt password hash comes from
// configuration; repeated failures lock the login for a while.
type AuthService struct {
	passwordHash []byte
	jwtSecret    []byte
	tokenTTL     time.Duration
	logger       *zap.Logger

	mu             sync.Mutex
	failedAttempts int
	lockedUntil    time.Time
}

// NewAuthService creates the admin auth service. passwordHash is a
// bcrypt hash of the admin password.
func NewAuthService(passwordHash, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
}

// AdminClaims are the claims carried by admin access tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Login verifies the admin password and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, password string) (string, int, error) {
	_, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	s.mu.Lock()
	if s.lockedUntil.After(time.Now()) {
		remaining := time.Until(s.lockedUntil).Minutes()
		s.mu.Unlock()
		s.logger.Warn("admin login attempted while locked", zap.Float64("remaining_minutes", remaining))
		return "", 0, &domain.ErrUnauthorized{
			Message: fmt.Sprintf("login locked, try again in %.0f minutes", remaining),
		}
	}
	s.mu.Unlock()

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		s.mu.Lock()
		s.failedAttempts++
		attempts := s.failedAttempts
		if attempts >= maxFailedAttempts {
			s.lockedUntil = time.Now().Add(lockDuration)
			s.failedAttempts = 0
		}
		s.mu.Unlock()

		s.logger.Warn("admin login failed", zap.Int("attempts", attempts))
		return "", 0, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	s.mu.Lock()
	s.failedAttempts = 0
	s.lockedUntil = time.Time{}
	s.mu.Unlock()

	token, err := s.signToken()
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("admin logged in")
	return token, int(s.tokenTTL.Seconds()), nil
}

// ValidateToken parses and verifies an admin access token. Used by the
// auth middleware.
func (s *AuthService) ValidateToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Role != "admin" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token role"}
	}
	return claims, nil
}

func (s *AuthService) signToken() (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "pix-checkout",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}
