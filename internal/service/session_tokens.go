package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ============================================================
// Authenticate: used by the auth middleware
// ============================================================

// accessClaims are the claims of a provider-issued access token.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate resolves an access token into an Identity with a fresh
// profile. Invalid or expired tokens yield *domain.ErrUnauthorized.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*domain.Identity, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Authenticate")
	defer span.End()

	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, &domain.ErrUnauthorized{Message: "missing access token"}
	}

	user, err := s.verify(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	profile, err := s.ensureProfile(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &domain.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: accessToken,
		Profile:     profile,
	}, nil
}

func (s *SessionService) verify(ctx context.Context, accessToken string) (*domain.AuthUser, error) {
	if len(s.jwtSecret) > 0 {
		return s.verifyLocal(accessToken)
	}

	key := tokenKey(accessToken)
	if u, ok := s.tokens.Get(key); ok {
		s.metrics.IncrCacheHit("token")
		return &u, nil
	}
	s.metrics.IncrCacheMiss("token")

	u, err := s.auth.GetUser(ctx, accessToken)
	if err != nil {
		var unauthorized *domain.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			return nil, unauthorized
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}
	s.tokens.SetWithTTL(key, *u, remainingLifetime(accessToken))
	return u, nil
}

// remainingLifetime reads exp from a token without verifying it. Zero means
// unknown, and the cache applies its default TTL.
func remainingLifetime(accessToken string) time.Duration {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil || claims.ExpiresAt == nil {
		return 0
	}
	if d := time.Until(claims.ExpiresAt.Time); d > 0 {
		return d
	}
	return 0
}

// verifyLocal checks an HS256 token signed with the project secret.
func (s *SessionService) verifyLocal(accessToken string) (*domain.AuthUser, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		s.logger.Debug("auth: token rejected", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &domain.ErrUnauthorized{Message: "token expired"}
		}
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}

	if claims.Subject == "" || claims.Role == "anon" {
		return nil, &domain.ErrUnauthorized{Message: "token does not identify a user"}
	}
	return &domain.AuthUser{ID: claims.Subject, Email: claims.Email}, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
