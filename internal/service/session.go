// Package service holds the use cases of the BFA. Each service depends on
// the ports it needs and nothing else.
package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/observability"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

const minPasswordLength = 6

// SessionService orchestrates authentication flows.
type SessionService struct {
	auth      port.AuthProvider
	profiles  port.ProfileStore
	tokens    port.Cache[domain.AuthUser]
	jwtSecret []byte
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewSessionService creates a session service. With an empty jwtSecret,
// access tokens are verified against the provider and memoised in tokens.
func NewSessionService(auth port.AuthProvider, profiles port.ProfileStore, tokens port.Cache[domain.AuthUser], jwtSecret string, metrics *observability.Metrics, logger *zap.Logger) *SessionService {
	return &SessionService{
		auth:      auth,
		profiles:  profiles,
		tokens:    tokens,
		jwtSecret: []byte(jwtSecret),
		metrics:   metrics,
		logger:    logger,
	}
}

// ============================================================
// SignUp: POST /v1/auth/signup
// ============================================================

func (s *SessionService) SignUp(ctx context.Context, req *domain.CredentialsRequest) (*domain.SignUpResponse, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.SignUp")
	defer span.End()

	email, err := validateCredentials(req)
	if err != nil {
		return nil, err
	}

	user, session, err := s.auth.SignUp(ctx, email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	profile, err := s.ensureProfile(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return &domain.SignUpResponse{User: *user, Session: session, Profile: profile}, nil
}

// ============================================================
// SignIn: POST /v1/auth/signin
// ============================================================

func (s *SessionService) SignIn(ctx context.Context, req *domain.CredentialsRequest) (*domain.SignInResponse, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.SignIn")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "credentials", Message: "email and password are required"}
	}

	session, err := s.auth.SignIn(ctx, email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", session.User.ID))

	profile, err := s.ensureProfile(ctx, session.User.ID, session.User.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", zap.String("user_id", session.User.ID))
	return &domain.SignInResponse{Session: session, Profile: profile}, nil
}

// Refresh exchanges a refresh token for a new session.
func (s *SessionService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.Session, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Refresh")
	defer span.End()

	if strings.TrimSpace(req.RefreshToken) == "" {
		return nil, &domain.ErrValidation{Field: "refresh_token", Message: "required"}
	}
	session, err := s.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return session, nil
}

// SignOut revokes the session and forgets the cached verification.
func (s *SessionService) SignOut(ctx context.Context, id *domain.Identity) error {
	ctx, span := sessionTracer.Start(ctx, "SessionService.SignOut")
	defer span.End()

	s.tokens.Delete(tokenKey(id.AccessToken))
	if err := s.auth.SignOut(ctx, id.AccessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.logger.Info("user signed out", zap.String("user_id", id.UserID))
	return nil
}

// ResetPassword asks the provider to mail a recovery link. Unknown
// addresses are not revealed.
func (s *SessionService) ResetPassword(ctx context.Context, req *domain.PasswordResetRequest) error {
	ctx, span := sessionTracer.Start(ctx, "SessionService.ResetPassword")
	defer span.End()

	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return &domain.ErrValidation{Field: "email", Message: "invalid email address"}
	}
	if err := s.auth.ResetPassword(ctx, strings.TrimSpace(req.Email), req.RedirectTo); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// UpdatePassword sets a new password for the signed-in user.
func (s *SessionService) UpdatePassword(ctx context.Context, id *domain.Identity, req *domain.PasswordUpdateRequest) error {
	ctx, span := sessionTracer.Start(ctx, "SessionService.UpdatePassword")
	defer span.End()

	if len(req.Password) < minPasswordLength {
		return &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	if err := s.auth.UpdatePassword(ctx, id.AccessToken, req.Password); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password updated", zap.String("user_id", id.UserID))
	return nil
}

// RefreshProfile reloads the profile of the identity, creating it if needed.
func (s *SessionService) RefreshProfile(ctx context.Context, id *domain.Identity) (*domain.Profile, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.RefreshProfile")
	defer span.End()

	p, err := s.ensureProfile(ctx, id.UserID, id.Email)
	if err != nil {
		return nil, err
	}
	id.Profile = p
	return p, nil
}

// ensureProfile returns the profile of userID, inserting the new_user row
// on first sight.
func (s *SessionService) ensureProfile(ctx context.Context, userID, email string) (*domain.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if p != nil {
		return p, nil
	}

	p, err = s.profiles.CreateProfile(ctx, domain.NewProfile(userID, email))
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.logger.Info("profile created", zap.String("user_id", userID))
	return p, nil
}

func validateCredentials(req *domain.CredentialsRequest) (string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", &domain.ErrValidation{Field: "email", Message: "invalid email address"}
	}
	if len(req.Password) < minPasswordLength {
		return "", &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	return email, nil
}
