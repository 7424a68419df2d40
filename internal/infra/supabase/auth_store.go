package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
)

// ============================================================
// AuthProvider implementation: GoTrue under /auth/v1
// ============================================================

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	TokenType    string     `json:"token_type"`
	User         gotrueUser `json:"user"`
}

func (s *gotrueSession) toDomain() *domain.Session {
	return &domain.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		TokenType:    s.TokenType,
		User:         domain.AuthUser{ID: s.User.ID, Email: s.User.Email},
	}
}

// authCall sends one auth request. bearer is the user's access token, or
// empty for anonymous endpoints.
func (c *Client) authCall(ctx context.Context, method, path, bearer string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/auth/v1/"+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.send(req)
}

// authErr maps provider answers to domain errors. Credential and token
// failures are 401 with the provider text; other 4xx are validation errors.
func (c *Client) authErr(service string, err error, credentialFailure bool) error {
	var backend *domain.ErrBackend
	if errors.As(err, &backend) {
		switch {
		case backend.Status == http.StatusUnauthorized || backend.Status == http.StatusForbidden:
			return &domain.ErrUnauthorized{Message: backend.Message}
		case backend.Status == http.StatusUnprocessableEntity && !credentialFailure:
			return &domain.ErrConflict{Message: backend.Message}
		case backend.Status >= 400 && backend.Status < 500:
			if credentialFailure {
				return &domain.ErrUnauthorized{Message: backend.Message}
			}
			return &domain.ErrValidation{Field: "auth", Message: backend.Message}
		}
	}
	return c.wrapErr(service, err)
}

// SignUp registers a user. Session is nil when email confirmation is on.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.AuthUser, *domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignUp")
	defer span.End()

	body, err := c.authCall(ctx, http.MethodPost, "signup", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, nil, c.authErr("supabase/auth.signup", err, false)
	}

	// Without confirmation GoTrue answers with a session; otherwise with the bare user.
	var sess gotrueSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, nil, fmt.Errorf("decode signup: %w", err)
	}
	if sess.AccessToken != "" {
		s := sess.toDomain()
		return &s.User, s, nil
	}

	var u gotrueUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, nil, fmt.Errorf("decode signup user: %w", err)
	}
	return &domain.AuthUser{ID: u.ID, Email: u.Email}, nil, nil
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignIn")
	defer span.End()

	body, err := c.authCall(ctx, http.MethodPost, "token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, c.authErr("supabase/auth.signin", err, true)
	}
	return decodeSession(body)
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Refresh")
	defer span.End()

	body, err := c.authCall(ctx, http.MethodPost, "token?grant_type=refresh_token", "", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, c.authErr("supabase/auth.refresh", err, true)
	}
	return decodeSession(body)
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SignOut")
	defer span.End()

	if _, err := c.authCall(ctx, http.MethodPost, "logout", accessToken, nil); err != nil {
		return c.authErr("supabase/auth.logout", err, true)
	}
	return nil
}

// ResetPassword asks the provider to send the recovery email.
func (c *Client) ResetPassword(ctx context.Context, email, redirectTo string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ResetPassword")
	defer span.End()

	path := "recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	if _, err := c.authCall(ctx, http.MethodPost, path, "", map[string]string{"email": email}); err != nil {
		return c.authErr("supabase/auth.recover", err, false)
	}
	return nil
}

// UpdatePassword sets a new password for the user behind accessToken.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePassword")
	defer span.End()

	if _, err := c.authCall(ctx, http.MethodPut, "user", accessToken, map[string]string{"password": password}); err != nil {
		return c.authErr("supabase/auth.user", err, false)
	}
	return nil
}

// GetUser verifies accessToken against the provider.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.AuthUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()

	body, err := c.authCall(ctx, http.MethodGet, "user", accessToken, nil)
	if err != nil {
		return nil, c.authErr("supabase/auth.user", err, true)
	}
	var u gotrueUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	return &domain.AuthUser{ID: u.ID, Email: u.Email}, nil
}

func decodeSession(body []byte) (*domain.Session, error) {
	var sess gotrueSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.AccessToken == "" {
		return nil, &domain.ErrUnauthorized{Message: "provider returned no session"}
	}
	return sess.toDomain(), nil
}
