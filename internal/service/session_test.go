package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/cache"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/observability"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSessionService(t *testing.T, auth *fakeAuth, db *fakeDB, secret string) (*service.SessionService, *observability.Metrics) {
	t.Helper()
	tokens := cache.New[domain.AuthUser](time.Minute)
	t.Cleanup(tokens.Stop)
	m := observability.NewMetrics()
	return service.NewSessionService(auth, db, tokens, secret, m, zap.NewNop()), m
}

func TestSignUp_CreatesNewUserProfile(t *testing.T) {
	db := newFakeDB()
	svc, _ := newSessionService(t, newFakeAuth(), db, "")

	resp, err := svc.SignUp(context.Background(), &domain.CredentialsRequest{Email: " Ada@Example.com ", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, domain.StatusNewUser, resp.Profile.Status)
	assert.False(t, resp.Profile.IsAdmin)
	assert.Contains(t, db.profiles, resp.User.ID)
}

func TestSignUp_RejectsShortPassword(t *testing.T) {
	svc, _ := newSessionService(t, newFakeAuth(), newFakeDB(), "")

	_, err := svc.SignUp(context.Background(), &domain.CredentialsRequest{Email: "ada@example.com", Password: "12345"})

	var validation *domain.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "password", validation.Field)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	auth := newFakeAuth()
	auth.users["ada@example.com"] = "secret1"
	svc, _ := newSessionService(t, auth, newFakeDB(), "")

	_, err := svc.SignIn(context.Background(), &domain.CredentialsRequest{Email: "ada@example.com", Password: "wrong"})

	var unauthorized *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, "Invalid login credentials", unauthorized.Message)
}

func TestSignIn_CreatesMissingProfile(t *testing.T) {
	auth := newFakeAuth()
	auth.users["ada@example.com"] = "secret1"
	db := newFakeDB()
	svc, _ := newSessionService(t, auth, db, "")

	resp, err := svc.SignIn(context.Background(), &domain.CredentialsRequest{Email: "ada@example.com", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "tok-ada@example.com", resp.Session.AccessToken)
	assert.Equal(t, domain.StatusNewUser, resp.Profile.Status)
}

func TestAuthenticate_MemoisesProviderVerification(t *testing.T) {
	auth := newFakeAuth()
	s := auth.session("ada@example.com")
	svc, m := newSessionService(t, auth, newFakeDB(), "")

	first, err := svc.Authenticate(context.Background(), s.AccessToken)
	require.NoError(t, err)
	second, err := svc.Authenticate(context.Background(), s.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, 1, auth.getCalls)
	assert.Equal(t, first.UserID, second.UserID)
	assert.InDelta(t, 0.5, m.Snapshot().TokenCacheHitRate, 0.001)
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	svc, _ := newSessionService(t, newFakeAuth(), newFakeDB(), "")

	_, err := svc.Authenticate(context.Background(), "nope")

	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)
}

func TestSignOut_EvictsCachedToken(t *testing.T) {
	auth := newFakeAuth()
	s := auth.session("ada@example.com")
	svc, _ := newSessionService(t, auth, newFakeDB(), "")

	id, err := svc.Authenticate(context.Background(), s.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(context.Background(), id))

	_, err = svc.Authenticate(context.Background(), s.AccessToken)

	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, []string{s.AccessToken}, auth.signOuts)
	assert.Equal(t, 2, auth.getCalls)
}

func signToken(t *testing.T, secret string, exp time.Time, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "ada@example.com",
		"role":  role,
		"exp":   exp.Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthenticate_LocalJWT(t *testing.T) {
	auth := newFakeAuth()
	svc, _ := newSessionService(t, auth, newFakeDB(), "project-secret")

	id, err := svc.Authenticate(context.Background(), signToken(t, "project-secret", time.Now().Add(time.Hour), "authenticated"))

	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, 0, auth.getCalls)
}

func TestAuthenticate_LocalJWTRejections(t *testing.T) {
	svc, _ := newSessionService(t, newFakeAuth(), newFakeDB(), "project-secret")

	cases := map[string]string{
		"expired":    signToken(t, "project-secret", time.Now().Add(-time.Hour), "authenticated"),
		"bad secret": signToken(t, "other-secret", time.Now().Add(time.Hour), "authenticated"),
		"anon role":  signToken(t, "project-secret", time.Now().Add(time.Hour), "anon"),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), token)

			var unauthorized *domain.ErrUnauthorized
			assert.ErrorAs(t, err, &unauthorized)
		})
	}
}

func TestAuthenticate_CacheHonoursTokenExpiry(t *testing.T) {
	auth := newFakeAuth()
	token := signToken(t, "provider-secret", time.Now().Add(1500*time.Millisecond), "authenticated")
	auth.tokens[token] = domain.AuthUser{ID: "user-1", Email: "ada@example.com"}
	svc, _ := newSessionService(t, auth, newFakeDB(), "")

	_, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 1, auth.getCalls)

	// jwt exp has second precision; wait past it so the cached entry lapses
	time.Sleep(2100 * time.Millisecond)
	_, err = svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 2, auth.getCalls)
}

func TestUpdatePassword_MinimumLength(t *testing.T) {
	svc, _ := newSessionService(t, newFakeAuth(), newFakeDB(), "")

	err := svc.UpdatePassword(context.Background(), &domain.Identity{AccessToken: "t"}, &domain.PasswordUpdateRequest{Password: "abc"})

	var validation *domain.ErrValidation
	assert.ErrorAs(t, err, &validation)
}
