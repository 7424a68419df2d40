package domain

import "time"

// ============================================================
// Profile: one row per authenticated user
// ============================================================

// Role is the sales role a candidate applies for.
type Role string

const (
	RoleNone   Role = ""
	RoleFixer  Role = "fixer"
	RoleCloser Role = "closer"
)

// Valid reports whether r is one of the two sales roles.
func (r Role) Valid() bool {
	return r == RoleFixer || r == RoleCloser
}

// Status is the onboarding state persisted on the profile.
type Status string

const (
	StatusNewUser           Status = "new_user"
	StatusFrameworkAccepted Status = "framework_accepted"
	StatusInTraining        Status = "in_training"
	StatusPendingAudio      Status = "pending_audio"
	StatusValidated         Status = "validated"
	StatusActive            Status = "active"
	StatusRejected          Status = "rejected"
)

var statusRank = map[Status]int{
	StatusNewUser:           0,
	StatusFrameworkAccepted: 1,
	StatusInTraining:        2,
	StatusPendingAudio:      3,
	StatusValidated:         4,
	StatusActive:            5,
}

// Known reports whether s is a status of the onboarding machine.
func (s Status) Known() bool {
	_, ok := statusRank[s]
	return ok || s == StatusRejected
}

// CanAdvanceTo reports whether moving from s to next keeps the status
// monotonic. Rejected is reachable from any state and is terminal.
func (s Status) CanAdvanceTo(next Status) bool {
	if next == StatusRejected {
		return s != StatusRejected
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	return ok && to > from
}

// Profile is the denormalized record attached to an auth user.
type Profile struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	FullName            string     `json:"full_name,omitempty"`
	Role                Role       `json:"role"`
	Status              Status     `json:"status"`
	IsAdmin             bool       `json:"is_admin"`
	FrameworkAcceptedAt *time.Time `json:"framework_accepted_at,omitempty"`
	TrainingCompletedAt *time.Time `json:"training_completed_at,omitempty"`
	ValidatedAt         *time.Time `json:"validated_at,omitempty"`
	ActivatedAt         *time.Time `json:"activated_at,omitempty"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}

// NewProfile returns the row created lazily on sign-up or first fetch.
func NewProfile(userID, email string) *Profile {
	return &Profile{
		ID:     userID,
		Email:  email,
		Status: StatusNewUser,
	}
}

// Identity is the typed "current user" injected into each request.
type Identity struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	AccessToken string   `json:"-"`
	Profile     *Profile `json:"profile"`
}

// IsAdmin reports whether the identity carries an admin profile.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Profile != nil && i.Profile.IsAdmin
}

// AuthUser is the user record returned by the auth provider.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a provider session returned to the SPA.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	TokenType    string   `json:"token_type"`
	User         AuthUser `json:"user"`
}

// ============================================================
// Auth: Request / Response types
// ============================================================

// CredentialsRequest is the body for sign-up and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpResponse is returned by POST /v1/auth/signup. Session is nil when
// the provider requires email confirmation first.
type SignUpResponse struct {
	User    AuthUser `json:"user"`
	Session *Session `json:"session,omitempty"`
	Profile *Profile `json:"profile"`
}

// SignInResponse is returned by POST /v1/auth/signin.
type SignInResponse struct {
	Session *Session `json:"session"`
	Profile *Profile `json:"profile"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordResetRequest is the body for POST /v1/auth/password/reset.
type PasswordResetRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// PasswordUpdateRequest is the body for PUT /v1/auth/password.
type PasswordUpdateRequest struct {
	Password string `json:"password"`
}
