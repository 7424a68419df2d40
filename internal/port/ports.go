// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
)

// AuthProvider is the managed auth service (sign-up, sessions, recovery).
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string) (*domain.AuthUser, *domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
	GetUser(ctx context.Context, accessToken string) (*domain.AuthUser, error)
}

// ProfileStore persists profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error) // nil, nil when absent
	CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, fields map[string]any) (*domain.Profile, error)
	ListProfilesByRole(ctx context.Context, role domain.Role, status domain.Status) ([]domain.Profile, error)
	ListAdmins(ctx context.Context) ([]domain.Profile, error)
}

// ApplicationStore persists candidate applications.
type ApplicationStore interface {
	GetApplicationByProfile(ctx context.Context, profileID string) (*domain.Application, error)
	GetApplication(ctx context.Context, id string) (*domain.Application, error)
	CreateApplication(ctx context.Context, a *domain.Application) (*domain.Application, error)
	UpdateApplication(ctx context.Context, id string, fields map[string]any) error
	ListApplications(ctx context.Context, review domain.ReviewStatus) ([]domain.Application, error)
}

// TrainingStore persists training progress.
type TrainingStore interface {
	GetProgress(ctx context.Context, profileID string) (*domain.TrainingProgress, error)
	CreateProgress(ctx context.Context, p *domain.TrainingProgress) (*domain.TrainingProgress, error)
	UpdateProgress(ctx context.Context, profileID string, fields map[string]any) (*domain.TrainingProgress, error)
	ListPendingRecordings(ctx context.Context) ([]domain.TrainingProgress, error)
}

// KPIStore persists daily KPI rows.
type KPIStore interface {
	InsertFixerKPI(ctx context.Context, row *domain.FixerKPI) (*domain.FixerKPI, error)
	InsertCloserKPI(ctx context.Context, row *domain.CloserKPI) (*domain.CloserKPI, error)
	ListFixerKPIs(ctx context.Context, profileIDs []string, from, to string) ([]domain.FixerKPI, error)
	ListCloserKPIs(ctx context.Context, profileIDs []string, from, to string) ([]domain.CloserKPI, error)
}

// DossierStore persists financing dossiers.
type DossierStore interface {
	ListDossiers(ctx context.Context) ([]domain.Dossier, error)
	GetDossier(ctx context.Context, id string) (*domain.Dossier, error)
	UpdateDossier(ctx context.Context, id string, fields map[string]any) (*domain.Dossier, error)
}

// CRMStore reads companies, contacts and phones and applies dispatch.
type CRMStore interface {
	ListCompanies(ctx context.Context, filter domain.DispatchFilter) ([]domain.Company, error)
	ListContacts(ctx context.Context, companyIDs []string) ([]domain.Contact, error)
	ListPhones(ctx context.Context, contactIDs []string) ([]domain.Phone, error)
	FindContactByEmail(ctx context.Context, email string) (*domain.Contact, error)
	UpdateCompanies(ctx context.Context, ids []string, fields map[string]any) error
}

// FeedbackStore persists field feedback.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, f *domain.Feedback) (*domain.Feedback, error)
	ListFeedback(ctx context.Context, status domain.FeedbackStatus) ([]domain.Feedback, error)
	UpdateFeedback(ctx context.Context, id string, fields map[string]any) (*domain.Feedback, error)
}

// EmailStore persists sent and received emails.
type EmailStore interface {
	InsertSentEmail(ctx context.Context, e *domain.SentEmail) (*domain.SentEmail, error)
	UpdateSentEmail(ctx context.Context, id string, fields map[string]any) error
	GetSentEmail(ctx context.Context, id string) (*domain.SentEmail, error)
	LatestSentTo(ctx context.Context, toEmail string) (*domain.SentEmail, error)
	InsertReceivedEmail(ctx context.Context, e *domain.ReceivedEmail) (*domain.ReceivedEmail, error)
	ListSentEmails(ctx context.Context, limit int) ([]domain.SentEmail, error)
	ListReceivedEmails(ctx context.Context, limit int) ([]domain.ReceivedEmail, error)
}

// FileStorage stores uploaded files in public buckets.
type FileStorage interface {
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) (*domain.UploadedFile, error)
	EnsureBucket(ctx context.Context, bucket string, public bool, sizeLimit int64) error
}

// EmailSender delivers an outbound email through the provider.
type EmailSender interface {
	Send(ctx context.Context, msg *OutboundMessage) (string, error)
}

// OutboundMessage is the provider-neutral email handed to an EmailSender.
type OutboundMessage struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
	Tags    map[string]string
}

// LLMProber sends one minimal completion to check an LLM key.
type LLMProber interface {
	Probe(ctx context.Context) (model string, latency time.Duration, err error)
}

// ContentProvider renders training modules.
type ContentProvider interface {
	Module(module domain.TrainingModule, role domain.Role) (title, html string, err error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	SetWithTTL(key string, value T, ttl time.Duration)
	Delete(key string)
}

// HealthChecker reports liveness of a backend dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
