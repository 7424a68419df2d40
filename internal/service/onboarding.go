package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/observability"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var onboardingTracer = otel.Tracer("service/onboarding")

// Buckets names the storage buckets used by the onboarding flow.
type Buckets struct {
	CV         string
	Recordings string
}

// OnboardingService drives a candidate from application to activation.
type OnboardingService struct {
	profiles     port.ProfileStore
	applications port.ApplicationStore
	training     port.TrainingStore
	storage      port.FileStorage
	content      port.ContentProvider
	buckets      Buckets
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewOnboardingService creates an onboarding service.
func NewOnboardingService(
	profiles port.ProfileStore,
	applications port.ApplicationStore,
	training port.TrainingStore,
	storage port.FileStorage,
	content port.ContentProvider,
	buckets Buckets,
	metrics *observability.Metrics,
	logger *zap.Logger,
	now func() time.Time,
) *OnboardingService {
	if now == nil {
		now = time.Now
	}
	return &OnboardingService{
		profiles:     profiles,
		applications: applications,
		training:     training,
		storage:      storage,
		content:      content,
		buckets:      buckets,
		metrics:      metrics,
		logger:       logger,
		now:          now,
	}
}

// ============================================================
// Route: GET /v1/me/route
// ============================================================

// Route gathers the router facts for the identity and resolves its page.
func (s *OnboardingService) Route(ctx context.Context, id *domain.Identity) (*domain.RouteDecision, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.Route")
	defer span.End()

	p := id.Profile
	facts := s.facts(ctx, p)
	route := domain.ResolveRoute(p, facts)
	span.SetAttributes(attribute.String("route", string(route)))

	d := &domain.RouteDecision{Route: route, Facts: facts}
	if p != nil {
		d.Status = p.Status
		d.Role = p.Role
	}
	return d, nil
}

// facts reads the application and training rows concurrently. A failed
// read is logged and leaves its facts at the zero value.
func (s *OnboardingService) facts(ctx context.Context, p *domain.Profile) domain.RouteFacts {
	if p == nil || p.IsAdmin {
		return domain.RouteFacts{}
	}

	var (
		app      *domain.Application
		progress *domain.TrainingProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.applications.GetApplicationByProfile(gctx, p.ID)
		if err != nil {
			s.logger.Warn("route: application read failed", zap.String("profile_id", p.ID), zap.Error(err))
			return nil
		}
		app = a
		return nil
	})
	g.Go(func() error {
		tp, err := s.training.GetProgress(gctx, p.ID)
		if err != nil {
			s.logger.Warn("route: training read failed", zap.String("profile_id", p.ID), zap.Error(err))
			return nil
		}
		progress = tp
		return nil
	})
	_ = g.Wait()

	return domain.FactsFrom(app, progress)
}

// ============================================================
// SubmitApplication: POST /v1/onboarding/application
// ============================================================

func (s *OnboardingService) SubmitApplication(ctx context.Context, id *domain.Identity, req *domain.ApplicationRequest) (*domain.Application, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.SubmitApplication")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := requireStatus(id.Profile, domain.StatusNewUser); err != nil {
		return nil, err
	}

	existing, err := s.applications.GetApplicationByProfile(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "an application was already submitted"}
	}

	app, err := s.applications.CreateApplication(ctx, &domain.Application{
		ID:                uuid.NewString(),
		ProfileID:         id.UserID,
		DesiredRole:       req.DesiredRole,
		Experience:        req.Experience,
		Availability:      req.Availability,
		Motivation:        req.Motivation,
		FrameworkAccepted: req.FrameworkAccepted,
		ReviewStatus:      domain.ReviewPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	p, err := s.profiles.UpdateProfile(ctx, id.UserID, map[string]any{"role": req.DesiredRole})
	if err != nil {
		return nil, fmt.Errorf("set desired role: %w", err)
	}
	id.Profile = p

	s.logger.Info("application submitted",
		zap.String("profile_id", id.UserID),
		zap.String("application_id", app.ID),
		zap.String("role", string(req.DesiredRole)),
	)
	return app, nil
}

// ============================================================
// UploadCV: POST /v1/onboarding/cv
// ============================================================

func (s *OnboardingService) UploadCV(ctx context.Context, id *domain.Identity, file *domain.FileUpload) (*domain.UploadedFile, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.UploadCV")
	defer span.End()

	if err := file.Validate(domain.UploadCV); err != nil {
		return nil, err
	}
	app, err := s.applications.GetApplicationByProfile(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, &domain.ErrConflict{Message: "submit the application before the CV"}
	}

	if err := s.storage.EnsureBucket(ctx, s.buckets.CV, true, domain.MaxCVBytes); err != nil {
		return nil, fmt.Errorf("ensure cv bucket: %w", err)
	}
	path := domain.StoragePath(id.UserID, domain.UploadCV, file.Ext(), s.now())
	up, err := s.storage.Upload(ctx, s.buckets.CV, path, file.ContentType, file.Data)
	if err != nil {
		return nil, fmt.Errorf("upload cv: %w", err)
	}

	if err := s.applications.UpdateApplication(ctx, app.ID, map[string]any{
		"cv_url":  up.PublicURL,
		"cv_path": up.Path,
	}); err != nil {
		return nil, fmt.Errorf("attach cv: %w", err)
	}

	s.logger.Info("cv uploaded", zap.String("profile_id", id.UserID), zap.String("path", up.Path))
	return up, nil
}

// advance moves the profile to next, stamping the extra columns. Backwards
// and repeated transitions are refused.
func (s *OnboardingService) advance(ctx context.Context, p *domain.Profile, next domain.Status, extra map[string]any) (*domain.Profile, error) {
	if !p.Status.CanAdvanceTo(next) {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("cannot move from %s to %s", p.Status, next)}
	}
	fields := map[string]any{"status": next}
	for k, v := range extra {
		fields[k] = v
	}
	updated, err := s.profiles.UpdateProfile(ctx, p.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.metrics.IncrStatusTransition(next)
	s.logger.Info("status changed",
		zap.String("profile_id", p.ID),
		zap.String("from", string(p.Status)),
		zap.String("to", string(next)),
	)
	return updated, nil
}

func requireStatus(p *domain.Profile, allowed ...domain.Status) error {
	if p == nil {
		return &domain.ErrConflict{Message: "profile not loaded"}
	}
	for _, st := range allowed {
		if p.Status == st {
			return nil
		}
	}
	return &domain.ErrConflict{Message: fmt.Sprintf("not allowed while status is %s", p.Status)}
}
