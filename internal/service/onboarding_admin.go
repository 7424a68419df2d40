package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Admin review: /v1/admin/applications, /v1/admin/recordings
// ============================================================

// ListApplications lists applications, optionally filtered by review status.
func (s *OnboardingService) ListApplications(ctx context.Context, review domain.ReviewStatus) ([]domain.Application, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.ListApplications")
	defer span.End()

	switch review {
	case "", domain.ReviewPending, domain.ReviewApproved, domain.ReviewRejected:
	default:
		return nil, &domain.ErrValidation{Field: "review_status", Message: "must be pending, approved or rejected"}
	}
	apps, err := s.applications.ListApplications(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ReviewApplication records the admin decision on an application.
func (s *OnboardingService) ReviewApplication(ctx context.Context, applicationID string, req *domain.ReviewRequest) (*domain.Application, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.ReviewApplication")
	defer span.End()

	if req.Decision != domain.ReviewApproved && req.Decision != domain.ReviewRejected {
		return nil, &domain.ErrValidation{Field: "decision", Message: "must be approved or rejected"}
	}
	app, err := s.applications.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.applications.UpdateApplication(ctx, applicationID, map[string]any{"review_status": req.Decision}); err != nil {
		return nil, fmt.Errorf("review application: %w", err)
	}
	app.ReviewStatus = req.Decision

	s.logger.Info("application reviewed",
		zap.String("application_id", applicationID),
		zap.String("profile_id", app.ProfileID),
		zap.String("decision", string(req.Decision)),
	)
	return app, nil
}

// ListPendingRecordings lists test-call recordings awaiting validation.
func (s *OnboardingService) ListPendingRecordings(ctx context.Context) ([]domain.TrainingProgress, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.ListPendingRecordings")
	defer span.End()

	rows, err := s.training.ListPendingRecordings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	return rows, nil
}

// ValidateRecording accepts the test call of a pending_audio profile.
func (s *OnboardingService) ValidateRecording(ctx context.Context, profileID string) (*domain.Profile, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.ValidateRecording")
	defer span.End()

	p, err := s.loadProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(p, domain.StatusPendingAudio); err != nil {
		return nil, err
	}
	progress, err := s.training.GetProgress(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if progress == nil || progress.TestCallURL == "" {
		return nil, &domain.ErrConflict{Message: "no recording to validate"}
	}

	now := s.now().UTC()
	if _, err := s.training.UpdateProgress(ctx, profileID, map[string]any{
		"test_call_validated": true,
		"completed_at":        now,
	}); err != nil {
		return nil, fmt.Errorf("validate recording: %w", err)
	}
	return s.advance(ctx, p, domain.StatusValidated, map[string]any{"validated_at": now})
}

// RejectProfile ends the onboarding of a profile.
func (s *OnboardingService) RejectProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.RejectProfile")
	defer span.End()

	p, err := s.loadProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.advance(ctx, p, domain.StatusRejected, nil)
}

func (s *OnboardingService) loadProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if p == nil {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: profileID}
	}
	return p, nil
}
