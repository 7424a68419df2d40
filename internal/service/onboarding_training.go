package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Quizzes: GET /v1/onboarding/quiz/{bank}
// ============================================================

// QuizBank returns a question bank by name. Correct indexes are never
// serialised.
func (s *OnboardingService) QuizBank(name string) (*domain.QuestionBank, error) {
	switch name {
	case domain.FrameworkQuiz.Name:
		return &domain.FrameworkQuiz, nil
	case domain.ValidationQuiz.Name:
		return &domain.ValidationQuiz, nil
	}
	return nil, &domain.ErrNotFound{Resource: "quiz", ID: name}
}

// ============================================================
// AcceptFramework: POST /v1/onboarding/framework
// ============================================================

func (s *OnboardingService) AcceptFramework(ctx context.Context, id *domain.Identity, sub *domain.QuizSubmission) (*domain.QuizOutcome, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.AcceptFramework")
	defer span.End()

	if err := requireStatus(id.Profile, domain.StatusNewUser); err != nil {
		return nil, err
	}
	app, err := s.applications.GetApplicationByProfile(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil || app.ReviewStatus != domain.ReviewApproved {
		return nil, &domain.ErrConflict{Message: "the application has not been approved"}
	}

	result, err := domain.Grade(domain.FrameworkQuiz, sub.Answers)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrQuizAttempt("framework", result.Passed)
	span.SetAttributes(attribute.Int("quiz.percentage", result.Percentage))

	progress, err := s.training.GetProgress(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	if !result.Passed {
		if progress != nil {
			if _, err := s.training.UpdateProgress(ctx, id.UserID, map[string]any{
				"onboarding_quiz_score":  result.Percentage,
				"onboarding_quiz_passed": false,
			}); err != nil {
				return nil, fmt.Errorf("save quiz score: %w", err)
			}
		}
		return &domain.QuizOutcome{Result: result, Restart: true, Profile: id.Profile}, nil
	}

	score := result.Percentage
	if progress == nil {
		_, err = s.training.CreateProgress(ctx, &domain.TrainingProgress{
			ID:                   uuid.NewString(),
			ProfileID:            id.UserID,
			OnboardingQuizScore:  &score,
			OnboardingQuizPassed: true,
		})
	} else {
		_, err = s.training.UpdateProgress(ctx, id.UserID, map[string]any{
			"onboarding_quiz_score":  score,
			"onboarding_quiz_passed": true,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("save training progress: %w", err)
	}

	p, err := s.advance(ctx, id.Profile, domain.StatusFrameworkAccepted, map[string]any{
		"framework_accepted_at": s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	id.Profile = p
	return &domain.QuizOutcome{Result: result, Profile: p}, nil
}

// ============================================================
// Training modules: GET/POST /v1/onboarding/modules/{module}
// ============================================================

// GetModule renders a module. The role module is returned locked, without
// HTML, until the common module is done.
func (s *OnboardingService) GetModule(ctx context.Context, id *domain.Identity, module domain.TrainingModule) (*domain.ModuleContent, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.GetModule")
	defer span.End()
	span.SetAttributes(attribute.String("module", string(module)))

	if module != domain.ModuleCommon && module != domain.ModuleRole {
		return nil, &domain.ErrNotFound{Resource: "training module", ID: string(module)}
	}
	if err := requireTrainingAccess(id.Profile); err != nil {
		return nil, err
	}

	progress, err := s.training.GetProgress(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if progress == nil {
		progress = &domain.TrainingProgress{ProfileID: id.UserID}
	}

	out := &domain.ModuleContent{Module: module}
	switch module {
	case domain.ModuleCommon:
		out.Completed = progress.ModuleCommonCompleted
	case domain.ModuleRole:
		out.Completed = progress.ModuleRoleCompleted
		if !progress.ModuleCommonCompleted {
			out.Locked = true
			return out, nil
		}
	}

	out.Title, out.HTML, err = s.content.Module(module, id.Profile.Role)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteModule marks a module done. The first completion moves the
// profile into in_training.
func (s *OnboardingService) CompleteModule(ctx context.Context, id *domain.Identity, module domain.TrainingModule) (*domain.TrainingState, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.CompleteModule")
	defer span.End()
	span.SetAttributes(attribute.String("module", string(module)))

	if err := requireStatus(id.Profile, domain.StatusFrameworkAccepted, domain.StatusInTraining); err != nil {
		return nil, err
	}
	progress, err := s.training.GetProgress(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if progress == nil {
		return nil, &domain.ErrConflict{Message: "onboarding has not started"}
	}

	fields := map[string]any{}
	switch module {
	case domain.ModuleCommon:
		fields["module_common_completed"] = true
	case domain.ModuleRole:
		if !progress.ModuleCommonCompleted {
			return nil, &domain.ErrConflict{Message: "the role module is locked until the common module is done"}
		}
		fields["module_role_completed"] = true
	default:
		return nil, &domain.ErrNotFound{Resource: "training module", ID: string(module)}
	}

	progress, err = s.training.UpdateProgress(ctx, id.UserID, fields)
	if err != nil {
		return nil, fmt.Errorf("complete module: %w", err)
	}

	p := id.Profile
	if p.Status == domain.StatusFrameworkAccepted {
		p, err = s.advance(ctx, p, domain.StatusInTraining, nil)
		if err != nil {
			return nil, err
		}
		id.Profile = p
	}
	if module == domain.ModuleRole && p.TrainingCompletedAt == nil {
		p, err = s.profiles.UpdateProfile(ctx, p.ID, map[string]any{"training_completed_at": s.now().UTC()})
		if err != nil {
			return nil, fmt.Errorf("stamp training completion: %w", err)
		}
		id.Profile = p
	}

	s.logger.Info("module completed", zap.String("profile_id", id.UserID), zap.String("module", string(module)))
	return &domain.TrainingState{
		Progress: progress,
		Profile:  p,
		Next:     domain.ResolveRoute(p, domain.FactsFrom(nil, progress)),
	}, nil
}

// ============================================================
// SubmitValidationQuiz: POST /v1/onboarding/validation-quiz
// ============================================================

func (s *OnboardingService) SubmitValidationQuiz(ctx context.Context, id *domain.Identity, sub *domain.QuizSubmission) (*domain.QuizOutcome, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.SubmitValidationQuiz")
	defer span.End()

	if err := requireStatus(id.Profile, domain.StatusInTraining); err != nil {
		return nil, err
	}
	progress, err := s.training.GetProgress(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if progress == nil || !progress.ModuleCommonCompleted || !progress.ModuleRoleCompleted {
		return nil, &domain.ErrConflict{Message: "both training modules must be completed first"}
	}

	result, err := domain.Grade(domain.ValidationQuiz, sub.Answers)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrQuizAttempt("validation", result.Passed)
	span.SetAttributes(attribute.Int("quiz.percentage", result.Percentage))

	if _, err := s.training.UpdateProgress(ctx, id.UserID, map[string]any{
		"quiz_score":  result.Percentage,
		"quiz_passed": result.Passed,
	}); err != nil {
		return nil, fmt.Errorf("save quiz score: %w", err)
	}
	if !result.Passed {
		return &domain.QuizOutcome{Result: result, Restart: true, Profile: id.Profile}, nil
	}

	p, err := s.advance(ctx, id.Profile, domain.StatusPendingAudio, nil)
	if err != nil {
		return nil, err
	}
	id.Profile = p
	return &domain.QuizOutcome{Result: result, Profile: p}, nil
}

// ============================================================
// UploadRecording: POST /v1/onboarding/recording
// ============================================================

func (s *OnboardingService) UploadRecording(ctx context.Context, id *domain.Identity, file *domain.FileUpload) (*domain.UploadedFile, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.UploadRecording")
	defer span.End()

	if err := requireStatus(id.Profile, domain.StatusPendingAudio); err != nil {
		return nil, err
	}
	if err := file.Validate(domain.UploadTestCall); err != nil {
		return nil, err
	}

	if err := s.storage.EnsureBucket(ctx, s.buckets.Recordings, true, domain.MaxRecordingBytes); err != nil {
		return nil, fmt.Errorf("ensure recordings bucket: %w", err)
	}
	path := domain.StoragePath(id.UserID, domain.UploadTestCall, file.Ext(), s.now())
	up, err := s.storage.Upload(ctx, s.buckets.Recordings, path, file.ContentType, file.Data)
	if err != nil {
		return nil, fmt.Errorf("upload recording: %w", err)
	}

	if _, err := s.training.UpdateProgress(ctx, id.UserID, map[string]any{
		"test_call_url":  up.PublicURL,
		"test_call_path": up.Path,
	}); err != nil {
		return nil, fmt.Errorf("attach recording: %w", err)
	}

	s.logger.Info("recording uploaded", zap.String("profile_id", id.UserID), zap.Int64("bytes", file.Size))
	return up, nil
}

// ============================================================
// Activate: POST /v1/onboarding/activate
// ============================================================

// Activate flips a validated profile to active. Any other status returns
// the profile unchanged.
func (s *OnboardingService) Activate(ctx context.Context, id *domain.Identity) (*domain.Profile, error) {
	ctx, span := onboardingTracer.Start(ctx, "OnboardingService.Activate")
	defer span.End()

	if id.Profile == nil || id.Profile.Status != domain.StatusValidated {
		return id.Profile, nil
	}
	p, err := s.advance(ctx, id.Profile, domain.StatusActive, map[string]any{
		"activated_at": s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	id.Profile = p
	return p, nil
}

// requireTrainingAccess allows module reading from framework acceptance on.
func requireTrainingAccess(p *domain.Profile) error {
	if p == nil || p.Status == domain.StatusRejected || p.Status == domain.StatusNewUser {
		return &domain.ErrConflict{Message: "training is not open for this profile"}
	}
	return nil
}
