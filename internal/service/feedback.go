package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var feedbackTracer = otel.Tracer("service/feedback")

const maxFeedbackLength = 4000

// FeedbackService collects field feedback from fixers and closers.
type FeedbackService struct {
	store  port.FeedbackStore
	logger *zap.Logger
}

func NewFeedbackService(store port.FeedbackStore, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{store: store, logger: logger}
}

// Submit records a new feedback entry for the caller.
func (s *FeedbackService) Submit(ctx context.Context, id *domain.Identity, req *domain.FeedbackRequest) (*domain.Feedback, error) {
	ctx, span := feedbackTracer.Start(ctx, "FeedbackService.Submit")
	defer span.End()

	if !req.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be objection, script_improvement or general"}
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, &domain.ErrValidation{Field: "content", Message: "required"}
	}
	if len(content) > maxFeedbackLength {
		return nil, &domain.ErrValidation{Field: "content", Message: fmt.Sprintf("must not exceed %d characters", maxFeedbackLength)}
	}

	f, err := s.store.CreateFeedback(ctx, &domain.Feedback{
		ID:        uuid.NewString(),
		ProfileID: id.UserID,
		Type:      req.Type,
		Content:   content,
		Status:    domain.FeedbackNew,
	})
	if err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	s.logger.Info("feedback submitted", zap.String("profile_id", id.UserID), zap.String("type", string(req.Type)))
	return f, nil
}

// List returns feedback, optionally filtered by status.
func (s *FeedbackService) List(ctx context.Context, status domain.FeedbackStatus) ([]domain.Feedback, error) {
	ctx, span := feedbackTracer.Start(ctx, "FeedbackService.List")
	defer span.End()

	if status != "" && !status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be new, reviewed or implemented"}
	}
	fs, err := s.store.ListFeedback(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return fs, nil
}

// UpdateStatus moves a feedback entry to a new review status.
func (s *FeedbackService) UpdateStatus(ctx context.Context, feedbackID string, req *domain.FeedbackStatusRequest) (*domain.Feedback, error) {
	ctx, span := feedbackTracer.Start(ctx, "FeedbackService.UpdateStatus")
	defer span.End()

	if !req.Status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be new, reviewed or implemented"}
	}
	f, err := s.store.UpdateFeedback(ctx, feedbackID, map[string]any{"status": req.Status})
	if err != nil {
		return nil, fmt.Errorf("update feedback: %w", err)
	}
	return f, nil
}
