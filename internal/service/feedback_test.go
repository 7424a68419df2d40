package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFeedback_SubmitAndReview(t *testing.T) {
	db := newFakeDB()
	svc := service.NewFeedbackService(db, zap.NewNop())
	id := &domain.Identity{UserID: "closer-1"}

	fb, err := svc.Submit(context.Background(), id, &domain.FeedbackRequest{Type: domain.FeedbackObjection, Content: "  « trop cher »  "})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackNew, fb.Status)
	assert.Equal(t, "« trop cher »", fb.Content)

	updated, err := svc.UpdateStatus(context.Background(), fb.ID, &domain.FeedbackStatusRequest{Status: domain.FeedbackReviewed})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackReviewed, updated.Status)

	pending, err := svc.List(context.Background(), domain.FeedbackNew)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFeedback_Validation(t *testing.T) {
	svc := service.NewFeedbackService(newFakeDB(), zap.NewNop())
	id := &domain.Identity{UserID: "closer-1"}

	cases := map[string]*domain.FeedbackRequest{
		"unknown type": {Type: "rant", Content: "x"},
		"empty":        {Type: domain.FeedbackGeneral, Content: "   "},
		"too long":     {Type: domain.FeedbackGeneral, Content: strings.Repeat("a", 4001)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), id, req)

			var validation *domain.ErrValidation
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestFeedback_ListRejectsUnknownStatus(t *testing.T) {
	svc := service.NewFeedbackService(newFakeDB(), zap.NewNop())

	_, err := svc.List(context.Background(), "closed")

	var validation *domain.ErrValidation
	assert.ErrorAs(t, err, &validation)
}
