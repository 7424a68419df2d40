package supabase

import (
	"context"
	"fmt"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
)

// FeedbackStore implementation: table feedback.

const feedbackTable = "feedback"

func (c *Client) CreateFeedback(ctx context.Context, f *domain.Feedback) (*domain.Feedback, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateFeedback")
	defer span.End()

	created, err := insertOne[domain.Feedback](ctx, c, "supabase/feedback", feedbackTable, map[string]any{
		"id":         f.ID,
		"profile_id": f.ProfileID,
		"type":       f.Type,
		"content":    f.Content,
		"status":     f.Status,
	})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return f, nil
	}
	return created, nil
}

func (c *Client) ListFeedback(ctx context.Context, status domain.FeedbackStatus) ([]domain.Feedback, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListFeedback")
	defer span.End()

	path := feedbackTable + "?order=created_at.desc"
	if status != "" {
		path += "&status=" + eq(string(status))
	}
	return getMany[domain.Feedback](ctx, c, "supabase/feedback", path)
}

func (c *Client) UpdateFeedback(ctx context.Context, id string, fields map[string]any) (*domain.Feedback, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateFeedback")
	defer span.End()

	f, err := patchOne[domain.Feedback](ctx, c, "supabase/feedback", fmt.Sprintf("%s?id=%s", feedbackTable, eq(id)), fields)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, &domain.ErrNotFound{Resource: "feedback", ID: id}
	}
	return f, nil
}
