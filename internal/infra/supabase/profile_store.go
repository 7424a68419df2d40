package supabase

import (
	"context"
	"fmt"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ProfileStore implementation: table profiles
// ============================================================

const profilesTable = "profiles"

// GetProfile returns the profile row, or nil when the user has none yet.
func (c *Client) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", id))

	path := fmt.Sprintf("%s?id=%s&limit=1", profilesTable, eq(id))
	return getOne[domain.Profile](ctx, c, "supabase/profiles", path)
}

// CreateProfile inserts a profile row.
func (c *Client) CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", p.ID))

	row := map[string]any{
		"id":       p.ID,
		"email":    p.Email,
		"role":     nullableString(string(p.Role)),
		"status":   p.Status,
		"is_admin": p.IsAdmin,
	}
	if p.FullName != "" {
		row["full_name"] = p.FullName
	}
	created, err := insertOne[domain.Profile](ctx, c, "supabase/profiles", profilesTable, row)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return p, nil
	}
	return created, nil
}

// UpdateProfile patches the profile and returns the new row.
func (c *Client) UpdateProfile(ctx context.Context, id string, fields map[string]any) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", id))

	path := fmt.Sprintf("%s?id=%s", profilesTable, eq(id))
	p, err := patchOne[domain.Profile](ctx, c, "supabase/profiles", path, fields)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: id}
	}
	return p, nil
}

// ListProfilesByRole lists profiles of role, optionally filtered by status.
func (c *Client) ListProfilesByRole(ctx context.Context, role domain.Role, status domain.Status) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProfilesByRole")
	defer span.End()
	span.SetAttributes(attribute.String("profile.role", string(role)))

	path := fmt.Sprintf("%s?role=%s&is_admin=eq.false&order=email.asc", profilesTable, eq(string(role)))
	if status != "" {
		path += "&status=" + eq(string(status))
	}
	return getMany[domain.Profile](ctx, c, "supabase/profiles", path)
}

// ListAdmins lists admin profiles, oldest first.
func (c *Client) ListAdmins(ctx context.Context) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAdmins")
	defer span.End()

	path := profilesTable + "?is_admin=eq.true&order=created_at.asc"
	return getMany[domain.Profile](ctx, c, "supabase/profiles", path)
}

// ============================================================
// ApplicationStore implementation: table applications
// ============================================================

const applicationsTable = "applications"

// GetApplicationByProfile returns the latest application of a profile.
func (c *Client) GetApplicationByProfile(ctx context.Context, profileID string) (*domain.Application, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetApplicationByProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", profileID))

	path := fmt.Sprintf("%s?profile_id=%s&order=created_at.desc&limit=1", applicationsTable, eq(profileID))
	return getOne[domain.Application](ctx, c, "supabase/applications", path)
}

// GetApplication returns an application by id.
func (c *Client) GetApplication(ctx context.Context, id string) (*domain.Application, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetApplication")
	defer span.End()

	path := fmt.Sprintf("%s?id=%s&limit=1", applicationsTable, eq(id))
	a, err := getOne[domain.Application](ctx, c, "supabase/applications", path)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &domain.ErrNotFound{Resource: "application", ID: id}
	}
	return a, nil
}

// CreateApplication inserts an application row.
func (c *Client) CreateApplication(ctx context.Context, a *domain.Application) (*domain.Application, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateApplication")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", a.ProfileID))

	row := map[string]any{
		"id":                         a.ID,
		"profile_id":                 a.ProfileID,
		"desired_role":               a.DesiredRole,
		"experience":                 a.Experience,
		"availability":               a.Availability,
		"motivation":                 a.Motivation,
		"ethical_framework_accepted": a.FrameworkAccepted,
		"review_status":              a.ReviewStatus,
	}
	created, err := insertOne[domain.Application](ctx, c, "supabase/applications", applicationsTable, row)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return a, nil
	}
	return created, nil
}

// UpdateApplication patches an application row.
func (c *Client) UpdateApplication(ctx context.Context, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateApplication")
	defer span.End()

	path := fmt.Sprintf("%s?id=%s", applicationsTable, eq(id))
	a, err := patchOne[domain.Application](ctx, c, "supabase/applications", path, fields)
	if err != nil {
		return err
	}
	if a == nil {
		return &domain.ErrNotFound{Resource: "application", ID: id}
	}
	return nil
}

// ListApplications lists applications, newest first, optionally by review.
func (c *Client) ListApplications(ctx context.Context, review domain.ReviewStatus) ([]domain.Application, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListApplications")
	defer span.End()

	path := applicationsTable + "?order=created_at.desc"
	if review != "" {
		path += "&review_status=" + eq(string(review))
	}
	return getMany[domain.Application](ctx, c, "supabase/applications", path)
}

// ============================================================
// TrainingStore implementation: table training_progress
// ============================================================

const trainingTable = "training_progress"

// GetProgress returns the training row of a profile, or nil before onboarding.
func (c *Client) GetProgress(ctx context.Context, profileID string) (*domain.TrainingProgress, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProgress")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", profileID))

	path := fmt.Sprintf("%s?profile_id=%s&limit=1", trainingTable, eq(profileID))
	return getOne[domain.TrainingProgress](ctx, c, "supabase/training_progress", path)
}

// CreateProgress inserts the training row of a profile.
func (c *Client) CreateProgress(ctx context.Context, p *domain.TrainingProgress) (*domain.TrainingProgress, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProgress")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", p.ProfileID))

	row := map[string]any{
		"id":                      p.ID,
		"profile_id":              p.ProfileID,
		"module_common_completed": p.ModuleCommonCompleted,
		"module_role_completed":   p.ModuleRoleCompleted,
		"onboarding_quiz_score":   p.OnboardingQuizScore,
		"onboarding_quiz_passed":  p.OnboardingQuizPassed,
		"quiz_passed":             false,
		"test_call_validated":     false,
	}
	created, err := insertOne[domain.TrainingProgress](ctx, c, "supabase/training_progress", trainingTable, row)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return p, nil
	}
	return created, nil
}

// UpdateProgress patches the training row of a profile.
func (c *Client) UpdateProgress(ctx context.Context, profileID string, fields map[string]any) (*domain.TrainingProgress, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProgress")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", profileID))

	path := fmt.Sprintf("%s?profile_id=%s", trainingTable, eq(profileID))
	p, err := patchOne[domain.TrainingProgress](ctx, c, "supabase/training_progress", path, fields)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ErrNotFound{Resource: "training progress", ID: profileID}
	}
	return p, nil
}

// ListPendingRecordings lists training rows with a recording awaiting validation.
func (c *Client) ListPendingRecordings(ctx context.Context) ([]domain.TrainingProgress, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPendingRecordings")
	defer span.End()

	path := trainingTable + "?test_call_url=not.is.null&test_call_validated=eq.false&order=updated_at.desc"
	return getMany[domain.TrainingProgress](ctx, c, "supabase/training_progress", path)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
