package supabase

import (
	"context"
	"fmt"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// KPIStore implementation: tables fixer_kpis and closer_kpis
// ============================================================

const (
	fixerKPITable  = "fixer_kpis"
	closerKPITable = "closer_kpis"
)

// InsertFixerKPI appends a daily fixer row.
func (c *Client) InsertFixerKPI(ctx context.Context, row *domain.FixerKPI) (*domain.FixerKPI, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertFixerKPI")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", row.ProfileID))

	created, err := insertOne[domain.FixerKPI](ctx, c, "supabase/fixer_kpis", fixerKPITable, row)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return row, nil
	}
	return created, nil
}

// InsertCloserKPI appends a daily closer row.
func (c *Client) InsertCloserKPI(ctx context.Context, row *domain.CloserKPI) (*domain.CloserKPI, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertCloserKPI")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", row.ProfileID))

	created, err := insertOne[domain.CloserKPI](ctx, c, "supabase/closer_kpis", closerKPITable, row)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return row, nil
	}
	return created, nil
}

// ListFixerKPIs lists fixer rows of profileIDs with from <= date <= to.
func (c *Client) ListFixerKPIs(ctx context.Context, profileIDs []string, from, to string) ([]domain.FixerKPI, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListFixerKPIs")
	defer span.End()
	span.SetAttributes(attribute.Int("profiles", len(profileIDs)))

	if len(profileIDs) == 0 {
		return []domain.FixerKPI{}, nil
	}
	return getMany[domain.FixerKPI](ctx, c, "supabase/fixer_kpis", kpiRangePath(fixerKPITable, profileIDs, from, to))
}

// ListCloserKPIs lists closer rows of profileIDs with from <= date <= to.
func (c *Client) ListCloserKPIs(ctx context.Context, profileIDs []string, from, to string) ([]domain.CloserKPI, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCloserKPIs")
	defer span.End()
	span.SetAttributes(attribute.Int("profiles", len(profileIDs)))

	if len(profileIDs) == 0 {
		return []domain.CloserKPI{}, nil
	}
	return getMany[domain.CloserKPI](ctx, c, "supabase/closer_kpis", kpiRangePath(closerKPITable, profileIDs, from, to))
}

func kpiRangePath(table string, profileIDs []string, from, to string) string {
	filter := "profile_id=" + eq(profileIDs[0])
	if len(profileIDs) > 1 {
		filter = "profile_id=" + in(profileIDs)
	}
	return fmt.Sprintf("%s?%s&date=gte.%s&date=lte.%s&order=date.asc", table, filter, from, to)
}
