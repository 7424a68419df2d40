package supabase

import (
	"context"
	"fmt"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// DossierStore implementation: table dossiers
// ============================================================

const dossiersTable = "dossiers"

// ListDossiers lists every dossier, newest first.
func (c *Client) ListDossiers(ctx context.Context) ([]domain.Dossier, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDossiers")
	defer span.End()

	return getMany[domain.Dossier](ctx, c, "supabase/dossiers", dossiersTable+"?order=created_at.desc")
}

// GetDossier returns a dossier by id.
func (c *Client) GetDossier(ctx context.Context, id string) (*domain.Dossier, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDossier")
	defer span.End()
	span.SetAttributes(attribute.String("dossier.id", id))

	d, err := getOne[domain.Dossier](ctx, c, "supabase/dossiers", fmt.Sprintf("%s?id=%s&limit=1", dossiersTable, eq(id)))
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &domain.ErrNotFound{Resource: "dossier", ID: id}
	}
	return d, nil
}

// UpdateDossier patches a dossier and returns the new row.
func (c *Client) UpdateDossier(ctx context.Context, id string, fields map[string]any) (*domain.Dossier, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDossier")
	defer span.End()
	span.SetAttributes(attribute.String("dossier.id", id))

	d, err := patchOne[domain.Dossier](ctx, c, "supabase/dossiers", fmt.Sprintf("%s?id=%s", dossiersTable, eq(id)), fields)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &domain.ErrNotFound{Resource: "dossier", ID: id}
	}
	return d, nil
}
