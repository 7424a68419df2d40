package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var financingTracer = otel.Tracer("service/financing")

// FinancingService tracks the financing milestones of dossiers.
type FinancingService struct {
	dossiers port.DossierStore
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewFinancingService(dossiers port.DossierStore, loc *time.Location, logger *zap.Logger, now func() time.Time) *FinancingService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &FinancingService{dossiers: dossiers, loc: loc, logger: logger, now: now}
}

func (s *FinancingService) ListDossiers(ctx context.Context) ([]domain.Dossier, error) {
	ctx, span := financingTracer.Start(ctx, "FinancingService.ListDossiers")
	defer span.End()

	ds, err := s.dossiers.ListDossiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dossiers: %w", err)
	}
	return ds, nil
}

func (s *FinancingService) GetDossier(ctx context.Context, id string) (*domain.Dossier, error) {
	ctx, span := financingTracer.Start(ctx, "FinancingService.GetDossier")
	defer span.End()

	return s.dossiers.GetDossier(ctx, id)
}

// SetMilestone toggles one milestone and its date. Other milestones are
// left untouched and no ordering is enforced.
func (s *FinancingService) SetMilestone(ctx context.Context, id string, req *domain.MilestoneRequest) (*domain.Dossier, error) {
	ctx, span := financingTracer.Start(ctx, "FinancingService.SetMilestone")
	defer span.End()
	span.SetAttributes(attribute.String("dossier.id", id), attribute.String("milestone", string(req.Field)))

	if !req.Field.Valid() {
		return nil, &domain.ErrValidation{Field: "field", Message: "unknown milestone"}
	}
	today := s.now().In(s.loc).Format(dateLayout)
	d, err := s.dossiers.UpdateDossier(ctx, id, domain.MilestonePatch(req.Field, req.Value, today))
	if err != nil {
		return nil, fmt.Errorf("set milestone: %w", err)
	}

	s.logger.Info("milestone updated",
		zap.String("dossier_id", id),
		zap.String("milestone", string(req.Field)),
		zap.Bool("value", req.Value),
	)
	return d, nil
}

// Alerts lists dossiers financed by anything but the personal training
// credit.
func (s *FinancingService) Alerts(ctx context.Context) ([]domain.Dossier, error) {
	ctx, span := financingTracer.Start(ctx, "FinancingService.Alerts")
	defer span.End()

	ds, err := s.dossiers.ListDossiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dossiers: %w", err)
	}
	return domain.FinancingAlerts(ds), nil
}
