package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/observability"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var dispatchTracer = otel.Tracer("service/dispatch")

// DispatchService lets admins hand CRM companies to fixers.
type DispatchService struct {
	crm      port.CRMStore
	profiles port.ProfileStore
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewDispatchService creates a dispatch service.
func NewDispatchService(crm port.CRMStore, profiles port.ProfileStore, metrics *observability.Metrics, logger *zap.Logger, now func() time.Time) *DispatchService {
	if now == nil {
		now = time.Now
	}
	return &DispatchService{crm: crm, profiles: profiles, metrics: metrics, logger: logger, now: now}
}

// ============================================================
// ListCompanies: GET /v1/admin/dispatch/companies
// ============================================================

// ListCompanies returns the filtered companies with their contact and
// phone counts.
func (s *DispatchService) ListCompanies(ctx context.Context, filter domain.DispatchFilter, search string) (*domain.DispatchList, error) {
	ctx, span := dispatchTracer.Start(ctx, "DispatchService.ListCompanies")
	defer span.End()
	span.SetAttributes(attribute.String("dispatch.filter", string(filter)))

	companies, err := s.crm.ListCompanies(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	companies = domain.FilterCompanies(companies, search)

	companyIDs := make([]string, 0, len(companies))
	for _, c := range companies {
		companyIDs = append(companyIDs, c.ID)
	}
	contacts, err := s.crm.ListContacts(ctx, companyIDs)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	contactIDs := make([]string, 0, len(contacts))
	for _, c := range contacts {
		contactIDs = append(contactIDs, c.ID)
	}
	phones, err := s.crm.ListPhones(ctx, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}

	views := domain.FoldCounts(companies, contacts, phones)
	return &domain.DispatchList{
		Filter:    filter,
		Search:    strings.TrimSpace(search),
		Companies: views,
		Total:     len(views),
	}, nil
}

// ListFixers returns the active fixers an admin can assign to.
func (s *DispatchService) ListFixers(ctx context.Context) ([]domain.Profile, error) {
	ctx, span := dispatchTracer.Start(ctx, "DispatchService.ListFixers")
	defer span.End()

	fixers, err := s.profiles.ListProfilesByRole(ctx, domain.RoleFixer, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list fixers: %w", err)
	}
	return fixers, nil
}

// ============================================================
// Assign: POST /v1/admin/dispatch/assign
// ============================================================

// Assign hands every selected company to the fixer in one batched update,
// then reloads the list. An existing assignment is overwritten.
func (s *DispatchService) Assign(ctx context.Context, req *domain.AssignRequest, filter domain.DispatchFilter, search string) (*domain.AssignResult, error) {
	ctx, span := dispatchTracer.Start(ctx, "DispatchService.Assign")
	defer span.End()

	ids := uniqueIDs(req.CompanyIDs)
	if len(ids) == 0 {
		return nil, &domain.ErrValidation{Field: "company_ids", Message: "select at least one company"}
	}
	fixerID := strings.TrimSpace(req.FixerID)
	if fixerID == "" {
		return nil, &domain.ErrValidation{Field: "fixer_id", Message: "select a fixer"}
	}
	fixer, err := s.profiles.GetProfile(ctx, fixerID)
	if err != nil {
		return nil, fmt.Errorf("get fixer: %w", err)
	}
	if fixer == nil || fixer.Role != domain.RoleFixer {
		return nil, &domain.ErrValidation{Field: "fixer_id", Message: "unknown fixer"}
	}
	span.SetAttributes(attribute.Int("dispatch.count", len(ids)), attribute.String("fixer.id", fixerID))

	if err := s.crm.UpdateCompanies(ctx, ids, map[string]any{
		"assigned_to":     fixerID,
		"dispatch_status": domain.DispatchAssigned,
		"assigned_at":     s.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("assign companies: %w", err)
	}
	s.metrics.AddDispatchAssignments(len(ids))
	s.logger.Info("companies assigned", zap.Int("count", len(ids)), zap.String("fixer_id", fixerID))

	list, err := s.ListCompanies(ctx, filter, search)
	if err != nil {
		return nil, err
	}
	return &domain.AssignResult{Assigned: len(ids), FixerID: fixerID, List: *list}, nil
}

// Unassign returns the selected companies to the unassigned pool.
func (s *DispatchService) Unassign(ctx context.Context, req *domain.UnassignRequest, filter domain.DispatchFilter, search string) (*domain.AssignResult, error) {
	ctx, span := dispatchTracer.Start(ctx, "DispatchService.Unassign")
	defer span.End()

	ids := uniqueIDs(req.CompanyIDs)
	if len(ids) == 0 {
		return nil, &domain.ErrValidation{Field: "company_ids", Message: "select at least one company"}
	}
	if err := s.crm.UpdateCompanies(ctx, ids, map[string]any{
		"assigned_to":     nil,
		"dispatch_status": domain.DispatchUnassigned,
		"assigned_at":     nil,
	}); err != nil {
		return nil, fmt.Errorf("unassign companies: %w", err)
	}
	s.logger.Info("companies unassigned", zap.Int("count", len(ids)))

	list, err := s.ListCompanies(ctx, filter, search)
	if err != nil {
		return nil, err
	}
	return &domain.AssignResult{List: *list}, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
