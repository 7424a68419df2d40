package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var kpiTracer = otel.Tracer("service/kpi")

const dateLayout = "2006-01-02"

// KPIService records daily KPI rows and aggregates them.
type KPIService struct {
	kpis     port.KPIStore
	profiles port.ProfileStore
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewKPIService creates a KPI service. Calendar days are taken in loc.
func NewKPIService(kpis port.KPIStore, profiles port.ProfileStore, loc *time.Location, logger *zap.Logger, now func() time.Time) *KPIService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &KPIService{kpis: kpis, profiles: profiles, loc: loc, logger: logger, now: now}
}

func (s *KPIService) today() time.Time {
	return s.now().In(s.loc)
}

// ============================================================
// RecordKPI: POST /v1/kpi
// ============================================================

// RecordKPI appends a daily row to the table of the caller's role. Several
// rows for the same day are accepted.
func (s *KPIService) RecordKPI(ctx context.Context, id *domain.Identity, req *domain.KPIEntryRequest) (any, error) {
	ctx, span := kpiTracer.Start(ctx, "KPIService.RecordKPI")
	defer span.End()

	if err := requireStatus(id.Profile, domain.StatusActive); err != nil {
		return nil, err
	}
	date := req.Date
	if date == "" {
		date = s.today().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	if err := validateKPI(id.Profile.Role, req); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("kpi.role", string(id.Profile.Role)), attribute.String("kpi.date", date))

	switch id.Profile.Role {
	case domain.RoleFixer:
		row, err := s.kpis.InsertFixerKPI(ctx, &domain.FixerKPI{
			ID:                    uuid.NewString(),
			ProfileID:             id.UserID,
			Date:                  date,
			ContactsPerDay:        req.ContactsPerDay,
			AppointmentsBooked:    req.AppointmentsBooked,
			NoShowRate:            req.NoShowRate,
			QualifiedAppointments: req.QualifiedAppointments,
		})
		if err != nil {
			return nil, fmt.Errorf("insert fixer kpi: %w", err)
		}
		return row, nil
	case domain.RoleCloser:
		row, err := s.kpis.InsertCloserKPI(ctx, &domain.CloserKPI{
			ID:                uuid.NewString(),
			ProfileID:         id.UserID,
			Date:              date,
			ConversionRate:    req.ConversionRate,
			AverageCart:       req.AverageCart,
			ClosingDelayDays:  req.ClosingDelayDays,
			SatisfactionScore: req.SatisfactionScore,
		})
		if err != nil {
			return nil, fmt.Errorf("insert closer kpi: %w", err)
		}
		return row, nil
	}
	return nil, &domain.ErrConflict{Message: "profile has no sales role"}
}

func validateKPI(role domain.Role, r *domain.KPIEntryRequest) error {
	switch role {
	case domain.RoleFixer:
		if r.ContactsPerDay < 0 || r.AppointmentsBooked < 0 || r.QualifiedAppointments < 0 {
			return &domain.ErrValidation{Field: "kpi", Message: "counts must not be negative"}
		}
		if r.NoShowRate < 0 || r.NoShowRate > 100 {
			return &domain.ErrValidation{Field: "no_show_rate", Message: "must be between 0 and 100"}
		}
	case domain.RoleCloser:
		if r.ConversionRate < 0 || r.ConversionRate > 100 {
			return &domain.ErrValidation{Field: "conversion_rate", Message: "must be between 0 and 100"}
		}
		if r.AverageCart < 0 || r.ClosingDelayDays < 0 || r.SatisfactionScore < 0 {
			return &domain.ErrValidation{Field: "kpi", Message: "values must not be negative"}
		}
	}
	return nil
}

// ============================================================
// Dashboard: GET /v1/kpi/dashboard?range=7|30
// ============================================================

func (s *KPIService) Dashboard(ctx context.Context, id *domain.Identity, rangeDays int) (*domain.KPIDashboard, error) {
	ctx, span := kpiTracer.Start(ctx, "KPIService.Dashboard")
	defer span.End()

	if rangeDays == 0 {
		rangeDays = 7
	}
	if rangeDays != 7 && rangeDays != 30 {
		return nil, &domain.ErrValidation{Field: "range", Message: "must be 7 or 30"}
	}
	if id.Profile == nil || !id.Profile.Role.Valid() {
		return nil, &domain.ErrConflict{Message: "profile has no sales role"}
	}

	today := s.today()
	d := &domain.KPIDashboard{
		Role:      id.Profile.Role,
		RangeDays: rangeDays,
		From:      today.AddDate(0, 0, -rangeDays).Format(dateLayout),
		To:        today.Format(dateLayout),
	}
	ids := []string{id.UserID}

	switch id.Profile.Role {
	case domain.RoleFixer:
		rows, err := s.kpis.ListFixerKPIs(ctx, ids, d.From, d.To)
		if err != nil {
			return nil, fmt.Errorf("list fixer kpis: %w", err)
		}
		avg := domain.AverageFixer(rows)
		d.Fixer, d.FixerRows, d.Count = &avg, rows, len(rows)
	case domain.RoleCloser:
		rows, err := s.kpis.ListCloserKPIs(ctx, ids, d.From, d.To)
		if err != nil {
			return nil, fmt.Errorf("list closer kpis: %w", err)
		}
		avg := domain.AverageCloser(rows)
		d.Closer, d.CloserRows, d.Count = &avg, rows, len(rows)
	}
	return d, nil
}

// ============================================================
// Funnel: GET /v1/admin/funnel?start=&end=
// ============================================================

// Funnel computes the admin conversion funnel over the inclusive range.
// Empty dates default to the last 30 days.
func (s *KPIService) Funnel(ctx context.Context, start, end string) (*domain.Funnel, error) {
	ctx, span := kpiTracer.Start(ctx, "KPIService.Funnel")
	defer span.End()

	today := s.today()
	if end == "" {
		end = today.Format(dateLayout)
	}
	if start == "" {
		start = today.AddDate(0, 0, -30).Format(dateLayout)
	}
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "start", Message: "must be YYYY-MM-DD"}
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "end", Message: "must be YYYY-MM-DD"}
	}
	if from.After(to) {
		return nil, &domain.ErrValidation{Field: "start", Message: "must not be after end"}
	}
	span.SetAttributes(attribute.String("funnel.start", start), attribute.String("funnel.end", end))

	var fixers, closers []domain.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fixers, err = s.profiles.ListProfilesByRole(gctx, domain.RoleFixer, domain.StatusActive)
		return err
	})
	g.Go(func() error {
		var err error
		closers, err = s.profiles.ListProfilesByRole(gctx, domain.RoleCloser, domain.StatusActive)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list active profiles: %w", err)
	}

	var (
		fixerRows  []domain.FixerKPI
		closerRows []domain.CloserKPI
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fixerRows, err = s.kpis.ListFixerKPIs(gctx, profileIDs(fixers), start, end)
		return err
	})
	g.Go(func() error {
		var err error
		closerRows, err = s.kpis.ListCloserKPIs(gctx, profileIDs(closers), start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list kpis: %w", err)
	}

	f := domain.ComputeFunnel(fixerRows, closerRows)
	f.StartDate, f.EndDate = start, end
	f.ActiveFixers, f.ActiveClosers = len(fixers), len(closers)
	f.Performers = performers(fixers, closers, fixerRows, closerRows)

	s.logger.Debug("funnel computed",
		zap.String("start", start),
		zap.String("end", end),
		zap.Int("fixer_rows", len(fixerRows)),
		zap.Int("closer_rows", len(closerRows)),
	)
	return &f, nil
}

func profileIDs(ps []domain.Profile) []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

// performers builds one summary per active profile, sorted by email.
func performers(fixers, closers []domain.Profile, fixerRows []domain.FixerKPI, closerRows []domain.CloserKPI) []domain.PerformerSummary {
	byFixer := make(map[string][]domain.FixerKPI)
	for _, r := range fixerRows {
		byFixer[r.ProfileID] = append(byFixer[r.ProfileID], r)
	}
	byCloser := make(map[string][]domain.CloserKPI)
	for _, r := range closerRows {
		byCloser[r.ProfileID] = append(byCloser[r.ProfileID], r)
	}

	out := make([]domain.PerformerSummary, 0, len(fixers)+len(closers))
	for _, p := range fixers {
		avg := domain.AverageFixer(byFixer[p.ID])
		out = append(out, domain.PerformerSummary{
			ProfileID: p.ID, Email: p.Email, Role: domain.RoleFixer,
			Days: len(byFixer[p.ID]), Fixer: &avg,
		})
	}
	for _, p := range closers {
		avg := domain.AverageCloser(byCloser[p.ID])
		out = append(out, domain.PerformerSummary{
			ProfileID: p.ID, Email: p.Email, Role: domain.RoleCloser,
			Days: len(byCloser[p.ID]), Closer: &avg,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}
