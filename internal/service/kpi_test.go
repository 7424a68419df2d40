package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 23:30 UTC is already the 15th in Paris.
var kpiNow = time.Date(2024, 3, 14, 23, 30, 0, 0, time.UTC)

func newKPI(t *testing.T, db *fakeDB) *service.KPIService {
	t.Helper()
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	return service.NewKPIService(db, db, paris, zap.NewNop(), fixedClock(kpiNow))
}

func activeIdentity(db *fakeDB, id string, role domain.Role) *domain.Identity {
	p := &domain.Profile{ID: id, Email: id + "@example.com", Role: role, Status: domain.StatusActive}
	db.profiles[id] = p
	cp := *p
	return &domain.Identity{UserID: id, Email: p.Email, Profile: &cp}
}

func TestRecordKPI_DefaultsToTodayInAppTimezone(t *testing.T) {
	db := newFakeDB()
	svc := newKPI(t, db)
	id := activeIdentity(db, "fixer-1", domain.RoleFixer)

	row, err := svc.RecordKPI(context.Background(), id, &domain.KPIEntryRequest{ContactsPerDay: 30, AppointmentsBooked: 4})

	require.NoError(t, err)
	fixer, ok := row.(*domain.FixerKPI)
	require.True(t, ok)
	assert.Equal(t, "2024-03-15", fixer.Date)
	assert.Len(t, db.fixerKPIs, 1)
}

func TestRecordKPI_RequiresActiveProfile(t *testing.T) {
	db := newFakeDB()
	svc := newKPI(t, db)
	id := activeIdentity(db, "closer-1", domain.RoleCloser)
	id.Profile.Status = domain.StatusValidated

	_, err := svc.RecordKPI(context.Background(), id, &domain.KPIEntryRequest{ConversionRate: 20})

	var conflict *domain.ErrConflict
	assert.ErrorAs(t, err, &conflict)
}

func TestRecordKPI_RejectsBadDate(t *testing.T) {
	db := newFakeDB()
	svc := newKPI(t, db)
	id := activeIdentity(db, "closer-1", domain.RoleCloser)

	_, err := svc.RecordKPI(context.Background(), id, &domain.KPIEntryRequest{Date: "15/03/2024"})

	var validation *domain.ErrValidation
	assert.ErrorAs(t, err, &validation)
}

func TestDashboard_RangeBoundsAreInclusive(t *testing.T) {
	db := newFakeDB()
	svc := newKPI(t, db)
	id := activeIdentity(db, "fixer-1", domain.RoleFixer)
	db.fixerKPIs = []domain.FixerKPI{
		{ProfileID: "fixer-1", Date: "2024-03-07", ContactsPerDay: 100},
		{ProfileID: "fixer-1", Date: "2024-03-08", ContactsPerDay: 10, NoShowRate: 20},
		{ProfileID: "fixer-1", Date: "2024-03-15", ContactsPerDay: 30, NoShowRate: 40},
		{ProfileID: "fixer-2", Date: "2024-03-10", ContactsPerDay: 999},
	}

	d, err := svc.Dashboard(context.Background(), id, 7)

	require.NoError(t, err)
	assert.Equal(t, "2024-03-08", d.From)
	assert.Equal(t, "2024-03-15", d.To)
	assert.Equal(t, 2, d.Count)
	require.NotNil(t, d.Fixer)
	assert.InDelta(t, 20.0, d.Fixer.ContactsPerDay, 0.001)
	assert.InDelta(t, 30.0, d.Fixer.NoShowRate, 0.001)
}

func TestDashboard_EmptyRangeAveragesToZero(t *testing.T) {
	db := newFakeDB()
	svc := newKPI(t, db)
	id := activeIdentity(db, "closer-1", domain.RoleCloser)

	d, err := svc.Dashboard(context.Background(), id, 30)

	require.NoError(t, err)
	assert.Equal(t, 0, d.Count)
	assert.Equal(t, domain.CloserAverages{}, *d.Closer)
}

func TestDashboard_RejectsOtherRanges(t *testing.T) {
	db := newFakeDB()
	svc := newKPI(t, db)
	id := activeIdentity(db, "closer-1", domain.RoleCloser)

	_, err := svc.Dashboard(context.Background(), id, 14)

	var validation *domain.ErrValidation
	assert.ErrorAs(t, err, &validation)
}

func TestFunnel_ActiveProfilesOnly(t *testing.T) {
	db := newFakeDB()
	svc := newKPI(t, db)
	activeIdentity(db, "fixer-1", domain.RoleFixer)
	activeIdentity(db, "fixer-2", domain.RoleFixer)
	activeIdentity(db, "closer-1", domain.RoleCloser)
	db.profiles["fixer-3"] = &domain.Profile{ID: "fixer-3", Role: domain.RoleFixer, Status: domain.StatusInTraining}

	db.fixerKPIs = []domain.FixerKPI{
		{ProfileID: "fixer-1", Date: "2024-03-01", ContactsPerDay: 60, AppointmentsBooked: 25, NoShowRate: 10},
		{ProfileID: "fixer-2", Date: "2024-03-02", ContactsPerDay: 40, AppointmentsBooked: 15, NoShowRate: 30},
		{ProfileID: "fixer-3", Date: "2024-03-02", ContactsPerDay: 500, AppointmentsBooked: 500},
		{ProfileID: "fixer-1", Date: "2024-04-01", ContactsPerDay: 500},
	}
	db.closerKPIs = []domain.CloserKPI{
		{ProfileID: "closer-1", Date: "2024-03-03", ConversionRate: 25},
	}

	f, err := svc.Funnel(context.Background(), "2024-03-01", "2024-03-31")

	require.NoError(t, err)
	assert.Equal(t, 100, f.TotalCalls)
	assert.Equal(t, 40, f.TotalAppointmentsBooked)
	assert.Equal(t, 32, f.TotalAppointmentsDone)
	assert.Equal(t, 8, f.TotalStudents)
	assert.InDelta(t, 40.0, f.ConversionCallToAppointment, 0.001)
	assert.InDelta(t, 80.0, f.ConversionAppointmentToDone, 0.001)
	assert.InDelta(t, 25.0, f.ConversionDoneToStudent, 0.001)
	assert.Equal(t, 2, f.ActiveFixers)
	assert.Equal(t, 1, f.ActiveClosers)
	require.Len(t, f.Performers, 3)
	assert.Equal(t, "closer-1", f.Performers[0].ProfileID)
}

func TestFunnel_RejectsInvertedRange(t *testing.T) {
	svc := newKPI(t, newFakeDB())

	_, err := svc.Funnel(context.Background(), "2024-03-31", "2024-03-01")

	var validation *domain.ErrValidation
	assert.ErrorAs(t, err, &validation)
}
