package domain_test

import (
	"testing"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestComputeFunnel(t *testing.T) {
	fixers := []domain.FixerKPI{
		{ContactsPerDay: 50, AppointmentsBooked: 20, NoShowRate: 10},
		{ContactsPerDay: 50, AppointmentsBooked: 20, NoShowRate: 30},
	}
	closers := []domain.CloserKPI{{ConversionRate: 20}, {ConversionRate: 30}}

	f := domain.ComputeFunnel(fixers, closers)

	assert.Equal(t, 100, f.TotalCalls)
	assert.Equal(t, 40, f.TotalAppointmentsBooked)
	assert.InDelta(t, 20.0, f.AvgNoShowRate, 1e-9)
	assert.Equal(t, 32, f.TotalAppointmentsDone)
	assert.InDelta(t, 25.0, f.AvgConversionRate, 1e-9)
	assert.Equal(t, 8, f.TotalStudents)
	assert.InDelta(t, 40.0, f.ConversionCallToAppointment, 1e-9)
	assert.InDelta(t, 80.0, f.ConversionAppointmentToDone, 1e-9)
	assert.InDelta(t, 25.0, f.ConversionDoneToStudent, 1e-9)
}

func TestComputeFunnel_Empty(t *testing.T) {
	f := domain.ComputeFunnel(nil, nil)

	assert.Zero(t, f.TotalCalls)
	assert.Zero(t, f.ConversionCallToAppointment)
	assert.Zero(t, f.ConversionAppointmentToDone)
	assert.Zero(t, f.ConversionDoneToStudent)
}

func TestStageConversion(t *testing.T) {
	assert.Zero(t, domain.StageConversion(5, 0))
	assert.InDelta(t, 50.0, domain.StageConversion(1, 2), 1e-9)
}

func TestAverages(t *testing.T) {
	assert.Equal(t, domain.FixerAverages{}, domain.AverageFixer(nil))
	assert.Equal(t, domain.CloserAverages{}, domain.AverageCloser(nil))

	a := domain.AverageCloser([]domain.CloserKPI{
		{ConversionRate: 10, AverageCart: 1000, ClosingDelayDays: 2, SatisfactionScore: 4},
		{ConversionRate: 30, AverageCart: 2000, ClosingDelayDays: 4, SatisfactionScore: 5},
	})
	assert.InDelta(t, 20.0, a.ConversionRate, 1e-9)
	assert.InDelta(t, 1500.0, a.AverageCart, 1e-9)
	assert.InDelta(t, 3.0, a.ClosingDelayDays, 1e-9)
	assert.InDelta(t, 4.5, a.SatisfactionScore, 1e-9)

	assert.Zero(t, domain.Mean(nil))
}
