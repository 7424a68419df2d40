package domain

import "math"

// ============================================================
// KPI: daily rows per role and their aggregations
// ============================================================

// FixerKPI is one daily row of the fixer KPI table.
type FixerKPI struct {
	ID                    string  `json:"id,omitempty"`
	ProfileID             string  `json:"profile_id"`
	Date                  string  `json:"date"` // YYYY-MM-DD
	ContactsPerDay        int     `json:"contacts_per_day"`
	AppointmentsBooked    int     `json:"appointments_booked"`
	NoShowRate            float64 `json:"no_show_rate"`
	QualifiedAppointments int     `json:"qualified_appointments"`
}

// CloserKPI is one daily row of the closer KPI table.
type CloserKPI struct {
	ID                string  `json:"id,omitempty"`
	ProfileID         string  `json:"profile_id"`
	Date              string  `json:"date"` // YYYY-MM-DD
	ConversionRate    float64 `json:"conversion_rate"`
	AverageCart       float64 `json:"average_cart"`
	ClosingDelayDays  float64 `json:"closing_delay_days"`
	SatisfactionScore float64 `json:"satisfaction_score"`
}

// KPIEntryRequest is the body for POST /v1/kpi. Only the fields of the
// caller's role are read.
type KPIEntryRequest struct {
	Date                  string  `json:"date"`
	ContactsPerDay        int     `json:"contacts_per_day"`
	AppointmentsBooked    int     `json:"appointments_booked"`
	NoShowRate            float64 `json:"no_show_rate"`
	QualifiedAppointments int     `json:"qualified_appointments"`
	ConversionRate        float64 `json:"conversion_rate"`
	AverageCart           float64 `json:"average_cart"`
	ClosingDelayDays      float64 `json:"closing_delay_days"`
	SatisfactionScore     float64 `json:"satisfaction_score"`
}

// FixerAverages are the displayed means of a fixer dashboard.
type FixerAverages struct {
	ContactsPerDay        float64 `json:"contacts_per_day"`
	AppointmentsBooked    float64 `json:"appointments_booked"`
	NoShowRate            float64 `json:"no_show_rate"`
	QualifiedAppointments float64 `json:"qualified_appointments"`
}

// CloserAverages are the displayed means of a closer dashboard.
type CloserAverages struct {
	ConversionRate    float64 `json:"conversion_rate"`
	AverageCart       float64 `json:"average_cart"`
	ClosingDelayDays  float64 `json:"closing_delay_days"`
	SatisfactionScore float64 `json:"satisfaction_score"`
}

// KPIDashboard is returned by GET /v1/kpi/dashboard.
type KPIDashboard struct {
	Role       Role            `json:"role"`
	RangeDays  int             `json:"range_days"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Count      int             `json:"count"`
	Fixer      *FixerAverages  `json:"fixer,omitempty"`
	Closer     *CloserAverages `json:"closer,omitempty"`
	FixerRows  []FixerKPI      `json:"fixer_rows,omitempty"`
	CloserRows []CloserKPI     `json:"closer_rows,omitempty"`
}

// Mean returns the arithmetic mean of values, or 0 for an empty set.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// AverageFixer averages each fixer metric over rows.
func AverageFixer(rows []FixerKPI) FixerAverages {
	n := float64(len(rows))
	if n == 0 {
		return FixerAverages{}
	}
	var a FixerAverages
	for _, r := range rows {
		a.ContactsPerDay += float64(r.ContactsPerDay)
		a.AppointmentsBooked += float64(r.AppointmentsBooked)
		a.NoShowRate += r.NoShowRate
		a.QualifiedAppointments += float64(r.QualifiedAppointments)
	}
	a.ContactsPerDay /= n
	a.AppointmentsBooked /= n
	a.NoShowRate /= n
	a.QualifiedAppointments /= n
	return a
}

// AverageCloser averages each closer metric over rows.
func AverageCloser(rows []CloserKPI) CloserAverages {
	n := float64(len(rows))
	if n == 0 {
		return CloserAverages{}
	}
	var a CloserAverages
	for _, r := range rows {
		a.ConversionRate += r.ConversionRate
		a.AverageCart += r.AverageCart
		a.ClosingDelayDays += r.ClosingDelayDays
		a.SatisfactionScore += r.SatisfactionScore
	}
	a.ConversionRate /= n
	a.AverageCart /= n
	a.ClosingDelayDays /= n
	a.SatisfactionScore /= n
	return a
}

// ============================================================
// Admin funnel
// ============================================================

// Funnel is the approximate conversion funnel of the admin dashboard.
// It multiplies aggregate rates; it does not follow single prospects.
type Funnel struct {
	StartDate               string  `json:"start_date"`
	EndDate                 string  `json:"end_date"`
	TotalCalls              int     `json:"total_calls"`
	TotalAppointmentsBooked int     `json:"total_appointments_booked"`
	AvgNoShowRate           float64 `json:"avg_no_show_rate"`
	TotalAppointmentsDone   int     `json:"total_appointments_done"`
	AvgConversionRate       float64 `json:"avg_conversion_rate"`
	TotalStudents           int     `json:"total_students"`

	ConversionCallToAppointment float64 `json:"conversion_call_to_appointment"`
	ConversionAppointmentToDone float64 `json:"conversion_appointment_to_done"`
	ConversionDoneToStudent     float64 `json:"conversion_done_to_student"`

	ActiveFixers  int                `json:"active_fixers"`
	ActiveClosers int                `json:"active_closers"`
	Performers    []PerformerSummary `json:"performers"`
}

// PerformerSummary is the per-user line of the admin dashboard.
type PerformerSummary struct {
	ProfileID string          `json:"profile_id"`
	Email     string          `json:"email"`
	Role      Role            `json:"role"`
	Days      int             `json:"days"`
	Fixer     *FixerAverages  `json:"fixer,omitempty"`
	Closer    *CloserAverages `json:"closer,omitempty"`
}

// ComputeFunnel applies the funnel formulas to fixer and closer rows.
func ComputeFunnel(fixers []FixerKPI, closers []CloserKPI) Funnel {
	var f Funnel
	noShow := make([]float64, 0, len(fixers))
	for _, r := range fixers {
		f.TotalCalls += r.ContactsPerDay
		f.TotalAppointmentsBooked += r.AppointmentsBooked
		noShow = append(noShow, r.NoShowRate)
	}
	f.AvgNoShowRate = Mean(noShow)
	f.TotalAppointmentsDone = int(math.Round(float64(f.TotalAppointmentsBooked) * (1 - f.AvgNoShowRate/100)))

	conv := make([]float64, 0, len(closers))
	for _, r := range closers {
		conv = append(conv, r.ConversionRate)
	}
	f.AvgConversionRate = Mean(conv)
	f.TotalStudents = int(math.Round(float64(f.TotalAppointmentsDone) * f.AvgConversionRate / 100))

	f.ConversionCallToAppointment = StageConversion(f.TotalAppointmentsBooked, f.TotalCalls)
	f.ConversionAppointmentToDone = StageConversion(f.TotalAppointmentsDone, f.TotalAppointmentsBooked)
	f.ConversionDoneToStudent = StageConversion(f.TotalStudents, f.TotalAppointmentsDone)
	return f
}

// StageConversion returns next/prev*100, or 0 when prev is 0.
func StageConversion(next, prev int) float64 {
	if prev == 0 {
		return 0
	}
	return float64(next) / float64(prev) * 100
}
