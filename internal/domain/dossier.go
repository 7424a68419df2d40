package domain

import (
	"strings"
	"time"
)

// ============================================================
// Dossier: training-sale case file and its financing milestones
// ============================================================

// DossierStatus is the sale stage of a dossier.
type DossierStatus string

const (
	DossierDecisionYes     DossierStatus = "décision_oui"
	DossierTrainingPlanned DossierStatus = "formation_planifiée"
	DossierTrainingDone    DossierStatus = "formation_réalisée"
	DossierAwaitingPayment DossierStatus = "attente_encaissement"
	DossierPaid            DossierStatus = "encaissé"
	DossierCancelled       DossierStatus = "annulé"
)

// FinancingCPF is the personal training-credit financing mode.
const FinancingCPF = "cpf"

// Milestone names one of the four financing booleans.
type Milestone string

const (
	MilestoneQuoteSent        Milestone = "quote_sent"
	MilestoneQuoteAccepted    Milestone = "quote_accepted"
	MilestonePaymentRequested Milestone = "payment_requested"
	MilestonePaymentReceived  Milestone = "payment_received"
)

// Milestones lists the milestones in their expected order.
var Milestones = []Milestone{
	MilestoneQuoteSent,
	MilestoneQuoteAccepted,
	MilestonePaymentRequested,
	MilestonePaymentReceived,
}

// Valid reports whether m is one of the four milestones.
func (m Milestone) Valid() bool {
	for _, k := range Milestones {
		if k == m {
			return true
		}
	}
	return false
}

// DateField returns the paired date column, e.g. quote_sent_date.
func (m Milestone) DateField() string {
	return string(m) + "_date"
}

// Dossier is one prospective student's case file.
type Dossier struct {
	ID                   string        `json:"id"`
	ClientFirstName      string        `json:"client_first_name"`
	ClientLastName       string        `json:"client_last_name"`
	ClientEmail          string        `json:"client_email,omitempty"`
	ClientPhone          string        `json:"client_phone,omitempty"`
	TrainingName         string        `json:"training_name,omitempty"`
	Amount               float64       `json:"amount,omitempty"`
	Status               DossierStatus `json:"status"`
	FinancingMode        string        `json:"financing_mode"`
	QuoteSent            bool          `json:"quote_sent"`
	QuoteSentDate        *string       `json:"quote_sent_date"`
	QuoteAccepted        bool          `json:"quote_accepted"`
	QuoteAcceptedDate    *string       `json:"quote_accepted_date"`
	PaymentRequested     bool          `json:"payment_requested"`
	PaymentRequestedDate *string       `json:"payment_requested_date"`
	PaymentReceived      bool          `json:"payment_received"`
	PaymentReceivedDate  *string       `json:"payment_received_date"`
	CreatedAt            *time.Time    `json:"created_at,omitempty"`
}

// MilestoneRequest is the body for PATCH /v1/dossiers/{id}/milestones.
type MilestoneRequest struct {
	Field Milestone `json:"field"`
	Value bool      `json:"value"`
}

// MilestonePatch builds the column patch for one toggle. No ordering is
// checked: any milestone may be toggled regardless of the others.
func MilestonePatch(field Milestone, value bool, today string) map[string]any {
	patch := map[string]any{string(field): value}
	if value {
		patch[field.DateField()] = today
	} else {
		patch[field.DateField()] = nil
	}
	return patch
}

// NeedsFinancingFollowUp reports whether the dossier uses a non-CPF
// financing mode.
func (d *Dossier) NeedsFinancingFollowUp() bool {
	mode := strings.TrimSpace(d.FinancingMode)
	return mode != "" && !strings.EqualFold(mode, FinancingCPF)
}

// FinancingAlerts filters dossiers down to the non-CPF follow-ups.
func FinancingAlerts(dossiers []Dossier) []Dossier {
	out := make([]Dossier, 0)
	for _, d := range dossiers {
		if d.NeedsFinancingFollowUp() {
			out = append(out, d)
		}
	}
	return out
}
