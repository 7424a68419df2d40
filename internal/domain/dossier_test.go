package domain_test

import (
	"testing"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestMilestonePatch(t *testing.T) {
	on := domain.MilestonePatch(domain.MilestoneQuoteSent, true, "2024-03-15")
	assert.Equal(t, map[string]any{"quote_sent": true, "quote_sent_date": "2024-03-15"}, on)

	off := domain.MilestonePatch(domain.MilestonePaymentReceived, false, "2024-03-15")
	assert.Equal(t, map[string]any{"payment_received": false, "payment_received_date": nil}, off)
}

func TestMilestoneValid(t *testing.T) {
	for _, m := range domain.Milestones {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, domain.Milestone("quote_signed").Valid())
}

func TestNeedsFinancingFollowUp(t *testing.T) {
	cases := map[string]bool{
		"":          false,
		"cpf":       false,
		" CPF ":     false,
		"opco":      true,
		"personnel": true,
	}
	for mode, want := range cases {
		d := domain.Dossier{FinancingMode: mode}
		assert.Equal(t, want, d.NeedsFinancingFollowUp(), "mode %q", mode)
	}
}
