package domain_test

import (
	"testing"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldCounts(t *testing.T) {
	companies := []domain.Company{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	contacts := []domain.Contact{{ID: "k1", CompanyID: "c1"}, {ID: "k2", CompanyID: "c1"}, {ID: "k3", CompanyID: "c2"}}
	phones := []domain.Phone{
		{ID: "p1", ContactID: "k1", Number: "0600000000"},
		{ID: "p2", ContactID: "k2", Number: "0600000000"},
		{ID: "p3", ContactID: "k3"},
		{ID: "p4", ContactID: "orphan"},
	}

	views := domain.FoldCounts(companies, contacts, phones)

	require.Len(t, views, 3)
	assert.Equal(t, 2, views[0].ContactCount)
	assert.Equal(t, 2, views[0].PhoneCount, "rows are counted, not distinct numbers")
	assert.Equal(t, 1, views[1].ContactCount)
	assert.Equal(t, 1, views[1].PhoneCount)
	assert.Zero(t, views[2].ContactCount)
	assert.Zero(t, views[2].PhoneCount)
}

func TestFilterCompanies(t *testing.T) {
	companies := []domain.Company{
		{ID: "c1", RaisonSocial: "Boulangerie MARTIN", City: "Lyon", Activite: "Alimentation"},
		{ID: "c2", RaisonSocial: "Garage Dupont", City: "Paris", Activite: "Automobile"},
	}

	assert.Len(t, domain.FilterCompanies(companies, ""), 2)
	assert.Len(t, domain.FilterCompanies(companies, "   "), 2)

	byName := domain.FilterCompanies(companies, "martin")
	require.Len(t, byName, 1)
	assert.Equal(t, "c1", byName[0].ID)

	byActivity := domain.FilterCompanies(companies, "AUTO")
	require.Len(t, byActivity, 1)
	assert.Equal(t, "c2", byActivity[0].ID)

	assert.Empty(t, domain.FilterCompanies(companies, "nantes"))
}

func TestParseDispatchFilter(t *testing.T) {
	assert.Equal(t, domain.FilterAssigned, domain.ParseDispatchFilter("assigned"))
	assert.Equal(t, domain.FilterUnassigned, domain.ParseDispatchFilter("unassigned"))
	assert.Equal(t, domain.FilterAll, domain.ParseDispatchFilter(""))
	assert.Equal(t, domain.FilterAll, domain.ParseDispatchFilter("bogus"))
}
