package domain

import (
	"strings"
	"time"
)

// ============================================================
// CRM: companies, contacts, phones and dispatch
// ============================================================

// DispatchStatus tells whether a company has been handed to a fixer.
type DispatchStatus string

const (
	DispatchUnassigned DispatchStatus = "unassigned"
	DispatchAssigned   DispatchStatus = "assigned"
)

// DispatchFilter is the list filter of the dispatch tool.
type DispatchFilter string

const (
	FilterAll        DispatchFilter = "all"
	FilterUnassigned DispatchFilter = "unassigned"
	FilterAssigned   DispatchFilter = "assigned"
)

// ParseDispatchFilter defaults unknown values to FilterAll.
func ParseDispatchFilter(v string) DispatchFilter {
	switch DispatchFilter(v) {
	case FilterUnassigned, FilterAssigned:
		return DispatchFilter(v)
	default:
		return FilterAll
	}
}

// Company is a CRM company record.
type Company struct {
	ID             string         `json:"id"`
	RaisonSocial   string         `json:"raison_social"`
	Activite       string         `json:"activite"`
	City           string         `json:"city"`
	PostalCode     string         `json:"postal_code"`
	DispatchStatus DispatchStatus `json:"dispatch_status"`
	AssignedTo     *string        `json:"assigned_to"`
	AssignedAt     *time.Time     `json:"assigned_at"`
}

// Contact belongs to a company.
type Contact struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Phone belongs to a contact.
type Phone struct {
	ID        string `json:"id"`
	ContactID string `json:"contact_id"`
	Number    string `json:"number,omitempty"`
}

// CompanyView is a company plus its derived counts.
type CompanyView struct {
	Company
	ContactCount int `json:"contact_count"`
	PhoneCount   int `json:"phone_count"`
}

// DispatchList is returned by the dispatch listing and after each assign.
type DispatchList struct {
	Filter    DispatchFilter `json:"filter"`
	Search    string         `json:"search,omitempty"`
	Companies []CompanyView  `json:"companies"`
	Total     int            `json:"total"`
}

// AssignRequest is the body for POST /v1/admin/dispatch/assign.
type AssignRequest struct {
	CompanyIDs []string `json:"company_ids"`
	FixerID    string   `json:"fixer_id"`
}

// UnassignRequest is the body for POST /v1/admin/dispatch/unassign.
type UnassignRequest struct {
	CompanyIDs []string `json:"company_ids"`
}

// AssignResult is returned after a bulk assignment.
type AssignResult struct {
	Assigned int          `json:"assigned"`
	FixerID  string       `json:"fixer_id,omitempty"`
	List     DispatchList `json:"list"`
}

// MatchesSearch matches term case-insensitively against the company name,
// city and activity.
func (c *Company) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.RaisonSocial), term) ||
		strings.Contains(strings.ToLower(c.City), term) ||
		strings.Contains(strings.ToLower(c.Activite), term)
}

// FilterCompanies keeps the companies that match the search term.
func FilterCompanies(companies []Company, term string) []Company {
	out := make([]Company, 0, len(companies))
	for _, c := range companies {
		if c.MatchesSearch(term) {
			out = append(out, c)
		}
	}
	return out
}

// FoldCounts joins contacts and phones onto companies in memory. Counts
// are row counts; phones whose contact is not among contacts are ignored.
func FoldCounts(companies []Company, contacts []Contact, phones []Phone) []CompanyView {
	contactCompany := make(map[string]string, len(contacts))
	contactCount := make(map[string]int, len(companies))
	for _, ct := range contacts {
		contactCompany[ct.ID] = ct.CompanyID
		contactCount[ct.CompanyID]++
	}

	phoneCount := make(map[string]int, len(companies))
	for _, ph := range phones {
		if companyID, ok := contactCompany[ph.ContactID]; ok {
			phoneCount[companyID]++
		}
	}

	views := make([]CompanyView, 0, len(companies))
	for _, c := range companies {
		views = append(views, CompanyView{
			Company:      c,
			ContactCount: contactCount[c.ID],
			PhoneCount:   phoneCount[c.ID],
		})
	}
	return views
}

// ============================================================
// Feedback
// ============================================================

// FeedbackType classifies a feedback entry.
type FeedbackType string

const (
	FeedbackObjection         FeedbackType = "objection"
	FeedbackScriptImprovement FeedbackType = "script_improvement"
	FeedbackGeneral           FeedbackType = "general"
)

// Valid reports whether t is a known feedback type.
func (t FeedbackType) Valid() bool {
	return t == FeedbackObjection || t == FeedbackScriptImprovement || t == FeedbackGeneral
}

// FeedbackStatus tracks the admin handling of a feedback entry.
type FeedbackStatus string

const (
	FeedbackNew         FeedbackStatus = "new"
	FeedbackReviewed    FeedbackStatus = "reviewed"
	FeedbackImplemented FeedbackStatus = "implemented"
)

// Valid reports whether s is a known feedback status.
func (s FeedbackStatus) Valid() bool {
	return s == FeedbackNew || s == FeedbackReviewed || s == FeedbackImplemented
}

// Feedback is a field note sent by a fixer or closer.
type Feedback struct {
	ID        string         `json:"id"`
	ProfileID string         `json:"profile_id"`
	Type      FeedbackType   `json:"type"`
	Content   string         `json:"content"`
	Status    FeedbackStatus `json:"status"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

// FeedbackRequest is the body for POST /v1/feedback.
type FeedbackRequest struct {
	Type    FeedbackType `json:"type"`
	Content string       `json:"content"`
}

// FeedbackStatusRequest is the body for PATCH /v1/admin/feedback/{id}.
type FeedbackStatusRequest struct {
	Status FeedbackStatus `json:"status"`
}
