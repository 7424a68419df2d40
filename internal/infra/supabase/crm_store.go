package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// CRMStore implementation: crm_companies, crm_contacts, crm_phones
// ============================================================

const (
	companiesTable = "crm_companies"
	contactsTable  = "crm_contacts"
	phonesTable    = "crm_phones"

	// inFilterChunk bounds the number of ids sent in one in.(...) filter.
	inFilterChunk = 200
)

// ListCompanies lists companies matching the dispatch filter, by name.
func (c *Client) ListCompanies(ctx context.Context, filter domain.DispatchFilter) ([]domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCompanies")
	defer span.End()
	span.SetAttributes(attribute.String("dispatch.filter", string(filter)))

	path := companiesTable + "?order=raison_social.asc"
	switch filter {
	case domain.FilterAssigned:
		path += "&dispatch_status=eq.assigned"
	case domain.FilterUnassigned:
		path += "&or=(dispatch_status.eq.unassigned,dispatch_status.is.null)"
	}
	return getMany[domain.Company](ctx, c, "supabase/crm_companies", path)
}

// ListContacts lists the contacts of the given companies.
func (c *Client) ListContacts(ctx context.Context, companyIDs []string) ([]domain.Contact, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListContacts")
	defer span.End()
	span.SetAttributes(attribute.Int("companies", len(companyIDs)))

	return listChunked[domain.Contact](ctx, c, "supabase/crm_contacts", contactsTable, "company_id", companyIDs)
}

// ListPhones lists the phones of the given contacts.
func (c *Client) ListPhones(ctx context.Context, contactIDs []string) ([]domain.Phone, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPhones")
	defer span.End()
	span.SetAttributes(attribute.Int("contacts", len(contactIDs)))

	return listChunked[domain.Phone](ctx, c, "supabase/crm_phones", phonesTable, "contact_id", contactIDs)
}

// FindContactByEmail returns the first contact with that email, or nil.
func (c *Client) FindContactByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindContactByEmail")
	defer span.End()

	path := fmt.Sprintf("%s?email=%s&limit=1", contactsTable, ilikeExact(email))
	contact, err := getOne[domain.Contact](ctx, c, "supabase/crm_contacts", path)
	if err != nil || contact == nil || !strings.EqualFold(strings.TrimSpace(contact.Email), email) {
		return nil, err
	}
	return contact, nil
}

// UpdateCompanies applies one batched patch to every company in ids.
func (c *Client) UpdateCompanies(ctx context.Context, ids []string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCompanies")
	defer span.End()
	span.SetAttributes(attribute.Int("companies", len(ids)))

	if len(ids) == 0 {
		return nil
	}
	path := fmt.Sprintf("%s?id=%s", companiesTable, in(ids))
	_, err := c.mutate("supabase/crm_companies", func() ([]byte, error) {
		return c.doPatch(ctx, path, fields)
	})
	return err
}

// listChunked reads table rows whose column is in ids, splitting long id
// lists to keep URLs bounded.
func listChunked[T any](ctx context.Context, c *Client, service, table, column string, ids []string) ([]T, error) {
	out := make([]T, 0)
	for start := 0; start < len(ids); start += inFilterChunk {
		end := min(start+inFilterChunk, len(ids))
		rows, err := getMany[T](ctx, c, service, fmt.Sprintf("%s?%s=%s", table, column, in(ids[start:end])))
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}
