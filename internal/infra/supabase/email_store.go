package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// EmailStore implementation: sent_emails and received_emails
// ============================================================

const (
	sentEmailsTable     = "sent_emails"
	receivedEmailsTable = "received_emails"
)

// InsertSentEmail writes the queued row of an outbound email.
func (c *Client) InsertSentEmail(ctx context.Context, e *domain.SentEmail) (*domain.SentEmail, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertSentEmail")
	defer span.End()
	span.SetAttributes(attribute.String("email.id", e.ID))

	created, err := insertOne[domain.SentEmail](ctx, c, "supabase/sent_emails", sentEmailsTable, e)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return e, nil
	}
	return created, nil
}

// UpdateSentEmail patches an outbound email row.
func (c *Client) UpdateSentEmail(ctx context.Context, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateSentEmail")
	defer span.End()
	span.SetAttributes(attribute.String("email.id", id))

	path := fmt.Sprintf("%s?id=%s", sentEmailsTable, eq(id))
	_, err := c.mutate("supabase/sent_emails", func() ([]byte, error) {
		return c.doPatch(ctx, path, fields)
	})
	return err
}

// GetSentEmail returns an outbound email, or nil when unknown.
func (c *Client) GetSentEmail(ctx context.Context, id string) (*domain.SentEmail, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSentEmail")
	defer span.End()

	return getOne[domain.SentEmail](ctx, c, "supabase/sent_emails", fmt.Sprintf("%s?id=%s&limit=1", sentEmailsTable, eq(id)))
}

// LatestSentTo returns the most recent outbound email to toEmail, or nil.
func (c *Client) LatestSentTo(ctx context.Context, toEmail string) (*domain.SentEmail, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LatestSentTo")
	defer span.End()

	path := fmt.Sprintf("%s?to_email=%s&order=created_at.desc&limit=1", sentEmailsTable, ilikeExact(toEmail))
	e, err := getOne[domain.SentEmail](ctx, c, "supabase/sent_emails", path)
	if err != nil || e == nil || !strings.EqualFold(strings.TrimSpace(e.ToEmail), toEmail) {
		return nil, err
	}
	return e, nil
}

// InsertReceivedEmail writes an inbound email.
func (c *Client) InsertReceivedEmail(ctx context.Context, e *domain.ReceivedEmail) (*domain.ReceivedEmail, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertReceivedEmail")
	defer span.End()
	span.SetAttributes(attribute.String("email.owner", e.OwnerID))

	created, err := insertOne[domain.ReceivedEmail](ctx, c, "supabase/received_emails", receivedEmailsTable, e)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return e, nil
	}
	return created, nil
}

// ListSentEmails lists recent outbound emails.
func (c *Client) ListSentEmails(ctx context.Context, limit int) ([]domain.SentEmail, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSentEmails")
	defer span.End()

	return getMany[domain.SentEmail](ctx, c, "supabase/sent_emails", fmt.Sprintf("%s?order=created_at.desc&limit=%d", sentEmailsTable, limit))
}

// ListReceivedEmails lists recent inbound emails.
func (c *Client) ListReceivedEmails(ctx context.Context, limit int) ([]domain.ReceivedEmail, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListReceivedEmails")
	defer span.End()

	return getMany[domain.ReceivedEmail](ctx, c, "supabase/received_emails", fmt.Sprintf("%s?order=received_at.desc&limit=%d", receivedEmailsTable, limit))
}
