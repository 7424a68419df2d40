package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/observability"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var emailTracer = otel.Tracer("service/email")

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Sender identifies the platform address outbound mail is sent from.
type Sender struct {
	Address string
	Name    string
	BaseURL string // public URL of this service, used by the tracking pixel
}

// EmailRelay sends CRM emails, ingests replies and tracks opens.
type EmailRelay struct {
	emails   port.EmailStore
	profiles port.ProfileStore
	crm      port.CRMStore
	provider port.EmailSender
	from     Sender
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewEmailRelay(
	emails port.EmailStore,
	profiles port.ProfileStore,
	crm port.CRMStore,
	provider port.EmailSender,
	from Sender,
	metrics *observability.Metrics,
	logger *zap.Logger,
	now func() time.Time,
) *EmailRelay {
	if now == nil {
		now = time.Now
	}
	return &EmailRelay{
		emails:   emails,
		profiles: profiles,
		crm:      crm,
		provider: provider,
		from:     from,
		metrics:  metrics,
		logger:   logger,
		now:      now,
	}
}

// ============================================================
// Send: POST /functions/v1/send-email
// ============================================================

// Send queues, delivers and records one outbound email. Failures after the
// queued row exists are returned as *domain.ErrSendFailed and leave the row
// in the failed state.
func (r *EmailRelay) Send(ctx context.Context, id *domain.Identity, req *domain.SendEmailRequest) (*domain.SendEmailResponse, error) {
	ctx, span := emailTracer.Start(ctx, "EmailRelay.Send")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	fromName := strings.TrimSpace(req.FromName)
	if fromName == "" && id.Profile != nil {
		fromName = id.Profile.FullName
	}
	if fromName == "" {
		fromName = r.from.Name
	}

	row, err := r.emails.InsertSentEmail(ctx, &domain.SentEmail{
		ID:         uuid.NewString(),
		SenderID:   id.UserID,
		FromEmail:  r.from.Address,
		FromName:   fromName,
		ToEmail:    strings.TrimSpace(req.ToEmail),
		ToName:     req.ToName,
		Subject:    req.Subject,
		BodyHTML:   req.BodyHTML,
		BodyText:   req.BodyText,
		TemplateID: req.TemplateID,
		CompanyID:  req.CompanyID,
		ContactID:  req.ContactID,
		Status:     domain.DeliveryQueued,
	})
	if err != nil {
		return nil, fmt.Errorf("queue email: %w", err)
	}
	span.SetAttributes(attribute.String("email.id", row.ID))

	msg := &port.OutboundMessage{
		From:    formatAddress(fromName, r.from.Address),
		To:      formatAddress(req.ToName, row.ToEmail),
		Subject: req.Subject,
		HTML:    domain.WithTrackingPixel(req.BodyHTML, r.from.BaseURL, row.ID),
		Text:    req.BodyText,
		ReplyTo: id.Email,
		Tags:    map[string]string{"email_id": row.ID},
	}
	resendID, sendErr := r.provider.Send(ctx, msg)
	if sendErr != nil {
		stage := "provider"
		if errors.Is(sendErr, domain.ErrEmailNotConfigured) {
			stage = "config"
		}
		r.markFailed(context.WithoutCancel(ctx), row.ID, sendErr)
		r.metrics.IncrEmail("failed")
		r.logger.Error("email send failed",
			zap.String("email_id", row.ID),
			zap.String("stage", stage),
			zap.Error(sendErr),
		)
		return nil, &domain.ErrSendFailed{EmailID: row.ID, Stage: stage, Err: sendErr}
	}

	if err := r.emails.UpdateSentEmail(context.WithoutCancel(ctx), row.ID, map[string]any{
		"status":    domain.DeliverySent,
		"resend_id": resendID,
		"sent_at":   r.now().UTC(),
	}); err != nil {
		// The provider accepted the message; only the bookkeeping is stale.
		r.logger.Error("email sent but status update failed", zap.String("email_id", row.ID), zap.Error(err))
	}
	r.metrics.IncrEmail("sent")
	r.logger.Info("email sent", zap.String("email_id", row.ID), zap.String("resend_id", resendID))

	return &domain.SendEmailResponse{Success: true, EmailID: row.ID, ResendID: resendID}, nil
}

func (r *EmailRelay) markFailed(ctx context.Context, emailID string, cause error) {
	if err := r.emails.UpdateSentEmail(ctx, emailID, map[string]any{
		"status":        domain.DeliveryFailed,
		"error_message": cause.Error(),
	}); err != nil {
		r.logger.Error("mark email failed", zap.String("email_id", emailID), zap.Error(err))
	}
}

func formatAddress(name, addr string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", strings.ReplaceAll(name, `"`, ""), addr)
}

// ============================================================
// Inbound: POST /functions/v1/inbound-email
// ============================================================

// owner is the resolved recipient of an inbound email.
type owner struct {
	profileID string
	sent      *domain.SentEmail
}

// Inbound stores a reply received by the provider webhook.
func (r *EmailRelay) Inbound(ctx context.Context, payload *domain.InboundPayload) (*domain.InboundEmailResponse, error) {
	ctx, span := emailTracer.Start(ctx, "EmailRelay.Inbound")
	defer span.End()

	in, err := payload.Normalize()
	if err != nil {
		return nil, err
	}

	own, err := r.resolveOwner(ctx, in)
	if err != nil {
		return nil, err
	}

	row := &domain.ReceivedEmail{
		ID:        uuid.NewString(),
		OwnerID:   own.profileID,
		FromEmail: in.FromEmail,
		FromName:  in.FromName,
		ToEmail:   in.ToEmail,
		Subject:   in.Subject,
		BodyHTML:  in.HTML,
		BodyText:  in.Text,
		MessageID: in.MessageID,
		InReplyTo: in.InReplyTo,
	}
	if own.sent != nil {
		row.SentEmailID = &own.sent.ID
		row.CompanyID = own.sent.CompanyID
		row.ContactID = own.sent.ContactID
	}
	if row.ContactID == nil {
		r.attachContact(ctx, row)
	}

	saved, err := r.emails.InsertReceivedEmail(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("store inbound email: %w", err)
	}
	r.metrics.IncrEmail("received")
	r.logger.Info("inbound email stored",
		zap.String("email_id", saved.ID),
		zap.String("owner_id", saved.OwnerID),
		zap.Bool("correlated", saved.SentEmailID != nil),
	)
	return &domain.InboundEmailResponse{Success: true, EmailID: saved.ID}, nil
}

// resolveOwner looks up the three owner candidates concurrently and picks
// them in order: the sender of the latest email to this address, a profile
// whose role matches the recipient local part, then any admin. A failed
// lookup only matters when no earlier candidate matched.
func (r *EmailRelay) resolveOwner(ctx context.Context, in domain.InboundEmail) (owner, error) {
	var (
		latest                     *domain.SentEmail
		byRole, admins             []domain.Profile
		latestErr, roleErr, admErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		latest, latestErr = r.emails.LatestSentTo(ctx, in.FromEmail)
		return nil
	})
	if role := domain.Role(domain.LocalPart(in.ToEmail)); role.Valid() {
		g.Go(func() error {
			byRole, roleErr = r.profiles.ListProfilesByRole(ctx, role, "")
			return nil
		})
	}
	g.Go(func() error {
		admins, admErr = r.profiles.ListAdmins(ctx)
		return nil
	})
	_ = g.Wait()

	steps := []struct {
		name string
		err  error
		pick func() (owner, bool)
	}{
		{"latest sent email", latestErr, func() (owner, bool) {
			if latest != nil && latest.SenderID != "" {
				return owner{profileID: latest.SenderID, sent: latest}, true
			}
			return owner{}, false
		}},
		{"role profile", roleErr, func() (owner, bool) {
			if len(byRole) > 0 {
				return owner{profileID: byRole[0].ID}, true
			}
			return owner{}, false
		}},
		{"admin", admErr, func() (owner, bool) {
			if len(admins) > 0 {
				return owner{profileID: admins[0].ID}, true
			}
			return owner{}, false
		}},
	}
	for _, step := range steps {
		if step.err != nil {
			return owner{}, fmt.Errorf("resolve owner by %s: %w", step.name, step.err)
		}
		if own, ok := step.pick(); ok {
			return own, nil
		}
	}
	return owner{}, &domain.ErrValidation{Field: "to", Message: "no owner could be resolved for " + in.ToEmail}
}

// attachContact links the email to a CRM contact by sender address. A
// failed lookup leaves the link empty.
func (r *EmailRelay) attachContact(ctx context.Context, row *domain.ReceivedEmail) {
	c, err := r.crm.FindContactByEmail(ctx, row.FromEmail)
	if err != nil {
		r.logger.Warn("inbound: contact lookup failed", zap.String("from", row.FromEmail), zap.Error(err))
		return
	}
	if c == nil {
		return
	}
	row.ContactID = &c.ID
	if row.CompanyID == nil && c.CompanyID != "" {
		row.CompanyID = &c.CompanyID
	}
}

// ============================================================
// TrackOpen: GET /functions/v1/track-open/{id}
// ============================================================

// TrackOpen stamps the first open of a sent email. Errors are only logged:
// the caller always answers with the pixel.
func (r *EmailRelay) TrackOpen(ctx context.Context, emailID string) {
	ctx, span := emailTracer.Start(ctx, "EmailRelay.TrackOpen")
	defer span.End()

	e, err := r.emails.GetSentEmail(ctx, emailID)
	if err != nil {
		r.logger.Warn("track open: lookup failed", zap.String("email_id", emailID), zap.Error(err))
		return
	}
	if e == nil || e.OpenedAt != nil {
		return
	}
	if err := r.emails.UpdateSentEmail(ctx, emailID, map[string]any{"opened_at": r.now().UTC()}); err != nil {
		r.logger.Warn("track open: update failed", zap.String("email_id", emailID), zap.Error(err))
		return
	}
	r.metrics.IncrEmail("opened")
}

// ============================================================
// Admin listings: GET /v1/admin/emails/{sent,received}
// ============================================================

func (r *EmailRelay) ListSent(ctx context.Context, limit int) ([]domain.SentEmail, error) {
	ctx, span := emailTracer.Start(ctx, "EmailRelay.ListSent")
	defer span.End()

	rows, err := r.emails.ListSentEmails(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list sent emails: %w", err)
	}
	return rows, nil
}

func (r *EmailRelay) ListReceived(ctx context.Context, limit int) ([]domain.ReceivedEmail, error) {
	ctx, span := emailTracer.Start(ctx, "EmailRelay.ListReceived")
	defer span.End()

	rows, err := r.emails.ListReceivedEmails(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list received emails: %w", err)
	}
	return rows, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	}
	return n
}
