// Package email delivers outbound CRM emails through Resend.
package email

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"

	"github.com/resend/resend-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("email")

// ResendSender sends emails via the Resend API. Implements port.EmailSender.
type ResendSender struct {
	client *resend.Client
	logger *zap.Logger
}

// NewResendSender creates a sender. With an empty apiKey every Send
// returns domain.ErrEmailNotConfigured. baseURL overrides the API root
// when non-empty.
func NewResendSender(httpClient *http.Client, apiKey, baseURL string, logger *zap.Logger) (*ResendSender, error) {
	s := &ResendSender{logger: logger}
	if apiKey == "" {
		return s, nil
	}

	s.client = resend.NewCustomClient(httpClient, apiKey)
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse resend base url: %w", err)
		}
		s.client.BaseURL = u
	}
	return s, nil
}

// Configured reports whether the sender has credentials.
func (s *ResendSender) Configured() bool {
	return s.client != nil
}

// Send delivers msg and returns the provider message id.
func (s *ResendSender) Send(ctx context.Context, msg *port.OutboundMessage) (string, error) {
	ctx, span := tracer.Start(ctx, "Resend.Send")
	defer span.End()

	if s.client == nil {
		return "", domain.ErrEmailNotConfigured
	}

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}
	params.Tags = tags(msg.Tags)

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.logger.Error("resend: send failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return "", fmt.Errorf("resend send failed: %w", err)
	}

	span.SetAttributes(attribute.String("resend.id", sent.Id))
	s.logger.Info("resend: sent",
		zap.String("resend_id", sent.Id),
		zap.String("to", msg.To),
	)
	return sent.Id, nil
}

// tags converts a map to Resend tags in a stable order.
func tags(m map[string]string) []resend.Tag {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]resend.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, resend.Tag{Name: k, Value: m[k]})
	}
	return out
}
