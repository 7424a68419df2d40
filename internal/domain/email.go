package domain

import (
	"encoding/json"
	"errors"
	"net/mail"
	"strings"
	"time"
)

// ============================================================
// Email relay: sent and received CRM emails
// ============================================================

// DeliveryStatus is the lifecycle of an outbound email.
type DeliveryStatus string

const (
	DeliveryQueued DeliveryStatus = "queued"
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// SentEmail is a row of the outbound email table.
type SentEmail struct {
	ID           string         `json:"id"`
	SenderID     string         `json:"sender_id"`
	FromEmail    string         `json:"from_email"`
	FromName     string         `json:"from_name,omitempty"`
	ToEmail      string         `json:"to_email"`
	ToName       string         `json:"to_name,omitempty"`
	Subject      string         `json:"subject"`
	BodyHTML     string         `json:"body_html"`
	BodyText     string         `json:"body_text,omitempty"`
	TemplateID   *string        `json:"template_id,omitempty"`
	CompanyID    *string        `json:"company_id,omitempty"`
	ContactID    *string        `json:"contact_id,omitempty"`
	Status       DeliveryStatus `json:"status"`
	ResendID     *string        `json:"resend_id,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	OpenedAt     *time.Time     `json:"opened_at,omitempty"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
}

// ReceivedEmail is a row of the inbound email table.
type ReceivedEmail struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	FromEmail   string     `json:"from_email"`
	FromName    string     `json:"from_name,omitempty"`
	ToEmail     string     `json:"to_email"`
	Subject     string     `json:"subject"`
	BodyHTML    string     `json:"body_html,omitempty"`
	BodyText    string     `json:"body_text,omitempty"`
	MessageID   string     `json:"message_id,omitempty"`
	InReplyTo   string     `json:"in_reply_to,omitempty"`
	SentEmailID *string    `json:"sent_email_id,omitempty"`
	CompanyID   *string    `json:"company_id,omitempty"`
	ContactID   *string    `json:"contact_id,omitempty"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
}

// SendEmailRequest is the body of the outbound email function.
type SendEmailRequest struct {
	ToEmail    string  `json:"to_email"`
	ToName     string  `json:"to_name"`
	Subject    string  `json:"subject"`
	BodyHTML   string  `json:"body_html"`
	BodyText   string  `json:"body_text"`
	FromName   string  `json:"from_name,omitempty"`
	TemplateID *string `json:"template_id,omitempty"`
	CompanyID  *string `json:"company_id,omitempty"`
	ContactID  *string `json:"contact_id,omitempty"`
}

// Validate checks the three required fields.
func (r *SendEmailRequest) Validate() error {
	if strings.TrimSpace(r.ToEmail) == "" {
		return &ErrValidation{Field: "to_email", Message: "required"}
	}
	if strings.TrimSpace(r.Subject) == "" {
		return &ErrValidation{Field: "subject", Message: "required"}
	}
	if strings.TrimSpace(r.BodyHTML) == "" {
		return &ErrValidation{Field: "body_html", Message: "required"}
	}
	return nil
}

// SendEmailResponse is the success body of the outbound email function.
type SendEmailResponse struct {
	Success  bool   `json:"success"`
	EmailID  string `json:"email_id"`
	ResendID string `json:"resend_id"`
}

// InboundEmailResponse is the success body of the inbound webhook.
type InboundEmailResponse struct {
	Success bool   `json:"success"`
	EmailID string `json:"email_id"`
}

// FunctionError is the error body of both email functions.
type FunctionError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrEmailNotConfigured is returned by a sender without provider credentials.
var ErrEmailNotConfigured = errors.New("email provider API key is not configured")

// ErrSendFailed reports a failure after the queued row was written. Stage is
// "config" when provider credentials are missing, "provider" otherwise.
type ErrSendFailed struct {
	EmailID string
	Stage   string
	Err     error
}

func (e *ErrSendFailed) Error() string {
	return "email send failed: " + e.Err.Error()
}

func (e *ErrSendFailed) Unwrap() error {
	return e.Err
}

// TrackingPixel returns the 1x1 image tag appended to outbound HTML.
func TrackingPixel(baseURL, emailID string) string {
	src := strings.TrimRight(baseURL, "/") + "/functions/v1/track-open/" + emailID
	return `<img src="` + src + `" width="1" height="1" alt="" style="display:none" />`
}

// WithTrackingPixel appends the pixel, inside </body> when present.
func WithTrackingPixel(html, baseURL, emailID string) string {
	pixel := TrackingPixel(baseURL, emailID)
	if i := lastIndexFold(html, "</body>"); i >= 0 {
		return html[:i] + pixel + html[i:]
	}
	return html + pixel
}

// lastIndexFold is strings.LastIndex with ASCII case folding. Offsets are
// byte offsets into s itself, whatever runes it holds.
func lastIndexFold(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// ============================================================
// Inbound webhook payload
// ============================================================

// addressList accepts either a JSON string or a list of strings.
type addressList []string

func (a *addressList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one != "" {
			*a = addressList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*a = many
	return nil
}

type inboundFields struct {
	From      string            `json:"from"`
	To        addressList       `json:"to"`
	Subject   string            `json:"subject"`
	HTML      string            `json:"html"`
	Text      string            `json:"text"`
	MessageID string            `json:"message_id"`
	InReplyTo string            `json:"in_reply_to"`
	Headers   map[string]string `json:"headers"`
}

// InboundPayload is the provider-shaped webhook body. Fields may come at the
// top level or nested under "data".
type InboundPayload struct {
	Type string         `json:"type,omitempty"`
	Data *inboundFields `json:"data,omitempty"`
	inboundFields
}

// UnmarshalJSON decodes both the flat and the nested shape.
func (p *InboundPayload) UnmarshalJSON(b []byte) error {
	var flat inboundFields
	if err := json.Unmarshal(b, &flat); err != nil {
		return err
	}
	var wrapper struct {
		Type string         `json:"type"`
		Data *inboundFields `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return err
	}
	p.Type = wrapper.Type
	p.Data = wrapper.Data
	p.inboundFields = flat
	return nil
}

// InboundEmail is the normalised form of an inbound webhook.
type InboundEmail struct {
	FromEmail string
	FromName  string
	ToEmail   string
	Subject   string
	HTML      string
	Text      string
	MessageID string
	InReplyTo string
}

// Normalize extracts the inbound email, preferring the nested data fields.
func (p *InboundPayload) Normalize() (InboundEmail, error) {
	f := p.inboundFields
	if p.Data != nil {
		f = *p.Data
	}
	if f.MessageID == "" {
		f.MessageID = headerValue(f.Headers, "Message-ID")
	}
	if f.InReplyTo == "" {
		f.InReplyTo = headerValue(f.Headers, "In-Reply-To")
	}

	fromName, fromEmail := parseAddress(f.From)
	if fromEmail == "" {
		return InboundEmail{}, &ErrValidation{Field: "from", Message: "required"}
	}
	toEmail := ""
	if len(f.To) > 0 {
		_, toEmail = parseAddress(f.To[0])
	}
	if toEmail == "" {
		return InboundEmail{}, &ErrValidation{Field: "to", Message: "required"}
	}

	return InboundEmail{
		FromEmail: fromEmail,
		FromName:  fromName,
		ToEmail:   toEmail,
		Subject:   f.Subject,
		HTML:      f.HTML,
		Text:      f.Text,
		MessageID: f.MessageID,
		InReplyTo: f.InReplyTo,
	}, nil
}

// LocalPart returns the part of an address before '@'.
func LocalPart(addr string) string {
	if i := strings.Index(addr, "@"); i >= 0 {
		return addr[:i]
	}
	return addr
}

func parseAddress(raw string) (name, addr string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if a, err := mail.ParseAddress(raw); err == nil {
		return a.Name, strings.ToLower(a.Address)
	}
	return "", strings.ToLower(raw)
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
