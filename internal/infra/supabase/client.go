// Package supabase is the typed repository layer over the managed backend:
// PostgREST tables, GoTrue auth and Storage buckets.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase REST, auth and storage APIs.
type Client struct {
	httpClient     *http.Client
	uploadClient   *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger

	uploads *resilience.Bulkhead
	buckets sync.Map // bucket id → struct{} once known to exist
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		uploadClient:   httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
		uploads:        resilience.NewBulkhead(cfg.MaxConcurrency),
	}
}

// WithUploadTimeout gives storage object uploads their own deadline. The
// transport is shared with the REST client.
func (c *Client) WithUploadTimeout(d time.Duration) *Client {
	if d > 0 {
		c.uploadClient = &http.Client{Transport: c.httpClient.Transport, Timeout: d}
	}
	return c
}

// send executes one request and returns the status and body. Non-2xx
// answers become *domain.ErrBackend carrying the raw backend text.
func (c *Client) send(req *http.Request) ([]byte, error) {
	return c.sendWith(c.httpClient, req)
}

func (c *Client) sendWith(hc *http.Client, req *http.Request) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &domain.ErrBackend{Status: resp.StatusCode, Message: backendMessage(body)}
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

// restRequest builds a service-role request against /rest/v1.
func (c *Client) restRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	return req, nil
}

// doRequest executes an authenticated request to Supabase PostgREST.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := c.restRequest(ctx, method, path, nil)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

// read runs an idempotent GET behind the breaker with retries and decodes
// the JSON answer into out.
func (c *Client) read(ctx context.Context, service, path string, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			if len(body) == 0 {
				body = []byte("[]")
			}
			if err := json.Unmarshal(body, out); err != nil {
				return resilience.Permanent(fmt.Errorf("failed to decode %s: %w", service, err))
			}
			return nil
		})
	})
	if err != nil {
		return c.wrapErr(service, err)
	}
	return nil
}

// mutate runs a write behind the breaker, without retries.
func (c *Client) mutate(service string, fn func() ([]byte, error)) ([]byte, error) {
	out, err := c.cb.Execute(func() (any, error) {
		body, err := fn()
		if err != nil {
			var backend *domain.ErrBackend
			if errors.As(err, &backend) && backend.Status < 500 {
				return nil, resilience.Permanent(err)
			}
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, c.wrapErr(service, err)
	}
	body, _ := out.([]byte)
	return body, nil
}

// wrapErr turns transport and breaker failures into domain errors.
func (c *Client) wrapErr(service string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: service}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: service}
	}
	var notFound *domain.ErrNotFound
	if errors.As(err, &notFound) {
		return notFound
	}
	return &domain.ErrExternalService{Service: service, Err: err}
}

// Ping checks that the auth and REST gateways answer. Implements
// port.HealthChecker.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	if _, err := c.send(req); err != nil {
		return c.wrapErr("supabase/health", err)
	}
	return nil
}

// backendMessage extracts the human text of an error body, falling back
// to the raw body.
func backendMessage(body []byte) string {
	var e struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
			if s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(body))
}
