// Package llm checks that the configured LLM API key is usable.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("llm")

// Prober sends one minimal chat completion. Implements port.LLMProber.
type Prober struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewProber creates a Prober for an OpenAI-compatible completions endpoint.
func NewProber(httpClient *http.Client, url, apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Prober {
	return &Prober{
		httpClient: httpClient,
		url:        url,
		apiKey:     apiKey,
		model:      model,
		cb:         cb,
		cfg:        cfg,
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model string `json:"model"`
}

// Probe calls the endpoint once and reports the answering model.
func (p *Prober) Probe(ctx context.Context) (string, time.Duration, error) {
	ctx, span := tracer.Start(ctx, "LLM.Probe")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", p.model))

	payload, err := json.Marshal(chatRequest{
		Model:     p.model,
		Messages:  []chatMessage{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return "", 0, err
	}

	start := time.Now()
	var out chatResponse
	_, err = p.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, p.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
			if err != nil {
				return resilience.Permanent(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+p.apiKey)

			resp, err := p.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			if resp.StatusCode != http.StatusOK {
				return &domain.ErrBackend{Status: resp.StatusCode, Message: providerMessage(body)}
			}
			if err := json.Unmarshal(body, &out); err != nil {
				return resilience.Permanent(fmt.Errorf("decode completion: %w", err))
			}
			return nil
		})
	})
	latency := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return "", latency, &domain.ErrCircuitOpen{Service: "llm"}
		}
		return "", latency, &domain.ErrExternalService{Service: "llm", Err: err}
	}
	if out.Model == "" {
		out.Model = p.model
	}
	return out.Model, latency, nil
}

// providerMessage extracts error.message from an OpenAI-style error body.
func providerMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(body)
}
