package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var diagnosticsTracer = otel.Tracer("service/diagnostics")

const (
	llmKeyPrefix = "sk-"
	redacted     = "[redacted]"
)

// Diagnostics runs the dependency health checks and the LLM key probe.
type Diagnostics struct {
	checks    map[string]port.HealthChecker
	prober    port.LLMProber
	llmAPIKey string
	logger    *zap.Logger
	now       func() time.Time
}

// NewDiagnostics creates the diagnostics service. checks maps a dependency
// name to its liveness probe.
func NewDiagnostics(checks map[string]port.HealthChecker, prober port.LLMProber, llmAPIKey string, logger *zap.Logger, now func() time.Time) *Diagnostics {
	if now == nil {
		now = time.Now
	}
	return &Diagnostics{checks: checks, prober: prober, llmAPIKey: llmAPIKey, logger: logger, now: now}
}

// Health pings every dependency concurrently.
func (d *Diagnostics) Health(ctx context.Context) *domain.HealthStatus {
	ctx, span := diagnosticsTracer.Start(ctx, "Diagnostics.Health")
	defer span.End()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		services = make([]domain.ServiceHealth, 0, len(d.checks))
	)
	for name, hc := range d.checks {
		wg.Add(1)
		go func(name string, hc port.HealthChecker) {
			defer wg.Done()
			start := d.now()
			err := hc.Ping(ctx)
			sh := domain.ServiceHealth{
				Name:        name,
				Status:      "up",
				LatencyMs:   d.now().Sub(start).Milliseconds(),
				LastChecked: d.now().UTC().Format(time.RFC3339),
			}
			if err != nil {
				sh.Status = "down"
				sh.Error = err.Error()
			}
			mu.Lock()
			services = append(services, sh)
			mu.Unlock()
		}(name, hc)
	}
	wg.Wait()
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })

	down := 0
	for _, s := range services {
		if s.Status != "up" {
			down++
		}
	}
	status := "healthy"
	switch {
	case down > 0 && down == len(services):
		status = "unhealthy"
	case down > 0:
		status = "degraded"
	}
	return &domain.HealthStatus{Status: status, Services: services}
}

// ============================================================
// CheckLLMKey: GET /functions/v1/check-llm-key
// ============================================================

// CheckLLMKey reports whether the LLM key is present, well formed and
// accepted by the provider. The key never appears in the result.
func (d *Diagnostics) CheckLLMKey(ctx context.Context) *domain.LLMKeyCheck {
	ctx, span := diagnosticsTracer.Start(ctx, "Diagnostics.CheckLLMKey")
	defer span.End()

	key := strings.TrimSpace(d.llmAPIKey)
	out := &domain.LLMKeyCheck{CheckedAt: d.now().UTC()}
	if key == "" {
		out.Error = "LLM API key is not configured"
		return out
	}
	out.Present = true

	out.Format = strings.HasPrefix(key, llmKeyPrefix) && len(key) >= domain.MinLLMKeyLength
	if !out.Format {
		out.Error = "LLM API key has an unexpected format"
		return out
	}
	if d.prober == nil {
		out.Error = "LLM probe is not configured"
		return out
	}

	model, latency, err := d.prober.Probe(ctx)
	out.LatencyMs = latency.Milliseconds()
	if err != nil {
		out.Error = d.redact(probeMessage(err))
		d.logger.Warn("llm key probe failed", zap.String("error", out.Error))
		return out
	}
	out.Live = true
	out.Model = model
	return out
}

// probeMessage prefers the provider's own text over the wrapped chain.
func probeMessage(err error) string {
	var backend *domain.ErrBackend
	if errors.As(err, &backend) && backend.Message != "" {
		return backend.Message
	}
	return err.Error()
}

func (d *Diagnostics) redact(msg string) string {
	if d.llmAPIKey == "" {
		return msg
	}
	return strings.ReplaceAll(msg, d.llmAPIKey, redacted)
}
