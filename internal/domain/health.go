package domain

import "time"

// ============================================================
// Health & diagnostics responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of one dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// LLMKeyCheck is the result of the LLM key diagnostic. The key itself is
// never part of it.
type LLMKeyCheck struct {
	Present   bool      `json:"present"`
	Format    bool      `json:"format_valid"`
	Live      bool      `json:"live"`
	Model     string    `json:"model,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// MinLLMKeyLength is the shortest key accepted by the format check.
const MinLLMKeyLength = 20

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// OpsMetrics is returned by GET /v1/admin/metrics.
type OpsMetrics struct {
	EmailsSent          int64   `json:"emails_sent"`
	EmailsFailed        int64   `json:"emails_failed"`
	EmailsReceived      int64   `json:"emails_received"`
	EmailsOpened        int64   `json:"emails_opened"`
	QuizPasses          int64   `json:"quiz_passes"`
	QuizFailures        int64   `json:"quiz_failures"`
	DispatchAssignments int64   `json:"dispatch_assignments"`
	TokenCacheHitRate   float64 `json:"token_cache_hit_rate"`
	Period              string  `json:"period"`
}
