package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/observability"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the application services exposed over HTTP.
type Services struct {
	Sessions    *service.SessionService
	Onboarding  *service.OnboardingService
	KPI         *service.KPIService
	Dispatch    *service.DispatchService
	Financing   *service.FinancingService
	Feedback    *service.FeedbackService
	Email       *service.EmailRelay
	Diagnostics *service.Diagnostics
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, logger *zap.Logger, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metrics.HTTPMiddleware)

	// Operational endpoints
	r.Get("/healthz", healthHandler(svc.Diagnostics))
	r.Get("/readyz", readyHandler)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	requireAuth := RequireAuth(svc.Sessions, logger)
	requireAdmin := RequireAdmin(logger)

	r.Route("/v1", func(r chi.Router) {
		// =============================================
		// 1. Session
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", signUpHandler(svc.Sessions, logger))
			r.Post("/signin", signInHandler(svc.Sessions, logger))
			r.Post("/refresh", refreshHandler(svc.Sessions, logger))
			r.Post("/password/reset", resetPasswordHandler(svc.Sessions, logger))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/signout", signOutHandler(svc.Sessions, logger))
				r.Put("/password", updatePasswordHandler(svc.Sessions, logger))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			// =============================================
			// 2. Me & status router
			// =============================================
			r.Get("/me", meHandler(svc.Sessions, logger))
			r.Get("/me/route", routeHandler(svc.Onboarding, logger))

			// =============================================
			// 3. Onboarding
			// =============================================
			r.Route("/onboarding", func(r chi.Router) {
				r.Post("/application", submitApplicationHandler(svc.Onboarding, logger))
				r.Post("/cv", uploadCVHandler(svc.Onboarding, logger))
				r.Get("/quiz/{bank}", quizBankHandler(svc.Onboarding, logger))
				r.Post("/framework", acceptFrameworkHandler(svc.Onboarding, logger))
				r.Get("/modules/{module}", getModuleHandler(svc.Onboarding, logger))
				r.Post("/modules/{module}/complete", completeModuleHandler(svc.Onboarding, logger))
				r.Post("/validation-quiz", validationQuizHandler(svc.Onboarding, logger))
				r.Post("/recording", uploadRecordingHandler(svc.Onboarding, logger))
				r.Post("/activate", activateHandler(svc.Onboarding, logger))
			})

			// =============================================
			// 4. KPI
			// =============================================
			r.Post("/kpi", recordKPIHandler(svc.KPI, logger))
			r.Get("/kpi/dashboard", kpiDashboardHandler(svc.KPI, logger))

			// =============================================
			// 5. Financing dossiers
			// =============================================
			r.Get("/dossiers", listDossiersHandler(svc.Financing, logger))
			r.Get("/dossiers/alerts", dossierAlertsHandler(svc.Financing, logger))
			r.Get("/dossiers/{dossierId}", getDossierHandler(svc.Financing, logger))
			r.Patch("/dossiers/{dossierId}/milestones", setMilestoneHandler(svc.Financing, logger))

			// =============================================
			// 6. Feedback
			// =============================================
			r.Post("/feedback", submitFeedbackHandler(svc.Feedback, logger))

			// =============================================
			// 7. Admin
			// =============================================
			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/applications", listApplicationsHandler(svc.Onboarding, logger))
				r.Post("/applications/{applicationId}/review", reviewApplicationHandler(svc.Onboarding, logger))
				r.Get("/recordings", pendingRecordingsHandler(svc.Onboarding, logger))
				r.Post("/recordings/{profileId}/validate", validateRecordingHandler(svc.Onboarding, logger))
				r.Post("/profiles/{profileId}/reject", rejectProfileHandler(svc.Onboarding, logger))

				r.Get("/funnel", funnelHandler(svc.KPI, logger))

				r.Get("/dispatch/companies", listCompaniesHandler(svc.Dispatch, logger))
				r.Get("/dispatch/fixers", listFixersHandler(svc.Dispatch, logger))
				r.Post("/dispatch/assign", assignHandler(svc.Dispatch, logger))
				r.Post("/dispatch/unassign", unassignHandler(svc.Dispatch, logger))

				r.Get("/feedback", listFeedbackHandler(svc.Feedback, logger))
				r.Patch("/feedback/{feedbackId}", updateFeedbackHandler(svc.Feedback, logger))

				r.Get("/emails/sent", listSentEmailsHandler(svc.Email, logger))
				r.Get("/emails/received", listReceivedEmailsHandler(svc.Email, logger))

				r.Get("/metrics", opsMetricsHandler(metrics))
			})
		})
	})

	// =============================================
	// 8. Functions (email relay, diagnostics)
	// =============================================
	r.Route("/functions/v1", func(r chi.Router) {
		r.Post("/send-email", sendEmailHandler(svc.Sessions, svc.Email, logger))
		r.Post("/inbound-email", inboundEmailHandler(svc.Email, logger))
		r.Get("/track-open/{emailId}", trackOpenHandler(svc.Email))
		r.Get("/check-llm-key", checkLLMKeyHandler(svc.Diagnostics))
	})

	return r
}

// ============================================================
// Operational: GET /healthz, GET /readyz
// ============================================================

func healthHandler(diag *service.Diagnostics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if diag == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
			return
		}
		h := diag.Health(r.Context())
		status := http.StatusOK
		if h.Status == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h)
	}
}

func readyHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
