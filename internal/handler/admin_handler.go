package handler

import (
	"net/http"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/observability"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 7. Admin: applications & recordings
// ============================================================

func listApplicationsHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/applications")
		defer span.End()

		review := domain.ReviewStatus(r.URL.Query().Get("review_status"))
		apps, err := svc.ListApplications(ctx, review)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, apps)
	}
}

func reviewApplicationHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/applications/{applicationId}/review")
		defer span.End()

		applicationID := chi.URLParam(r, "applicationId")
		span.SetAttributes(attribute.String("application.id", applicationID))

		var req domain.ReviewRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		app, err := svc.ReviewApplication(ctx, applicationID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, app)
	}
}

func pendingRecordingsHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/recordings")
		defer span.End()

		rows, err := svc.ListPendingRecordings(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func validateRecordingHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/recordings/{profileId}/validate")
		defer span.End()

		profileID := chi.URLParam(r, "profileId")
		span.SetAttributes(attribute.String("profile.id", profileID))

		profile, err := svc.ValidateRecording(ctx, profileID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func rejectProfileHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/profiles/{profileId}/reject")
		defer span.End()

		profileID := chi.URLParam(r, "profileId")
		span.SetAttributes(attribute.String("profile.id", profileID))

		profile, err := svc.RejectProfile(ctx, profileID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

// ============================================================
// 7. Admin: dispatch
// ============================================================

func dispatchQuery(r *http.Request) (domain.DispatchFilter, string) {
	q := r.URL.Query()
	return domain.ParseDispatchFilter(q.Get("filter")), q.Get("search")
}

func listCompaniesHandler(svc *service.DispatchService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/dispatch/companies")
		defer span.End()

		filter, search := dispatchQuery(r)
		list, err := svc.ListCompanies(ctx, filter, search)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func listFixersHandler(svc *service.DispatchService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/dispatch/fixers")
		defer span.End()

		fixers, err := svc.ListFixers(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, fixers)
	}
}

func assignHandler(svc *service.DispatchService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/dispatch/assign")
		defer span.End()

		var req domain.AssignRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		span.SetAttributes(attribute.Int("companies", len(req.CompanyIDs)))

		filter, search := dispatchQuery(r)
		out, err := svc.Assign(ctx, &req, filter, search)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func unassignHandler(svc *service.DispatchService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/dispatch/unassign")
		defer span.End()

		var req domain.UnassignRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		filter, search := dispatchQuery(r)
		out, err := svc.Unassign(ctx, &req, filter, search)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ============================================================
// 7. Admin: funnel, feedback, emails, metrics
// ============================================================

func funnelHandler(svc *service.KPIService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/funnel")
		defer span.End()

		q := r.URL.Query()
		funnel, err := svc.Funnel(ctx, q.Get("start"), q.Get("end"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, funnel)
	}
}

func listFeedbackHandler(svc *service.FeedbackService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/feedback")
		defer span.End()

		items, err := svc.List(ctx, domain.FeedbackStatus(r.URL.Query().Get("status")))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func updateFeedbackHandler(svc *service.FeedbackService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/feedback/{feedbackId}")
		defer span.End()

		var req domain.FeedbackStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		fb, err := svc.UpdateStatus(ctx, chi.URLParam(r, "feedbackId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, fb)
	}
}

func listSentEmailsHandler(svc *service.EmailRelay, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/emails/sent")
		defer span.End()

		rows, err := svc.ListSent(ctx, parseLimit(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func listReceivedEmailsHandler(svc *service.EmailRelay, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/emails/received")
		defer span.End()

		rows, err := svc.ListReceived(ctx, parseLimit(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func opsMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
