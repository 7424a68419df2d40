package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 4. KPI
// ============================================================

func recordKPIHandler(svc *service.KPIService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/kpi")
		defer span.End()

		var req domain.KPIEntryRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		row, err := svc.RecordKPI(ctx, IdentityFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, row)
	}
}

func kpiDashboardHandler(svc *service.KPIService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/kpi/dashboard")
		defer span.End()

		rangeDays := 0
		if v := r.URL.Query().Get("range"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "range must be 7 or 30")
				return
			}
			rangeDays = n
		}
		span.SetAttributes(attribute.Int("range_days", rangeDays))

		dash, err := svc.Dashboard(ctx, IdentityFromContext(ctx), rangeDays)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

// ============================================================
// 5. Financing dossiers
// ============================================================

func listDossiersHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dossiers")
		defer span.End()

		dossiers, err := svc.ListDossiers(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dossiers)
	}
}

func dossierAlertsHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dossiers/alerts")
		defer span.End()

		dossiers, err := svc.Alerts(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dossiers)
	}
}

func getDossierHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dossiers/{dossierId}")
		defer span.End()

		dossier, err := svc.GetDossier(ctx, chi.URLParam(r, "dossierId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dossier)
	}
}

func setMilestoneHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/dossiers/{dossierId}/milestones")
		defer span.End()

		dossierID := chi.URLParam(r, "dossierId")
		span.SetAttributes(attribute.String("dossier.id", dossierID))

		var req domain.MilestoneRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		dossier, err := svc.SetMilestone(ctx, dossierID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dossier)
	}
}

// ============================================================
// 6. Feedback
// ============================================================

func submitFeedbackHandler(svc *service.FeedbackService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/feedback")
		defer span.End()

		var req domain.FeedbackRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		fb, err := svc.Submit(ctx, IdentityFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, fb)
	}
}
