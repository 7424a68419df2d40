package handler

import (
	"net/http"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 3. Onboarding
// ============================================================

func submitApplicationHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/application")
		defer span.End()

		var req domain.ApplicationRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		app, err := svc.SubmitApplication(ctx, IdentityFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, app)
	}
}

func uploadCVHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/cv")
		defer span.End()

		file, err := readUpload(w, r, domain.MaxCVBytes)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("file.size", file.Size))

		out, err := svc.UploadCV(ctx, IdentityFromContext(ctx), file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func quizBankHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bank, err := svc.QuizBank(chi.URLParam(r, "bank"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bank)
	}
}

func acceptFrameworkHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/framework")
		defer span.End()

		var sub domain.QuizSubmission
		if !decodeJSON(w, r, &sub) {
			return
		}

		out, err := svc.AcceptFramework(ctx, IdentityFromContext(ctx), &sub)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getModuleHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/onboarding/modules/{module}")
		defer span.End()

		module := domain.TrainingModule(chi.URLParam(r, "module"))
		content, err := svc.GetModule(ctx, IdentityFromContext(ctx), module)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, content)
	}
}

func completeModuleHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/modules/{module}/complete")
		defer span.End()

		module := domain.TrainingModule(chi.URLParam(r, "module"))
		state, err := svc.CompleteModule(ctx, IdentityFromContext(ctx), module)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func validationQuizHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/validation-quiz")
		defer span.End()

		var sub domain.QuizSubmission
		if !decodeJSON(w, r, &sub) {
			return
		}

		out, err := svc.SubmitValidationQuiz(ctx, IdentityFromContext(ctx), &sub)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func uploadRecordingHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/recording")
		defer span.End()

		file, err := readUpload(w, r, domain.MaxRecordingBytes)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("file.size", file.Size))

		out, err := svc.UploadRecording(ctx, IdentityFromContext(ctx), file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func activateHandler(svc *service.OnboardingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/activate")
		defer span.End()

		profile, err := svc.Activate(ctx, IdentityFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}
