package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// trackingGIF is a transparent 1x1 GIF.
var trackingGIF, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// writeFunctionError answers in the {error, details} shape of the email
// functions.
func writeFunctionError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var unauthorized *domain.ErrUnauthorized
	var validation *domain.ErrValidation
	var sendFailed *domain.ErrSendFailed

	switch {
	case errors.As(err, &unauthorized):
		logger.Warn("function: unauthorized", zap.String("error", err.Error()))
		writeJSON(w, http.StatusUnauthorized, domain.FunctionError{Error: "Unauthorized", Details: err.Error()})
	case errors.As(err, &validation):
		logger.Debug("function: validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, domain.FunctionError{Error: validation.Message, Details: validation.Field})
	case errors.As(err, &sendFailed) && sendFailed.Stage == "config":
		writeJSON(w, http.StatusInternalServerError, domain.FunctionError{Error: "Email provider not configured", Details: sendFailed.Err.Error()})
	case errors.As(err, &sendFailed):
		writeJSON(w, http.StatusBadGateway, domain.FunctionError{Error: "Failed to send email", Details: sendFailed.Err.Error()})
	default:
		logger.Error("function: unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, domain.FunctionError{Error: "Internal error", Details: err.Error()})
	}
}

// ============================================================
// 8. Functions: POST /functions/v1/send-email
// ============================================================

func sendEmailHandler(auth Authenticator, relay *service.EmailRelay, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /functions/v1/send-email")
		defer span.End()

		token, ok := bearerToken(r)
		if !ok {
			writeFunctionError(w, &domain.ErrUnauthorized{Message: "missing bearer token"}, logger)
			return
		}
		id, err := auth.Authenticate(ctx, token)
		if err != nil {
			writeFunctionError(w, err, logger)
			return
		}

		var req domain.SendEmailRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := relay.Send(ctx, id, &req)
		if err != nil {
			writeFunctionError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("email.id", resp.EmailID))
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// 8. Functions: POST /functions/v1/inbound-email
// ============================================================

func inboundEmailHandler(relay *service.EmailRelay, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /functions/v1/inbound-email")
		defer span.End()

		var payload domain.InboundPayload
		if !decodeJSON(w, r, &payload) {
			return
		}

		resp, err := relay.Inbound(ctx, &payload)
		if err != nil {
			writeFunctionError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// 8. Functions: GET /functions/v1/track-open/{emailId}
// ============================================================

func trackOpenHandler(relay *service.EmailRelay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /functions/v1/track-open/{emailId}")
		defer span.End()

		relay.TrackOpen(ctx, chi.URLParam(r, "emailId"))

		w.Header().Set("Content-Type", "image/gif")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		w.WriteHeader(http.StatusOK)
		w.Write(trackingGIF)
	}
}

// ============================================================
// 8. Functions: GET /functions/v1/check-llm-key
// ============================================================

func checkLLMKeyHandler(diag *service.Diagnostics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /functions/v1/check-llm-key")
		defer span.End()

		writeJSON(w, http.StatusOK, diag.CheckLLMKey(ctx))
	}
}
