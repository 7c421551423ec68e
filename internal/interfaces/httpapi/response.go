package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/questrank/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "questrank"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain   string         `json:"domain"`
	Reason   string         `json:"reason"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
	Message    string
	Metadata   map[string]any
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: mapped.Message,
			Status:  mapped.Status,
			Errors: []googleErrorItem{
				{
					Domain:   errorDomain,
					Reason:   mapped.Reason,
					Message:  mapped.Message,
					Metadata: mapped.Metadata,
				},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	writeError(ctx, w, errors.New("unhandled panic"))
}

const internalErrorMessage = "internal server error"

// mapError resolves the envelope for err. Unknown errors never expose their
// text to the client.
func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	var insufficient *usecase.InsufficientPointsError
	switch {
	case errors.As(err, &insufficient):
		return mappedError{
			HTTPStatus: http.StatusPaymentRequired,
			Reason:     "insufficientPoints",
			Status:     "FAILED_PRECONDITION",
			Message:    err.Error(),
			Metadata: map[string]any{
				"required":  insufficient.Required,
				"available": insufficient.Available,
			},
		}
	case errors.Is(err, usecase.ErrInsufficientPoints):
		return mappedError{
			HTTPStatus: http.StatusPaymentRequired,
			Reason:     "insufficientPoints",
			Status:     "FAILED_PRECONDITION",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{
			HTTPStatus: http.StatusBadRequest,
			Reason:     "invalidInput",
			Status:     "INVALID_ARGUMENT",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{
			HTTPStatus: http.StatusNotFound,
			Reason:     "notFound",
			Status:     "NOT_FOUND",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrConcurrencyConflict):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "concurrencyConflict",
			Status:     "ABORTED",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{
			HTTPStatus: http.StatusUnauthorized,
			Reason:     "unauthorized",
			Status:     "UNAUTHENTICATED",
			Message:    err.Error(),
		}
	case errors.Is(err, errRateLimited):
		return mappedError{
			HTTPStatus: http.StatusTooManyRequests,
			Reason:     "rateLimitExceeded",
			Status:     "RESOURCE_EXHAUSTED",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{
			HTTPStatus: http.StatusServiceUnavailable,
			Reason:     "dependencyUnavailable",
			Status:     "UNAVAILABLE",
			Message:    err.Error(),
		}
	default:
		return mappedError{
			HTTPStatus: http.StatusInternalServerError,
			Reason:     "internalError",
			Status:     "INTERNAL",
			Message:    internalErrorMessage,
		}
	}
}
