package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eventdesk/eventdesk-api/internal/domain/evaluation"
	apperrors "github.com/eventdesk/eventdesk-api/internal/errors"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, ErrorParams{Code: http.StatusRequestEntityTooLarge, ErrCode: "body_too_large", Err: err})
			return false
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError to adhere to the ≤3 params guideline.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

type fieldErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteServiceError maps a service error to its HTTP status. Internal errors
// are logged and never echoed to the caller.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := apperrors.GetCode(err), statusForError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		WriteJSON(w, status, fieldErrorBody{Error: string(apperrors.ErrCodeInternal), Message: "internal server error"})
		return
	}

	var appErr *apperrors.AppError
	msg := err.Error()
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	WriteJSON(w, status, fieldErrorBody{Error: string(code), Message: msg, Field: apperrors.GetField(err)})
}

// statusForError maps AppError codes to HTTP statuses.
func statusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey:
		return http.StatusConflict
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}

type rejectionBody struct {
	Error   string            `json:"error"`
	Stage   evaluation.Stage  `json:"stage"`
	Reason  evaluation.Reason `json:"reason"`
	Message string            `json:"message"`
}

// WriteRejection reports an access validator rejection.
func WriteRejection(w http.ResponseWriter, rej *evaluation.Rejection) {
	WriteJSON(w, http.StatusForbidden, rejectionBody{
		Error:   "evaluation_unavailable",
		Stage:   rej.Stage,
		Reason:  rej.Reason,
		Message: rej.Message,
	})
}
