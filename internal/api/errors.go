package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tarunjit45/ExamGenius/internal/ai"
	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
	"github.com/Tarunjit45/ExamGenius/internal/quest"
	"github.com/Tarunjit45/ExamGenius/internal/studyai"
)

// Error codes
const (
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeBadRequest     = "BAD_REQUEST"
	CodeValidation     = "VALIDATION_ERROR"
	CodeUnsupported    = "UNSUPPORTED_DOCUMENT"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeBusy           = "BUSY"
	CodeStale          = "STALE"
	CodeBudgetExceeded = "BUDGET_EXCEEDED"
	CodeAIFailed       = "AI_FAILED"
	CodeInternal       = "INTERNAL_ERROR"
)

// AppError is an error with the HTTP status and code it is reported with.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func badRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

var aiFailureMessages = map[string]string{
	studyai.OpExtractTopics:  "Could not read the syllabus. Please try again or upload a clearer file.",
	studyai.OpSynthesizePlan: "Could not create a study plan. Please try again.",
	studyai.OpGenerateAid:    "Could not generate this study aid. Please try again.",
	studyai.OpGenerateQuiz:   "Could not generate a quiz. Please try again.",
}

// toAppError maps domain errors to responses. AI failures are checked first:
// a quiz the model got wrong is a *GatewayError wrapping a validation error,
// and it is reported as an upstream failure rather than a bad request.
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var gwErr *studyai.GatewayError
	if errors.As(err, &gwErr) {
		switch {
		case errors.Is(err, ai.ErrBudgetExceeded):
			return &AppError{Code: CodeBudgetExceeded, Message: "AI usage limit reached. Please try again later.", Status: http.StatusTooManyRequests, Err: err}
		case errors.Is(err, studyai.ErrUnsupportedDocument):
			return &AppError{Code: CodeUnsupported, Message: "Upload an image, a PDF or a text file.", Status: http.StatusUnsupportedMediaType, Err: err}
		case errors.Is(err, studyai.ErrEmptyDocument), errors.Is(err, studyai.ErrNoTopicsFound):
			return &AppError{Code: CodeValidation, Message: "No topics could be found in this syllabus.", Status: http.StatusUnprocessableEntity, Err: err}
		}
		msg, ok := aiFailureMessages[gwErr.Op]
		if !ok {
			msg = "The AI service failed. Please try again."
		}
		return &AppError{Code: CodeAIFailed, Message: msg, Status: http.StatusBadGateway, Err: err}
	}

	var malformed *plan.MalformedPlanError
	if errors.As(err, &malformed) {
		return &AppError{Code: CodeAIFailed, Message: aiFailureMessages[studyai.OpSynthesizePlan], Status: http.StatusBadGateway, Err: err}
	}

	var ve *plan.ValidationError
	if errors.As(err, &ve) {
		return &AppError{Code: CodeValidation, Message: ve.Error(), Status: http.StatusBadRequest, Err: err}
	}
	var gve *gamification.ValidationError
	if errors.As(err, &gve) {
		return &AppError{Code: CodeValidation, Message: gve.Error(), Status: http.StatusBadRequest, Err: err}
	}

	switch {
	case errors.Is(err, quest.ErrNotSignedIn):
		return &AppError{Code: CodeUnauthorized, Message: "sign in first", Status: http.StatusUnauthorized, Err: err}
	case errors.Is(err, quest.ErrMissionNotFound), errors.Is(err, quest.ErrSyllabusNotFound):
		return &AppError{Code: CodeNotFound, Message: err.Error(), Status: http.StatusNotFound, Err: err}
	case errors.Is(err, quest.ErrNoTopics), errors.Is(err, quest.ErrNoPlan), errors.Is(err, quest.ErrQuizNotLoaded):
		return &AppError{Code: CodeConflict, Message: err.Error(), Status: http.StatusConflict, Err: err}
	case errors.Is(err, quest.ErrBusy):
		return &AppError{Code: CodeBusy, Message: err.Error(), Status: http.StatusConflict, Err: err}
	case errors.Is(err, quest.ErrStale):
		return &AppError{Code: CodeStale, Message: err.Error(), Status: http.StatusConflict, Err: err}
	}

	return &AppError{Code: CodeInternal, Message: "internal server error", Status: http.StatusInternalServerError, Err: err}
}

// writeError logs err and writes it as {"error": {"code", "message"}}.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)

	attrs := []any{"method", r.Method, "path", r.URL.Path, "code", appErr.Code, "error", err}
	switch {
	case appErr.Status >= 500:
		slog.Error("request failed", attrs...)
	case appErr.Status == http.StatusUnauthorized:
		slog.Debug("request rejected", attrs...)
	default:
		slog.Warn("request rejected", attrs...)
	}

	writeJSON(w, appErr.Status, map[string]any{
		"error": map[string]string{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
