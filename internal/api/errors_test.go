package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tarunjit45/ExamGenius/internal/ai"
	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
	"github.com/Tarunjit45/ExamGenius/internal/quest"
	"github.com/Tarunjit45/ExamGenius/internal/studyai"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "app error passes through",
			err:        fmt.Errorf("wrapped: %w", badRequest("nope")),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeBadRequest,
		},
		{
			name:       "budget exceeded",
			err:        &studyai.GatewayError{Op: studyai.OpGenerateAid, Err: ai.ErrBudgetExceeded},
			wantStatus: http.StatusTooManyRequests,
			wantCode:   CodeBudgetExceeded,
		},
		{
			name:       "unsupported document",
			err:        &studyai.GatewayError{Op: studyai.OpExtractTopics, Err: fmt.Errorf("%w: application/zip", studyai.ErrUnsupportedDocument)},
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   CodeUnsupported,
		},
		{
			name:       "empty document",
			err:        &studyai.GatewayError{Op: studyai.OpExtractTopics, Err: studyai.ErrEmptyDocument},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   CodeValidation,
		},
		{
			name:       "no topics found",
			err:        &studyai.GatewayError{Op: studyai.OpExtractTopics, Err: studyai.ErrNoTopicsFound},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   CodeValidation,
		},
		{
			name:       "invalid quiz from the model",
			err:        &studyai.GatewayError{Op: studyai.OpGenerateQuiz, Err: &plan.ValidationError{Field: "quiz", Reason: "3 questions"}},
			wantStatus: http.StatusBadGateway,
			wantCode:   CodeAIFailed,
		},
		{
			name:       "timeout",
			err:        &studyai.GatewayError{Op: studyai.OpSynthesizePlan, Err: context.DeadlineExceeded},
			wantStatus: http.StatusBadGateway,
			wantCode:   CodeAIFailed,
		},
		{
			name:       "malformed plan",
			err:        &plan.MalformedPlanError{Reason: "topic missing"},
			wantStatus: http.StatusBadGateway,
			wantCode:   CodeAIFailed,
		},
		{
			name:       "request validation",
			err:        &plan.ValidationError{Field: "days", Reason: "must be between 1 and 365, got 0"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
		},
		{
			name:       "gamification validation",
			err:        &gamification.ValidationError{Field: "quiz_score", Reason: "must be between 0 and 4, got 5"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
		},
		{"not signed in", quest.ErrNotSignedIn, http.StatusUnauthorized, CodeUnauthorized},
		{"mission not found", quest.ErrMissionNotFound, http.StatusNotFound, CodeNotFound},
		{"syllabus not found", quest.ErrSyllabusNotFound, http.StatusNotFound, CodeNotFound},
		{"no topics", quest.ErrNoTopics, http.StatusConflict, CodeConflict},
		{"no plan", quest.ErrNoPlan, http.StatusConflict, CodeConflict},
		{"quiz not loaded", quest.ErrQuizNotLoaded, http.StatusConflict, CodeConflict},
		{"busy", quest.ErrBusy, http.StatusConflict, CodeBusy},
		{"stale", quest.ErrStale, http.StatusConflict, CodeStale},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAppError(tt.err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestToAppError_HidesInternalDetail(t *testing.T) {
	got := toAppError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", got.Message)
}
