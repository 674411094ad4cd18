package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Tarunjit45/ExamGenius/internal/ai"
)

func TestMockProvider_Complete(t *testing.T) {
	mock := ai.NewMockProvider("test response")

	resp, err := mock.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "user", Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "test response" {
		t.Errorf("Content = %q, want %q", resp.Content, "test response")
	}
	if resp.Model != "mock" {
		t.Errorf("Model = %q, want %q", resp.Model, "mock")
	}
	if got := mock.LastRequest(); got == nil || got.Messages[0].Content != "Hello" {
		t.Errorf("LastRequest() = %+v, want the request just sent", got)
	}
}

func TestMockProvider_Queue(t *testing.T) {
	mock := ai.NewMockProvider("default")
	mock.Enqueue("first").EnqueueError(errors.New("boom"))

	ctx := context.Background()
	req := ai.CompletionRequest{Messages: []ai.Message{{Role: "user", Content: "x"}}}

	if resp, _ := mock.Complete(ctx, req); resp.Content != "first" {
		t.Errorf("1st Content = %q, want first", resp.Content)
	}
	if _, err := mock.Complete(ctx, req); err == nil {
		t.Error("2nd Complete() should fail")
	}
	if resp, _ := mock.Complete(ctx, req); resp.Content != "default" {
		t.Errorf("3rd Content = %q, want default", resp.Content)
	}
	if n := len(mock.Requests()); n != 3 {
		t.Errorf("Requests() = %d, want 3", n)
	}
}

func TestMockProvider_CancelledContext(t *testing.T) {
	mock := ai.NewMockProvider("late")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Complete(ctx, ai.CompletionRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestMockProvider_HealthCheck(t *testing.T) {
	mock := ai.NewMockProvider("response")
	if err := mock.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestTaskType_String(t *testing.T) {
	tests := []struct {
		task     ai.TaskType
		expected string
	}{
		{ai.TaskExtraction, "extraction"},
		{ai.TaskPlanning, "planning"},
		{ai.TaskNotes, "notes"},
		{ai.TaskSummary, "summary"},
		{ai.TaskMnemonics, "mnemonics"},
		{ai.TaskStory, "story"},
		{ai.TaskQuiz, "quiz"},
		{ai.TaskType(99), "unknown"},
	}
	for _, tt := range tests {
		if tt.task.String() != tt.expected {
			t.Errorf("TaskType.String() = %q, want %q", tt.task.String(), tt.expected)
		}
		if tt.expected == "unknown" {
			continue
		}
		if got, ok := ai.ParseTaskType(tt.expected); !ok || got != tt.task {
			t.Errorf("ParseTaskType(%q) = %v, %v", tt.expected, got, ok)
		}
	}
}

func TestCompletionResponse_TotalTokens(t *testing.T) {
	resp := ai.CompletionResponse{InputTokens: 100, OutputTokens: 50}
	if got := resp.TotalTokens(); got != 150 {
		t.Errorf("TotalTokens() = %d, want 150", got)
	}
}
