// Package ai provides a provider-agnostic LLM gateway with task-based routing.
package ai

import (
	"context"
	"encoding/json"
)

// TaskType names the kind of generation so the router can pick a model.
type TaskType int

const (
	TaskExtraction TaskType = iota
	TaskPlanning
	TaskNotes
	TaskSummary
	TaskMnemonics
	TaskStory
	TaskQuiz
)

var taskNames = map[TaskType]string{
	TaskExtraction: "extraction",
	TaskPlanning:   "planning",
	TaskNotes:      "notes",
	TaskSummary:    "summary",
	TaskMnemonics:  "mnemonics",
	TaskStory:      "story",
	TaskQuiz:       "quiz",
}

func (t TaskType) String() string {
	if name, ok := taskNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTaskType is the inverse of TaskType.String.
func ParseTaskType(s string) (TaskType, bool) {
	for t, name := range taskNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// ResponseFormat asks the provider for a particular output shape.
type ResponseFormat int

const (
	FormatText ResponseFormat = iota
	FormatJSON
)

// Attachment is inline binary content sent with a message, e.g. a syllabus photo.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Message represents a chat message.
type Message struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"-"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`

	// Format and Schema request structured output. Providers that cannot
	// enforce a schema still receive the JSON instruction.
	Format ResponseFormat  `json:"-"`
	Schema json.RawMessage `json:"-"`

	// Grounded enables web search grounding where the provider supports it.
	Grounded bool `json:"-"`
	// ThinkingBudget caps reasoning tokens; 0 leaves the provider default.
	ThinkingBudget int `json:"-"`

	// UserID attributes token usage to a learner for budgeting.
	UserID string `json:"-"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	Provider     string `json:"provider,omitempty"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// Completer is what callers of the gateway depend on. *Router implements it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
