package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func openaiReply(content, model string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		"model":   model,
		"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
	})
	return string(body)
}

// captureServer records the decoded request body and answers with content.
func captureServer(t *testing.T, content string, got *map[string]any, headers *http.Header) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" && r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got != nil {
			json.NewDecoder(r.Body).Decode(got)
		}
		if headers != nil {
			*headers = r.Header.Clone()
		}
		io.WriteString(w, openaiReply(content, "served-model"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var headers http.Header
	server := captureServer(t, "Hi there!", nil, &headers)

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Hi there!" {
		t.Errorf("content = %q, want %q", resp.Content, "Hi there!")
	}
	if resp.InputTokens != 10 || resp.OutputTokens != 5 {
		t.Errorf("tokens = %d/%d, want 10/5", resp.InputTokens, resp.OutputTokens)
	}
	if headers.Get("Authorization") != "Bearer test-key" {
		t.Errorf("Authorization = %q", headers.Get("Authorization"))
	}
}

func TestOpenAIProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("Complete() should return error on API error")
	}
	if !strings.HasPrefix(err.Error(), "openai api error") {
		t.Errorf("error = %v, want provider name prefix", err)
	}
}

func TestOpenAIProvider_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices": []}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("Complete() should return error when no choices")
	}
}

func TestOpenAIProvider_ImageAttachment(t *testing.T) {
	var got map[string]any
	server := captureServer(t, "ok", &got, nil)

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{
			Role:        "user",
			Content:     "extract topics",
			Attachments: []Attachment{{MIMEType: "image/jpeg", Data: []byte("jpg")}},
		}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	parts := got["messages"].([]any)[0].(map[string]any)["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("content parts = %d, want 2", len(parts))
	}
	url := parts[0].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if url != "data:image/jpeg;base64,anBn" {
		t.Errorf("image url = %q", url)
	}
	if parts[1].(map[string]any)["text"] != "extract topics" {
		t.Errorf("text part = %v", parts[1])
	}
}

func TestOpenAIProvider_ResponseFormat(t *testing.T) {
	schema := json.RawMessage(`{"type":"object"}`)
	tests := []struct {
		name     string
		provider func(url string) *OpenAIProvider
		wantType string
	}{
		{"openai uses json_schema", func(url string) *OpenAIProvider {
			return NewOpenAIProvider("k", WithBaseURL(url))
		}, "json_schema"},
		{"deepseek falls back to json_object", func(url string) *OpenAIProvider {
			return NewDeepSeekProvider("k", WithBaseURL(url))
		}, "json_object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			server := captureServer(t, "{}", &got, nil)

			_, err := tt.provider(server.URL).Complete(context.Background(), CompletionRequest{
				Messages: []Message{{Role: "user", Content: "plan"}},
				Task:     TaskPlanning,
				Format:   FormatJSON,
				Schema:   schema,
			})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			rf, ok := got["response_format"].(map[string]any)
			if !ok {
				t.Fatalf("response_format missing: %v", got)
			}
			if rf["type"] != tt.wantType {
				t.Errorf("response_format.type = %v, want %s", rf["type"], tt.wantType)
			}
			if tt.wantType == "json_schema" {
				js := rf["json_schema"].(map[string]any)
				if js["name"] != "planning" {
					t.Errorf("json_schema.name = %v", js["name"])
				}
			}
		})
	}
}

func TestDeepSeekProvider_Defaults(t *testing.T) {
	var got map[string]any
	server := captureServer(t, "deepseek response", &got, nil)

	provider := NewDeepSeekProvider("ds-key", WithBaseURL(server.URL))
	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "deepseek response" {
		t.Errorf("content = %q", resp.Content)
	}
	if got["model"] != "deepseek-chat" {
		t.Errorf("model = %v, want deepseek-chat", got["model"])
	}
	if provider.Name() != "deepseek" {
		t.Errorf("Name() = %q", provider.Name())
	}
}

func TestOpenRouterProvider_Headers(t *testing.T) {
	var headers http.Header
	server := captureServer(t, "ok", nil, &headers)

	provider := NewOpenRouterProvider("or-key", WithBaseURL(server.URL))
	if _, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if headers.Get("Authorization") != "Bearer or-key" {
		t.Errorf("Authorization = %q", headers.Get("Authorization"))
	}
	if headers.Get("X-Title") != "ExamGenius" {
		t.Errorf("X-Title = %q", headers.Get("X-Title"))
	}
	if headers.Get("HTTP-Referer") == "" {
		t.Error("HTTP-Referer missing")
	}
}

func TestOpenAIProvider_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusUnauthorized, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/models" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
			err := provider.HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenAIProvider_CustomModels(t *testing.T) {
	custom := []ModelInfo{{ID: "custom-model", Name: "Custom"}}
	provider := NewOpenAIProvider("test-key", WithModels(custom))
	models := provider.Models()

	if len(models) != 1 || models[0].ID != "custom-model" {
		t.Errorf("Models() = %+v, want custom models", models)
	}
}

func TestOpenAIProvider_DefaultModel(t *testing.T) {
	for _, tc := range []struct {
		opts []OpenAIOption
		want string
	}{
		{nil, "gpt-4o-mini"},
		{[]OpenAIOption{WithDefaultModel("gpt-4o")}, "gpt-4o"},
	} {
		t.Run(tc.want, func(t *testing.T) {
			var got map[string]any
			server := captureServer(t, "ok", &got, nil)

			provider := NewOpenAIProvider("test-key", append(tc.opts, WithBaseURL(server.URL))...)
			if _, err := provider.Complete(context.Background(), CompletionRequest{
				Messages: []Message{{Role: "user", Content: "hi"}},
			}); err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if got["model"] != tc.want {
				t.Errorf("model = %v, want %s", got["model"], tc.want)
			}
		})
	}
}

func TestBuildOpenAIRequest_PlainText(t *testing.T) {
	req := buildOpenAIRequest(CompletionRequest{
		Messages:    []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "u"}},
		MaxTokens:   100,
		Temperature: 0.2,
	}, "m", true)

	if req.ResponseFormat != nil {
		t.Error("text requests must not set response_format")
	}
	if s, ok := req.Messages[0].Content.(string); !ok || s != "sys" {
		t.Errorf("content = %#v, want plain string", req.Messages[0].Content)
	}
	if req.Temperature == nil || *req.Temperature != 0.2 {
		t.Errorf("temperature = %v", req.Temperature)
	}
	if req.MaxTokens != 100 {
		t.Errorf("max_tokens = %d", req.MaxTokens)
	}
}
