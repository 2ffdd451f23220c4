package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestReplySendsSystemAndUserMessages(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Namaste!"}}]}`))
	}))
	defer server.Close()

	svc := NewHFChatService(server.URL+"/v1/", "hf-token", "Qwen/Qwen2.5-72B-Instruct", "be helpful", 800)
	reply, err := svc.Reply(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "Namaste!" {
		t.Errorf("reply = %q", reply)
	}
	if auth != "Bearer hf-token" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != "Qwen/Qwen2.5-72B-Instruct" || got.MaxTokens != 800 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "be helpful" ||
		got.Messages[1].Role != "user" || got.Messages[1].Content != "hello" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestReplyErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusServiceUnavailable, `{"error":{"message":"busy"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewHFChatService(server.URL, "t", "m", "s", 10)
			if _, err := svc.Reply(context.Background(), "hi"); err == nil {
				t.Error("Reply returned nil error")
			}
		})
	}
}
