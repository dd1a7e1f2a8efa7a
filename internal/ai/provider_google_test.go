package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiOKResponse(text string) geminiResponse {
	var resp geminiResponse
	resp.Candidates = make([]struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	}, 1)
	resp.Candidates[0].Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}
	resp.UsageMetadata.PromptTokenCount = 8
	resp.UsageMetadata.CandidatesTokenCount = 12
	return resp
}

func TestGoogleProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/models/gemini-2.5-flash-lite:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing or wrong API key in query")
		}

		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) == 0 {
			t.Error("no contents in request")
		}

		json.NewEncoder(w).Encode(geminiOKResponse("Gemini response"))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Gemini response" {
		t.Errorf("content = %q, want %q", resp.Content, "Gemini response")
	}
	if resp.InputTokens != 8 {
		t.Errorf("input_tokens = %d, want 8", resp.InputTokens)
	}
}

func TestGoogleProvider_Complete_JSONOnly(t *testing.T) {
	var received geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(geminiOKResponse(`[]`))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "grade"}},
		JSONOnly: true,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if received.GenerationConfig == nil {
		t.Fatal("generationConfig not sent")
	}
	if received.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Errorf("responseMimeType = %q, want application/json", received.GenerationConfig.ResponseMIMEType)
	}
}

func TestGoogleProvider_Complete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "quota exceeded"}`))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("Complete() should fail on 429")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.Kind != KindRateLimited {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindRateLimited)
	}
}

func TestGoogleProvider_Complete_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("Complete() should fail with no candidates")
	}
}

func TestGoogleProvider_RoleMapping(t *testing.T) {
	var received geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(geminiOKResponse("ok"))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "rules"},
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(received.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(received.Contents))
	}
	if received.Contents[0].Role != "user" {
		t.Errorf("system role mapped to %q, want user", received.Contents[0].Role)
	}
	if received.Contents[2].Role != "model" {
		t.Errorf("assistant role mapped to %q, want model", received.Contents[2].Role)
	}
}
