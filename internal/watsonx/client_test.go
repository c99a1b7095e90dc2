package watsonx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/tools"
	"go.uber.org/zap"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(ctx context.Context) (string, error) { return s.token, nil }

func TestGetTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wx/v1-beta/utility_agent_tools/GoogleSearch" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Fatalf("missing bearer token")
		}
		_, _ = w.Write([]byte(`{"name": "GoogleSearch", "description": "Search the web", "agent_description": "Search for recent results"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok-1"}, tools.Workspace{}, zap.NewNop())
	descriptor, err := client.GetTool(context.Background(), "GoogleSearch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if descriptor.AgentDescription != "Search for recent results" {
		t.Fatalf("unexpected descriptor: %+v", descriptor)
	}
	if descriptor.InputSchema != nil {
		t.Fatalf("expected schemaless descriptor")
	}
}

func TestRunTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wx/v1-beta/utility_agent_tools/run/RAGQuery" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body["input"] != "policy question" {
			t.Fatalf("unexpected input: %v", body["input"])
		}
		config, _ := body["config"].(map[string]any)
		if config["vectorIndexId"] != "vi-1" {
			t.Fatalf("unexpected config: %v", config)
		}
		_, _ = w.Write([]byte(`{"output": "grounded answer"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok-1"}, tools.Workspace{}, zap.NewNop())
	result, err := client.RunTool(context.Background(), "RAGQuery", "policy question", map[string]any{"vectorIndexId": "vi-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["output"] != "grounded answer" {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestUploadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wx/v1-beta/utility_agent_tools/resources" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("project_id") != "p-1" {
			t.Fatalf("expected project scoping, got %q", r.URL.RawQuery)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body["name"] != "plt-1.png" || body["blob"] == "" {
			t.Fatalf("unexpected body: %v", body)
		}
		_, _ = w.Write([]byte(`{"uri": "https://example.com/resources/plt-1.png"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok-1"}, tools.Workspace{ProjectID: "p-1"}, zap.NewNop())
	uri, err := client.UploadImage(context.Background(), "plt-1.png", "aGVsbG8=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uri != "https://example.com/resources/plt-1.png" {
		t.Fatalf("unexpected uri %q", uri)
	}
}

func TestRunToolFailureSurfacesImmediately(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok-1"}, tools.Workspace{}, zap.NewNop())
	if _, err := client.RunTool(context.Background(), "GoogleSearch", "q", nil); err == nil {
		t.Fatalf("expected failure")
	}
	if calls != 1 {
		t.Fatalf("expected no retries, got %d calls", calls)
	}
}
