package toolserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rakunlabs/n8n-mcp/internal/cache"
	"github.com/rakunlabs/n8n-mcp/internal/catalog"
	"github.com/rakunlabs/n8n-mcp/internal/hostclient"
	"github.com/rakunlabs/n8n-mcp/internal/security"
)

func hostConfig(url string) hostclient.Config {
	return hostclient.Config{APIURL: url, APIKey: "test-key"}
}

func asEnvelope(t *testing.T, v any) envelope {
	t.Helper()
	e, ok := v.(envelope)
	if !ok {
		t.Fatalf("handler did not return an envelope, got %T", v)
	}
	return e
}

func TestHealthCheckReportsUnreachableHostAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := buildTestServer(t, srv.URL)
	result, err := s.handleHealthCheck(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	env := asEnvelope(t, result)
	if env.Success {
		t.Error("expected health check against a 503 host to fail")
	}
}

func TestHealthCheckFallsBackToWorkflowsList(t *testing.T) {
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	s := buildTestServer(t, srv.URL)
	result, err := s.handleHealthCheck(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	env := asEnvelope(t, result)
	if !env.Success {
		t.Errorf("expected fallback health check to succeed, got %+v", env)
	}
	if len(hits) != 2 || hits[0] != "/health" || hits[1] != "/api/v1/workflows" {
		t.Errorf("unexpected request sequence: %v", hits)
	}
}

func TestCreateWorkflowRequiresNameAndNodes(t *testing.T) {
	s := buildTestServer(t, "http://unused.invalid")
	result, err := s.handleCreateWorkflow(context.Background(), map[string]any{"nodes": []any{}, "connections": map[string]any{}})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	env := asEnvelope(t, result)
	if env.Success || env.Code != "InputInvalid" {
		t.Errorf("expected InputInvalid envelope for missing name, got %+v", env)
	}
}

func TestCreateWorkflowSendsCleanedPayload(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"new-1","name":"hello"}`))
	}))
	defer srv.Close()

	s := buildTestServer(t, srv.URL)
	result, err := s.handleCreateWorkflow(context.Background(), map[string]any{
		"name":        "hello",
		"nodes":       []any{},
		"connections": map[string]any{},
	})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	env := asEnvelope(t, result)
	if !env.Success {
		t.Fatalf("expected success, got %+v", env)
	}
	if body["name"] != "hello" {
		t.Errorf("host did not receive the workflow name: %+v", body)
	}
}

func TestDiagnosticReportsCatalogAndCacheStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := buildTestServer(t, srv.URL)
	result, err := s.handleDiagnostic(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	env := asEnvelope(t, result)
	if !env.Success {
		t.Fatalf("diagnostic should always succeed, got %+v", env)
	}
	data := env.Data.(map[string]any)
	if data["catalogSize"].(int) != 1 {
		t.Errorf("catalogSize = %v, want 1", data["catalogSize"])
	}
}

func TestTriggerWebhookRejectsPrivateAddressInStrictMode(t *testing.T) {
	s := buildTestServer(t, "http://unused.invalid")
	s.cfg.WebhookMode = security.ModeStrict

	result, err := s.handleTriggerWebhook(context.Background(), map[string]any{
		"webhookUrl": "http://127.0.0.1:9999/hook",
	})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	env := asEnvelope(t, result)
	if env.Success {
		t.Error("expected a loopback webhook url to be rejected in strict mode")
	}
}

func buildTestServer(t *testing.T, hostURL string) *Server {
	t.Helper()
	cat := catalog.NewStatic([]catalog.NodeDefinition{{Type: "httpRequest"}})
	c := cache.New(10, 0)
	return New(Config{
		Default:     hostConfig(hostURL),
		WebhookMode: security.ModeStrict,
	}, cat, c)
}
