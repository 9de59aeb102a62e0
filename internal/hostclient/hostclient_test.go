package hostclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rakunlabs/n8n-mcp/internal/errs"
)

func TestCleanForCreateStripsServerManagedFields(t *testing.T) {
	wf := map[string]any{
		"id": "1", "createdAt": "t", "updatedAt": "t", "versionId": "v",
		"meta": map[string]any{}, "active": true, "tags": []string{"a"},
		"name": "My Workflow", "nodes": []any{},
	}
	out := CleanForCreate(wf)
	for _, k := range []string{"id", "createdAt", "updatedAt", "versionId", "meta", "active", "tags"} {
		if _, ok := out[k]; ok {
			t.Errorf("CleanForCreate should strip %q", k)
		}
	}
	if out["name"] != "My Workflow" {
		t.Error("CleanForCreate should preserve name")
	}
}

func TestCleanForUpdateFiltersSettingsToWhitelist(t *testing.T) {
	wf := map[string]any{
		"name": "wf",
		"settings": map[string]any{
			"timezone":              "UTC",
			"timeSavedPerExecution": 42,
		},
		"staticData":      map[string]any{},
		"triggerCount":    3,
		"usedCredentials": []any{},
	}
	out := CleanForUpdate(wf)
	settings := out["settings"].(map[string]any)
	if _, ok := settings["timeSavedPerExecution"]; ok {
		t.Error("CleanForUpdate must strip non-whitelisted settings keys")
	}
	if settings["timezone"] != "UTC" {
		t.Error("CleanForUpdate must keep whitelisted settings keys")
	}
	for _, k := range []string{"staticData", "triggerCount", "usedCredentials"} {
		if _, ok := out[k]; ok {
			t.Errorf("CleanForUpdate should strip %q", k)
		}
	}
}

func TestUpdateWorkflowFallsBackToPatchOn405(t *testing.T) {
	var methodsSeen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methodsSeen = append(methodsSeen, r.Method)
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"1","name":"updated"}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.UpdateWorkflow(t.Context(), "1", map[string]any{"name": "updated"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["name"] != "updated" {
		t.Errorf("out = %+v, want name=updated", out)
	}
	if len(methodsSeen) != 2 || methodsSeen[0] != http.MethodPut || methodsSeen[1] != http.MethodPatch {
		t.Errorf("methods seen = %v, want [PUT PATCH]", methodsSeen)
	}
}

func TestGetWorkflowNotFoundMapsToNotFoundKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(Config{APIURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.GetWorkflow(t.Context(), "missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("KindOf(err) = %v, want NotFound", errs.KindOf(err))
	}
}

func TestNewRequiresAPIURL(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Fatal("expected an error when APIURL is empty")
	}
	if errs.KindOf(err) != errs.KindNotConfigured {
		t.Errorf("KindOf(err) = %v, want NotConfigured", errs.KindOf(err))
	}
}
