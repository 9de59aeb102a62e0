package autofix

import (
	"testing"

	"github.com/rakunlabs/n8n-mcp/internal/catalog"
	"github.com/rakunlabs/n8n-mcp/internal/model"
)

func findingsWorkflow() *model.Workflow {
	return &model.Workflow{
		Name: "wf",
		Nodes: []model.Node{
			{ID: "1", Name: "Webhook", Type: "webhook", Parameters: map[string]any{}},
			{ID: "2", Name: "HTTP", Type: "httpRequest", Parameters: map[string]any{
				"url": "{{ $json.url }}",
			}},
		},
		Connections: model.Connections{},
	}
}

func TestWebhookMissingPathProducesHighConfidenceFix(t *testing.T) {
	wf := findingsWorkflow()
	res := Run(wf, nil, nil, DefaultOptions())

	var found *Fix
	for i := range res.Fixes {
		if res.Fixes[i].Type == FixWebhookMissingPath {
			found = &res.Fixes[i]
		}
	}
	if found == nil {
		t.Fatal("expected a webhook-missing-path fix")
	}
	if found.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %v, want high", found.Confidence)
	}
	if found.Operation.Kind != model.OpUpdateNode || found.Operation.NodeName != "Webhook" {
		t.Errorf("unexpected operation: %+v", found.Operation)
	}
	patch := found.Operation.Patch["parameters"].(map[string]any)
	if patch["path"] == "" {
		t.Error("expected a generated path value")
	}
}

func TestExpressionFixMissingEqualsPrefix(t *testing.T) {
	wf := findingsWorkflow()
	res := Run(wf, nil, nil, DefaultOptions())

	var found *Fix
	for i := range res.Fixes {
		if res.Fixes[i].Type == FixExpressionFormat && res.Fixes[i].NodeName == "HTTP" {
			found = &res.Fixes[i]
		}
	}
	if found == nil {
		t.Fatal("expected an expression-format fix for HTTP node")
	}
	if found.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %v, want high", found.Confidence)
	}
	params := found.Operation.Patch["parameters"].(map[string]any)
	if params["url"] != "={{ $json.url }}" {
		t.Errorf("url patch = %v, want ={{ $json.url }}", params["url"])
	}
}

func TestConfidenceThresholdFiltersLowConfidenceFixes(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Nodes: []model.Node{
			{ID: "1", Name: "Risky", Type: "httpRequest", OnError: "continueErrorOutput", Parameters: map[string]any{}},
		},
		Connections: model.Connections{},
	}
	opts := DefaultOptions()
	opts.ConfidenceThreshold = ConfidenceHigh
	res := Run(wf, nil, nil, opts)

	for _, f := range res.Fixes {
		if f.Type == FixErrorOutputConfig {
			t.Fatal("low confidence error-output-config fix should be filtered at high threshold")
		}
	}
	if res.Skipped == 0 {
		t.Error("expected at least one skipped fix below threshold")
	}
}

func TestFixTypesAllowlistRestrictsOutput(t *testing.T) {
	wf := findingsWorkflow()
	opts := DefaultOptions()
	opts.FixTypes = []FixType{FixWebhookMissingPath}
	res := Run(wf, nil, nil, opts)

	for _, f := range res.Fixes {
		if f.Type != FixWebhookMissingPath {
			t.Errorf("unexpected fix type %v with allowlist restricting to webhook-missing-path", f.Type)
		}
	}
}

func TestCommitModeAppliesViaDiffEngine(t *testing.T) {
	wf := findingsWorkflow()
	opts := DefaultOptions()
	opts.ApplyFixes = true
	res := Run(wf, nil, nil, opts)

	if !res.Applied {
		t.Fatalf("expected commit mode to apply cleanly, got ApplyInfo=%+v", res.ApplyInfo)
	}
	webhook := res.Workflow.NodeByName("Webhook")
	if webhook == nil || webhook.Parameters["path"] == "" {
		t.Error("expected committed workflow to carry the generated webhook path")
	}
}

func TestTypeVersionCorrectionRaisesBelowMinimum(t *testing.T) {
	cat := catalog.NewStatic([]catalog.NodeDefinition{
		{Type: "httpRequest", MinTypeVersion: 4},
	})
	wf := &model.Workflow{
		Name: "wf",
		Nodes: []model.Node{
			{ID: "1", Name: "HTTP", Type: "httpRequest", TypeVersion: 2, Parameters: map[string]any{}},
		},
		Connections: model.Connections{},
	}
	res := Run(wf, nil, cat, DefaultOptions())

	var found *Fix
	for i := range res.Fixes {
		if res.Fixes[i].Type == FixTypeVersionCorrection {
			found = &res.Fixes[i]
		}
	}
	if found == nil {
		t.Fatal("expected a typeversion-correction fix")
	}
	if found.Operation.Patch["typeVersion"] != float64(4) {
		t.Errorf("patched typeVersion = %v, want 4", found.Operation.Patch["typeVersion"])
	}
}

func TestMaxFixesCapsOutput(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Nodes: []model.Node{
			{ID: "1", Name: "W1", Type: "webhook", Parameters: map[string]any{}},
			{ID: "2", Name: "W2", Type: "webhook", Parameters: map[string]any{}},
		},
		Connections: model.Connections{},
	}
	opts := DefaultOptions()
	opts.MaxFixes = 1
	res := Run(wf, nil, nil, opts)

	if len(res.Fixes) != 1 {
		t.Fatalf("len(Fixes) = %d, want 1", len(res.Fixes))
	}
	if res.Skipped == 0 {
		t.Error("expected the second fix to be recorded as skipped")
	}
}
