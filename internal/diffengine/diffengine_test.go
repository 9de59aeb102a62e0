package diffengine

import (
	"testing"

	"github.com/rakunlabs/n8n-mcp/internal/model"
)

func intPtr(i int) *int { return &i }

func switchWorkflow() *model.Workflow {
	return &model.Workflow{
		Name: "wf",
		Nodes: []model.Node{
			{ID: "1", Name: "S", Type: "switch"},
			{ID: "2", Name: "h0", Type: "set"},
			{ID: "3", Name: "h1", Type: "set"},
			{ID: "4", Name: "h2", Type: "set"},
			{ID: "5", Name: "h3", Type: "set"},
		},
		Connections: model.Connections{
			"S": {
				model.KindMain: []model.OutputSlot{
					{{TargetName: "h0", Kind: model.KindMain}},
					{{TargetName: "h1", Kind: model.KindMain}},
					{{TargetName: "h2", Kind: model.KindMain}},
					{{TargetName: "h3", Kind: model.KindMain}},
				},
			},
		},
	}
}

// TestSwitchMidSlotRemoval mirrors §8 concrete scenario 1.
func TestSwitchMidSlotRemoval(t *testing.T) {
	wf := switchWorkflow()
	ops := []model.DiffOperation{
		{Kind: model.OpRemoveConnection, Source: "S", Target: "h1", SourceIndex: intPtr(1)},
	}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != -1 {
		t.Fatalf("unexpected failure: %+v", result.Results)
	}
	slots := result.Workflow.Connections["S"][model.KindMain]
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots (no repacking), got %d: %+v", len(slots), slots)
	}
	if len(slots[1]) != 0 {
		t.Errorf("slot 1 should be empty, got %+v", slots[1])
	}
	if len(slots[0]) != 1 || slots[0][0].TargetName != "h0" {
		t.Errorf("slot 0 should still point to h0, got %+v", slots[0])
	}
	if len(slots[3]) != 1 || slots[3][0].TargetName != "h3" {
		t.Errorf("slot 3 should still point to h3, got %+v", slots[3])
	}
}

func TestAddConnectionAppendsNotReplaces(t *testing.T) {
	wf := switchWorkflow()
	ops := []model.DiffOperation{
		{Kind: model.OpRemoveConnection, Source: "S", Target: "h1", SourceIndex: intPtr(1)},
		{Kind: model.OpAddConnection, Source: "S", Target: "h3", SourceIndex: intPtr(2)},
	}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != -1 {
		t.Fatalf("unexpected failure: %+v", result.Results)
	}
	slot2 := result.Workflow.Connections["S"][model.KindMain][2]
	if len(slot2) != 2 {
		t.Fatalf("expected slot 2 to have 2 endpoints after append, got %+v", slot2)
	}
	if slot2[0].TargetName != "h2" || slot2[1].TargetName != "h3" {
		t.Errorf("slot 2 = %+v, want [h2, h3]", slot2)
	}
}

func TestExplicitSourceIndexZeroIsHonored(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Nodes: []model.Node{
			{ID: "1", Name: "If", Type: "if"},
			{ID: "2", Name: "A", Type: "set"},
			{ID: "3", Name: "B", Type: "set"},
		},
		Connections: model.Connections{},
	}
	zero := 0
	ops := []model.DiffOperation{
		{Kind: model.OpAddConnection, Source: "If", Target: "A", SourceIndex: &zero},
		{Kind: model.OpAddConnection, Source: "If", Target: "B", Branch: "false"},
	}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != -1 {
		t.Fatalf("unexpected failure: %+v", result.Results)
	}
	slots := result.Workflow.Connections["If"][model.KindMain]
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots (true/false), got %d", len(slots))
	}
	if slots[0][0].TargetName != "A" {
		t.Errorf("slot 0 (true branch) = %+v, want A", slots[0])
	}
	if slots[1][0].TargetName != "B" {
		t.Errorf("slot 1 (false branch) = %+v, want B", slots[1])
	}
}

func TestRewireConnectionPreservesSlot(t *testing.T) {
	wf := switchWorkflow()
	ops := []model.DiffOperation{
		{Kind: model.OpRewireConnection, Source: "S", Target: "h2", RewireTo: "h3", SourceIndex: intPtr(2)},
	}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != -1 {
		t.Fatalf("unexpected failure: %+v", result.Results)
	}
	slot2 := result.Workflow.Connections["S"][model.KindMain][2]
	if len(slot2) != 1 || slot2[0].TargetName != "h3" {
		t.Errorf("slot 2 = %+v, want [h3]", slot2)
	}
}

func TestAtomicModeRollsBackOnFailure(t *testing.T) {
	wf := switchWorkflow()
	ops := []model.DiffOperation{
		{Kind: model.OpAddTag, Tag: "important"},
		{Kind: model.OpRemoveConnection, Source: "S", Target: "does-not-exist"},
	}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != 1 {
		t.Fatalf("FailedIndex = %d, want 1", result.FailedIndex)
	}
	if len(result.Workflow.Tags) != 0 {
		t.Errorf("atomic failure should leave workflow unchanged, got tags %+v", result.Workflow.Tags)
	}
	if len(wf.Tags) != 0 {
		t.Error("original workflow must never be mutated")
	}
}

func TestContinueOnErrorAppliesRemainingOps(t *testing.T) {
	wf := switchWorkflow()
	ops := []model.DiffOperation{
		{Kind: model.OpRemoveConnection, Source: "S", Target: "does-not-exist"},
		{Kind: model.OpAddTag, Tag: "important"},
	}
	result := Apply(wf, ops, model.ModeContinueOnError)
	if result.Results[0].Applied {
		t.Error("first op should have failed")
	}
	if !result.Results[1].Applied {
		t.Error("second op should have applied")
	}
	if len(result.Workflow.Tags) != 1 || result.Workflow.Tags[0] != "important" {
		t.Errorf("expected tag to be applied, got %+v", result.Workflow.Tags)
	}
}

func TestCleanStaleConnectionsDropsDanglingEndpointsOnly(t *testing.T) {
	wf := switchWorkflow()
	wf.Nodes = wf.Nodes[:len(wf.Nodes)-1] // drop h3 node but leave its connection dangling
	ops := []model.DiffOperation{{Kind: model.OpCleanStaleConnections}}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != -1 {
		t.Fatalf("unexpected failure: %+v", result.Results)
	}
	slots := result.Workflow.Connections["S"][model.KindMain]
	if len(slots) != 3 {
		t.Fatalf("expected trailing empty slot for h3 to be dropped, got %d slots: %+v", len(slots), slots)
	}
	if slots[0][0].TargetName != "h0" || slots[1][0].TargetName != "h1" || slots[2][0].TargetName != "h2" {
		t.Errorf("valid endpoints should be untouched, got %+v", slots)
	}
}

func TestUpdateSettingsDropsNonWhitelistedKeys(t *testing.T) {
	wf := switchWorkflow()
	ops := []model.DiffOperation{
		{Kind: model.OpUpdateSettings, SettingsPatch: map[string]any{
			"timezone":             "UTC",
			"timeSavedPerExecution": 42,
		}},
	}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != -1 {
		t.Fatalf("unexpected failure: %+v", result.Results)
	}
	if result.Workflow.Settings.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", result.Workflow.Settings.Timezone)
	}
}

func TestMalformedOperationQuotesInput(t *testing.T) {
	wf := switchWorkflow()
	ops := []model.DiffOperation{
		{Kind: model.OpUpdateNode, NodeName: "h0", Raw: []byte(`{"type":"updateNode","id":"h0"}`)},
	}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != 0 {
		t.Fatalf("expected failure at index 0, got %+v", result.Results)
	}
	errMsg := result.Results[0].Error
	if errMsg == "" {
		t.Fatal("expected non-empty error message")
	}
}

func TestUpdateNodeDeepMergesParameters(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Nodes: []model.Node{
			{ID: "1", Name: "HTTP", Type: "httpRequest", Parameters: map[string]any{
				"url": "https://example.com",
				"headers": map[string]any{
					"Accept": "application/json",
				},
			}},
		},
		Connections: model.Connections{},
	}
	ops := []model.DiffOperation{
		{Kind: model.OpUpdateNode, NodeName: "HTTP", Patch: map[string]any{
			"parameters": map[string]any{
				"headers": map[string]any{
					"Authorization": "Bearer x",
				},
			},
		}},
	}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != -1 {
		t.Fatalf("unexpected failure: %+v", result.Results)
	}
	headers := result.Workflow.Nodes[0].Parameters["headers"].(map[string]any)
	if headers["Accept"] != "application/json" {
		t.Error("deep merge should preserve existing sibling keys")
	}
	if headers["Authorization"] != "Bearer x" {
		t.Error("deep merge should add new keys")
	}
}

func TestUpdateNodeEnforcesNameUniqueness(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Nodes: []model.Node{
			{ID: "1", Name: "A", Type: "set"},
			{ID: "2", Name: "B", Type: "set"},
		},
		Connections: model.Connections{},
	}
	ops := []model.DiffOperation{
		{Kind: model.OpUpdateNode, NodeName: "A", Patch: map[string]any{"name": "B"}},
	}
	result := Apply(wf, ops, model.ModeAtomic)
	if result.FailedIndex != 0 {
		t.Fatalf("expected rename collision to fail, got %+v", result.Results)
	}
}
