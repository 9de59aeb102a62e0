package diffengine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/normalize"
)

func nodeRef(op model.DiffOperation) string {
	if op.NodeName != "" {
		return op.NodeName
	}
	return op.NodeID
}

func addNode(wf *model.Workflow, op model.DiffOperation) error {
	if op.Node == nil {
		return malformedOpError(op, "missing node object", `{"node": {"name": "...", "type": "..."}}`)
	}
	n := *op.Node
	if normalize.Name(n.Name) == "" {
		return malformedOpError(op, "node name must not be empty", `{"node": {"name": "My Node", ...}}`)
	}
	if idx := findNodeIndexByName(wf, n.Name); idx >= 0 {
		return fmt.Errorf("a node named %q already exists", n.Name)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	wf.Nodes = append(wf.Nodes, cloneNode(n))
	return nil
}

func removeNode(wf *model.Workflow, op model.DiffOperation) error {
	ref := nodeRef(op)
	if ref == "" {
		return malformedOpError(op, "missing node id or name", `{"id": "..."} or {"name": "..."}`)
	}
	idx, err := resolveNodeRef(wf, ref)
	if err != nil {
		return err
	}
	wf.Nodes = append(wf.Nodes[:idx], wf.Nodes[idx+1:]...)
	return nil
}

func moveNode(wf *model.Workflow, op model.DiffOperation) error {
	ref := nodeRef(op)
	if ref == "" || op.Position == nil {
		return malformedOpError(op, "missing node id/name or position", `{"id": "...", "position": [x, y]}`)
	}
	idx, err := resolveNodeRef(wf, ref)
	if err != nil {
		return err
	}
	wf.Nodes[idx].Position = *op.Position
	return nil
}

func setDisabled(wf *model.Workflow, op model.DiffOperation, disabled bool) error {
	ref := nodeRef(op)
	if ref == "" {
		return malformedOpError(op, "missing node id or name", `{"id": "..."}`)
	}
	idx, err := resolveNodeRef(wf, ref)
	if err != nil {
		return err
	}
	wf.Nodes[idx].Disabled = disabled
	return nil
}

// updateNode deep-merges op.Patch["parameters"] into the node's parameter
// map and applies any other recognized top-level field changes, enforcing
// the name-uniqueness invariant (after normalization) if the patch renames
// the node (§4.4).
func updateNode(wf *model.Workflow, op model.DiffOperation) error {
	ref := nodeRef(op)
	if ref == "" {
		return malformedOpError(op, "missing node id or name", `{"id": "..."} or {"name": "..."}`)
	}
	if op.Patch == nil {
		return malformedOpError(op, "missing changes object", `{"changes": {"parameters": {...}}}`)
	}
	idx, err := resolveNodeRef(wf, ref)
	if err != nil {
		return err
	}
	node := &wf.Nodes[idx]

	if rawName, ok := op.Patch["name"]; ok {
		newName, _ := rawName.(string)
		if normalize.Name(newName) == "" {
			return malformedOpError(op, "patch name must not be empty", `{"changes": {"name": "New Name"}}`)
		}
		if other := findNodeIndexByName(wf, newName); other >= 0 && other != idx {
			return fmt.Errorf("a node named %q already exists", newName)
		}
		node.Name = newName
	}
	if rawType, ok := op.Patch["type"]; ok {
		if s, ok := rawType.(string); ok {
			node.Type = s
		}
	}
	if rawTV, ok := op.Patch["typeVersion"]; ok {
		if f, ok := toFloat(rawTV); ok {
			node.TypeVersion = f
		}
	}
	if rawDisabled, ok := op.Patch["disabled"]; ok {
		if b, ok := rawDisabled.(bool); ok {
			node.Disabled = b
		}
	}
	if rawNotes, ok := op.Patch["notes"]; ok {
		if s, ok := rawNotes.(string); ok {
			node.Notes = s
		}
	}
	if rawParams, ok := op.Patch["parameters"]; ok {
		patch, ok := rawParams.(map[string]any)
		if !ok {
			return malformedOpError(op, `"parameters" must be an object`, `{"changes": {"parameters": {...}}}`)
		}
		if node.Parameters == nil {
			node.Parameters = map[string]any{}
		}
		deepMerge(node.Parameters, patch)
	}
	return nil
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				deepMerge(dv, sv)
				continue
			}
		}
		dst[k] = deepCloneValue(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func updateWorkflowName(wf *model.Workflow, op model.DiffOperation) error {
	if op.Name == "" {
		return malformedOpError(op, "missing new name", `{"newName": "..."}`)
	}
	wf.Name = op.Name
	return nil
}

func addTag(wf *model.Workflow, op model.DiffOperation) error {
	if op.Tag == "" {
		return malformedOpError(op, "missing tag", `{"tag": "..."}`)
	}
	for _, t := range wf.Tags {
		if t == op.Tag {
			return nil
		}
	}
	wf.Tags = append(wf.Tags, op.Tag)
	return nil
}

func removeTag(wf *model.Workflow, op model.DiffOperation) error {
	if op.Tag == "" {
		return malformedOpError(op, "missing tag", `{"tag": "..."}`)
	}
	out := wf.Tags[:0]
	for _, t := range wf.Tags {
		if t != op.Tag {
			out = append(out, t)
		}
	}
	wf.Tags = out
	return nil
}

// updateSettings merges through the settings whitelist (§3); any
// non-whitelisted key received from the caller is silently dropped from
// the outgoing document but recorded in an audit log entry, never in the
// error path.
func updateSettings(wf *model.Workflow, op model.DiffOperation) error {
	if op.SettingsPatch == nil {
		return malformedOpError(op, "missing settings patch", `{"settings": {...}}`)
	}
	kept, dropped := model.FilterSettingsMap(op.SettingsPatch)
	if len(dropped) > 0 {
		slog.Warn("updateSettings dropped non-whitelisted keys", "keys", dropped)
	}
	if wf.Settings == nil {
		wf.Settings = &model.Settings{}
	}
	applySettingsMap(wf.Settings, kept)
	return nil
}

func applySettingsMap(s *model.Settings, kept map[string]any) {
	if v, ok := kept["executionOrder"].(string); ok {
		s.ExecutionOrder = v
	}
	if v, ok := kept["timezone"].(string); ok {
		s.Timezone = v
	}
	if v, ok := kept["saveDataErrorExecution"].(string); ok {
		s.SaveDataErrorExecution = v
	}
	if v, ok := kept["saveDataSuccessExecution"].(string); ok {
		s.SaveDataSuccessExecution = v
	}
	if v, ok := kept["saveManualExecutions"].(bool); ok {
		s.SaveManualExecutions = &v
	}
	if v, ok := kept["saveExecutionProgress"].(bool); ok {
		s.SaveExecutionProgress = &v
	}
	if f, ok := toFloat(kept["executionTimeout"]); ok {
		iv := int(f)
		s.ExecutionTimeout = &iv
	}
	if v, ok := kept["errorWorkflow"].(string); ok {
		s.ErrorWorkflow = v
	}
	if v, ok := kept["callerPolicy"].(string); ok {
		s.CallerPolicy = v
	}
}
