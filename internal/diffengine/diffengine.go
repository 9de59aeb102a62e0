// Package diffengine implements the Workflow Diff Engine (C1): it applies
// an ordered batch of high-level graph operations to a workflow document,
// either transactionally or best-effort, dry-validating every operation
// against the accumulated working copy before it is applied.
package diffengine

import (
	"fmt"

	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/normalize"
)

// Apply runs ops against wf in order and returns the resulting workflow
// (a fresh copy; wf itself is never mutated) plus a per-operation report.
//
// In atomic mode, the first failing operation aborts the batch: Result
// carries the original, unchanged workflow and FailedIndex names the
// operation that failed. In continueOnError mode, failing operations are
// skipped and recorded; the returned workflow reflects every operation
// that did apply.
func Apply(wf *model.Workflow, ops []model.DiffOperation, mode model.ApplyMode) *model.ApplyResult {
	working := cloneWorkflow(wf)
	results := make([]model.OpResult, 0, len(ops))

	for i, op := range ops {
		if err := applyOne(working, op); err != nil {
			results = append(results, model.OpResult{Index: i, Applied: false, Error: err.Error()})
			if mode == model.ModeAtomic {
				return &model.ApplyResult{
					Workflow:    cloneWorkflow(wf),
					Results:     results,
					FailedIndex: i,
				}
			}
			continue
		}
		results = append(results, model.OpResult{Index: i, Applied: true})
	}

	return &model.ApplyResult{Workflow: working, Results: results, FailedIndex: -1}
}

func applyOne(wf *model.Workflow, op model.DiffOperation) error {
	switch op.Kind {
	case model.OpAddNode:
		return addNode(wf, op)
	case model.OpRemoveNode:
		return removeNode(wf, op)
	case model.OpUpdateNode:
		return updateNode(wf, op)
	case model.OpMoveNode:
		return moveNode(wf, op)
	case model.OpEnableNode:
		return setDisabled(wf, op, false)
	case model.OpDisableNode:
		return setDisabled(wf, op, true)
	case model.OpAddConnection:
		return addConnection(wf, op)
	case model.OpRemoveConnection:
		return removeConnection(wf, op)
	case model.OpRewireConnection:
		return rewireConnection(wf, op)
	case model.OpCleanStaleConnections:
		return cleanStaleConnections(wf)
	case model.OpReplaceConnections:
		return replaceConnections(wf, op)
	case model.OpUpdateSettings:
		return updateSettings(wf, op)
	case model.OpUpdateName:
		return updateWorkflowName(wf, op)
	case model.OpAddTag:
		return addTag(wf, op)
	case model.OpRemoveTag:
		return removeTag(wf, op)
	default:
		return malformedOpError(op, fmt.Sprintf("unknown operation type %q", op.Kind),
			"one of addNode, removeNode, updateNode, moveNode, enableNode, disableNode, "+
				"addConnection, removeConnection, rewireConnection, cleanStaleConnections, "+
				"replaceConnections, updateSettings, updateName, addTag, removeTag")
	}
}

// malformedOpError builds the structured, fail-fast error required by
// §4.4: it quotes the offending operation, says what shape was expected,
// and names an alternative operation type to try.
func malformedOpError(op model.DiffOperation, problem, expected string) error {
	raw := string(op.Raw)
	if raw == "" {
		raw = fmt.Sprintf("%+v", op)
	}
	return fmt.Errorf("malformed %s operation: %s (input was: %s); expected %s", op.Kind, problem, raw, expected)
}

func findNodeIndexByName(wf *model.Workflow, name string) int {
	target := normalize.Name(name)
	for i := range wf.Nodes {
		if normalize.Name(wf.Nodes[i].Name) == target {
			return i
		}
	}
	return -1
}

func findNodeIndexByID(wf *model.Workflow, id string) int {
	for i := range wf.Nodes {
		if wf.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// resolveNodeRef finds a node by name, falling back to id, and returns a
// "did you mean" suggestion on failure.
func resolveNodeRef(wf *model.Workflow, ref string) (idx int, err error) {
	if idx := findNodeIndexByName(wf, ref); idx >= 0 {
		return idx, nil
	}
	if idx := findNodeIndexByID(wf, ref); idx >= 0 {
		return idx, nil
	}
	return -1, fmt.Errorf("no node named or identified by %q; available names: %v", ref, wf.Names())
}

func cloneWorkflow(wf *model.Workflow) *model.Workflow {
	out := &model.Workflow{
		ID:        wf.ID,
		Name:      wf.Name,
		Active:    wf.Active,
		CreatedAt: wf.CreatedAt,
		UpdatedAt: wf.UpdatedAt,
		VersionID: wf.VersionID,
	}
	out.Nodes = make([]model.Node, len(wf.Nodes))
	for i, n := range wf.Nodes {
		out.Nodes[i] = cloneNode(n)
	}
	out.Connections = cloneConnections(wf.Connections)
	if wf.Settings != nil {
		s := *wf.Settings
		out.Settings = &s
	}
	if wf.Tags != nil {
		out.Tags = append([]string(nil), wf.Tags...)
	}
	return out
}

func cloneNode(n model.Node) model.Node {
	out := n
	out.Parameters = deepCloneMap(n.Parameters)
	if n.Credentials != nil {
		out.Credentials = deepCloneMap(n.Credentials)
	}
	return out
}

func deepCloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCloneValue(v)
	}
	return out
}

func deepCloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneConnections(c model.Connections) model.Connections {
	if c == nil {
		return model.Connections{}
	}
	out := make(model.Connections, len(c))
	for source, byKind := range c {
		outByKind := make(model.SourceOutputs, len(byKind))
		for kind, slots := range byKind {
			outSlots := make([]model.OutputSlot, len(slots))
			for i, slot := range slots {
				outSlots[i] = append(model.OutputSlot(nil), slot...)
			}
			outByKind[kind] = outSlots
		}
		out[source] = outByKind
	}
	return out
}
