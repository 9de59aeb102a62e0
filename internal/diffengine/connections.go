package diffengine

import (
	"fmt"

	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/normalize"
)

func validateNodeName(wf *model.Workflow, name string) error {
	if findNodeIndexByName(wf, name) >= 0 {
		return nil
	}
	if idx := findNodeIndexByID(wf, name); idx >= 0 {
		return fmt.Errorf("%q is a node id, not a name; use %q instead", name, wf.Nodes[idx].Name)
	}
	return fmt.Errorf("no node named %q; available names: %v", name, wf.Names())
}

// resolveSourceIndex implements the ergonomic-alias resolution of §4.4:
// explicit SourceIndex always wins, even when it is the zero value — the
// pointer distinguishes "caller supplied 0" from "caller supplied nothing".
func resolveSourceIndex(op model.DiffOperation) int {
	if op.SourceIndex != nil {
		return *op.SourceIndex
	}
	switch op.Branch {
	case "true":
		return 0
	case "false":
		return 1
	}
	if op.Case != nil {
		return *op.Case
	}
	return 0
}

func connKind(op model.DiffOperation) model.ConnectionKind {
	if op.ConnKind == "" {
		return model.KindMain
	}
	return op.ConnKind
}

func addConnection(wf *model.Workflow, op model.DiffOperation) error {
	if op.Source == "" || op.Target == "" {
		return malformedOpError(op, "missing source or target", `{"source": "...", "target": "..."}`)
	}
	if err := validateNodeName(wf, op.Source); err != nil {
		return err
	}
	if err := validateNodeName(wf, op.Target); err != nil {
		return err
	}

	kind := connKind(op)
	sourceIndex := resolveSourceIndex(op)
	if sourceIndex < 0 {
		return malformedOpError(op, fmt.Sprintf("negative sourceIndex %d", sourceIndex), `{"sourceIndex": 0}`)
	}

	if wf.Connections == nil {
		wf.Connections = model.Connections{}
	}
	byKind, ok := wf.Connections[op.Source]
	if !ok {
		byKind = model.SourceOutputs{}
	}
	slots := byKind[kind]
	for len(slots) <= sourceIndex {
		slots = append(slots, nil)
	}
	slots[sourceIndex] = append(slots[sourceIndex], model.Endpoint{
		TargetName:  op.Target,
		Kind:        kind,
		TargetIndex: op.TargetIndex,
	})
	byKind[kind] = slots
	wf.Connections[op.Source] = byKind
	return nil
}

func removeConnection(wf *model.Workflow, op model.DiffOperation) error {
	if op.Source == "" || op.Target == "" {
		return malformedOpError(op, "missing source or target", `{"source": "...", "target": "..."}`)
	}
	if err := validateNodeName(wf, op.Source); err != nil {
		return err
	}

	kind := connKind(op)
	byKind, ok := wf.Connections[op.Source]
	if !ok {
		return fmt.Errorf("source %q has no connections to remove", op.Source)
	}
	slots, ok := byKind[kind]
	if !ok {
		return fmt.Errorf("source %q has no %q connections", op.Source, kind)
	}

	removed := false
	removeFromSlot := func(i int) {
		kept := slots[i][:0]
		for _, ep := range slots[i] {
			if normalize.Name(ep.TargetName) == normalize.Name(op.Target) {
				removed = true
				continue
			}
			kept = append(kept, ep)
		}
		slots[i] = kept
	}

	if op.SourceIndex != nil {
		idx := *op.SourceIndex
		if idx < 0 || idx >= len(slots) {
			return fmt.Errorf("source %q has no output slot %d", op.Source, idx)
		}
		removeFromSlot(idx)
	} else {
		for i := range slots {
			removeFromSlot(i)
		}
	}

	if !removed {
		return fmt.Errorf("no %q connection from %q to %q found", kind, op.Source, op.Target)
	}

	// Truncate only trailing empty slots; never re-pack intermediate ones —
	// doing so would silently rewire a conditional or switch node's branches.
	for len(slots) > 0 && len(slots[len(slots)-1]) == 0 {
		slots = slots[:len(slots)-1]
	}
	if len(slots) == 0 {
		delete(byKind, kind)
	} else {
		byKind[kind] = slots
	}
	if len(byKind) == 0 {
		delete(wf.Connections, op.Source)
	} else {
		wf.Connections[op.Source] = byKind
	}
	return nil
}

// rewireConnection is observationally equivalent to
// removeConnection(source, from) followed by addConnection(source, to) in
// the same slot (§4.4, §8 round-trip law).
func rewireConnection(wf *model.Workflow, op model.DiffOperation) error {
	if op.Source == "" || op.Target == "" || op.RewireTo == "" {
		return malformedOpError(op, "missing source, from-target, or to-target",
			`{"source": "...", "target": "...", "to": "..."}`)
	}

	removeOp := op
	removeOp.Kind = model.OpRemoveConnection
	if err := removeConnection(wf, removeOp); err != nil {
		return err
	}

	addOp := op
	addOp.Kind = model.OpAddConnection
	addOp.Target = op.RewireTo
	return addConnection(wf, addOp)
}

func cleanStaleConnections(wf *model.Workflow) error {
	names := make(map[string]bool, len(wf.Nodes))
	for _, n := range wf.Nodes {
		names[normalize.Name(n.Name)] = true
	}

	for source, byKind := range wf.Connections {
		if !names[normalize.Name(source)] {
			delete(wf.Connections, source)
			continue
		}
		for kind, slots := range byKind {
			for i, slot := range slots {
				kept := slot[:0]
				for _, ep := range slot {
					if names[normalize.Name(ep.TargetName)] {
						kept = append(kept, ep)
					}
				}
				slots[i] = kept
			}
			for len(slots) > 0 && len(slots[len(slots)-1]) == 0 {
				slots = slots[:len(slots)-1]
			}
			if len(slots) == 0 {
				delete(byKind, kind)
			} else {
				byKind[kind] = slots
			}
		}
		if len(byKind) == 0 {
			delete(wf.Connections, source)
		}
	}
	return nil
}

func replaceConnections(wf *model.Workflow, op model.DiffOperation) error {
	if op.Connections == nil {
		return malformedOpError(op, "missing connections object", `{"connections": {...}}`)
	}
	for source, byKind := range op.Connections {
		if err := validateNodeName(wf, source); err != nil {
			return err
		}
		for _, slots := range byKind {
			for _, slot := range slots {
				for _, ep := range slot {
					if err := validateNodeName(wf, ep.TargetName); err != nil {
						return err
					}
				}
			}
		}
	}
	wf.Connections = cloneConnections(op.Connections)
	return nil
}
