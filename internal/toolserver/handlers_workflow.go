package toolserver

import (
	"context"

	"github.com/rakunlabs/n8n-mcp/internal/hostclient"
	"github.com/rakunlabs/n8n-mcp/pkg/mcp"
)

func (s *Server) registerWorkflowTools(m *mcp.MCP) {
	m.AddTool(mcp.Tool{
		Name:        "n8n_create_workflow",
		Description: "Create a new workflow on the connected n8n instance.",
		InputSchema: objectSchema(map[string]any{
			"name":        stringProp("Workflow name"),
			"nodes":       arrayProp("Workflow nodes"),
			"connections": objectProp("Workflow connections, keyed by source node name"),
			"settings":    objectProp("Optional workflow settings (whitelisted subset)"),
		}, []string{"name", "nodes", "connections"}),
	}, s.handleCreateWorkflow)

	m.AddTool(mcp.Tool{
		Name:        "n8n_update_full_workflow",
		Description: "Replace a workflow's name/nodes/connections/settings wholesale.",
		InputSchema: objectSchema(map[string]any{
			"id":          stringProp("Workflow id"),
			"name":        stringProp("Workflow name"),
			"nodes":       arrayProp("Workflow nodes"),
			"connections": objectProp("Workflow connections"),
			"settings":    objectProp("Workflow settings"),
		}, []string{"id"}),
	}, s.handleUpdateFullWorkflow)

	m.AddTool(mcp.Tool{
		Name:        "n8n_update_partial_workflow",
		Description: "Apply a batch of diff operations to a workflow (add/remove/update nodes and connections).",
		InputSchema: objectSchema(map[string]any{
			"id":              stringProp("Workflow id"),
			"operations":      arrayProp("Diff operations to apply, in order"),
			"validateOnly":    boolProp("Dry-run: validate the batch without committing"),
			"continueOnError": boolProp("Apply best-effort instead of atomically"),
		}, []string{"id", "operations"}),
	}, s.handleUpdatePartialWorkflow)

	for _, variant := range []string{"", "_details", "_structure", "_minimal"} {
		variant := variant
		m.AddTool(mcp.Tool{
			Name:        "n8n_get_workflow" + variant,
			Description: "Fetch a workflow" + getVariantDescription(variant) + ".",
			InputSchema: objectSchema(map[string]any{
				"id": stringProp("Workflow id"),
			}, []string{"id"}),
		}, s.handlerGetWorkflowVariant(variant))
	}

	m.AddTool(mcp.Tool{
		Name:        "n8n_list_workflows",
		Description: "Page through workflows on the connected n8n instance.",
		InputSchema: objectSchema(map[string]any{
			"limit":              intProp("Page size, 1-100"),
			"cursor":             stringProp("Opaque pagination cursor"),
			"active":             boolProp("Filter by active state"),
			"tags":               arrayProp("Filter by tags"),
			"projectId":          stringProp("Filter by project id"),
			"excludePinnedData":  boolProp("Omit pinned data from the response"),
		}, nil),
	}, s.handleListWorkflows)

	m.AddTool(mcp.Tool{
		Name:        "n8n_delete_workflow",
		Description: "Delete a workflow by id.",
		InputSchema: objectSchema(map[string]any{
			"id": stringProp("Workflow id"),
		}, []string{"id"}),
	}, s.handleDeleteWorkflow)
}

func getVariantDescription(variant string) string {
	switch variant {
	case "_details":
		return " with full node and connection detail"
	case "_structure":
		return " reduced to its node/connection graph shape"
	case "_minimal":
		return " reduced to id, name, and active state"
	default:
		return ""
	}
}

func (s *Server) handleCreateWorkflow(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return fail(err), nil
	}

	name, err := requireString(args, "name")
	if err != nil {
		return failInput([]string{err.Error()}), nil
	}
	nodes, ok := args["nodes"].([]any)
	if !ok {
		return failInput([]string{`"nodes" is required and must be an array`}), nil
	}
	connections, err := asJSONObject(args["connections"])
	if err != nil {
		return failInput([]string{`"connections": ` + err.Error()}), nil
	}

	wf := map[string]any{"name": name, "nodes": nodes, "connections": connections}
	if settings, ok := args["settings"]; ok {
		wf["settings"] = settings
	}

	out, err := client.CreateWorkflow(ctx, wf)
	if err != nil {
		return fail(err), nil
	}
	return ok(out), nil
}

func (s *Server) handleUpdateFullWorkflow(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return fail(err), nil
	}
	id, err := requireString(args, "id")
	if err != nil {
		return failInput([]string{err.Error()}), nil
	}

	wf := map[string]any{}
	for _, key := range []string{"name", "nodes", "connections", "settings"} {
		if v, present := args[key]; present {
			wf[key] = v
		}
	}

	out, err := client.UpdateWorkflow(ctx, id, wf)
	if err != nil {
		return fail(err), nil
	}
	return ok(out), nil
}

func (s *Server) handleListWorkflows(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return fail(err), nil
	}

	params := hostclient.ListWorkflowsParams{
		Limit:             argInt(args, "limit", 0),
		Cursor:            argStringOr(args, "cursor", ""),
		Active:            argBoolPtr(args, "active"),
		Tags:              argStringSlice(args, "tags"),
		ProjectID:         argStringOr(args, "projectId", ""),
		ExcludePinnedData: argBool(args, "excludePinnedData", false),
	}

	out, err := client.ListWorkflows(ctx, params)
	if err != nil {
		return fail(err), nil
	}
	return ok(out), nil
}

func (s *Server) handleDeleteWorkflow(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return fail(err), nil
	}
	id, err := requireString(args, "id")
	if err != nil {
		return failInput([]string{err.Error()}), nil
	}
	if err := client.DeleteWorkflow(ctx, id); err != nil {
		return fail(err), nil
	}
	return ok(map[string]any{"id": id, "deleted": true}), nil
}

func (s *Server) handlerGetWorkflowVariant(variant string) mcp.ToolHandler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		client, err := s.resolveClient(ctx)
		if err != nil {
			return fail(err), nil
		}
		id, err := requireString(args, "id")
		if err != nil {
			return failInput([]string{err.Error()}), nil
		}

		wf, err := client.GetWorkflow(ctx, id)
		if err != nil {
			return fail(err), nil
		}
		return ok(shapeWorkflow(wf, variant)), nil
	}
}

// shapeWorkflow applies the read-variant projections named in §6's tool
// table. "_details" is the host's response verbatim; the others trim it
// down for a caller that doesn't need the full payload.
func shapeWorkflow(wf map[string]any, variant string) map[string]any {
	switch variant {
	case "_minimal":
		out := map[string]any{}
		for _, k := range []string{"id", "name", "active"} {
			if v, ok := wf[k]; ok {
				out[k] = v
			}
		}
		return out
	case "_structure":
		out := map[string]any{}
		for _, k := range []string{"id", "name", "connections"} {
			if v, ok := wf[k]; ok {
				out[k] = v
			}
		}
		if nodes, ok := wf["nodes"].([]any); ok {
			slim := make([]any, 0, len(nodes))
			for _, n := range nodes {
				node, ok := n.(map[string]any)
				if !ok {
					continue
				}
				slim = append(slim, map[string]any{"id": node["id"], "name": node["name"], "type": node["type"]})
			}
			out["nodes"] = slim
		}
		return out
	default:
		return wf
	}
}

