package toolserver

import (
	"context"

	"github.com/rakunlabs/n8n-mcp/pkg/mcp"
)

func (s *Server) registerExecutionTools(m *mcp.MCP) {
	m.AddTool(mcp.Tool{
		Name:        "n8n_list_executions",
		Description: "List executions, optionally filtered to one workflow.",
		InputSchema: objectSchema(map[string]any{
			"workflowId": stringProp("Filter to this workflow id"),
			"cursor":     stringProp("Opaque pagination cursor"),
			"limit":      intProp("Page size"),
		}, nil),
	}, s.handleListExecutions)

	m.AddTool(mcp.Tool{
		Name:        "n8n_get_execution",
		Description: "Fetch a single execution by id.",
		InputSchema: objectSchema(map[string]any{
			"id": stringProp("Execution id"),
		}, []string{"id"}),
	}, s.handleGetExecution)

	m.AddTool(mcp.Tool{
		Name:        "n8n_delete_execution",
		Description: "Delete a single execution by id.",
		InputSchema: objectSchema(map[string]any{
			"id": stringProp("Execution id"),
		}, []string{"id"}),
	}, s.handleDeleteExecution)
}

func (s *Server) handleListExecutions(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return fail(err), nil
	}
	out, err := client.ListExecutions(ctx, argStringOr(args, "workflowId", ""), argStringOr(args, "cursor", ""), argInt(args, "limit", 0))
	if err != nil {
		return fail(err), nil
	}
	return ok(out), nil
}

func (s *Server) handleGetExecution(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return fail(err), nil
	}
	id, err := requireString(args, "id")
	if err != nil {
		return failInput([]string{err.Error()}), nil
	}
	out, err := client.GetExecution(ctx, id)
	if err != nil {
		return fail(err), nil
	}
	return ok(out), nil
}

func (s *Server) handleDeleteExecution(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return fail(err), nil
	}
	id, err := requireString(args, "id")
	if err != nil {
		return failInput([]string{err.Error()}), nil
	}
	if err := client.DeleteExecution(ctx, id); err != nil {
		return fail(err), nil
	}
	return ok(map[string]any{"id": id, "deleted": true}), nil
}
