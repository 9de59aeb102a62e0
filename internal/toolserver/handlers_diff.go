package toolserver

import (
	"context"

	"github.com/rakunlabs/n8n-mcp/internal/diffengine"
	"github.com/rakunlabs/n8n-mcp/internal/errs"
	"github.com/rakunlabs/n8n-mcp/internal/model"
)

func (s *Server) handleUpdatePartialWorkflow(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return fail(err), nil
	}
	id, err := requireString(args, "id")
	if err != nil {
		return failInput([]string{err.Error()}), nil
	}

	opsArg, ok := args["operations"].([]any)
	if !ok || len(opsArg) == 0 {
		return failInput([]string{`"operations" is required and must be a non-empty array`}), nil
	}

	var ops []model.DiffOperation
	if err := decodeInto(opsArg, &ops); err != nil {
		return failInput([]string{"could not parse operations: " + err.Error()}), nil
	}

	raw, err := client.GetWorkflow(ctx, id)
	if err != nil {
		return fail(err), nil
	}
	var wf model.Workflow
	if err := decodeInto(raw, &wf); err != nil {
		return fail(errs.Wrap(errs.KindInternal, "DECODE_FAILED", "could not parse host workflow", err)), nil
	}

	mode := model.ModeAtomic
	if argBool(args, "continueOnError", false) {
		mode = model.ModeContinueOnError
	}

	result := diffengine.Apply(&wf, ops, mode)

	batchSucceeded := mode == model.ModeContinueOnError || result.FailedIndex == -1
	if !batchSucceeded {
		return fail(errs.New(errs.KindDiffFailure, "DIFF_FAILED",
			"operation batch failed, workflow left unchanged").
			WithDetails(map[string]any{"failedIndex": result.FailedIndex, "results": result.Results})), nil
	}

	if argBool(args, "validateOnly", false) {
		return okMessage("dry run: batch would apply cleanly", map[string]any{
			"results":  result.Results,
			"workflow": result.Workflow,
		}), nil
	}

	out, err := client.UpdateWorkflow(ctx, id, workflowToMap(result.Workflow))
	if err != nil {
		return fail(err), nil
	}
	return ok(map[string]any{"results": result.Results, "workflow": out}), nil
}

// workflowToMap round-trips a *model.Workflow through its own JSON tags into
// a plain map, which is what hostclient's Create/UpdateWorkflow (and their
// Clean* helpers) expect.
func workflowToMap(wf *model.Workflow) map[string]any {
	var m map[string]any
	_ = decodeInto(wf, &m)
	if m == nil {
		m = map[string]any{}
	}
	return m
}
