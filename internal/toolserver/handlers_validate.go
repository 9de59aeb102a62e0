package toolserver

import (
	"context"

	"github.com/rakunlabs/n8n-mcp/internal/autofix"
	"github.com/rakunlabs/n8n-mcp/internal/errs"
	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/validate"
	"github.com/rakunlabs/n8n-mcp/pkg/mcp"
)

func (s *Server) registerValidateTools(m *mcp.MCP) {
	m.AddTool(mcp.Tool{
		Name:        "n8n_validate_workflow",
		Description: "Run static validation on a workflow already present on the host.",
		InputSchema: objectSchema(map[string]any{
			"id":      stringProp("Workflow id"),
			"options": objectProp("{validateNodes?, validateConnections?, validateExpressions?, profile?}"),
		}, []string{"id"}),
	}, s.handleValidateWorkflow)

	m.AddTool(mcp.Tool{
		Name:        "n8n_autofix_workflow",
		Description: "Preview or commit automatic fixes for common workflow problems.",
		InputSchema: objectSchema(map[string]any{
			"id":                  stringProp("Workflow id"),
			"applyFixes":          boolProp("Commit the fixes instead of only previewing them"),
			"fixTypes":            arrayProp("Restrict to these fix types"),
			"confidenceThreshold": stringProp("high | medium | low"),
			"maxFixes":            intProp("Cap the number of fixes produced"),
		}, []string{"id"}),
	}, s.handleAutofixWorkflow)
}

func (s *Server) fetchAndDecodeWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := client.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	var wf model.Workflow
	if err := decodeInto(raw, &wf); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "DECODE_FAILED", "could not parse host workflow", err)
	}
	return &wf, nil
}

func (s *Server) handleValidateWorkflow(ctx context.Context, args map[string]any) (any, error) {
	id, err := requireString(args, "id")
	if err != nil {
		return failInput([]string{err.Error()}), nil
	}
	wf, err := s.fetchAndDecodeWorkflow(ctx, id)
	if err != nil {
		return fail(err), nil
	}

	opts := validate.DefaultOptions()
	if rawOpts, present := args["options"].(map[string]any); present {
		if b := argBoolPtr(rawOpts, "validateNodes"); b != nil {
			opts.ValidateNodes = *b
		}
		if b := argBoolPtr(rawOpts, "validateConnections"); b != nil {
			opts.ValidateConnections = *b
		}
		if b := argBoolPtr(rawOpts, "validateExpressions"); b != nil {
			opts.ValidateExpressions = *b
		}
		if p, ok := argString(rawOpts, "profile"); ok {
			opts.Profile = model.Profile(p)
		}
	}

	res := validate.Validate(wf, s.catalog, opts)
	if res.Valid {
		return okMessage("workflow is valid", res), nil
	}
	return fail(errs.New(errs.KindValidationFailure, "VALIDATION_FAILED", "workflow failed validation").
		WithDetails(map[string]any{"result": res})), nil
}

func (s *Server) handleAutofixWorkflow(ctx context.Context, args map[string]any) (any, error) {
	id, err := requireString(args, "id")
	if err != nil {
		return failInput([]string{err.Error()}), nil
	}
	wf, err := s.fetchAndDecodeWorkflow(ctx, id)
	if err != nil {
		return fail(err), nil
	}

	vr := validate.Validate(wf, s.catalog, validate.DefaultOptions())

	opts := autofix.DefaultOptions()
	opts.ApplyFixes = argBool(args, "applyFixes", false)
	if n := argInt(args, "maxFixes", 0); n > 0 {
		opts.MaxFixes = n
	}
	if c, ok := argString(args, "confidenceThreshold"); ok {
		opts.ConfidenceThreshold = autofix.Confidence(c)
	}
	if types := argStringSlice(args, "fixTypes"); len(types) > 0 {
		fixTypes := make([]autofix.FixType, 0, len(types))
		for _, t := range types {
			fixTypes = append(fixTypes, autofix.FixType(t))
		}
		opts.FixTypes = fixTypes
	}

	result := autofix.Run(wf, vr, s.catalog, opts)

	if result.Applied {
		client, err := s.resolveClient(ctx)
		if err != nil {
			return fail(err), nil
		}
		if _, err := client.UpdateWorkflow(ctx, id, workflowToMap(result.Workflow)); err != nil {
			return fail(err), nil
		}
	}

	return ok(result), nil
}
