package toolserver

import (
	"context"

	"github.com/rakunlabs/n8n-mcp/internal/errs"
	"github.com/rakunlabs/n8n-mcp/internal/hostclient"
	"github.com/rakunlabs/n8n-mcp/pkg/mcp"
)

func (s *Server) registerOpsTools(m *mcp.MCP) {
	m.AddTool(mcp.Tool{
		Name:        "n8n_health_check",
		Description: "Check whether the connected n8n host is reachable.",
		InputSchema: objectSchema(nil, nil),
	}, s.handleHealthCheck)

	m.AddTool(mcp.Tool{
		Name:        "n8n_diagnostic",
		Description: "Report cache stats, catalog load status, and host reachability.",
		InputSchema: objectSchema(nil, nil),
	}, s.handleDiagnostic)

	m.AddTool(mcp.Tool{
		Name:        "n8n_trigger_webhook_workflow",
		Description: "Invoke a workflow's webhook trigger directly.",
		InputSchema: objectSchema(map[string]any{
			"webhookUrl":      stringProp("Full webhook URL"),
			"httpMethod":      stringProp("HTTP method, default POST"),
			"data":            objectProp("Request payload"),
			"headers":         objectProp("Extra request headers"),
			"waitForResponse": boolProp("Wait for the workflow to finish before responding"),
		}, []string{"webhookUrl"}),
	}, s.handleTriggerWebhook)
}

func (s *Server) handleHealthCheck(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.resolveClient(ctx)
	if err != nil {
		return fail(err), nil
	}
	if err := client.HealthCheck(ctx); err != nil {
		return fail(err), nil
	}
	return ok(map[string]any{"reachable": true}), nil
}

func (s *Server) handleDiagnostic(ctx context.Context, args map[string]any) (any, error) {
	diag := map[string]any{
		"cache":       s.cache.Metrics(),
		"catalogSize": s.catalog.Count(),
	}

	client, err := s.resolveClient(ctx)
	if err != nil {
		diag["hostReachable"] = false
		diag["hostError"] = errs.SanitizedError(err)
		return ok(diag), nil
	}

	if err := client.HealthCheck(ctx); err != nil {
		diag["hostReachable"] = false
		diag["hostError"] = errs.SanitizedError(err)
	} else {
		diag["hostReachable"] = true
	}

	return ok(diag), nil
}

func (s *Server) handleTriggerWebhook(ctx context.Context, args map[string]any) (any, error) {
	url, err := requireString(args, "webhookUrl")
	if err != nil {
		return failInput([]string{err.Error()}), nil
	}
	method := argStringOr(args, "httpMethod", "POST")
	waitForResponse := argBool(args, "waitForResponse", true)

	webhook, err := hostclient.NewWebhookClient(s.cfg.WebhookMode)
	if err != nil {
		return fail(errs.Wrap(errs.KindInternal, "WEBHOOK_CLIENT_FAILED", "could not build webhook client", err)), nil
	}

	var payload any
	if data, present := args["data"]; present {
		payload = data
	}

	var headers map[string]string
	if rawHeaders, present := args["headers"].(map[string]any); present {
		headers = make(map[string]string, len(rawHeaders))
		for k, v := range rawHeaders {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	out, err := webhook.Trigger(ctx, url, method, payload, headers, waitForResponse)
	if err != nil {
		return fail(err), nil
	}
	return ok(out), nil
}
