package validate

import (
	"fmt"
	"strings"

	"github.com/rakunlabs/n8n-mcp/internal/catalog"
	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/normalize"
)

// Options controls which passes run and how strictly findings are
// interpreted (§4.3).
type Options struct {
	ValidateNodes       bool
	ValidateConnections bool
	ValidateExpressions bool
	Profile             model.Profile
}

// DefaultOptions matches the host's "ai-friendly" default: all passes run,
// a small set of noisy warnings are relaxed.
func DefaultOptions() Options {
	return Options{
		ValidateNodes:       true,
		ValidateConnections: true,
		ValidateExpressions: true,
		Profile:             model.ProfileAIFriendly,
	}
}

// Validate runs the fixed-order pass pipeline over wf and returns the
// aggregated result. cat may be nil only if opts.ValidateNodes is false.
func Validate(wf *model.Workflow, cat catalog.Catalog, opts Options) *model.Result {
	res := model.NewResult()
	res.Statistics.TotalNodes = len(wf.Nodes)
	for _, n := range wf.Nodes {
		if !n.Disabled {
			res.Statistics.EnabledNodes++
		}
	}

	pass1Structure(wf, res)

	if opts.ValidateNodes && cat != nil {
		pass2NodeConfig(wf, cat, res)
	}

	if opts.ValidateConnections {
		pass3Connections(wf, res)
	}

	if opts.ValidateExpressions {
		pass4Expressions(wf, res)
	}

	pass5AISubgraph(wf, cat, res)

	applyProfile(res, opts.Profile)
	return res
}

// applyProfile post-processes findings according to the strictness knob.
// "strict" promotes every warning to an error for CI gating; other
// profiles leave the error/warning split from the passes untouched.
func applyProfile(res *model.Result, profile model.Profile) {
	if profile != model.ProfileStrict {
		return
	}
	for _, w := range res.Warnings {
		res.AddError(w)
	}
	res.Warnings = nil
}

func pass1Structure(wf *model.Workflow, res *model.Result) {
	if strings.TrimSpace(wf.Name) == "" {
		res.AddError(model.Finding{
			Code:    CodeEmptyName,
			Message: "workflow name must not be empty",
		})
	}

	if len(wf.Nodes) == 0 {
		res.AddError(model.Finding{
			Code:    CodeNoNodes,
			Message: "workflow must contain at least one node",
		})
		return
	}

	if wf.Connections == nil {
		res.AddError(model.Finding{
			Code:    CodeMissingConnections,
			Message: "workflow is missing a connections map",
		})
	}

	if len(wf.Nodes) == 1 {
		n := wf.Nodes[0]
		if normalize.Type(n.Type) != "webhook" {
			res.AddError(model.Finding{
				Code:     CodeSingleNodeNotWebhook,
				NodeName: n.Name,
				Message:  "a single-node workflow is only valid when that node is a webhook trigger",
			})
		}
	}

	for _, n := range wf.Nodes {
		checkTypePrefix(n, res)
	}
}

func checkTypePrefix(n model.Node, res *model.Result) {
	t := n.Type
	if strings.HasPrefix(t, ".") {
		res.AddError(model.Finding{
			Code:     CodeNoTypePrefix,
			NodeName: n.Name,
			Message:  fmt.Sprintf("node type %q has an empty vendor prefix", t),
		})
		return
	}
	if strings.Contains(t, ".") && !normalize.HasKnownPrefix(t) {
		canonical := t[strings.LastIndex(t, ".")+1:]
		res.AddError(model.Finding{
			Code:     CodeInvalidTypePrefix,
			NodeName: n.Name,
			Message:  fmt.Sprintf("node type %q uses an unrecognized prefix; did you mean %q?", t, canonical),
			Details:  map[string]any{"suggestedType": canonical},
		})
	}
}
