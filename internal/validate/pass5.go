package validate

import (
	"fmt"

	"github.com/rakunlabs/n8n-mcp/internal/catalog"
	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/normalize"
)

// agentLikeTypes and chainLikeTypes are the short-form node types the
// AI-subgraph rules key off. The host's actual catalog carries more, but
// these are the ones the concrete scenarios in the tool surface exercise.
var (
	agentTypes = map[string]bool{"agent": true}
	chainTypes = map[string]bool{"chainLlm": true}
	modelTypes = map[string]bool{
		"lmChatOpenAi": true,
	}
)

// toolValidators dispatches per-tool-type required-parameter checks for
// AI tool sub-nodes (§4.3 Pass 5, "AI tool sub-nodes").
var toolValidators = map[string]func(n model.Node, res *model.Result){
	"toolHttpRequest": func(n model.Node, res *model.Result) {
		requireParam(n, "url", res)
		requireParam(n, "toolDescription", res)
	},
	"toolCode": func(n model.Node, res *model.Result) {
		requireParam(n, "toolDescription", res)
	},
	"toolWorkflow": func(n model.Node, res *model.Result) {
		requireParam(n, "workflowId", res)
		requireParam(n, "toolDescription", res)
	},
	"toolVectorStore": func(n model.Node, res *model.Result) {
		requireParam(n, "toolDescription", res)
	},
	"calculator": func(n model.Node, res *model.Result) {},
}

func requireParam(n model.Node, name string, res *model.Result) {
	if n.Parameters == nil {
		res.AddError(toolMissingParam(n, name))
		return
	}
	if v, ok := n.Parameters[name]; !ok || v == "" {
		res.AddError(toolMissingParam(n, name))
	}
}

func toolMissingParam(n model.Node, name string) model.Finding {
	return model.Finding{
		Code:     CodeToolMissingParameter,
		NodeName: n.Name,
		Message:  fmt.Sprintf("tool node %q is missing required parameter %q", n.Name, name),
		Details:  map[string]any{"parameter": name},
	}
}

// edgeCounts tallies, per target node name, how many sources connect to it
// under a given connection kind. For the ai_* kinds the edge's source is
// the contributing sub-node (language model, memory, tool) and the target
// is the agent or chain it serves (§3 "Reversed AI edges").
func edgeCounts(wf *model.Workflow, kind model.ConnectionKind) map[string]int {
	counts := make(map[string]int)
	for _, byKind := range wf.Connections {
		slots, ok := byKind[kind]
		if !ok {
			continue
		}
		for _, slot := range slots {
			for _, ep := range slot {
				counts[ep.TargetName]++
			}
		}
	}
	return counts
}

func hasMainOutput(wf *model.Workflow, sourceName string) bool {
	byKind, ok := wf.Connections[sourceName]
	if !ok {
		return false
	}
	for _, slot := range byKind[model.KindMain] {
		if len(slot) > 0 {
			return true
		}
	}
	return false
}

func mainTargets(wf *model.Workflow, sourceName string) []string {
	var out []string
	byKind, ok := wf.Connections[sourceName]
	if !ok {
		return out
	}
	for _, slot := range byKind[model.KindMain] {
		for _, ep := range slot {
			out = append(out, ep.TargetName)
		}
	}
	return out
}

func pass5AISubgraph(wf *model.Workflow, cat catalog.Catalog, res *model.Result) {
	languageModelInto := edgeCounts(wf, model.KindAILanguageModel)
	memoryInto := edgeCounts(wf, model.KindAIMemory)
	toolInto := edgeCounts(wf, model.KindAITool)

	for _, n := range wf.Nodes {
		if n.Disabled {
			continue
		}
		normType := normalize.Type(n.Type)

		switch {
		case agentTypes[normType]:
			checkAgent(wf, n, languageModelInto, memoryInto, res)
		case chainTypes[normType]:
			checkChain(n, languageModelInto, memoryInto, toolInto, res)
		case modelTypes[normType]:
			// Model nodes are pure providers; nothing to validate here.
		default:
			if cat != nil {
				if def, ok := cat.Lookup(n.Type); ok && def.IsAITool {
					checkToolNode(normType, n, res)
				}
			}
		}
	}

	checkStreamingTriggers(wf, res)
}

func checkAgent(wf *model.Workflow, n model.Node, languageModelInto, memoryInto map[string]int, res *model.Result) {
	lmCount := languageModelInto[n.Name]
	if lmCount == 0 {
		res.AddError(model.Finding{
			Code:     CodeMissingLanguageModel,
			NodeName: n.Name,
			Message:  fmt.Sprintf("agent %q has no language model input", n.Name),
		})
	} else if lmCount > 2 {
		res.AddError(model.Finding{
			Code:     CodeTooManyLanguageModels,
			NodeName: n.Name,
			Message:  fmt.Sprintf("agent %q has %d language model inputs; at most 2 are allowed (primary + fallback)", n.Name, lmCount),
		})
	}

	if memoryInto[n.Name] > 1 {
		res.AddError(model.Finding{
			Code:     CodeTooManyMemories,
			NodeName: n.Name,
			Message:  fmt.Sprintf("agent %q has %d memory inputs; at most 1 is allowed", n.Name, memoryInto[n.Name]),
		})
	}

	streamOpt, _ := n.Parameters["options"].(map[string]any)
	if streamOpt != nil {
		if v, _ := streamOpt["streamResponse"].(bool); v && hasMainOutput(wf, n.Name) {
			res.AddError(model.Finding{
				Code:     CodeStreamingWithMainOutput,
				NodeName: n.Name,
				Message:  fmt.Sprintf("agent %q streams its response but also has a main output connection", n.Name),
			})
		}
	}
}

func checkChain(n model.Node, languageModelInto, memoryInto, toolInto map[string]int, res *model.Result) {
	if languageModelInto[n.Name] != 1 {
		res.AddError(model.Finding{
			Code:     CodeChainRequiresOneLLM,
			NodeName: n.Name,
			Message:  fmt.Sprintf("basic LLM chain %q requires exactly 1 language model, has %d", n.Name, languageModelInto[n.Name]),
		})
	}
	if toolInto[n.Name] > 0 {
		res.AddError(model.Finding{
			Code:     CodeChainNoTools,
			NodeName: n.Name,
			Message:  fmt.Sprintf("basic LLM chain %q must not have tool inputs", n.Name),
		})
	}
	if memoryInto[n.Name] > 1 {
		res.AddError(model.Finding{
			Code:     CodeTooManyMemories,
			NodeName: n.Name,
			Message:  fmt.Sprintf("basic LLM chain %q has %d memory inputs; at most 1 is allowed", n.Name, memoryInto[n.Name]),
		})
	}
}

func checkToolNode(normType string, n model.Node, res *model.Result) {
	v, ok := toolValidators[normType]
	if !ok {
		res.AddWarning(model.Finding{
			Code:     CodeUnknownToolType,
			NodeName: n.Name,
			Message:  fmt.Sprintf("node type %q is marked as an AI tool but has no dedicated validator", n.Name),
		})
		return
	}
	v(n, res)
}

func checkStreamingTriggers(wf *model.Workflow, res *model.Result) {
	for _, n := range wf.Nodes {
		if n.Disabled || normalize.Type(n.Type) != "chatTrigger" {
			continue
		}
		mode, _ := n.Parameters["responseMode"].(string)
		if mode != "streaming" {
			continue
		}
		targets := mainTargets(wf, n.Name)
		for _, targetName := range targets {
			target := wf.NodeByName(targetName)
			if target == nil {
				continue
			}
			if !agentTypes[normalize.Type(target.Type)] {
				res.AddError(model.Finding{
					Code:     CodeStreamingWrongTarget,
					NodeName: n.Name,
					Message:  fmt.Sprintf("chat trigger %q streams but targets %q, which is not an agent", n.Name, targetName),
				})
				continue
			}
			if hasMainOutput(wf, targetName) {
				res.AddError(model.Finding{
					Code:     CodeStreamingWithMainOutput,
					NodeName: targetName,
					Message:  fmt.Sprintf("agent %q is driven by a streaming chat trigger but also has a main output connection", targetName),
				})
			}
		}
	}
}
