package validate

import (
	"fmt"

	"github.com/rakunlabs/n8n-mcp/internal/model"
)

var validKinds = map[model.ConnectionKind]bool{
	model.KindMain:            true,
	model.KindAITool:          true,
	model.KindAILanguageModel: true,
	model.KindAIMemory:        true,
	model.KindAIOutputParser:  true,
	model.KindAIChain:         true,
}

func pass3Connections(wf *model.Workflow, res *model.Result) {
	if len(wf.Nodes) > 1 && len(wf.Connections) == 0 {
		res.AddError(model.Finding{
			Code: CodeEmptyConnections,
			Message: `workflow has more than one node but no connections; ` +
				`expected e.g. {"Start": {"main": [[{"node":"HTTP Request","type":"main","index":0}]]}}`,
		})
		return
	}

	names := make(map[string]bool, len(wf.Nodes))
	idToName := make(map[string]string, len(wf.Nodes))
	nameList := make([]string, 0, len(wf.Nodes))
	for _, n := range wf.Nodes {
		names[n.Name] = true
		idToName[n.ID] = n.Name
		nameList = append(nameList, n.Name)
	}

	resolve := func(token string) (valid bool, finding *model.Finding) {
		if names[token] {
			return true, nil
		}
		if name, ok := idToName[token]; ok {
			return false, &model.Finding{
				Code:    CodeEndpointIsID,
				Message: fmt.Sprintf("connection references node id %q; use its name %q instead", token, name),
				Details: map[string]any{"id": token, "name": name},
			}
		}
		suggestion := closestName(token, nameList)
		f := &model.Finding{
			Code:    CodeUnknownEndpointName,
			Message: fmt.Sprintf("connection references unknown node %q", token),
		}
		if suggestion != "" {
			f.Message += fmt.Sprintf("; did you mean %q?", suggestion)
			f.Details = map[string]any{"suggestedName": suggestion}
		}
		return false, f
	}

	valid := 0
	invalid := 0
	for source, byKind := range wf.Connections {
		if ok, f := resolve(source); !ok {
			invalid++
			res.AddError(*f)
		}
		for kind, slots := range byKind {
			if !validKinds[kind] {
				invalid++
				res.AddError(model.Finding{
					Code:    CodeInvalidConnectionKind,
					Message: fmt.Sprintf("source %q has connections of unknown kind %q", source, kind),
				})
				continue
			}
			for _, slot := range slots {
				for _, ep := range slot {
					if ok, f := resolve(ep.TargetName); !ok {
						invalid++
						res.AddError(*f)
						continue
					}
					valid++
				}
			}
		}
	}
	res.Statistics.ValidConnections = valid
	res.Statistics.InvalidConnections = invalid
}
