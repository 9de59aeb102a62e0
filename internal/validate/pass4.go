package validate

import (
	"fmt"

	"github.com/rakunlabs/n8n-mcp/internal/expression"
	"github.com/rakunlabs/n8n-mcp/internal/model"
)

func pass4Expressions(wf *model.Workflow, res *model.Result) {
	for _, n := range wf.Nodes {
		if n.Disabled || n.Parameters == nil {
			continue
		}
		issues := expression.Scan(n.Name, n.Parameters)
		res.Statistics.ExpressionsValidated += len(issues)
		for _, issue := range issues {
			f := model.Finding{
				Code:       CodeExpressionFormat,
				NodeName:   n.Name,
				Message:    fmt.Sprintf("parameter %q: %s", issue.Path, expressionMessage(issue)),
				Confidence: issue.Confidence,
				Details: map[string]any{
					"path":           issue.Path,
					"classification": string(issue.Class),
				},
			}
			if issue.SuggestedFix != "" {
				f.Details["suggestedFix"] = issue.SuggestedFix
			}
			if issue.Class == expression.Malformed {
				res.AddError(f)
			} else {
				res.AddWarning(f)
			}
		}
	}
}

func expressionMessage(issue expression.Issue) string {
	switch issue.Class {
	case expression.MissingEqualsPrefix:
		return "contains a template but is missing the leading \"=\""
	case expression.SuperfluousEqualsPrefix:
		return `has a leading "=" but no {{ }} template`
	case expression.Malformed:
		return "has unbalanced {{ }} markers"
	default:
		return "expression format issue"
	}
}
