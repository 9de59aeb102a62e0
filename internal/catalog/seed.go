package catalog

// Seed returns a fixture catalog covering the node types exercised by the
// validator's test suite and by the tool-dispatch layer's examples: two
// triggers (manual, webhook), a branching node (if), a multi-case node
// (switch), an HTTP call, a code node, a set node, and the three AI-subgraph
// node shapes (agent, chat model, tool). This stands in for the ~500-entry
// catalog the host actually ships (§1 Non-goals: building that catalog is
// out of scope here).
func Seed() []NodeDefinition {
	return []NodeDefinition{
		{
			Type:        "manualTrigger",
			DisplayName: "Manual Trigger",
			IsTrigger:   true,
			Properties:  nil,
		},
		{
			Type:             "webhook",
			DisplayName:      "Webhook",
			IsTrigger:        true,
			IsWebhookTrigger: true,
			Properties: []Property{
				{Name: "path", Type: PropString, Required: true},
				{Name: "httpMethod", Type: PropOptions, Default: "GET",
					Options: []any{"GET", "POST", "PUT", "DELETE", "PATCH"}},
				{Name: "responseMode", Type: PropOptions, Default: "onReceived",
					Options: []any{"onReceived", "lastNode", "responseNode"}},
			},
		},
		{
			Type:        "chatTrigger",
			DisplayName: "Chat Trigger",
			IsTrigger:   true,
			Properties: []Property{
				{Name: "mode", Type: PropOptions, Default: "webhook",
					Options: []any{"webhook", "hostedChat"}},
			},
		},
		{
			Type:        "if",
			DisplayName: "If",
			Properties: []Property{
				{Name: "conditions", Type: PropObject, Required: true},
			},
		},
		{
			Type:        "switch",
			DisplayName: "Switch",
			Properties: []Property{
				{Name: "mode", Type: PropOptions, Default: "rules",
					Options: []any{"rules", "expression"}},
				{Name: "rules", Type: PropArray,
					Display: DisplayOptions{Show: map[string][]any{"mode": {"rules"}}}},
				{Name: "numberOutputs", Type: PropNumber, Default: 4,
					Display: DisplayOptions{Show: map[string][]any{"mode": {"expression"}}}},
			},
		},
		{
			Type:        "httpRequest",
			DisplayName: "HTTP Request",
			Properties: []Property{
				{Name: "url", Type: PropString, Required: true},
				{Name: "method", Type: PropOptions, Default: "GET",
					Options: []any{"GET", "POST", "PUT", "PATCH", "DELETE"}},
				{Name: "authentication", Type: PropOptions, Default: "none",
					Options: []any{"none", "genericCredentialType", "predefinedCredentialType"}},
				{Name: "sendBody", Type: PropBoolean, Default: false},
				{Name: "body", Type: PropObject,
					Display: DisplayOptions{Show: map[string][]any{"sendBody": {true}}}},
			},
		},
		{
			Type:        "code",
			DisplayName: "Code",
			Properties: []Property{
				{Name: "language", Type: PropOptions, Default: "javaScript",
					Options: []any{"javaScript", "python"}},
				{Name: "jsCode", Type: PropString,
					Display: DisplayOptions{Show: map[string][]any{"language": {"javaScript"}}}},
				{Name: "pythonCode", Type: PropString,
					Display: DisplayOptions{Show: map[string][]any{"language": {"python"}}}},
			},
		},
		{
			Type:        "set",
			DisplayName: "Edit Fields",
			Properties: []Property{
				{Name: "assignments", Type: PropObject, Required: true},
			},
		},
		{
			Type:        "agent",
			DisplayName: "AI Agent",
			IsAITool:    true,
			Properties: []Property{
				{Name: "promptType", Type: PropOptions, Default: "define",
					Options: []any{"auto", "define"}},
				{Name: "text", Type: PropString,
					Display: DisplayOptions{Show: map[string][]any{"promptType": {"define"}}}},
			},
		},
		{
			Type:        "lmChatOpenAi",
			DisplayName: "OpenAI Chat Model",
			IsAITool:    true,
			Properties: []Property{
				{Name: "model", Type: PropString, Default: "gpt-4o-mini"},
			},
		},
		{
			Type:        "toolHttpRequest",
			DisplayName: "HTTP Request Tool",
			IsAITool:    true,
			Properties: []Property{
				{Name: "url", Type: PropString, Required: true},
				{Name: "toolDescription", Type: PropString, Required: true},
			},
		},
	}
}
