package validate

import (
	"fmt"

	"github.com/rakunlabs/n8n-mcp/internal/catalog"
	"github.com/rakunlabs/n8n-mcp/internal/model"
)

func pass2NodeConfig(wf *model.Workflow, cat catalog.Catalog, res *model.Result) {
	for _, n := range wf.Nodes {
		if n.Disabled {
			continue
		}
		def, ok := cat.Lookup(n.Type)
		if !ok {
			// The local catalog is a partial fixture of the host's ~500
			// entries; an unrecognized type is suspicious but not
			// necessarily wrong, so it is reported softly.
			res.AddWarning(model.Finding{
				Code:     CodeUnknownNodeType,
				NodeName: n.Name,
				Message:  fmt.Sprintf("node type %q is not present in the local catalog", n.Type),
			})
			continue
		}

		params := n.Parameters
		if params == nil {
			params = map[string]any{}
		}
		cfg := effectiveConfig(def, params)

		seenCommon := map[string]bool{}
		for _, prop := range def.Properties {
			seenCommon[prop.Name] = true
			explicit, isExplicit := params[prop.Name]

			if !isVisible(prop.Display, cfg) {
				if isExplicit {
					res.AddWarning(model.Finding{
						Code:     CodeHiddenPropertySet,
						NodeName: n.Name,
						Message:  fmt.Sprintf("property %q is set but hidden by displayOptions", prop.Name),
						Details:  map[string]any{"property": prop.Name},
					})
				}
				continue
			}

			_, hasDefault := cfg[prop.Name]
			if prop.Required && !isExplicit && !hasDefault {
				res.AddError(model.Finding{
					Code:     CodeRequiredPropertyMissing,
					NodeName: n.Name,
					Message:  fmt.Sprintf("required property %q is missing", prop.Name),
					Details:  map[string]any{"property": prop.Name},
				})
				continue
			}

			if isExplicit {
				checkPropertyValue(n.Name, prop, explicit, res)
			}
		}

		for _, common := range def.CommonButAbsent {
			if _, present := params[common]; !present {
				res.AddWarning(model.Finding{
					Code:     CodeCommonPropertyAbsent,
					NodeName: n.Name,
					Message:  fmt.Sprintf("property %q is commonly set for this node type but is absent", common),
					Details:  map[string]any{"property": common},
				})
			}
		}
	}
}

// effectiveConfig merges each property's default over the node's explicit
// parameters, so that a dependent property's visibility can be evaluated
// even when the triggering property was left at its default (§4.3).
func effectiveConfig(def *catalog.NodeDefinition, params map[string]any) map[string]any {
	cfg := make(map[string]any, len(def.Properties)+len(params))
	for _, p := range def.Properties {
		if p.Default != nil {
			cfg[p.Name] = p.Default
		}
	}
	for k, v := range params {
		cfg[k] = v
	}
	return cfg
}

func isVisible(d catalog.DisplayOptions, cfg map[string]any) bool {
	for key, allowed := range d.Show {
		v, ok := cfg[key]
		if !ok || !containsValue(allowed, v) {
			return false
		}
	}
	for key, blocked := range d.Hide {
		if v, ok := cfg[key]; ok && containsValue(blocked, v) {
			return false
		}
	}
	return true
}

func containsValue(set []any, v any) bool {
	for _, c := range set {
		if fmt.Sprint(c) == fmt.Sprint(v) {
			return true
		}
	}
	return false
}

func checkPropertyValue(nodeName string, prop catalog.Property, value any, res *model.Result) {
	switch prop.Type {
	case catalog.PropOptions:
		if len(prop.Options) > 0 && !containsValue(prop.Options, value) {
			res.AddError(model.Finding{
				Code:     CodeInvalidOptionValue,
				NodeName: nodeName,
				Message:  fmt.Sprintf("property %q has value %v, not in the declared option set", prop.Name, value),
				Details:  map[string]any{"property": prop.Name, "value": value, "options": prop.Options},
			})
		}
	case catalog.PropNumber:
		num, ok := toFloat(value)
		if !ok {
			res.AddError(model.Finding{
				Code:     CodeTypeMismatch,
				NodeName: nodeName,
				Message:  fmt.Sprintf("property %q must be a number", prop.Name),
				Details:  map[string]any{"property": prop.Name},
			})
			return
		}
		if prop.Min != nil && num < *prop.Min {
			res.AddError(model.Finding{
				Code:     CodeOutOfRange,
				NodeName: nodeName,
				Message:  fmt.Sprintf("property %q value %v is below minimum %v", prop.Name, num, *prop.Min),
			})
		}
		if prop.Max != nil && num > *prop.Max {
			res.AddError(model.Finding{
				Code:     CodeOutOfRange,
				NodeName: nodeName,
				Message:  fmt.Sprintf("property %q value %v is above maximum %v", prop.Name, num, *prop.Max),
			})
		}
	case catalog.PropBoolean:
		if _, ok := value.(bool); !ok {
			res.AddError(model.Finding{
				Code:     CodeTypeMismatch,
				NodeName: nodeName,
				Message:  fmt.Sprintf("property %q must be a boolean", prop.Name),
			})
		}
	case catalog.PropString:
		if _, ok := value.(string); !ok {
			res.AddError(model.Finding{
				Code:     CodeTypeMismatch,
				NodeName: nodeName,
				Message:  fmt.Sprintf("property %q must be a string", prop.Name),
			})
		}
	case catalog.PropArray:
		if _, ok := value.([]any); !ok {
			res.AddError(model.Finding{
				Code:     CodeTypeMismatch,
				NodeName: nodeName,
				Message:  fmt.Sprintf("property %q must be an array", prop.Name),
			})
		}
	case catalog.PropObject:
		if _, ok := value.(map[string]any); !ok {
			res.AddError(model.Finding{
				Code:     CodeTypeMismatch,
				NodeName: nodeName,
				Message:  fmt.Sprintf("property %q must be an object", prop.Name),
			})
		}
	case catalog.PropResourceLocator:
		checkResourceLocator(nodeName, prop, value, res)
	}
}

func checkResourceLocator(nodeName string, prop catalog.Property, value any, res *model.Result) {
	m, ok := value.(map[string]any)
	if !ok {
		res.AddError(model.Finding{
			Code:     CodeInvalidResourceLocator,
			NodeName: nodeName,
			Message:  fmt.Sprintf(`property %q is a bare value; use {mode: "list"/"id", value: ...}`, prop.Name),
			Details:  map[string]any{"property": prop.Name},
		})
		return
	}
	mode, hasMode := m["mode"]
	_, hasValue := m["value"]
	if !hasMode || !hasValue {
		res.AddError(model.Finding{
			Code:     CodeInvalidResourceLocator,
			NodeName: nodeName,
			Message:  fmt.Sprintf("property %q resource locator must have both mode and value", prop.Name),
		})
		return
	}
	if len(prop.ResourceLocatorModes) > 0 {
		modeStr, _ := mode.(string)
		allowed := false
		for _, m := range prop.ResourceLocatorModes {
			if m == modeStr {
				allowed = true
				break
			}
		}
		if !allowed {
			res.AddError(model.Finding{
				Code:     CodeInvalidResourceLocator,
				NodeName: nodeName,
				Message:  fmt.Sprintf("property %q mode %q is not one of %v", prop.Name, modeStr, prop.ResourceLocatorModes),
			})
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
