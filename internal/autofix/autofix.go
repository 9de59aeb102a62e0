// Package autofix implements the Auto-Fixer (C5): it translates Validator
// (C2) and Expression-Format Validator (C4) findings into Diff-Engine (C1)
// operations, at a caller-configurable confidence threshold. It never
// applies anything itself in preview mode; commit mode hands the computed
// batch to diffengine.Apply in atomic mode.
package autofix

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rakunlabs/n8n-mcp/internal/catalog"
	"github.com/rakunlabs/n8n-mcp/internal/diffengine"
	"github.com/rakunlabs/n8n-mcp/internal/expression"
	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/normalize"
	"github.com/rakunlabs/n8n-mcp/internal/validate"
)

// FixType names one of the fix families this component knows how to
// produce. The zero value of FixTypes (nil) means "all types allowed".
type FixType string

const (
	FixExpressionFormat     FixType = "expression-format"
	FixTypeVersionCorrection FixType = "typeversion-correction"
	FixErrorOutputConfig    FixType = "error-output-config"
	FixNodeTypeCorrection   FixType = "node-type-correction"
	FixWebhookMissingPath   FixType = "webhook-missing-path"
)

// Confidence mirrors the three-level scale used throughout the validator
// and expression classifier.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

var confidenceRank = map[Confidence]int{
	ConfidenceLow:    0,
	ConfidenceMedium: 1,
	ConfidenceHigh:   2,
}

// meets reports whether c is at least as strong as threshold.
func (c Confidence) meets(threshold Confidence) bool {
	return confidenceRank[c] >= confidenceRank[threshold]
}

// Options configures a Run. ApplyFixes selects preview vs commit; FixTypes,
// if non-nil, restricts which fix families are considered; MaxFixes caps
// the number of operations produced (0 = unlimited).
type Options struct {
	ApplyFixes          bool
	FixTypes            []FixType
	ConfidenceThreshold Confidence
	MaxFixes            int
}

// DefaultOptions returns the permissive preview configuration: every fix
// type, medium confidence or better, no cap.
func DefaultOptions() Options {
	return Options{
		ApplyFixes:          false,
		ConfidenceThreshold: ConfidenceMedium,
	}
}

// Fix is one proposed (or, in commit mode, applied) correction.
type Fix struct {
	Type       FixType             `json:"type"`
	NodeName   string              `json:"nodeName,omitempty"`
	Confidence Confidence          `json:"confidence"`
	Reason     string              `json:"reason"`
	Operation  model.DiffOperation `json:"operation"`
}

// Result is the outcome of a Run.
type Result struct {
	Fixes     []Fix              `json:"fixes"`
	Skipped   int                `json:"skipped"` // findings that matched a rule but fell below threshold, cap, or allowlist
	Applied   bool               `json:"applied"`
	Workflow  *model.Workflow    `json:"workflow,omitempty"` // only set when Applied
	ApplyInfo *model.ApplyResult `json:"applyInfo,omitempty"`
}

func (o Options) allows(t FixType) bool {
	if len(o.FixTypes) == 0 {
		return true
	}
	for _, ft := range o.FixTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// Run computes fixes for wf given a prior validation result, a prior
// expression scan (one slice of issues per node, pre-computed by the
// caller via expression.Scan, or nil to let Run compute it itself), and the
// catalog used to check typeVersion minimums. In commit mode the computed
// operations are handed to diffengine.Apply in atomic mode and the
// resulting workflow is returned; in preview mode Workflow/ApplyInfo are
// left nil.
func Run(wf *model.Workflow, vr *model.Result, cat catalog.Catalog, opts Options) *Result {
	if opts.ConfidenceThreshold == "" {
		opts.ConfidenceThreshold = ConfidenceMedium
	}

	res := &Result{}
	consider := func(f Fix) {
		if !opts.allows(f.Type) || !f.Confidence.meets(opts.ConfidenceThreshold) {
			res.Skipped++
			return
		}
		if opts.MaxFixes > 0 && len(res.Fixes) >= opts.MaxFixes {
			res.Skipped++
			return
		}
		res.Fixes = append(res.Fixes, f)
	}

	for _, f := range expressionFixes(wf) {
		consider(f)
	}
	for _, f := range webhookPathFixes(wf) {
		consider(f)
	}
	if cat != nil {
		for _, f := range typeVersionFixes(wf, cat) {
			consider(f)
		}
	}
	if vr != nil {
		for _, f := range nodeTypeCorrectionFixes(vr) {
			consider(f)
		}
	}
	for _, f := range errorOutputFixes(wf) {
		consider(f)
	}

	if !opts.ApplyFixes || len(res.Fixes) == 0 {
		return res
	}

	ops := make([]model.DiffOperation, len(res.Fixes))
	for i, f := range res.Fixes {
		ops[i] = f.Operation
	}
	applyRes := diffengine.Apply(wf, ops, model.ModeAtomic)
	res.Applied = applyRes.FailedIndex == -1
	res.Workflow = applyRes.Workflow
	res.ApplyInfo = applyRes
	return res
}

// expressionFixes re-scans every enabled node's parameters with C4 and
// emits an updateNode per non-correct classification, mirroring C4's own
// confidence label.
func expressionFixes(wf *model.Workflow) []Fix {
	var fixes []Fix
	for _, n := range wf.Nodes {
		if n.Disabled {
			continue
		}
		for _, issue := range expression.Scan(n.Name, n.Parameters) {
			if issue.Class == expression.Correct {
				continue
			}
			if issue.SuggestedFix == "" {
				continue // malformed values with no safe mechanical fix are surfaced, not auto-fixed
			}
			conf := confidenceFromExpressionIssue(issue)
			fixes = append(fixes, Fix{
				Type:       FixExpressionFormat,
				NodeName:   n.Name,
				Confidence: conf,
				Reason:     fmt.Sprintf("parameter %q at %s: %s", issue.Path, issue.Path, classificationReason(issue.Class)),
				Operation: model.DiffOperation{
					Kind:     model.OpUpdateNode,
					NodeName: n.Name,
					Patch:    pathPatch(issue.Path, issue.SuggestedFix),
				},
			})
		}
	}
	return fixes
}

func confidenceFromExpressionIssue(issue expression.Issue) Confidence {
	switch issue.Confidence {
	case "high":
		return ConfidenceHigh
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

func classificationReason(c expression.Classification) string {
	switch c {
	case expression.MissingEqualsPrefix:
		return "template present but missing the = prefix the host requires to evaluate it"
	case expression.SuperfluousEqualsPrefix:
		return "= prefix present but no template expression follows it"
	default:
		return "expression value does not parse cleanly"
	}
}

// pathPatch builds the nested parameters.<path> patch object updateNode
// expects from a dotted/bracketed expression.Issue.Path.
func pathPatch(path string, value string) map[string]any {
	keys := splitPath(path)
	if len(keys) == 0 {
		return map[string]any{"parameters": map[string]any{}}
	}
	var leaf any = value
	for i := len(keys) - 1; i >= 1; i-- {
		leaf = map[string]any{keys[i]: leaf}
	}
	return map[string]any{"parameters": map[string]any{keys[0]: leaf}}
}

// splitPath reverses the join logic in expression.Scan: dotted segments and
// bracketed array indices both become path components for pathPatch's
// purposes (the diff engine's deep-merge only ever needs the leading map
// keys; trailing array-index components are dropped since updateNode's
// merge does not address into arrays).
func splitPath(path string) []string {
	var out []string
	cur := ""
	for _, r := range path {
		switch r {
		case '.':
			if cur != "" {
				out = append(out, cur)
			}
			cur = ""
		case '[':
			if cur != "" {
				out = append(out, cur)
			}
			cur = ""
			return out // stop before the index; arrays aren't merge targets
		default:
			cur += string(r)
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// webhookPathFixes covers the "webhook-missing-path" rule: a webhook
// trigger node with no parameters.path gets a fresh v4 UUID.
func webhookPathFixes(wf *model.Workflow) []Fix {
	var fixes []Fix
	for _, n := range wf.Nodes {
		if n.Disabled || normalize.Type(n.Type) != "webhook" {
			continue
		}
		if p, ok := n.Parameters["path"].(string); ok && p != "" {
			continue
		}
		path := uuid.NewString()
		fixes = append(fixes, Fix{
			Type:       FixWebhookMissingPath,
			NodeName:   n.Name,
			Confidence: ConfidenceHigh,
			Reason:     "webhook trigger has no parameters.path; generated a fresh one",
			Operation: model.DiffOperation{
				Kind:     model.OpUpdateNode,
				NodeName: n.Name,
				Patch: map[string]any{
					"parameters": map[string]any{"path": path},
				},
			},
		})
	}
	return fixes
}

// typeVersionFixes raises a node's typeVersion to the catalog's declared
// minimum when it falls below it.
func typeVersionFixes(wf *model.Workflow, cat catalog.Catalog) []Fix {
	var fixes []Fix
	for _, n := range wf.Nodes {
		if n.Disabled {
			continue
		}
		def, ok := cat.Lookup(n.Type)
		if !ok || def.MinTypeVersion <= 0 {
			continue
		}
		if n.TypeVersion >= def.MinTypeVersion {
			continue
		}
		fixes = append(fixes, Fix{
			Type:       FixTypeVersionCorrection,
			NodeName:   n.Name,
			Confidence: ConfidenceMedium,
			Reason: fmt.Sprintf("typeVersion %v is below the catalog minimum %v for %q",
				n.TypeVersion, def.MinTypeVersion, def.Type),
			Operation: model.DiffOperation{
				Kind:     model.OpUpdateNode,
				NodeName: n.Name,
				Patch:    map[string]any{"typeVersion": def.MinTypeVersion},
			},
		})
	}
	return fixes
}

// nodeTypeCorrectionFixes reads Pass-1 "wrong prefix" structure findings
// out of a prior validation result. validate.checkTypePrefix records the
// canonical type it derived in Details["suggestedType"] for exactly this
// purpose.
func nodeTypeCorrectionFixes(vr *model.Result) []Fix {
	var fixes []Fix
	for _, findings := range [][]model.Finding{vr.Errors, vr.Warnings} {
		for _, f := range findings {
			if f.Code != validate.CodeInvalidTypePrefix || f.NodeName == "" {
				continue
			}
			canonical, _ := f.Details["suggestedType"].(string)
			if canonical == "" {
				continue
			}
			fixes = append(fixes, Fix{
				Type:       FixNodeTypeCorrection,
				NodeName:   f.NodeName,
				Confidence: ConfidenceHigh,
				Reason:     fmt.Sprintf("%s; correcting to %q", f.Message, canonical),
				Operation: model.DiffOperation{
					Kind:     model.OpUpdateNode,
					NodeName: f.NodeName,
					Patch:    map[string]any{"type": canonical},
				},
			})
		}
	}
	return fixes
}

// errorOutputFixes flags nodes configured with onError:"continueErrorOutput"
// but no outgoing error-kind connection. Unlike the other fix types this
// one cannot safely choose a target to rewire to, so it is surfaced at low
// confidence with no operation a caller would want auto-applied without
// review; the operation is a no-op updateNode of the node's own notes,
// carrying the recommendation text, rather than a structural change.
func errorOutputFixes(wf *model.Workflow) []Fix {
	var fixes []Fix
	for _, n := range wf.Nodes {
		if n.Disabled || n.OnError != "continueErrorOutput" {
			continue
		}
		if hasErrorOutputConnection(wf, n.Name) {
			continue
		}
		fixes = append(fixes, Fix{
			Type:       FixErrorOutputConfig,
			NodeName:   n.Name,
			Confidence: ConfidenceLow,
			Reason:     fmt.Sprintf("node %q sets onError=continueErrorOutput but has no error-output connection wired", n.Name),
			Operation: model.DiffOperation{
				Kind:     model.OpUpdateNode,
				NodeName: n.Name,
				Patch: map[string]any{
					"notes": "TODO: wire an error-output connection; onError=continueErrorOutput has no receiving branch",
				},
			},
		})
	}
	return fixes
}

func hasErrorOutputConnection(wf *model.Workflow, source string) bool {
	byKind, ok := wf.Connections[source]
	if !ok {
		return false
	}
	for _, slots := range byKind[model.KindMain] {
		if len(slots) > 1 {
			return true // a second main slot on an error-capable node is conventionally the error branch
		}
	}
	return false
}
