// Package model holds the data types shared by the diff engine, the
// validator, and the REST client: the workflow document itself, its
// connection graph, settings, and the envelopes used to report validation
// and diff results back to a caller.
package model

// ConnectionKind labels an edge in a workflow's connection graph. "main" is
// ordinary data flow; the ai_* kinds are modelled in the host's wire
// direction, which for some kinds is the reverse of data flow (see Endpoint).
type ConnectionKind string

const (
	KindMain             ConnectionKind = "main"
	KindAITool           ConnectionKind = "ai_tool"
	KindAILanguageModel  ConnectionKind = "ai_languageModel"
	KindAIMemory         ConnectionKind = "ai_memory"
	KindAIOutputParser   ConnectionKind = "ai_outputParser"
	KindAIChain          ConnectionKind = "ai_chain"
)

// Node is a single node in a workflow graph.
type Node struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	TypeVersion float64        `json:"typeVersion"`
	Position    [2]float64     `json:"position"`
	Parameters  map[string]any `json:"parameters"`
	Credentials map[string]any `json:"credentials,omitempty"`
	Disabled    bool           `json:"disabled,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	OnError     string         `json:"onError,omitempty"`
	RetryOnFail bool           `json:"retryOnFail,omitempty"`
}

// Endpoint is one target of a connection. Kind and TargetIndex describe the
// receiving port on TargetName; for non-main kinds the wire direction the
// host expects can be the reverse of data flow (e.g. a language-model node's
// edge points *to* the agent it serves) — the diff engine and validator must
// preserve this as-is rather than "fixing" it.
type Endpoint struct {
	TargetName string         `json:"node"`
	Kind       ConnectionKind `json:"type"`
	TargetIndex int           `json:"index"`
}

// OutputSlot is the ordered set of endpoints wired to one output port of a
// node. For multi-output nodes (conditional true/false, switch cases) the
// position of a slot in the outer array is semantically significant and must
// never be re-packed — see Connections.
type OutputSlot []Endpoint

// SourceOutputs holds, for a single source node, every connection kind it
// emits and, per kind, the ordered array of output slots.
type SourceOutputs map[ConnectionKind][]OutputSlot

// Connections is keyed by source node name. It is the canonical
// representation of a workflow's edges; all endpoints reference node names,
// never node ids.
type Connections map[string]SourceOutputs

// Workflow is the full document the diff engine mutates and the validator
// inspects.
type Workflow struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Nodes       []Node      `json:"nodes"`
	Connections Connections `json:"connections"`
	Settings    *Settings   `json:"settings,omitempty"`
	Active      bool        `json:"active,omitempty"`
	Tags        []string    `json:"tags,omitempty"`

	// Provenance fields. The core reads these but never writes them.
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	VersionID string `json:"versionId,omitempty"`
}

// NodeByName returns the node with the given normalized name, or nil.
// Callers are expected to have already run the name through
// normalize.Name before calling this.
func (w *Workflow) NodeByName(name string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].Name == name {
			return &w.Nodes[i]
		}
	}
	return nil
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}

// Names returns every node name in the workflow.
func (w *Workflow) Names() []string {
	names := make([]string, len(w.Nodes))
	for i, n := range w.Nodes {
		names[i] = n.Name
	}
	return names
}

// Settings is the whitelisted subset of workflow settings the core is
// permitted to read and write. Any other property received from the host
// (UI-only telemetry fields) must be stripped before a write — see
// SettingsWhitelist and hostclient.CleanForUpdate.
type Settings struct {
	ExecutionOrder           string `json:"executionOrder,omitempty"`
	Timezone                 string `json:"timezone,omitempty"`
	SaveDataErrorExecution   string `json:"saveDataErrorExecution,omitempty"`
	SaveDataSuccessExecution string `json:"saveDataSuccessExecution,omitempty"`
	SaveManualExecutions     *bool  `json:"saveManualExecutions,omitempty"`
	SaveExecutionProgress    *bool  `json:"saveExecutionProgress,omitempty"`
	ExecutionTimeout         *int   `json:"executionTimeout,omitempty"`
	ErrorWorkflow            string `json:"errorWorkflow,omitempty"`
	CallerPolicy             string `json:"callerPolicy,omitempty"`
}

// SettingsWhitelist is the fixed list of writable settings properties (§3).
// Anything outside this set received from the host must be dropped before
// the settings object is sent back in an update.
var SettingsWhitelist = map[string]bool{
	"executionOrder":           true,
	"timezone":                 true,
	"saveDataErrorExecution":   true,
	"saveDataSuccessExecution": true,
	"saveManualExecutions":     true,
	"saveExecutionProgress":    true,
	"executionTimeout":         true,
	"errorWorkflow":            true,
	"callerPolicy":             true,
}

// FilterSettingsMap strips any key not in SettingsWhitelist from a raw
// settings map, as received from the host. It returns the filtered map and
// the list of dropped keys, for the audit log required by §4.4.
func FilterSettingsMap(raw map[string]any) (kept map[string]any, dropped []string) {
	kept = make(map[string]any, len(raw))
	for k, v := range raw {
		if SettingsWhitelist[k] {
			kept[k] = v
		} else {
			dropped = append(dropped, k)
		}
	}
	return kept, dropped
}
