package model

import "encoding/json"

// OpKind is the tag of a DiffOperation variant (§3).
type OpKind string

const (
	OpAddNode               OpKind = "addNode"
	OpRemoveNode            OpKind = "removeNode"
	OpUpdateNode            OpKind = "updateNode"
	OpMoveNode              OpKind = "moveNode"
	OpEnableNode            OpKind = "enableNode"
	OpDisableNode           OpKind = "disableNode"
	OpAddConnection         OpKind = "addConnection"
	OpRemoveConnection      OpKind = "removeConnection"
	OpRewireConnection      OpKind = "rewireConnection"
	OpCleanStaleConnections OpKind = "cleanStaleConnections"
	OpReplaceConnections    OpKind = "replaceConnections"
	OpUpdateSettings        OpKind = "updateSettings"
	OpUpdateName            OpKind = "updateName"
	OpAddTag                OpKind = "addTag"
	OpRemoveTag             OpKind = "removeTag"
)

// DiffOperation is one operation in a diff batch. Only the fields relevant
// to Kind are populated; the diff engine validates shape before applying
// (see diffengine.Apply).
type DiffOperation struct {
	Kind OpKind `json:"type"`

	// addNode / updateNode / moveNode / enableNode / disableNode / removeNode
	NodeID   string         `json:"id,omitempty"`
	NodeName string         `json:"name,omitempty"`
	Node     *Node          `json:"node,omitempty"`
	Patch    map[string]any `json:"changes,omitempty"`
	Position *[2]float64    `json:"position,omitempty"`

	// addConnection / removeConnection / rewireConnection
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	// RewireTo is the new target for rewireConnection.
	RewireTo string `json:"to,omitempty"`

	ConnKind ConnectionKind `json:"connectionKind,omitempty"`

	// SourceIndex uses a pointer so an explicit 0 is distinguishable from
	// "not supplied" — see the I-AC0 invariant in diffengine.
	SourceIndex *int `json:"sourceIndex,omitempty"`
	TargetIndex int   `json:"targetIndex,omitempty"`

	// Ergonomic aliases, resolved to SourceIndex by the diff engine if
	// SourceIndex itself is nil.
	Branch string `json:"branch,omitempty"` // "true" | "false"
	Case   *int   `json:"case,omitempty"`

	// replaceConnections
	Connections Connections `json:"connections,omitempty"`

	// updateSettings
	SettingsPatch map[string]any `json:"settings,omitempty"`

	// updateName
	Name string `json:"newName,omitempty"`

	// addTag / removeTag
	Tag string `json:"tag,omitempty"`

	// Raw carries the original unparsed operation, used to build precise
	// "fail fast on malformed operations" error messages that quote the
	// input verbatim (§4.4).
	Raw json.RawMessage `json:"-"`
}

// ApplyMode selects transactional vs best-effort batch semantics.
type ApplyMode string

const (
	ModeAtomic         ApplyMode = "atomic"
	ModeContinueOnError ApplyMode = "continueOnError"
)

// OpResult reports the outcome of applying a single operation within a
// batch.
type OpResult struct {
	Index   int    `json:"index"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// ApplyResult is the overall outcome of diffengine.Apply.
type ApplyResult struct {
	Workflow    *Workflow  `json:"workflow"`
	Results     []OpResult `json:"results"`
	FailedIndex int        `json:"failedIndex,omitempty"` // atomic mode only, -1 if none
}
