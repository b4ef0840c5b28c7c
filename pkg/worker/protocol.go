package worker

import (
	"github.com/goccy/go-json"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/layout"
)

// MessageType discriminates requests and responses.
type MessageType string

// Request types.
const (
	TypeProcessJSON MessageType = "PROCESS_JSON"
	TypeCancel      MessageType = "CANCEL"
)

// Response types.
const (
	TypeProgress        MessageType = "PROCESSING_PROGRESS"
	TypePartial         MessageType = "PROCESSING_PARTIAL"
	TypePartialCompact  MessageType = "PROCESSING_PARTIAL_COMPACT"
	TypeComplete        MessageType = "PROCESSING_COMPLETE"
	TypeCompleteCompact MessageType = "PROCESSING_COMPLETE_COMPACT"
	TypeCancelled       MessageType = "PROCESSING_CANCELLED"
	TypeError           MessageType = "PROCESSING_ERROR"
)

// Terminal reports whether t ends a job.
func (t MessageType) Terminal() bool {
	switch t {
	case TypeComplete, TypeCompleteCompact, TypeCancelled, TypeError:
		return true
	}
	return false
}

// State is the lifecycle state of one request ID.
type State uint8

const (
	StateIdle State = iota
	StateQueued
	StateRunning
	StateCompleted
	StateCancelled
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateErrored
}

// Orientation is the wire form of the layout direction.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Options are the recognized job options.
type Options struct {
	// Spacing is the distance between depth levels in pixels.
	Spacing float64 `json:"spacing,omitempty"`
	// Direction is "vertical" (default) or "horizontal".
	Direction Orientation `json:"direction,omitempty"`
	// OptimizeForLargeData truncates long scalar labels and starts with
	// larger flush thresholds.
	OptimizeForLargeData bool `json:"optimizeForLargeData,omitempty"`
	// MaxNodesToProcess, when positive and exceeded, stable-sorts the final
	// node list by depth.
	MaxNodesToProcess int `json:"maxNodesToProcess,omitempty"`
	// Compact selects the columnar encoding.
	Compact bool `json:"compact,omitempty"`
	// AutoTune enables the adaptive flush tuner. Nil means true.
	AutoTune *bool `json:"autoTune,omitempty"`
	// Preallocate sizes buffers up front. It never changes results.
	Preallocate bool `json:"preallocate,omitempty"`
}

// AutoTuneEnabled reports whether the tuner should run.
func (o Options) AutoTuneEnabled() bool {
	return o.AutoTune == nil || *o.AutoTune
}

// Validate checks option values.
func (o Options) Validate() error {
	switch o.Direction {
	case "", Vertical, Horizontal:
	default:
		return errors.New(errors.ErrCodeInvalidDirection, "direction must be %q or %q, got %q", Vertical, Horizontal, o.Direction)
	}
	if o.Spacing < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "spacing must not be negative")
	}
	if o.MaxNodesToProcess < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "maxNodesToProcess must not be negative")
	}
	return nil
}

// LayoutDirection maps the orientation onto a layout direction.
func (o Options) LayoutDirection() layout.Direction {
	if o.Direction == Horizontal {
		return layout.LR
	}
	return layout.TB
}

// ProcessPayload is the payload of a PROCESS_JSON request.
//
// JSONData holds the document. When it is itself a JSON string, the string's
// contents are parsed instead, which is also how YAML and TOML text travels
// (with Format set).
type ProcessPayload struct {
	JSONData  json.RawMessage `json:"jsonData"`
	Format    document.Format `json:"format,omitempty"`
	Options   Options         `json:"options"`
	RequestID string          `json:"requestId"`
}

// CancelPayload is the payload of a CANCEL request.
type CancelPayload struct {
	RequestID string `json:"requestId"`
}

// RequestPayload is the union of every request payload.
type RequestPayload struct {
	JSONData  json.RawMessage `json:"jsonData,omitempty"`
	Format    document.Format `json:"format,omitempty"`
	Options   Options         `json:"options,omitempty"`
	RequestID string          `json:"requestId"`
}

// Request is an inbound message.
type Request struct {
	Type    MessageType    `json:"type"`
	Payload RequestPayload `json:"payload"`
}

// Process returns the payload as a PROCESS_JSON payload.
func (r Request) Process() ProcessPayload {
	return ProcessPayload{
		JSONData:  r.Payload.JSONData,
		Format:    r.Payload.Format,
		Options:   r.Payload.Options,
		RequestID: r.Payload.RequestID,
	}
}

// Stage names a coarse progress phase.
type Stage string

const (
	StageParse Stage = "parse"
	StageNodes Stage = "nodes"
	StageEdges Stage = "edges"
)

// NodeRecord is the verbose wire form of a node.
type NodeRecord struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Type       document.Kind   `json:"type"`
	Value      string          `json:"value,omitempty"`
	Parent     string          `json:"parent,omitempty"`
	Depth      int             `json:"depth"`
	Line       int             `json:"line"`
	Position   layout.Position `json:"position"`
	ChildCount int             `json:"childCount"`
}

// EdgeRecord is the verbose wire form of an edge.
type EdgeRecord struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Message is an outbound message. Which fields are set depends on Type.
type Message struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"requestId"`

	// PROCESSING_PROGRESS
	Progress int   `json:"progress"`
	Stage    Stage `json:"stage,omitempty"`

	// PROCESSING_PARTIAL and PROCESSING_COMPLETE
	Nodes []NodeRecord `json:"nodes,omitempty"`
	Edges []EdgeRecord `json:"edges,omitempty"`

	// *_COMPACT variants
	Compact *CompactBatch `json:"compact,omitempty"`

	// PROCESSING_PARTIAL*
	TotalNodesSoFar int `json:"totalNodesSoFar,omitempty"`
	TotalEdgesSoFar int `json:"totalEdgesSoFar,omitempty"`

	// PROCESSING_COMPLETE*
	ProcessingTime float64 `json:"processingTime,omitempty"`
	NodesCount     int     `json:"nodesCount,omitempty"`

	// PROCESSING_ERROR
	Error string      `json:"error,omitempty"`
	Code  errors.Code `json:"code,omitempty"`
}

// Records returns the nodes and edges carried by m in either encoding.
func (m Message) Records() ([]NodeRecord, []EdgeRecord, error) {
	if m.Compact != nil {
		return m.Compact.Decode()
	}
	return m.Nodes, m.Edges, nil
}

// DecodeRequest parses a JSON request frame.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "decode request")
	}
	return req, nil
}
