package flow

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies what a node does. It is fixed when the node is created.
type Kind string

const (
	KindInput  Kind = "input"
	KindTask   Kind = "task"
	KindTool   Kind = "tool"
	KindRouter Kind = "router"
	KindOutput Kind = "output"
)

// Kinds lists every node kind in palette order.
var Kinds = []Kind{KindInput, KindTask, KindTool, KindRouter, KindOutput}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInput, KindTask, KindTool, KindRouter, KindOutput:
		return true
	}
	return false
}

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Workflow is a named, persisted graph of nodes and edges.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a copy of w whose node and edge slices are not shared.
func (w Workflow) Clone() Workflow {
	w.Nodes = CloneNodes(w.Nodes)
	w.Edges = CloneEdges(w.Edges)
	return w
}

// Node is a typed unit of work in a workflow graph.
// Config always holds the variant that matches Kind.
type Node struct {
	ID       string
	Kind     Kind
	Position Position
	Label    string
	Config   Config
}

// Edge is a directed dependency from Source's output to Target's input.
// Type is an opaque rendering hint kept for round-tripping.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
}

// CloneNodes copies a node slice. Configs are values, so a shallow copy
// of each node is enough. A nil input yields an empty slice.
func CloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	return out
}

// CloneEdges copies an edge slice. A nil input yields an empty slice.
func CloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

type nodeJSON struct {
	ID       string   `json:"id"`
	Type     Kind     `json:"type"`
	Position Position `json:"position"`
	Data     nodeData `json:"data"`
}

type nodeData struct {
	Label         string          `json:"label"`
	NodeType      Kind            `json:"nodeType"`
	Configuration json.RawMessage `json:"configuration"`
}

// MarshalJSON writes the node in the canvas interchange shape.
func (n Node) MarshalJSON() ([]byte, error) {
	cfg := n.Config
	if cfg == nil {
		cfg = DefaultConfig(n.Kind)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("flow: encode node %s configuration: %w", n.ID, err)
	}
	return json.Marshal(nodeJSON{
		ID:       n.ID,
		Type:     n.Kind,
		Position: n.Position,
		Data: nodeData{
			Label:         n.Label,
			NodeType:      n.Kind,
			Configuration: raw,
		},
	})
}

// UnmarshalJSON reads the canvas interchange shape, picking the
// configuration variant from the node type.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	kind := raw.Type
	if kind == "" {
		kind = raw.Data.NodeType
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	cfg, err := decodeConfig(kind, raw.Data.Configuration)
	if err != nil {
		return fmt.Errorf("flow: decode node %s configuration: %w", raw.ID, err)
	}
	*n = Node{
		ID:       raw.ID,
		Kind:     kind,
		Position: raw.Position,
		Label:    raw.Data.Label,
		Config:   cfg,
	}
	return nil
}
