package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type workflowDocument struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Nodes       json.RawMessage `json:"nodes"`
	Edges       json.RawMessage `json:"edges"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// MarshalWorkflow encodes w in the interchange format, indented for humans.
func MarshalWorkflow(w Workflow) ([]byte, error) {
	if w.Nodes == nil {
		w.Nodes = []Node{}
	}
	if w.Edges == nil {
		w.Edges = []Edge{}
	}
	return json.MarshalIndent(w, "", "  ")
}

// ParseWorkflow decodes and validates an interchange document. It checks
// that id and name are set, that nodes and edges are JSON arrays, and that
// every node decodes to a valid configuration with a unique id. Any failure
// is reported as ErrInvalidWorkflow and no partial workflow is returned.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var doc workflowDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: id and name are required", ErrInvalidWorkflow)
	}
	if !isArray(doc.Nodes) {
		return nil, fmt.Errorf("%w: nodes must be a list", ErrInvalidWorkflow)
	}
	if !isArray(doc.Edges) {
		return nil, fmt.Errorf("%w: edges must be a list", ErrInvalidWorkflow)
	}

	w := &Workflow{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if err := json.Unmarshal(doc.Nodes, &w.Nodes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}
	if err := json.Unmarshal(doc.Edges, &w.Edges); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}

	seen := make(map[string]bool, len(w.Nodes))
	for _, n := range w.Nodes {
		if n.ID == "" || seen[n.ID] {
			return nil, fmt.Errorf("%w: missing or duplicate node id %q", ErrInvalidWorkflow, n.ID)
		}
		seen[n.ID] = true
		if err := ValidateConfig(n.Config); err != nil {
			return nil, fmt.Errorf("%w: node %s: %v", ErrInvalidWorkflow, n.ID, err)
		}
	}
	seen = make(map[string]bool, len(w.Edges))
	for _, e := range w.Edges {
		if e.ID == "" || seen[e.ID] {
			return nil, fmt.Errorf("%w: missing or duplicate edge id %q", ErrInvalidWorkflow, e.ID)
		}
		seen[e.ID] = true
	}
	return w, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
