package graph

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/meikuraledutech/flow"
)

// ChangeType is the kind of a structural change.
type ChangeType string

const (
	ChangeAdd      ChangeType = "add"
	ChangeRemove   ChangeType = "remove"
	ChangePosition ChangeType = "position"
	ChangeReplace  ChangeType = "replace"
)

// NodeChange is one entry of a node change batch. Add and replace carry
// the node in Item; position carries the new Position.
type NodeChange struct {
	Type     ChangeType     `json:"type"`
	ID       string         `json:"id"`
	Position *flow.Position `json:"position,omitempty"`
	Item     *flow.Node     `json:"item,omitempty"`
}

// EdgeChange is one entry of an edge change batch. Add and replace carry
// the edge in Item.
type EdgeChange struct {
	Type ChangeType `json:"type"`
	ID   string     `json:"id"`
	Item *flow.Edge `json:"item,omitempty"`
}

// ApplyNodeChanges applies a batch to the node list as one step. Changes
// naming unknown nodes are ignored, as are adds that reuse an id and
// replaces that would change a node's kind. Removing a node also removes
// the edges attached to it.
func (s *Store) ApplyNodeChanges(ctx context.Context, changes []NodeChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := flow.CloneNodes(s.nodes)
	removed := make(map[string]bool)

	for _, c := range changes {
		switch c.Type {
		case ChangeAdd:
			if c.Item == nil || c.Item.ID == "" || indexOfNode(nodes, c.Item.ID) >= 0 {
				continue
			}
			n, ok := normalizeNode(*c.Item)
			if !ok {
				continue
			}
			nodes = append(nodes, n)
			delete(removed, n.ID)

		case ChangeRemove:
			i := indexOfNode(nodes, c.ID)
			if i < 0 {
				continue
			}
			nodes = append(nodes[:i], nodes[i+1:]...)
			removed[c.ID] = true

		case ChangePosition:
			i := indexOfNode(nodes, c.ID)
			if i < 0 || c.Position == nil {
				continue
			}
			nodes[i].Position = *c.Position

		case ChangeReplace:
			i := indexOfNode(nodes, c.ID)
			if i < 0 || c.Item == nil {
				continue
			}
			n := *c.Item
			n.ID = c.ID
			if n.Kind == "" {
				n.Kind = nodes[i].Kind
			}
			if n.Kind != nodes[i].Kind {
				s.logger.DebugContext(ctx, "ignoring node kind change", "node", c.ID)
				continue
			}
			if n.Config == nil {
				n.Config = nodes[i].Config
			}
			if n, ok := normalizeNode(n); ok {
				nodes[i] = n
			}

		default:
			s.logger.DebugContext(ctx, "ignoring node change", "type", c.Type, "node", c.ID)
		}
	}

	edges := s.edges
	if len(removed) > 0 {
		edges = make([]flow.Edge, 0, len(s.edges))
		for _, e := range s.edges {
			if !removed[e.Source] && !removed[e.Target] {
				edges = append(edges, e)
			}
		}
	}

	s.nodes = nodes
	s.edges = edges
	s.edited(ctx)
}

// ApplyEdgeChanges applies a batch to the edge list as one step. Changes
// naming unknown edges are ignored, as are adds that reuse an id or lack
// an endpoint.
func (s *Store) ApplyEdgeChanges(ctx context.Context, changes []EdgeChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := flow.CloneEdges(s.edges)
	for _, c := range changes {
		switch c.Type {
		case ChangeAdd:
			if c.Item == nil || c.Item.ID == "" || c.Item.Source == "" || c.Item.Target == "" ||
				indexOfEdge(edges, c.Item.ID) >= 0 {
				continue
			}
			edges = append(edges, *c.Item)

		case ChangeRemove:
			if i := indexOfEdge(edges, c.ID); i >= 0 {
				edges = append(edges[:i], edges[i+1:]...)
			}

		case ChangeReplace:
			i := indexOfEdge(edges, c.ID)
			if i < 0 || c.Item == nil || c.Item.Source == "" || c.Item.Target == "" {
				continue
			}
			e := *c.Item
			e.ID = c.ID
			edges[i] = e

		default:
			s.logger.DebugContext(ctx, "ignoring edge change", "type", c.Type, "edge", c.ID)
		}
	}

	s.edges = edges
	s.edited(ctx)
}

// Connect adds an edge from source to target and reports whether one was
// created. Neither endpoint is checked against the node list, and cycles
// are allowed. Nothing happens if an endpoint is empty or the same
// connection already exists; in the latter case the existing edge is
// returned.
func (s *Store) Connect(ctx context.Context, source, target string) (flow.Edge, bool) {
	if source == "" || target == "" {
		return flow.Edge{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.edges {
		if e.Source == source && e.Target == target {
			return e, false
		}
	}

	e := flow.Edge{ID: "e-" + uuid.NewString(), Source: source, Target: target}
	s.edges = append(flow.CloneEdges(s.edges), e)
	s.edited(ctx)
	return e, true
}

// AddNode appends a node of kind at pos with the kind's default
// configuration.
func (s *Store) AddNode(ctx context.Context, kind flow.Kind, pos flow.Position) (flow.Node, error) {
	if !kind.Valid() {
		return flow.Node{}, flow.ErrInvalidKind
	}
	n := flow.Node{
		ID:       "node-" + uuid.NewString(),
		Kind:     kind,
		Position: pos,
		Label:    flow.DefaultLabel(kind),
		Config:   flow.DefaultConfig(kind),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = append(flow.CloneNodes(s.nodes), n)
	s.edited(ctx)
	return n, nil
}

// UpdateNodeConfiguration shallow-merges patch, a partial configuration
// object, into the node's configuration. A non-empty name in the patch also
// becomes the node's label. The node is left unchanged if the merged
// configuration is invalid.
func (s *Store) UpdateNodeConfiguration(ctx context.Context, nodeID string, patch json.RawMessage) (flow.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfNode(s.nodes, nodeID)
	if i < 0 {
		return flow.Node{}, flow.ErrNodeNotFound
	}
	n := s.nodes[i]
	if n.Config == nil {
		n.Config = flow.DefaultConfig(n.Kind)
	}

	cfg, err := flow.MergeConfig(n.Config, patch)
	if err != nil {
		return flow.Node{}, err
	}
	n.Config = cfg

	var named struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(patch, &named); err == nil && named.Name != nil && *named.Name != "" {
		n.Label = *named.Name
	}

	nodes := flow.CloneNodes(s.nodes)
	nodes[i] = n
	s.nodes = nodes
	s.edited(ctx)
	return n, nil
}

// normalizeNode fills a missing configuration with the kind's default and
// rejects nodes whose kind or configuration variant is wrong.
func normalizeNode(n flow.Node) (flow.Node, bool) {
	if !n.Kind.Valid() {
		return n, false
	}
	if n.Config == nil {
		n.Config = flow.DefaultConfig(n.Kind)
	}
	if n.Config.Kind() != n.Kind {
		return n, false
	}
	if n.Label == "" {
		n.Label = n.Config.Meta().Name
	}
	return n, true
}
