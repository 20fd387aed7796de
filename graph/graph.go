// Package graph owns the live workflow graph under edit.
//
// A Store holds the node and edge lists of the current workflow, the
// selection, the cached workflow collection and the layout direction. All
// access goes through its methods, each of which is atomic with respect to
// the others; callers only ever receive copies.
//
// Workflow lifecycle operations write through to a flow.Store. Those writes
// are best-effort: a failure is logged and the in-memory change stands.
package graph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/layout"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithAutoSave makes every structural edit save the current workflow.
func WithAutoSave(on bool) Option {
	return func(s *Store) { s.autoSave = on }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the live graph store.
type Store struct {
	mu       sync.RWMutex
	persist  flow.Store
	logger   *slog.Logger
	autoSave bool
	now      func() time.Time

	nodes     []flow.Node
	edges     []flow.Edge
	selected  string
	workflows []flow.Workflow
	current   *flow.Workflow
	direction layout.Direction
}

// New creates an empty Store. persist may be nil, in which case nothing is
// written durably.
func New(persist flow.Store, opts ...Option) *Store {
	s := &Store{
		persist:   persist,
		logger:    slog.Default(),
		now:       time.Now,
		nodes:     []flow.Node{},
		edges:     []flow.Edge{},
		direction: layout.Vertical,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Nodes returns a copy of the live node list.
func (s *Store) Nodes() []flow.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return flow.CloneNodes(s.nodes)
}

// Edges returns a copy of the live edge list.
func (s *Store) Edges() []flow.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return flow.CloneEdges(s.edges)
}

// Snapshot returns consistent copies of both lists, for execution.
func (s *Store) Snapshot() ([]flow.Node, []flow.Edge) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return flow.CloneNodes(s.nodes), flow.CloneEdges(s.edges)
}

// SelectNode points the selection at id. An empty or unknown id clears it.
func (s *Store) SelectNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOfNode(s.nodes, id) < 0 {
		id = ""
	}
	s.selected = id
}

// Selected returns the selected node. A selection whose node has since been
// removed reads as no selection.
func (s *Store) Selected() (flow.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOfNode(s.nodes, s.selected); s.selected != "" && i >= 0 {
		return s.nodes[i], true
	}
	return flow.Node{}, false
}

// LayoutDirection returns the direction used by AutoLayout by default.
func (s *Store) LayoutDirection() layout.Direction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.direction
}

// SetLayoutDirection changes the default direction of AutoLayout.
func (s *Store) SetLayoutDirection(d layout.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.direction = d
}

// AutoLayout repositions the live nodes. An empty opts.Direction uses the
// store's layout direction.
func (s *Store) AutoLayout(ctx context.Context, opts layout.Options) []flow.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.Direction == "" {
		opts.Direction = s.direction
	}
	s.nodes = layout.AutoLayout(s.nodes, s.edges, opts)
	s.edited(ctx)
	return flow.CloneNodes(s.nodes)
}

// edited runs after a structural edit; with auto-save on it persists the
// current workflow. Callers hold s.mu.
func (s *Store) edited(ctx context.Context) {
	if s.autoSave && s.current != nil {
		s.saveLocked(ctx)
	}
}

// write performs a best-effort persistence call.
func (s *Store) write(ctx context.Context, op, workflowID string, fn func(ctx context.Context) error) {
	if s.persist == nil {
		return
	}
	if err := fn(ctx); err != nil {
		s.logger.WarnContext(ctx, "workflow persistence failed",
			"op", op, "workflow", workflowID, "error", err)
	}
}

func indexOfNode(nodes []flow.Node, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfEdge(edges []flow.Edge, id string) int {
	for i := range edges {
		if edges[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfWorkflow(workflows []flow.Workflow, id string) int {
	for i := range workflows {
		if workflows[i].ID == id {
			return i
		}
	}
	return -1
}
