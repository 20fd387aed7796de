package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meikuraledutech/flow"
)

// LoadWorkflows replaces the cached collection with the persisted one. A
// failed read is logged and leaves the cache as it was.
func (s *Store) LoadWorkflows(ctx context.Context) {
	if s.persist == nil {
		return
	}
	workflows, err := s.persist.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "loading workflows failed", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows = workflows
}

// Workflows returns a copy of the cached collection.
func (s *Store) Workflows() []flow.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]flow.Workflow, len(s.workflows))
	for i := range s.workflows {
		out[i] = s.workflows[i].Clone()
	}
	return out
}

// Current returns the workflow whose graph is being edited.
func (s *Store) Current() (flow.Workflow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return flow.Workflow{}, false
	}
	return s.current.Clone(), true
}

// CreateWorkflow starts a new, empty workflow and makes it current. The
// live graph is cleared.
func (s *Store) CreateWorkflow(ctx context.Context, name, description string) (flow.Workflow, error) {
	if name == "" {
		return flow.Workflow{}, fmt.Errorf("%w: name is required", flow.ErrInvalidWorkflow)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w := flow.Workflow{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Nodes:       []flow.Node{},
		Edges:       []flow.Edge{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.install(w)
	s.write(ctx, "create", w.ID, func(ctx context.Context) error { return s.persist.Upsert(ctx, &w) })
	return w.Clone(), nil
}

// SaveWorkflow stores the live graph into the current workflow.
func (s *Store) SaveWorkflow(ctx context.Context) (flow.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return flow.Workflow{}, flow.ErrNoCurrentWorkflow
	}
	return s.saveLocked(ctx), nil
}

// saveLocked copies the live graph into the current workflow, refreshes
// its cache entry and writes it through. Callers hold s.mu and have
// checked s.current.
func (s *Store) saveLocked(ctx context.Context) flow.Workflow {
	w := s.current.Clone()
	w.Nodes = flow.CloneNodes(s.nodes)
	w.Edges = flow.CloneEdges(s.edges)
	w.UpdatedAt = s.now()

	s.current = &w
	s.cache(w.Clone())
	s.write(ctx, "save", w.ID, func(ctx context.Context) error { return s.persist.Upsert(ctx, &w) })
	return w.Clone()
}

// LoadWorkflow makes the workflow with id current and copies its graph into
// the live lists. The cached collection is consulted first, then the
// persistent store.
func (s *Store) LoadWorkflow(ctx context.Context, id string) (flow.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOfWorkflow(s.workflows, id); i >= 0 {
		w := s.workflows[i].Clone()
		s.activate(w)
		return w.Clone(), nil
	}

	if s.persist == nil {
		return flow.Workflow{}, flow.ErrWorkflowNotFound
	}
	found, err := s.persist.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "loading workflow failed", "workflow", id, "error", err)
		return flow.Workflow{}, flow.ErrWorkflowNotFound
	}
	if found == nil {
		return flow.Workflow{}, flow.ErrWorkflowNotFound
	}
	w := found.Clone()
	s.cache(w.Clone())
	s.activate(w)
	return w.Clone(), nil
}

// UpdateWorkflow renames a cached workflow. If it is current, the current
// record follows.
func (s *Store) UpdateWorkflow(ctx context.Context, id, name, description string) (flow.Workflow, error) {
	if name == "" {
		return flow.Workflow{}, fmt.Errorf("%w: name is required", flow.ErrInvalidWorkflow)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfWorkflow(s.workflows, id)
	if i < 0 {
		return flow.Workflow{}, flow.ErrWorkflowNotFound
	}
	w := s.workflows[i].Clone()
	w.Name = name
	w.Description = description
	w.UpdatedAt = s.now()

	s.workflows[i] = w.Clone()
	if s.current != nil && s.current.ID == id {
		cur := s.current.Clone()
		cur.Name = w.Name
		cur.Description = w.Description
		cur.UpdatedAt = w.UpdatedAt
		s.current = &cur
	}
	s.write(ctx, "update", id, func(ctx context.Context) error { return s.persist.Upsert(ctx, &w) })
	return w.Clone(), nil
}

// DeleteWorkflow removes a workflow from the cache and the persistent
// store. Deleting the current workflow clears it along with the live graph.
// Deleting an unknown id is a no-op.
func (s *Store) DeleteWorkflow(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOfWorkflow(s.workflows, id); i >= 0 {
		workflows := make([]flow.Workflow, 0, len(s.workflows)-1)
		workflows = append(workflows, s.workflows[:i]...)
		s.workflows = append(workflows, s.workflows[i+1:]...)
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.nodes = []flow.Node{}
		s.edges = []flow.Edge{}
		s.selected = ""
	}
	s.write(ctx, "delete", id, func(ctx context.Context) error { return s.persist.Remove(ctx, id) })
}

// CreateDemoWorkflow adds the built-in demo workflow under a fresh id and
// makes it current.
func (s *Store) CreateDemoWorkflow(ctx context.Context) flow.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := flow.DemoWorkflow(uuid.NewString(), s.now())
	s.install(w)
	s.write(ctx, "create", w.ID, func(ctx context.Context) error { return s.persist.Upsert(ctx, &w) })
	return w.Clone()
}

// ExportWorkflow renders the current workflow, with the live graph, as an
// interchange document.
func (s *Store) ExportWorkflow() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, flow.ErrNoCurrentWorkflow
	}
	w := s.current.Clone()
	w.Nodes = flow.CloneNodes(s.nodes)
	w.Edges = flow.CloneEdges(s.edges)
	return flow.MarshalWorkflow(w)
}

// ImportWorkflow parses an interchange document and makes it current. An
// existing workflow with the same id is replaced. An invalid document
// leaves the store untouched.
func (s *Store) ImportWorkflow(ctx context.Context, data []byte) (flow.Workflow, error) {
	parsed, err := flow.ParseWorkflow(data)
	if err != nil {
		return flow.Workflow{}, err
	}
	w := parsed.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.install(w)
	s.write(ctx, "import", w.ID, func(ctx context.Context) error { return s.persist.Upsert(ctx, &w) })
	return w.Clone(), nil
}

// install caches w and makes it current.
func (s *Store) install(w flow.Workflow) {
	s.cache(w.Clone())
	s.activate(w)
}

// cache inserts w into the collection, replacing an entry with the same id.
func (s *Store) cache(w flow.Workflow) {
	if i := indexOfWorkflow(s.workflows, w.ID); i >= 0 {
		s.workflows[i] = w
		return
	}
	s.workflows = append(s.workflows, w)
}

// activate makes w current and loads its graph into the live lists.
func (s *Store) activate(w flow.Workflow) {
	s.current = &w
	s.nodes = flow.CloneNodes(w.Nodes)
	s.edges = flow.CloneEdges(w.Edges)
	s.selected = ""
}
