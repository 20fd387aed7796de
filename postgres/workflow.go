package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meikuraledutech/flow"
)

// Upsert saves a full workflow (metadata, nodes and edges) in one
// transaction. Existing nodes and edges of the workflow are replaced.
func (s *PGStore) Upsert(ctx context.Context, w *flow.Workflow) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("flow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO workflows (id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     description = EXCLUDED.description,
		     created_at = EXCLUDED.created_at,
		     updated_at = EXCLUDED.updated_at`,
		w.ID, w.Name, w.Description, w.CreatedAt, w.UpdatedAt,
	); err != nil {
		return fmt.Errorf("flow: upsert workflow %s: %w", w.ID, err)
	}

	// Replace semantics: drop the previous graph before inserting.
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_edges WHERE workflow_id = $1`, w.ID); err != nil {
		return fmt.Errorf("flow: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_nodes WHERE workflow_id = $1`, w.ID); err != nil {
		return fmt.Errorf("flow: delete nodes: %w", err)
	}

	if err := insertNodes(ctx, tx, w.ID, w.Nodes); err != nil {
		return err
	}
	if err := insertEdges(ctx, tx, w.ID, w.Edges); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("flow: commit: %w", err)
	}
	return nil
}

// Get retrieves a full workflow by its ID.
// Returns nil, nil if not found.
func (s *PGStore) Get(ctx context.Context, id string) (*flow.Workflow, error) {
	w := &flow.Workflow{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM workflows WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name, &w.Description, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("flow: get workflow: %w", err)
	}

	nodes, err := listNodes(ctx, s.db, `WHERE workflow_id = $1`, id)
	if err != nil {
		return nil, err
	}
	edges, err := listEdges(ctx, s.db, `WHERE workflow_id = $1`, id)
	if err != nil {
		return nil, err
	}
	w.Nodes = nodes[id]
	w.Edges = edges[id]
	if w.Nodes == nil {
		w.Nodes = []flow.Node{}
	}
	if w.Edges == nil {
		w.Edges = []flow.Edge{}
	}
	return w, nil
}

// List returns every workflow with its nodes and edges, ordered by
// created_at. Returns an empty slice (not nil) if none found.
func (s *PGStore) List(ctx context.Context) ([]flow.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM workflows ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("flow: list workflows: %w", err)
	}
	defer rows.Close()

	workflows := []flow.Workflow{}
	for rows.Next() {
		var w flow.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("flow: scan workflow: %w", err)
		}
		workflows = append(workflows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows workflows: %w", err)
	}

	nodes, err := listNodes(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	edges, err := listEdges(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	for i := range workflows {
		workflows[i].Nodes = flow.CloneNodes(nodes[workflows[i].ID])
		workflows[i].Edges = flow.CloneEdges(edges[workflows[i].ID])
	}
	return workflows, nil
}

// Remove deletes a workflow; its nodes and edges are cascade-deleted by the DB.
// No error if the workflow doesn't exist.
func (s *PGStore) Remove(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id); err != nil {
		return fmt.Errorf("flow: delete workflow: %w", err)
	}
	return nil
}
