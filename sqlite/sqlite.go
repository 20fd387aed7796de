// Package sqlite implements flow.Store on a local SQLite file. Each workflow
// is one row holding its nodes and edges as JSON documents.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/meikuraledutech/flow"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS workflows (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    nodes       TEXT NOT NULL DEFAULT '[]',
    edges       TEXT NOT NULL DEFAULT '[]',
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
`

// Store implements flow.Store using database/sql and modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the SQLite file at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("flow: open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return New(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the workflows table if it doesn't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropSchema drops the workflows table.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS workflows`)
	return err
}

// Upsert inserts or replaces a workflow. A replaced row keeps its rowid,
// so List order is insertion order.
func (s *Store) Upsert(ctx context.Context, w *flow.Workflow) error {
	nodes, err := json.Marshal(flow.CloneNodes(w.Nodes))
	if err != nil {
		return fmt.Errorf("flow: encode nodes: %w", err)
	}
	edges, err := json.Marshal(flow.CloneEdges(w.Edges))
	if err != nil {
		return fmt.Errorf("flow: encode edges: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, name, description, nodes, edges, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			nodes = excluded.nodes,
			edges = excluded.edges,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		w.ID, w.Name, w.Description, string(nodes), string(edges),
		formatTime(w.CreatedAt), formatTime(w.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("flow: upsert workflow %s: %w", w.ID, err)
	}
	return nil
}

// Get returns nil, nil if the workflow does not exist.
func (s *Store) Get(ctx context.Context, id string) (*flow.Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, nodes, edges, created_at, updated_at FROM workflows WHERE id = ?`, id)
	w, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("flow: get workflow: %w", err)
	}
	return w, nil
}

// List returns every workflow in insertion order.
func (s *Store) List(ctx context.Context) ([]flow.Workflow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, nodes, edges, created_at, updated_at FROM workflows ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("flow: list workflows: %w", err)
	}
	defer rows.Close()

	workflows := []flow.Workflow{}
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("flow: scan workflow: %w", err)
		}
		workflows = append(workflows, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows workflows: %w", err)
	}
	return workflows, nil
}

// Remove deletes a workflow. No error if it doesn't exist.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id); err != nil {
		return fmt.Errorf("flow: delete workflow: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scanner) (*flow.Workflow, error) {
	var (
		w                    flow.Workflow
		nodes, edges         string
		createdAt, updatedAt string
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Description, &nodes, &edges, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(nodes), &w.Nodes); err != nil {
		return nil, fmt.Errorf("decode nodes of %s: %w", w.ID, err)
	}
	if err := json.Unmarshal([]byte(edges), &w.Edges); err != nil {
		return nil, fmt.Errorf("decode edges of %s: %w", w.ID, err)
	}
	var err error
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
