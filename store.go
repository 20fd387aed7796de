package flow

import (
	"context"
	"errors"
)

var (
	ErrNodeNotFound      = errors.New("flow: node not found")
	ErrWorkflowNotFound  = errors.New("flow: workflow not found")
	ErrNoCurrentWorkflow = errors.New("flow: no current workflow")
	ErrInvalidKind       = errors.New("flow: invalid node kind")
	ErrInvalidConfig     = errors.New("flow: invalid node configuration")
	ErrInvalidWorkflow   = errors.New("flow: invalid workflow data")
)

// Store defines the contract for persisting and retrieving workflows.
// It is the system of record across restarts; the live graph is owned by
// graph.Store and written here at save points.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// List returns every stored workflow, oldest first.
	List(ctx context.Context) ([]Workflow, error)
	// Get returns nil, nil if the workflow does not exist.
	Get(ctx context.Context, id string) (*Workflow, error)
	// Upsert inserts or fully replaces a workflow, nodes and edges included.
	Upsert(ctx context.Context, w *Workflow) error
	// Remove deletes a workflow. No error if it does not exist.
	Remove(ctx context.Context, id string) error
}
