// Package storetest holds the behaviour every flow.Store implementation
// must share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow"
)

// Run exercises s. The store must be empty and its schema created.
func Run(t *testing.T, s flow.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

	t.Run("empty store", func(t *testing.T) {
		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		w, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, w)
	})

	demo := flow.DemoWorkflow("wf-demo", now)
	blank := flow.Workflow{
		ID:        "wf-blank",
		Name:      "Blank",
		CreatedAt: now.Add(time.Minute),
		UpdatedAt: now.Add(time.Minute),
	}

	t.Run("upsert and get", func(t *testing.T) {
		require.NoError(t, s.Upsert(ctx, &demo))
		require.NoError(t, s.Upsert(ctx, &blank))

		got, err := s.Get(ctx, demo.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		AssertWorkflowEqual(t, demo, *got)

		got, err = s.Get(ctx, blank.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got.Nodes)
		assert.Empty(t, got.Edges)
	})

	t.Run("list keeps creation order", func(t *testing.T) {
		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, demo.ID, list[0].ID)
		assert.Equal(t, blank.ID, list[1].ID)
		AssertWorkflowEqual(t, demo, list[0])
	})

	t.Run("upsert replaces nodes and edges", func(t *testing.T) {
		changed := demo.Clone()
		changed.Name = "Renamed"
		changed.Nodes = changed.Nodes[:2]
		changed.Edges = changed.Edges[:1]
		changed.UpdatedAt = now.Add(time.Hour)
		require.NoError(t, s.Upsert(ctx, &changed))

		got, err := s.Get(ctx, demo.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		AssertWorkflowEqual(t, changed, *got)

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("returned workflows are copies", func(t *testing.T) {
		got, err := s.Get(ctx, demo.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		got.Nodes[0].Label = "mutated"

		again, err := s.Get(ctx, demo.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.Nodes[0].Label)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.Remove(ctx, demo.ID))
		require.NoError(t, s.Remove(ctx, demo.ID), "removing twice is not an error")

		got, err := s.Get(ctx, demo.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, blank.ID, list[0].ID)
	})
}

// AssertWorkflowEqual compares workflows, treating timestamps by instant.
func AssertWorkflowEqual(t *testing.T, want, got flow.Workflow) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, flow.CloneNodes(want.Nodes), flow.CloneNodes(got.Nodes))
	assert.Equal(t, flow.CloneEdges(want.Edges), flow.CloneEdges(got.Edges))
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt: want %s, got %s", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updatedAt: want %s, got %s", want.UpdatedAt, got.UpdatedAt)
}
