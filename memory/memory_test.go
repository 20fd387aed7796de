package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, New())
}

func TestUpsertCopiesInput(t *testing.T) {
	ctx := context.Background()
	s := New()

	w := flow.Workflow{ID: "w", Name: "W", Edges: []flow.Edge{{ID: "e", Source: "a", Target: "b"}}}
	require.NoError(t, s.Upsert(ctx, &w))
	w.Edges[0].Target = "changed"

	got, err := s.Get(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Edges[0].Target)
}

func TestDropSchema(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Upsert(ctx, &flow.Workflow{ID: "w", Name: "W"}))

	require.NoError(t, s.DropSchema(ctx))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
