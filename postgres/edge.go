package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/flow"
)

// edgeData is the JSONB payload of an edge row; endpoints live in columns.
type edgeData struct {
	Type string `json:"type,omitempty"`
}

// insertEdges writes edges in list order. Endpoints are not checked
// against workflow_nodes: dangling edges are tolerated.
func insertEdges(ctx context.Context, q querier, workflowID string, edges []flow.Edge) error {
	for i, e := range edges {
		data, err := json.Marshal(edgeData{Type: e.Type})
		if err != nil {
			return fmt.Errorf("flow: encode edge %s: %w", e.ID, err)
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO workflow_edges (workflow_id, id, seq, source, target, data) VALUES ($1, $2, $3, $4, $5, $6)`,
			workflowID, e.ID, i, e.Source, e.Target, json.RawMessage(data),
		); err != nil {
			return fmt.Errorf("flow: insert edge %s: %w", e.ID, err)
		}
	}
	return nil
}

// listEdges returns edges grouped by workflow id, each group in seq order.
// where is an optional filter clause using $1.
func listEdges(ctx context.Context, q querier, where string, args ...any) (map[string][]flow.Edge, error) {
	rows, err := q.Query(ctx,
		`SELECT workflow_id, id, source, target, data FROM workflow_edges `+where+` ORDER BY workflow_id, seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("flow: list edges: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]flow.Edge)
	for rows.Next() {
		var (
			workflowID string
			e          flow.Edge
			data       []byte
			extra      edgeData
		)
		if err := rows.Scan(&workflowID, &e.ID, &e.Source, &e.Target, &data); err != nil {
			return nil, fmt.Errorf("flow: scan edge: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &extra); err != nil {
				return nil, fmt.Errorf("flow: decode edge %s: %w", e.ID, err)
			}
		}
		e.Type = extra.Type
		out[workflowID] = append(out[workflowID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows edges: %w", err)
	}
	return out, nil
}
