package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/flow"
)

// insertNodes writes nodes in list order; seq preserves that order.
func insertNodes(ctx context.Context, q querier, workflowID string, nodes []flow.Node) error {
	for i, n := range nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("flow: encode node %s: %w", n.ID, err)
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO workflow_nodes (workflow_id, id, seq, kind, data) VALUES ($1, $2, $3, $4, $5)`,
			workflowID, n.ID, i, string(n.Kind), json.RawMessage(data),
		); err != nil {
			return fmt.Errorf("flow: insert node %s: %w", n.ID, err)
		}
	}
	return nil
}

// listNodes returns nodes grouped by workflow id, each group in seq order.
// where is an optional filter clause using $1.
func listNodes(ctx context.Context, q querier, where string, args ...any) (map[string][]flow.Node, error) {
	rows, err := q.Query(ctx,
		`SELECT workflow_id, data FROM workflow_nodes `+where+` ORDER BY workflow_id, seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("flow: list nodes: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]flow.Node)
	for rows.Next() {
		var (
			workflowID string
			data       []byte
			n          flow.Node
		)
		if err := rows.Scan(&workflowID, &data); err != nil {
			return nil, fmt.Errorf("flow: scan node: %w", err)
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("flow: decode node: %w", err)
		}
		out[workflowID] = append(out[workflowID], n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows nodes: %w", err)
	}
	return out, nil
}
