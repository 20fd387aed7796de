// Package engine runs a workflow graph against an initial input.
//
// Results propagate by repeated passes over the node list: a node runs once
// all of its upstream nodes have produced a result, and the run ends when a
// full pass makes no progress. Workflow graphs are small, so the quadratic
// worst case is accepted in exchange for a simple dependency join.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meikuraledutech/flow"
)

// ErrExecutorNotInitialized is returned by Run before any node executes when
// no task executor is configured or the executor reports it is not ready.
var ErrExecutorNotInitialized = errors.New("engine: task executor not initialized")

// inputSeparator joins the results of several upstream nodes.
const inputSeparator = "\n\n"

// TaskExecutor turns a task node's type, input text and prompt into a
// result. An empty prompt means the executor's default for the task type.
type TaskExecutor interface {
	Execute(ctx context.Context, taskType flow.TaskType, input, prompt string) (string, error)
}

// Initializer is implemented by executors that need credentials before
// first use. Run calls Ready before executing any node.
type Initializer interface {
	Ready() error
}

// ExecutorFunc adapts a function to TaskExecutor.
type ExecutorFunc func(ctx context.Context, taskType flow.TaskType, input, prompt string) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, taskType flow.TaskType, input, prompt string) (string, error) {
	return f(ctx, taskType, input, prompt)
}

// Result is the outcome of a run.
type Result struct {
	// Outputs maps node id to its result. Nodes that never became ready
	// are absent.
	Outputs map[string]string `json:"outputs"`
	// Skipped lists, in node order, the nodes that never became ready:
	// nodes with no path from a source, inside a cycle, or downstream of
	// either.
	Skipped []string `json:"skipped"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for node lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine executes workflow graphs with an injected task executor.
type Engine struct {
	executor TaskExecutor
	logger   *slog.Logger
}

// New creates an Engine. A nil executor is accepted; Run then fails with
// ErrExecutorNotInitialized.
func New(executor TaskExecutor, opts ...Option) *Engine {
	e := &Engine{executor: executor, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run computes one result per reachable node.
//
// Source nodes are input nodes without incoming edges; each is seeded with
// initialInput, or its default value when initialInput is empty. A node is
// ready when every incoming edge's source has a result; its input is those
// results joined by a blank line in edge order. Task nodes call the executor
// and a failure becomes the result "Error: <message>", which flows
// downstream like any other value. Every other kind passes its input
// through. Nodes that never become ready are reported in Result.Skipped.
func (e *Engine) Run(ctx context.Context, nodes []flow.Node, edges []flow.Edge, initialInput string) (*Result, error) {
	if e.executor == nil {
		return nil, ErrExecutorNotInitialized
	}
	if init, ok := e.executor.(Initializer); ok {
		if err := init.Ready(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExecutorNotInitialized, err)
		}
	}

	incoming := make(map[string][]flow.Edge, len(nodes))
	for _, edge := range edges {
		incoming[edge.Target] = append(incoming[edge.Target], edge)
	}

	results := make(map[string]string, len(nodes))
	processed := make(map[string]bool, len(nodes))

	for _, n := range nodes {
		if n.Kind != flow.KindInput || len(incoming[n.ID]) > 0 {
			continue
		}
		results[n.ID] = seed(n, initialInput)
		processed[n.ID] = true
		e.logger.DebugContext(ctx, "source seeded", "node", n.ID)
	}

	for progress := true; progress; {
		progress = false
		for _, n := range nodes {
			if processed[n.ID] || !ready(incoming[n.ID], processed) {
				continue
			}
			inputs := make([]string, 0, len(incoming[n.ID]))
			for _, edge := range incoming[n.ID] {
				inputs = append(inputs, results[edge.Source])
			}
			results[n.ID] = e.process(ctx, n, strings.Join(inputs, inputSeparator))
			processed[n.ID] = true
			progress = true
		}
	}

	res := &Result{Outputs: results, Skipped: []string{}}
	for _, n := range nodes {
		if !processed[n.ID] {
			res.Skipped = append(res.Skipped, n.ID)
		}
	}
	if len(res.Skipped) > 0 {
		e.logger.WarnContext(ctx, "nodes not reachable from any source", "nodes", res.Skipped)
	}
	return res, nil
}

func (e *Engine) process(ctx context.Context, n flow.Node, input string) string {
	e.logger.DebugContext(ctx, "node started", "node", n.ID, "kind", n.Kind)

	out := input
	if n.Kind == flow.KindTask {
		cfg, _ := n.Config.(flow.TaskConfig)
		taskType := cfg.TaskType
		if taskType == "" {
			taskType = flow.TaskSummarize
		}
		result, err := e.executor.Execute(ctx, taskType, input, cfg.Prompt)
		if err != nil {
			e.logger.ErrorContext(ctx, "task failed", "node", n.ID, "task_type", taskType, "error", err)
			result = "Error: " + err.Error()
		}
		out = result
	}

	e.logger.DebugContext(ctx, "node completed", "node", n.ID, "bytes", len(out))
	return out
}

// ready reports whether a node has at least one incoming edge and every one
// of them comes from a processed node. Nodes without incoming edges only run
// when seeded as sources.
func ready(in []flow.Edge, processed map[string]bool) bool {
	if len(in) == 0 {
		return false
	}
	for _, edge := range in {
		if !processed[edge.Source] {
			return false
		}
	}
	return true
}

func seed(n flow.Node, initialInput string) string {
	if initialInput != "" {
		return initialInput
	}
	if cfg, ok := n.Config.(flow.InputConfig); ok {
		return cfg.DefaultValue
	}
	return ""
}
