package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/meikuraledutech/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inputNode(id, defaultValue string) flow.Node {
	return flow.Node{ID: id, Kind: flow.KindInput, Config: flow.InputConfig{
		Base:         flow.Base{Name: id},
		InputType:    flow.InputText,
		DefaultValue: defaultValue,
	}}
}

func taskNode(id string, taskType flow.TaskType, prompt string) flow.Node {
	return flow.Node{ID: id, Kind: flow.KindTask, Config: flow.TaskConfig{
		Base:     flow.Base{Name: id},
		TaskType: taskType,
		Prompt:   prompt,
	}}
}

func node(id string, kind flow.Kind) flow.Node {
	return flow.Node{ID: id, Kind: kind, Config: flow.DefaultConfig(kind)}
}

func edge(source, target string) flow.Edge {
	return flow.Edge{ID: source + "-" + target, Source: source, Target: target}
}

// upper is a deterministic executor: it upper-cases the input.
var upper = ExecutorFunc(func(_ context.Context, _ flow.TaskType, input, _ string) (string, error) {
	return strings.ToUpper(input), nil
})

type call struct {
	taskType flow.TaskType
	input    string
	prompt   string
}

type recorder struct {
	calls []call
	fn    func(c call) (string, error)
}

func (r *recorder) Execute(_ context.Context, taskType flow.TaskType, input, prompt string) (string, error) {
	c := call{taskType: taskType, input: input, prompt: prompt}
	r.calls = append(r.calls, c)
	if r.fn != nil {
		return r.fn(c)
	}
	return input, nil
}

type notReady struct{ recorder }

func (notReady) Ready() error { return errors.New("api key missing") }

func TestRunEndToEnd(t *testing.T) {
	nodes := []flow.Node{
		inputNode("input", "hi"),
		taskNode("task", flow.TaskSummarize, "Summarize the input text"),
		node("output", flow.KindOutput),
	}
	edges := []flow.Edge{edge("input", "task"), edge("task", "output")}

	exec := &recorder{fn: func(c call) (string, error) {
		if c.taskType == flow.TaskSummarize && c.input == "hi" {
			return "HI", nil
		}
		return "", errors.New("unexpected call")
	}}

	res, err := New(exec).Run(context.Background(), nodes, edges, "")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"input": "hi", "task": "HI", "output": "HI"}, res.Outputs)
	assert.Empty(t, res.Skipped)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "Summarize the input text", exec.calls[0].prompt)
}

func TestRunSeeding(t *testing.T) {
	nodes := []flow.Node{inputNode("in", "default"), node("out", flow.KindOutput)}
	edges := []flow.Edge{edge("in", "out")}

	t.Run("initial input wins over default value", func(t *testing.T) {
		res, err := New(upper).Run(context.Background(), nodes, edges, "given")
		require.NoError(t, err)
		assert.Equal(t, "given", res.Outputs["in"])
		assert.Equal(t, "given", res.Outputs["out"])
	})

	t.Run("default value when initial input is empty", func(t *testing.T) {
		res, err := New(upper).Run(context.Background(), nodes, edges, "")
		require.NoError(t, err)
		assert.Equal(t, "default", res.Outputs["out"])
	})

	t.Run("empty string when neither is set", func(t *testing.T) {
		res, err := New(upper).Run(context.Background(), []flow.Node{inputNode("in", "")}, nil, "")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"in": ""}, res.Outputs)
	})
}

func TestRunJoinsUpstreamResultsInEdgeOrder(t *testing.T) {
	nodes := []flow.Node{
		taskNode("task", flow.TaskAnalyze, ""),
		inputNode("b", "B"),
		inputNode("a", "A"),
	}
	edges := []flow.Edge{edge("a", "task"), edge("b", "task")}

	exec := &recorder{}
	res, err := New(exec).Run(context.Background(), nodes, edges, "")
	require.NoError(t, err)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "A\n\nB", exec.calls[0].input)
	assert.Equal(t, flow.TaskAnalyze, exec.calls[0].taskType)
	assert.Equal(t, "A\n\nB", res.Outputs["task"])
}

func TestRunRecoversTaskErrors(t *testing.T) {
	nodes := []flow.Node{
		inputNode("in", "x"),
		taskNode("task", flow.TaskTransform, ""),
		taskNode("after", flow.TaskSummarize, ""),
		node("out", flow.KindOutput),
	}
	edges := []flow.Edge{edge("in", "task"), edge("task", "after"), edge("after", "out")}

	exec := &recorder{fn: func(c call) (string, error) {
		if c.taskType == flow.TaskTransform {
			return "", errors.New("boom")
		}
		return "saw: " + c.input, nil
	}}

	res, err := New(exec).Run(context.Background(), nodes, edges, "")
	require.NoError(t, err)

	assert.Equal(t, "Error: boom", res.Outputs["task"])
	assert.Equal(t, "saw: Error: boom", res.Outputs["after"])
	assert.Equal(t, "saw: Error: boom", res.Outputs["out"])
	assert.Len(t, exec.calls, 2)
}

func TestRunLeavesUnreachableNodesUnresolved(t *testing.T) {
	t.Run("no path from a source", func(t *testing.T) {
		nodes := []flow.Node{
			inputNode("A", "a"),
			taskNode("B", flow.TaskSummarize, ""),
			taskNode("C", flow.TaskSummarize, ""),
		}
		exec := &recorder{}

		res, err := New(exec).Run(context.Background(), nodes, []flow.Edge{edge("C", "B")}, "")
		require.NoError(t, err)

		assert.Equal(t, map[string]string{"A": "a"}, res.Outputs)
		assert.Equal(t, []string{"B", "C"}, res.Skipped)
		assert.Empty(t, exec.calls)
	})

	t.Run("cycle and its downstream", func(t *testing.T) {
		nodes := []flow.Node{
			inputNode("in", "x"),
			node("r1", flow.KindRouter),
			node("r2", flow.KindRouter),
			node("out", flow.KindOutput),
		}
		edges := []flow.Edge{edge("in", "r1"), edge("r2", "r1"), edge("r1", "r2"), edge("r2", "out")}

		res, err := New(upper).Run(context.Background(), nodes, edges, "")
		require.NoError(t, err)

		assert.Equal(t, map[string]string{"in": "x"}, res.Outputs)
		assert.Equal(t, []string{"r1", "r2", "out"}, res.Skipped)
	})

	t.Run("dangling edge source", func(t *testing.T) {
		nodes := []flow.Node{inputNode("in", "x"), node("out", flow.KindOutput)}
		edges := []flow.Edge{edge("in", "out"), edge("ghost", "out")}

		res, err := New(upper).Run(context.Background(), nodes, edges, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"out"}, res.Skipped)
	})
}

func TestRunPassesThroughNonTaskKinds(t *testing.T) {
	nodes := []flow.Node{
		inputNode("in", "data"),
		node("tool", flow.KindTool),
		node("router", flow.KindRouter),
		node("relay", flow.KindInput),
		node("out", flow.KindOutput),
	}
	edges := []flow.Edge{edge("in", "tool"), edge("tool", "router"), edge("router", "relay"), edge("relay", "out")}

	exec := &recorder{}
	res, err := New(exec).Run(context.Background(), nodes, edges, "")
	require.NoError(t, err)

	for _, id := range []string{"in", "tool", "router", "relay", "out"} {
		assert.Equal(t, "data", res.Outputs[id], id)
	}
	assert.Empty(t, exec.calls)
}

func TestRunDefaultsEmptyTaskTypeToSummarize(t *testing.T) {
	nodes := []flow.Node{inputNode("in", "x"), taskNode("task", "", "my prompt")}
	exec := &recorder{}

	_, err := New(exec).Run(context.Background(), nodes, []flow.Edge{edge("in", "task")}, "")
	require.NoError(t, err)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, call{taskType: flow.TaskSummarize, input: "x", prompt: "my prompt"}, exec.calls[0])
}

func TestRunIsDeterministic(t *testing.T) {
	demo := flow.DemoWorkflow("demo", time.Time{})
	eng := New(upper)

	first, err := eng.Run(context.Background(), demo.Nodes, demo.Edges, "some text")
	require.NoError(t, err)
	second, err := eng.Run(context.Background(), demo.Nodes, demo.Edges, "some text")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Outputs, len(demo.Nodes))
	assert.Equal(t, "SOME TEXT", first.Outputs["output-3"])
}

func TestRunRequiresInitializedExecutor(t *testing.T) {
	nodes := []flow.Node{inputNode("in", "x"), taskNode("task", flow.TaskSummarize, "")}
	edges := []flow.Edge{edge("in", "task")}

	t.Run("nil executor", func(t *testing.T) {
		res, err := New(nil).Run(context.Background(), nodes, edges, "")
		assert.ErrorIs(t, err, ErrExecutorNotInitialized)
		assert.Nil(t, res)
	})

	t.Run("executor not ready", func(t *testing.T) {
		exec := &notReady{}
		res, err := New(exec).Run(context.Background(), nodes, edges, "")
		assert.ErrorIs(t, err, ErrExecutorNotInitialized)
		assert.ErrorContains(t, err, "api key missing")
		assert.Nil(t, res)
		assert.Empty(t, exec.calls)
	})
}
