package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/engine"
	"github.com/meikuraledutech/flow/graph"
	"github.com/meikuraledutech/flow/memory"
)

func echoExecutor(apiKey string) (engine.TaskExecutor, error) {
	if apiKey == "" {
		return nil, errors.New("missing api key")
	}
	return engine.ExecutorFunc(func(_ context.Context, taskType flow.TaskType, input, _ string) (string, error) {
		return string(taskType) + "(" + input + ")", nil
	}), nil
}

func newTestApp(t *testing.T) (*fiber.App, *graph.Store) {
	t.Helper()
	persist := memory.New()
	g := graph.New(persist)
	app := fiber.New()
	New(persist, g, echoExecutor).Register(app)
	return app, g
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestSchemaRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, http.MethodPost, "/schema", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodDelete, "/schema", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestWorkflowLifecycle(t *testing.T) {
	app, g := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/workflows/save", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "no current workflow")

	status, _ = do(t, app, http.MethodPost, "/workflows", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, http.MethodPost, "/workflows", `{"name":"First","description":"d"}`)
	require.Equal(t, http.StatusCreated, status)
	first := decode[flow.Workflow](t, body)
	assert.Equal(t, "First", first.Name)

	status, body = do(t, app, http.MethodPost, "/workflows/demo", "")
	require.Equal(t, http.StatusCreated, status)
	demo := decode[flow.Workflow](t, body)
	assert.Len(t, demo.Nodes, 7)

	status, body = do(t, app, http.MethodGet, "/workflows", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]flow.Workflow](t, body), 2)

	status, _ = do(t, app, http.MethodPost, "/workflows/"+first.ID+"/load", "")
	require.Equal(t, http.StatusOK, status)
	cur, _ := g.Current()
	assert.Equal(t, first.ID, cur.ID)

	status, _ = do(t, app, http.MethodPost, "/workflows/missing/load", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, app, http.MethodPut, "/workflows/"+first.ID, `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", decode[flow.Workflow](t, body).Name)

	status, _ = do(t, app, http.MethodPut, "/workflows/missing", `{"name":"X"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, "/workflows/save", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodDelete, "/workflows/"+first.ID, "")
	assert.Equal(t, http.StatusNoContent, status)
	_, ok := g.Current()
	assert.False(t, ok)
	assert.Len(t, g.Workflows(), 1)
}

func TestExportImport(t *testing.T) {
	app, g := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/workflows/export", "")
	assert.Equal(t, http.StatusConflict, status)

	do(t, app, http.MethodPost, "/workflows/demo", "")
	status, exported := do(t, app, http.MethodGet, "/workflows/export", "")
	require.Equal(t, http.StatusOK, status)

	other, og := newTestApp(t)
	status, body := do(t, other, http.MethodPost, "/workflows/import", string(exported))
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Content Analyzer Demo", decode[flow.Workflow](t, body).Name)
	assert.Equal(t, g.Edges(), og.Edges())
}

func TestImportMalformedLeavesGraphUnchanged(t *testing.T) {
	app, _ := newTestApp(t)
	do(t, app, http.MethodPost, "/workflows/demo", "")
	_, before := do(t, app, http.MethodGet, "/graph", "")

	status, body := do(t, app, http.MethodPost, "/workflows/import", `{"id":"x","name":"X","nodes":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "error")

	_, after := do(t, app, http.MethodGet, "/graph", "")
	assert.JSONEq(t, string(before), string(after))
}

func TestGraphEditing(t *testing.T) {
	app, g := newTestApp(t)

	status, _ := do(t, app, http.MethodPost, "/graph/nodes", `{"type":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := do(t, app, http.MethodPost, "/graph/nodes", `{"type":"input","position":{"x":1,"y":2}}`)
	require.Equal(t, http.StatusCreated, status)
	in := decode[flow.Node](t, body)
	assert.Equal(t, "New Input", in.Label)

	_, body = do(t, app, http.MethodPost, "/graph/nodes", `{"type":"task"}`)
	task := decode[flow.Node](t, body)

	status, _ = do(t, app, http.MethodPost, "/graph/connect", `{"source":"`+in.ID+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	conn := `{"source":"` + in.ID + `","target":"` + task.ID + `"}`
	status, _ = do(t, app, http.MethodPost, "/graph/connect", conn)
	assert.Equal(t, http.StatusCreated, status)
	status, _ = do(t, app, http.MethodPost, "/graph/connect", conn)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, g.Edges(), 1)

	status, body = do(t, app, http.MethodPatch, "/graph/nodes/"+task.ID+"/configuration", `{"name":"Summ","prompt":"Shorter"}`)
	require.Equal(t, http.StatusOK, status)
	updated := decode[flow.Node](t, body)
	assert.Equal(t, "Summ", updated.Label)
	assert.Equal(t, "Shorter", updated.Config.(flow.TaskConfig).Prompt)

	status, _ = do(t, app, http.MethodPatch, "/graph/nodes/"+task.ID+"/configuration", `{"taskType":"dance"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = do(t, app, http.MethodPatch, "/graph/nodes/missing/configuration", `{}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, app, http.MethodPut, "/graph/selection", `{"id":"`+task.ID+`"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), task.ID)

	status, body = do(t, app, http.MethodPatch, "/graph/nodes", `[{"type":"position","id":"`+in.ID+`","position":{"x":9,"y":9}},{"type":"remove","id":"`+task.ID+`"}]`)
	require.Equal(t, http.StatusOK, status)
	nodes := decode[[]flow.Node](t, body)
	require.Len(t, nodes, 1)
	assert.Equal(t, flow.Position{X: 9, Y: 9}, nodes[0].Position)
	assert.Empty(t, g.Edges())

	_, body = do(t, app, http.MethodGet, "/graph", "")
	assert.Contains(t, string(body), `"selected":null`)

	status, body = do(t, app, http.MethodPatch, "/graph/edges", `[{"type":"add","id":"x","item":{"id":"x","source":"a","target":"b"}}]`)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]flow.Edge](t, body), 1)

	status, _ = do(t, app, http.MethodPatch, "/graph/edges", `{"not":"a list"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAutoLayoutRoute(t *testing.T) {
	app, g := newTestApp(t)
	do(t, app, http.MethodPost, "/workflows/demo", "")

	status, _ := do(t, app, http.MethodPost, "/graph/layout", `{"direction":"diagonal"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := do(t, app, http.MethodPost, "/graph/layout", `{"direction":"horizontal"}`)
	require.Equal(t, http.StatusOK, status)
	nodes := decode[[]flow.Node](t, body)
	assert.Equal(t, 0.0, nodes[0].Position.X)
	assert.Equal(t, "horizontal", string(g.LayoutDirection()))

	status, _ = do(t, app, http.MethodPost, "/graph/layout", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestExecuteRoute(t *testing.T) {
	app, _ := newTestApp(t)
	do(t, app, http.MethodPost, "/workflows/demo", "")

	status, body := do(t, app, http.MethodPost, "/execute", `{"input":"hello"}`)
	assert.Equal(t, http.StatusPreconditionFailed, status)
	assert.Contains(t, string(body), "not initialized")

	status, body = do(t, app, http.MethodPost, "/execute", `{"input":"hello","apiKey":"k"}`)
	require.Equal(t, http.StatusOK, status)
	result := decode[engine.Result](t, body)
	assert.Equal(t, "hello", result.Outputs["input-1"])
	assert.Equal(t, "analyze(hello)", result.Outputs["task-1"])
	assert.Equal(t, "analyze(hello)", result.Outputs["output-1"])
	assert.Empty(t, result.Skipped)
}
