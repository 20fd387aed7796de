// Package api exposes the graph store, workflow persistence and execution
// engine over HTTP with fiber.
package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/engine"
	"github.com/meikuraledutech/flow/graph"
	"github.com/meikuraledutech/flow/layout"
)

// ExecutorFactory builds a task executor for one run. apiKey is the key
// supplied with the request and may be empty.
type ExecutorFactory func(apiKey string) (engine.TaskExecutor, error)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger handed to the execution engine.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// Handler serves the HTTP routes.
type Handler struct {
	persist     flow.Store
	graph       *graph.Store
	newExecutor ExecutorFactory
	logger      *slog.Logger
}

// New creates a Handler. persist backs the schema routes and may be nil
// when the backend has no schema.
func New(persist flow.Store, g *graph.Store, newExecutor ExecutorFactory, opts ...Option) *Handler {
	h := &Handler{
		persist:     persist,
		graph:       g,
		newExecutor: newExecutor,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every route on app.
func (h *Handler) Register(app *fiber.App) {
	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", h.createSchema)
	app.Delete("/schema", h.dropSchema)

	// ── Workflows ─────────────────────────────────────────────────────
	app.Get("/workflows", h.listWorkflows)
	app.Post("/workflows", h.createWorkflow)
	app.Post("/workflows/demo", h.createDemoWorkflow)
	app.Post("/workflows/import", h.importWorkflow)
	app.Get("/workflows/export", h.exportWorkflow)
	app.Post("/workflows/save", h.saveWorkflow)
	app.Post("/workflows/:id/load", h.loadWorkflow)
	app.Put("/workflows/:id", h.updateWorkflow)
	app.Delete("/workflows/:id", h.deleteWorkflow)

	// ── Graph ─────────────────────────────────────────────────────────
	app.Get("/graph", h.getGraph)
	app.Post("/graph/nodes", h.addNode)
	app.Patch("/graph/nodes", h.applyNodeChanges)
	app.Patch("/graph/edges", h.applyEdgeChanges)
	app.Post("/graph/connect", h.connect)
	app.Patch("/graph/nodes/:id/configuration", h.updateNodeConfiguration)
	app.Put("/graph/selection", h.selectNode)
	app.Post("/graph/layout", h.autoLayout)

	// ── Execution ─────────────────────────────────────────────────────
	app.Post("/execute", h.execute)
}

func (h *Handler) createSchema(c fiber.Ctx) error {
	if h.persist == nil {
		return c.JSON(fiber.Map{"message": "schema created"})
	}
	if err := h.persist.CreateSchema(c.Context()); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "schema created"})
}

func (h *Handler) dropSchema(c fiber.Ctx) error {
	if h.persist == nil {
		return c.JSON(fiber.Map{"message": "schema dropped"})
	}
	if err := h.persist.DropSchema(c.Context()); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "schema dropped"})
}

// fail writes err as a JSON error body with a status derived from it.
func fail(c fiber.Ctx, err error) error {
	return c.Status(statusOf(err)).JSON(fiber.Map{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, flow.ErrNodeNotFound),
		errors.Is(err, flow.ErrWorkflowNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, flow.ErrInvalidKind),
		errors.Is(err, flow.ErrInvalidConfig),
		errors.Is(err, flow.ErrInvalidWorkflow),
		errors.Is(err, layout.ErrUnknownDirection):
		return fiber.StatusBadRequest
	case errors.Is(err, flow.ErrNoCurrentWorkflow):
		return fiber.StatusConflict
	case errors.Is(err, engine.ErrExecutorNotInitialized):
		return fiber.StatusPreconditionFailed
	}
	return fiber.StatusInternalServerError
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
