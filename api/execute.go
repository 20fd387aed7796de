package api

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/flow/engine"
)

type executeRequest struct {
	Input  string `json:"input"`
	APIKey string `json:"apiKey"`
}

// execute runs the live graph. The run sees a snapshot; edits made while it
// is in flight do not affect it.
func (h *Handler) execute(c fiber.Ctx) error {
	var req executeRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "invalid body")
		}
	}

	var executor engine.TaskExecutor
	if h.newExecutor != nil {
		var err error
		executor, err = h.newExecutor(req.APIKey)
		if err != nil {
			return fail(c, fmt.Errorf("%w: %v", engine.ErrExecutorNotInitialized, err))
		}
	}

	nodes, edges := h.graph.Snapshot()
	result, err := engine.New(executor, engine.WithLogger(h.logger)).Run(c.Context(), nodes, edges, req.Input)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}
