package api

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
)

type workflowRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) listWorkflows(c fiber.Ctx) error {
	return c.JSON(h.graph.Workflows())
}

func (h *Handler) createWorkflow(c fiber.Ctx) error {
	var req workflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	w, err := h.graph.CreateWorkflow(c.Context(), req.Name, req.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(w)
}

func (h *Handler) createDemoWorkflow(c fiber.Ctx) error {
	return c.Status(fiber.StatusCreated).JSON(h.graph.CreateDemoWorkflow(c.Context()))
}

func (h *Handler) importWorkflow(c fiber.Ctx) error {
	w, err := h.graph.ImportWorkflow(c.Context(), c.Body())
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(w)
}

func (h *Handler) exportWorkflow(c fiber.Ctx) error {
	data, err := h.graph.ExportWorkflow()
	if err != nil {
		return fail(c, err)
	}
	cur, _ := h.graph.Current()
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", cur.Name+".json"))
	return c.Send(data)
}

func (h *Handler) saveWorkflow(c fiber.Ctx) error {
	w, err := h.graph.SaveWorkflow(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(w)
}

func (h *Handler) loadWorkflow(c fiber.Ctx) error {
	w, err := h.graph.LoadWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(w)
}

func (h *Handler) updateWorkflow(c fiber.Ctx) error {
	var req workflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	w, err := h.graph.UpdateWorkflow(c.Context(), c.Params("id"), req.Name, req.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(w)
}

func (h *Handler) deleteWorkflow(c fiber.Ctx) error {
	h.graph.DeleteWorkflow(c.Context(), c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}
