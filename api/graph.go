package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/graph"
	"github.com/meikuraledutech/flow/layout"
)

// graphView is the live editing state.
type graphView struct {
	Workflow  *flow.Workflow   `json:"workflow"`
	Nodes     []flow.Node      `json:"nodes"`
	Edges     []flow.Edge      `json:"edges"`
	Selected  *flow.Node       `json:"selected"`
	Direction layout.Direction `json:"direction"`
}

type addNodeRequest struct {
	Type     flow.Kind     `json:"type"`
	Position flow.Position `json:"position"`
}

type connectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type selectionRequest struct {
	ID string `json:"id"`
}

func (h *Handler) getGraph(c fiber.Ctx) error {
	nodes, edges := h.graph.Snapshot()
	view := graphView{
		Nodes:     nodes,
		Edges:     edges,
		Direction: h.graph.LayoutDirection(),
	}
	if w, ok := h.graph.Current(); ok {
		view.Workflow = &w
	}
	if n, ok := h.graph.Selected(); ok {
		view.Selected = &n
	}
	return c.JSON(view)
}

func (h *Handler) addNode(c fiber.Ctx) error {
	var req addNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	n, err := h.graph.AddNode(c.Context(), req.Type, req.Position)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

func (h *Handler) applyNodeChanges(c fiber.Ctx) error {
	var changes []graph.NodeChange
	if err := c.Bind().JSON(&changes); err != nil {
		return badRequest(c, "invalid body")
	}
	h.graph.ApplyNodeChanges(c.Context(), changes)
	return c.JSON(h.graph.Nodes())
}

func (h *Handler) applyEdgeChanges(c fiber.Ctx) error {
	var changes []graph.EdgeChange
	if err := c.Bind().JSON(&changes); err != nil {
		return badRequest(c, "invalid body")
	}
	h.graph.ApplyEdgeChanges(c.Context(), changes)
	return c.JSON(h.graph.Edges())
}

func (h *Handler) connect(c fiber.Ctx) error {
	var req connectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Source == "" || req.Target == "" {
		return badRequest(c, "source and target are required")
	}
	e, created := h.graph.Connect(c.Context(), req.Source, req.Target)
	if !created {
		return c.JSON(e)
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

func (h *Handler) updateNodeConfiguration(c fiber.Ctx) error {
	n, err := h.graph.UpdateNodeConfiguration(c.Context(), c.Params("id"), c.Body())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(n)
}

func (h *Handler) selectNode(c fiber.Ctx) error {
	var req selectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	h.graph.SelectNode(req.ID)
	n, ok := h.graph.Selected()
	if !ok {
		return c.JSON(fiber.Map{"selected": nil})
	}
	return c.JSON(fiber.Map{"selected": n})
}

// autoLayout accepts an optional body of layout.Options. A direction in the
// body also becomes the store's default.
func (h *Handler) autoLayout(c fiber.Ctx) error {
	var opts layout.Options
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&opts); err != nil {
			return badRequest(c, "invalid body")
		}
	}
	if opts.Direction != "" {
		d, err := layout.ParseDirection(string(opts.Direction))
		if err != nil {
			return fail(c, err)
		}
		h.graph.SetLayoutDirection(d)
	}
	return c.JSON(h.graph.AutoLayout(c.Context(), opts))
}
