// Package layout arranges workflow nodes on a grid of levels and columns.
//
// A node's level is the length of the longest path reaching it from a root
// (a node without incoming edges). Within a level, nodes take sequential
// columns in their original order. There is no crossing minimisation.
package layout

import (
	"errors"
	"fmt"

	"github.com/meikuraledutech/flow"
)

// Direction is the axis along which levels advance.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

const (
	DefaultNodeWidth         = 180
	DefaultNodeHeight        = 100
	DefaultHorizontalSpacing = 150
	DefaultVerticalSpacing   = 150
)

// ErrUnknownDirection is returned by ParseDirection.
var ErrUnknownDirection = errors.New("layout: unknown direction")

// ParseDirection accepts "horizontal" or "vertical"; empty means vertical.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", Vertical:
		return Vertical, nil
	case Horizontal:
		return Horizontal, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownDirection, s)
}

// ToggleDirection returns the other direction.
func ToggleDirection(d Direction) Direction {
	if d == Horizontal {
		return Vertical
	}
	return Horizontal
}

// Options configures AutoLayout. Zero values take the defaults.
type Options struct {
	Direction         Direction `json:"direction"`
	NodeWidth         float64   `json:"nodeWidth"`
	NodeHeight        float64   `json:"nodeHeight"`
	HorizontalSpacing float64   `json:"horizontalSpacing"`
	VerticalSpacing   float64   `json:"verticalSpacing"`
}

func (o Options) withDefaults() Options {
	if o.Direction == "" {
		o.Direction = Vertical
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.HorizontalSpacing <= 0 {
		o.HorizontalSpacing = DefaultHorizontalSpacing
	}
	if o.VerticalSpacing <= 0 {
		o.VerticalSpacing = DefaultVerticalSpacing
	}
	return o
}

// AutoLayout returns copies of nodes with Position recomputed from the
// graph topology. No other field is touched and the inputs are not modified.
func AutoLayout(nodes []flow.Node, edges []flow.Edge, opts Options) []flow.Node {
	opts = opts.withDefaults()
	levels := Levels(nodes, edges)

	columns := make(map[string]int, len(nodes))
	perLevel := make(map[int]int)
	for _, n := range nodes {
		l := levels[n.ID]
		columns[n.ID] = perLevel[l]
		perLevel[l]++
	}

	stepX := opts.NodeWidth + opts.HorizontalSpacing
	stepY := opts.NodeHeight + opts.VerticalSpacing

	out := flow.CloneNodes(nodes)
	for i := range out {
		level := float64(levels[out[i].ID])
		column := float64(columns[out[i].ID])
		if opts.Direction == Horizontal {
			out[i].Position = flow.Position{X: level * stepX, Y: column * stepY}
		} else {
			out[i].Position = flow.Position{X: column * stepX, Y: level * stepY}
		}
	}
	return out
}

// Levels assigns every node a level. Roots start at 0 and each edge pushes
// its target to at least source+1; a node is revisited whenever its level
// grows, so on acyclic graphs the result is the longest-path layering.
// Relaxation stops after len(nodes) rounds so that cycles terminate. Nodes
// never reached from a root get level 0. An edge from an unknown source
// still keeps its target from being a root; edges to unknown targets are
// ignored.
func Levels(nodes []flow.Node, edges []flow.Edge) map[string]int {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	outgoing := make(map[string][]string, len(nodes))
	indegree := make(map[string]int, len(nodes))
	for _, e := range edges {
		if !known[e.Target] {
			continue
		}
		indegree[e.Target]++
		if known[e.Source] {
			outgoing[e.Source] = append(outgoing[e.Source], e.Target)
		}
	}

	levels := make(map[string]int, len(nodes))
	var frontier []string
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			levels[n.ID] = 0
			frontier = append(frontier, n.ID)
		}
	}

	for round := 0; len(frontier) > 0 && round < len(nodes); round++ {
		var next []string
		queued := make(map[string]bool)
		for _, id := range frontier {
			for _, target := range outgoing[id] {
				if l, ok := levels[target]; ok && l >= round+1 {
					continue
				}
				levels[target] = round + 1
				if !queued[target] {
					queued[target] = true
					next = append(next, target)
				}
			}
		}
		frontier = next
	}

	for _, n := range nodes {
		if _, ok := levels[n.ID]; !ok {
			levels[n.ID] = 0
		}
	}
	return levels
}
