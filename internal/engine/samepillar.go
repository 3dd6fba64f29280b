package engine

import (
	"math"

	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/patterns"
	"github.com/talgya/wuxing/internal/rates"
)

// ResolveSamePillar settles each pillar's stem against its own branch main qi.
// No other pillar is consulted.
func ResolveSamePillar(s State) State {
	s = s.clone()
	for _, pos := range s.Priority {
		st, br := stemID(pos), branchID(pos)
		stem, branch := s.node(st), s.node(br)
		if stem == nil || branch == nil {
			continue
		}

		basis := math.Min(stem.Points, branch.Points)
		rel := g.RelationOf(stem.Element, branch.Element)
		ix := Interaction{
			Stage:   "same_pillar",
			Family:  patterns.SamePillar,
			Pattern: s.Chart.Pillars[pos].String() + " " + rel.String(),
			Nodes:   []NodeID{st, br},
			Basis:   basis,
		}

		var stemDelta, branchDelta float64
		switch rel {
		case g.RelationSame:
			ix.LogOnly = true
		case g.RelationProduces:
			stemDelta = -rates.ProduceSource * basis
			branchDelta = rates.ProduceTarget * basis
		case g.RelationProducedBy:
			branchDelta = -rates.ProduceSource * basis
			stemDelta = rates.ProduceTarget * basis
		case g.RelationControls:
			stemDelta = -rates.ControlController * basis
			branchDelta = -rates.ControlControlled * basis
		case g.RelationControlledBy:
			branchDelta = -rates.ControlController * basis
			stemDelta = -rates.ControlControlled * basis
		}

		a, shortA := s.apply(st, stemDelta)
		b, shortB := s.apply(br, branchDelta)
		ix.Deltas = []float64{a, b}
		ix.Shortfall = shortA + shortB
		s.record(ix)
	}
	return s
}
