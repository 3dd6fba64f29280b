package engine

import (
	"math"

	"golang.org/x/exp/slices"

	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/patterns"
	"github.com/talgya/wuxing/internal/rates"
)

// flowEnd is a visible node taking part in natural flow.
type flowEnd struct {
	id      NodeID
	rank    int
	element g.Element
}

func (e flowEnd) hover() bool { return e.id.Slot == SlotHover }

// flowPair is one directed production or control edge between visible nodes.
type flowPair struct {
	src, dst flowEnd
	control  bool
	gap      int
	lead     int
	other    int
}

// visible lists stems, branch main qi and bonus nodes in priority order;
// hidden qi never flows. A hover node, when present, comes last.
func visible(s State) []flowEnd {
	var out []flowEnd
	for r, pos := range s.Priority {
		for _, slot := range []Slot{SlotStem, SlotBranch} {
			if n := s.Nodes[pos][slot]; n.Present {
				out = append(out, flowEnd{id: n.ID, rank: r, element: n.Element})
			}
		}
		for _, b := range s.Bonus {
			if b.ID.Pos == pos {
				out = append(out, flowEnd{id: b.ID, rank: r, element: b.Element})
			}
		}
	}
	if s.hover != nil {
		out = append(out, flowEnd{id: s.hover.ID, rank: len(s.Priority), element: s.hover.Element})
	}
	return out
}

// flowPairs builds every cross-pillar edge. Pairs inside one pillar were settled
// by the same-pillar resolver or belong to one combination, and same-element
// pairs carry no relation.
func flowPairs(ends []flowEnd) []flowPair {
	var out []flowPair
	for i := 0; i < len(ends); i++ {
		for j := i + 1; j < len(ends); j++ {
			a, b := ends[i], ends[j]
			if !a.hover() && !b.hover() && a.id.Pos == b.id.Pos {
				continue
			}

			p := flowPair{}
			switch g.RelationOf(a.element, b.element) {
			case g.RelationSame:
				continue
			case g.RelationProduces:
				p.src, p.dst = a, b
			case g.RelationProducedBy:
				p.src, p.dst = b, a
			case g.RelationControls:
				p.src, p.dst, p.control = a, b, true
			case g.RelationControlledBy:
				p.src, p.dst, p.control = b, a, true
			}

			if a.hover() || b.hover() {
				p.gap = rates.HoverGap
			} else {
				p.gap = g.Gap(a.id.Pos, b.id.Pos)
			}
			p.lead, p.other = a.rank, b.rank
			if p.other < p.lead {
				p.lead, p.other = p.other, p.lead
			}
			out = append(out, p)
		}
	}

	slices.SortStableFunc(out, func(x, y flowPair) int {
		switch {
		case x.lead != y.lead:
			return x.lead - y.lead
		case x.gap != y.gap:
			return x.gap - y.gap
		case x.control != y.control:
			if !x.control {
				return -1
			}
			return 1
		}
		return x.other - y.other
	})
	return out
}

// Flow runs the light cross-pillar production/control pass at half the
// same-pillar rates, damped by gap. Each pair is processed once.
func Flow(s State) State {
	s = s.clone()
	for _, p := range flowPairs(visible(s)) {
		basis := math.Min(s.Points(p.src.id), s.Points(p.dst.id))
		gm := rates.GapMultiplier(p.gap)

		var srcDelta, dstDelta float64
		label := "produces"
		if p.control {
			label = "controls"
			srcDelta = -rates.FlowControlController * basis * gm
			dstDelta = -rates.FlowControlControlled * basis * gm
		} else {
			srcDelta = -rates.FlowProduceSource * basis * gm
			dstDelta = rates.FlowProduceTarget * basis * gm
		}

		a, shortA := s.apply(p.src.id, srcDelta)
		b, shortB := s.apply(p.dst.id, dstDelta)
		s.record(Interaction{
			Stage:     "natural_flow",
			Family:    patterns.NaturalFlow,
			Pattern:   p.src.element.String() + " " + label + " " + p.dst.element.String(),
			Nodes:     []NodeID{p.src.id, p.dst.id},
			Deltas:    []float64{a, b},
			Basis:     basis,
			Gap:       p.gap,
			Shortfall: shortA + shortB,
		})
	}
	return s
}
