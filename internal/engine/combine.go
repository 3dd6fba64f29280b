package engine

import (
	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/rates"
)

// CombineBranches applies three meetings, three combinations, six harmonies,
// half meetings and arched combinations. A combination transforms when a stem
// anywhere in the chart already carries its result element.
func CombineBranches(s State) State {
	s = s.clone()
	weights := attention(detectAll(s))
	for _, c := range orderCombinations(s, detectBranchCombinations(s)) {
		transformed := s.stemCarries(c.result)
		combine(&s, "branch_combination", c, weights, transformed, func(id NodeID) g.Polarity {
			return s.branchAt(id.Pos).Polarity()
		})
	}
	return s
}

// CombineStems applies the five stem pairings. Transformation looks at branch
// main qi instead of stems.
func CombineStems(s State) State {
	s = s.clone()
	weights := attention(detectAll(s))
	for _, c := range orderCombinations(s, detectStemCombinations(s)) {
		transformed := s.branchCarries(c.result)
		combine(&s, "stem_combination", c, weights, transformed, func(id NodeID) g.Polarity {
			return s.stemAt(id.Pos).Polarity()
		})
	}
	return s
}

func (s State) stemCarries(e g.Element) bool {
	for _, pos := range s.Priority {
		if n := s.Nodes[pos][SlotStem]; n.Present && n.Element == e {
			return true
		}
	}
	return false
}

func (s State) branchCarries(e g.Element) bool {
	for _, pos := range s.Priority {
		if n := s.Nodes[pos][SlotBranch]; n.Present && n.Element == e {
			return true
		}
	}
	return false
}

// combine moves one combination's yield into bonus nodes, one per participant,
// each sized by the participant's attention share. Participants of a different
// element give up part of what they contribute.
func combine(s *State, stage string, c candidate, weights map[NodeID]float64, transformed bool, polarity func(NodeID) g.Polarity) {
	basis := s.basisOf(c)
	points := basis * c.family.CombineRate() * rates.GapMultiplier(c.gap)
	yield := points * rates.PartialMultiplier
	if transformed {
		yield = points * rates.TransformMultiplier
	}

	result := c.result
	ix := Interaction{
		Stage:       stage,
		Family:      c.family,
		Pattern:     c.pattern,
		Basis:       basis,
		Gap:         c.gap,
		Result:      &result,
		Transformed: transformed,
	}

	var bonusIDs []NodeID
	var bonusPoints []float64
	for _, id := range c.nodes {
		contribution := yield * share(c, id, weights)

		var applied float64
		if n := s.node(id); n != nil && n.Element != c.result {
			var short float64
			applied, short = s.apply(id, -contribution*rates.CombineDrain)
			ix.Shortfall += short
		}
		ix.Nodes = append(ix.Nodes, id)
		ix.Deltas = append(ix.Deltas, applied)

		stem := g.StemOf(c.result, polarity(id))
		bonusIDs = append(bonusIDs, s.addBonus(id.Pos, stem, contribution, c.family, c.pattern, c.nodes))
		bonusPoints = append(bonusPoints, contribution)
	}
	ix.Nodes = append(ix.Nodes, bonusIDs...)
	ix.Deltas = append(ix.Deltas, bonusPoints...)
	s.record(ix)
}
