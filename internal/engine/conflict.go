package engine

import (
	"github.com/talgya/wuxing/internal/rates"
)

// ClashBranches applies six clashes, punishments, six harms and destructions in
// that order. Same-element conflicts are logged with no point change.
func ClashBranches(s State) State {
	s = s.clone()
	for _, c := range detectBranchConflicts(s) {
		conflict(&s, "branch_conflict", c)
	}
	return s
}

// ClashStems applies the four stem clashes.
func ClashStems(s State) State {
	s = s.clone()
	for _, c := range detectStemClashes(s) {
		conflict(&s, "stem_conflict", c)
	}
	return s
}

// conflict damages both sides of a pair: the aggressor (nodes[0]) loses the
// smaller share of basis, the victim the larger. Losses clamp at zero.
func conflict(s *State, stage string, c candidate) {
	basis := s.basisOf(c)
	ix := Interaction{
		Stage:      stage,
		Family:     c.family,
		Punishment: c.kind,
		Pattern:    c.pattern,
		Nodes:      c.nodes,
		Deltas:     make([]float64, len(c.nodes)),
		Basis:      basis,
		Gap:        c.gap,
		LogOnly:    c.logOnly,
	}
	if c.logOnly || len(c.nodes) != 2 {
		ix.LogOnly = true
		s.record(ix)
		return
	}

	aggressor, victim := c.family.ConflictRates()
	gm := rates.GapMultiplier(c.gap)

	a, shortA := s.apply(c.nodes[0], -aggressor*basis*gm)
	v, shortV := s.apply(c.nodes[1], -victim*basis*gm)
	ix.Deltas[0], ix.Deltas[1] = a, v
	ix.Shortfall = shortA + shortV
	s.record(ix)
}
