package engine

import (
	"strings"

	"golang.org/x/exp/slices"

	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/patterns"
)

// candidate is a detected stem or branch pattern before any points move.
// For directed conflicts nodes[0] is the aggressor.
type candidate struct {
	family   patterns.Family
	kind     patterns.PunishmentKind
	pattern  string
	nodes    []NodeID
	result   g.Element
	gap      int
	directed bool
	logOnly  bool
}

// nodeKey is an unordered pair of node ids.
type nodeKey [2]NodeID

func pairKey(a, b NodeID) nodeKey {
	if lessID(b, a) {
		a, b = b, a
	}
	return nodeKey{a, b}
}

func lessID(a, b NodeID) bool {
	if a.Pos != b.Pos {
		return a.Pos < b.Pos
	}
	if a.Slot != b.Slot {
		return a.Slot < b.Slot
	}
	return a.Seq < b.Seq
}

// positionPairs lists every unordered pair of present positions in priority order.
func positionPairs(s State) [][2]g.Position {
	var out [][2]g.Position
	for i := 0; i < len(s.Priority); i++ {
		for j := i + 1; j < len(s.Priority); j++ {
			out = append(out, [2]g.Position{s.Priority[i], s.Priority[j]})
		}
	}
	return out
}

// positionTriples lists every unordered triple of present positions in priority order.
func positionTriples(s State) [][3]g.Position {
	var out [][3]g.Position
	n := len(s.Priority)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				out = append(out, [3]g.Position{s.Priority[i], s.Priority[j], s.Priority[k]})
			}
		}
	}
	return out
}

func (s State) branchAt(pos g.Position) g.Branch { return s.Chart.Pillars[pos].Branch }
func (s State) stemAt(pos g.Position) g.Stem     { return s.Chart.Pillars[pos].Stem }

// sameBranches reports whether the three positions hold exactly the set want.
func (s State) sameBranches(ps [3]g.Position, want [3]g.Branch) bool {
	var used [3]bool
	for _, pos := range ps {
		b := s.branchAt(pos)
		found := false
		for i, w := range want {
			if !used[i] && w == b {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func tripleGap(ps [3]g.Position) int {
	gap := 0
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if d := g.Gap(ps[i], ps[j]); d > gap {
				gap = d
			}
		}
	}
	return gap
}

func branchLabel(s State, ps ...g.Position) string {
	var b strings.Builder
	for _, pos := range ps {
		b.WriteString(s.branchAt(pos).Hanzi())
	}
	return b.String()
}

func stemLabel(s State, ps ...g.Position) string {
	var b strings.Builder
	for _, pos := range ps {
		b.WriteString(s.stemAt(pos).Hanzi())
	}
	return b.String()
}

// detectBranchCombinations finds positive branch patterns in precedence order.
// Two-branch patterns whose nodes both sit inside a detected three-branch
// pattern are dropped.
func detectBranchCombinations(s State) []candidate {
	var out []candidate
	covered := make(map[nodeKey]bool)

	triples := positionTriples(s)
	for _, table := range patterns.ThreeBranchCombinations() {
		for _, pat := range table {
			for _, ps := range triples {
				if !s.sameBranches(ps, pat.Branches) {
					continue
				}
				ids := []NodeID{branchID(ps[0]), branchID(ps[1]), branchID(ps[2])}
				out = append(out, candidate{
					family:  pat.Family,
					pattern: branchLabel(s, ps[0], ps[1], ps[2]),
					nodes:   ids,
					result:  pat.Result,
					gap:     tripleGap(ps),
				})
				covered[pairKey(ids[0], ids[1])] = true
				covered[pairKey(ids[0], ids[2])] = true
				covered[pairKey(ids[1], ids[2])] = true
			}
		}
	}

	pairs := positionPairs(s)
	for _, table := range patterns.TwoBranchCombinations() {
		for _, pat := range table {
			for _, pp := range pairs {
				if !pat.Matches(s.branchAt(pp[0]), s.branchAt(pp[1])) {
					continue
				}
				a, b := branchID(pp[0]), branchID(pp[1])
				if covered[pairKey(a, b)] {
					continue
				}
				out = append(out, candidate{
					family:  pat.Family,
					pattern: branchLabel(s, pp[0], pp[1]),
					nodes:   []NodeID{a, b},
					result:  pat.Result,
					gap:     g.Gap(pp[0], pp[1]),
				})
			}
		}
	}
	return out
}

// detectStemCombinations finds the five stem pairings across pillars.
func detectStemCombinations(s State) []candidate {
	var out []candidate
	pairs := positionPairs(s)
	for _, pat := range patterns.StemCombinations {
		for _, pp := range pairs {
			x, y := s.stemAt(pp[0]), s.stemAt(pp[1])
			if !((x == pat.A && y == pat.B) || (x == pat.B && y == pat.A)) {
				continue
			}
			out = append(out, candidate{
				family:  patterns.StemCombination,
				pattern: stemLabel(s, pp[0], pp[1]),
				nodes:   []NodeID{stemID(pp[0]), stemID(pp[1])},
				result:  pat.Result,
				gap:     g.Gap(pp[0], pp[1]),
			})
		}
	}
	return out
}

// conflictCandidate orients an undirected pair: a controller beats what it controls,
// and in a production relation the produced side drains the producer.
func conflictCandidate(s State, pat patterns.ConflictPair, p, q g.Position) candidate {
	if pat.Directed && s.branchAt(p) != pat.A {
		p, q = q, p
	}
	ep, eq := s.Nodes[p][SlotBranch].Element, s.Nodes[q][SlotBranch].Element
	c := candidate{
		family:   pat.Family,
		kind:     pat.Kind,
		gap:      g.Gap(p, q),
		directed: pat.Directed,
		logOnly:  ep == eq,
	}
	if !pat.Directed {
		switch g.RelationOf(ep, eq) {
		case g.RelationControlledBy, g.RelationProduces:
			p, q = q, p
		}
	}
	c.nodes = []NodeID{branchID(p), branchID(q)}
	c.pattern = branchLabel(s, p, q)
	return c
}

// detectBranchConflicts finds negative branch patterns: clashes, punishments,
// harms (adjacent pillars only), destructions.
func detectBranchConflicts(s State) []candidate {
	var out []candidate
	pairs := positionPairs(s)

	pairTable := func(table []patterns.ConflictPair, adjacentOnly bool) {
		for _, pat := range table {
			for _, pp := range pairs {
				if !pat.Matches(s.branchAt(pp[0]), s.branchAt(pp[1])) {
					continue
				}
				if adjacentOnly && g.Gap(pp[0], pp[1]) != 0 {
					continue
				}
				out = append(out, conflictCandidate(s, pat, pp[0], pp[1]))
			}
		}
	}

	pairTable(patterns.SixClashes, false)

	// Ungrateful punishment fires on any two of its three branches.
	pairTable(patterns.UngratefulPunishments, false)

	// Bullying punishment needs all three and is log-only.
	for _, ps := range positionTriples(s) {
		if !s.sameBranches(ps, patterns.BullyingPunishment) {
			continue
		}
		out = append(out, candidate{
			family:  patterns.Punishment,
			kind:    patterns.Bullying,
			pattern: branchLabel(s, ps[0], ps[1], ps[2]),
			nodes:   []NodeID{branchID(ps[0]), branchID(ps[1]), branchID(ps[2])},
			gap:     tripleGap(ps),
			logOnly: true,
		})
	}

	pairTable([]patterns.ConflictPair{patterns.UncivilPunishment}, false)

	for _, pp := range pairs {
		b := s.branchAt(pp[0])
		if b != s.branchAt(pp[1]) || !slices.Contains(patterns.SelfPunishingBranches, b) {
			continue
		}
		out = append(out, candidate{
			family:  patterns.Punishment,
			kind:    patterns.SelfPunishing,
			pattern: branchLabel(s, pp[0], pp[1]),
			nodes:   []NodeID{branchID(pp[0]), branchID(pp[1])},
			gap:     g.Gap(pp[0], pp[1]),
			logOnly: true,
		})
	}

	pairTable(patterns.SixHarms, true)
	pairTable(patterns.Destructions, false)
	return out
}

// detectStemClashes finds the four stem clashes; nodes[0] is the controller.
func detectStemClashes(s State) []candidate {
	var out []candidate
	pairs := positionPairs(s)
	for _, pat := range patterns.StemClashes {
		for _, pp := range pairs {
			p, q := pp[0], pp[1]
			x, y := s.stemAt(p), s.stemAt(q)
			switch {
			case x == pat[0] && y == pat[1]:
			case x == pat[1] && y == pat[0]:
				p, q = q, p
			default:
				continue
			}
			out = append(out, candidate{
				family:   patterns.StemClash,
				pattern:  stemLabel(s, p, q),
				nodes:    []NodeID{stemID(p), stemID(q)},
				gap:      g.Gap(p, q),
				directed: true,
			})
		}
	}
	return out
}

// detectAll lists every candidate that competes for node attention.
func detectAll(s State) []candidate {
	var out []candidate
	out = append(out, detectBranchCombinations(s)...)
	out = append(out, detectStemCombinations(s)...)
	out = append(out, detectBranchConflicts(s)...)
	out = append(out, detectStemClashes(s)...)
	return out
}

// attention sums, per node, the weight of every interaction it takes part in.
func attention(cands []candidate) map[NodeID]float64 {
	w := make(map[NodeID]float64)
	for _, c := range cands {
		for _, id := range c.nodes {
			w[id] += c.family.Weight()
		}
	}
	return w
}

// share is the part of a node's attention a candidate receives.
func share(c candidate, id NodeID, weights map[NodeID]float64) float64 {
	total := weights[id]
	if total <= 0 {
		return 1
	}
	return c.family.Weight() / total
}

// bestRank is the priority rank of a candidate's leading pillar.
func (s State) bestRank(c candidate) int {
	best := len(s.Priority)
	for _, id := range c.nodes {
		if r := s.rank(id.Pos); r < best {
			best = r
		}
	}
	return best
}

// basisOf is the smallest current value among a candidate's nodes.
func (s State) basisOf(c candidate) float64 {
	basis := -1.0
	for _, id := range c.nodes {
		if p := s.Points(id); basis < 0 || p < basis {
			basis = p
		}
	}
	if basis < 0 {
		return 0
	}
	return basis
}

// rankedCandidate carries the sort keys computed once at stage start.
type rankedCandidate struct {
	candidate
	rank  int
	basis float64
}

// orderCombinations sorts positive candidates by family precedence, leading
// pillar priority, then larger basis first. The sort is stable, so detection
// order settles any remaining tie.
func orderCombinations(s State, cands []candidate) []candidate {
	ranked := make([]rankedCandidate, len(cands))
	for i, c := range cands {
		ranked[i] = rankedCandidate{candidate: c, rank: s.bestRank(c), basis: s.basisOf(c)}
	}
	slices.SortStableFunc(ranked, func(a, b rankedCandidate) int {
		switch {
		case a.family != b.family:
			return int(a.family) - int(b.family)
		case a.rank != b.rank:
			return a.rank - b.rank
		case a.basis > b.basis:
			return -1
		case a.basis < b.basis:
			return 1
		}
		return 0
	})
	out := make([]candidate, len(ranked))
	for i := range ranked {
		out[i] = ranked[i].candidate
	}
	return out
}
