package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/patterns"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pillar(t *testing.T, text string) g.Pillar {
	t.Helper()
	p, err := g.ParsePillar(text)
	require.NoError(t, err, text)
	return p
}

func chart(t *testing.T, age int, pillars ...string) g.Chart {
	t.Helper()
	var c g.Chart
	for i, text := range pillars {
		if text == "" {
			continue
		}
		c.Set(g.Position(i), pillar(t, text))
	}
	c.Age = age
	return c
}

// workedChart is 丙寅 己亥 丁丑 丁未.
func workedChart(t *testing.T) g.Chart {
	return chart(t, 30, "丙寅", "己亥", "丁丑", "丁未")
}

func byFamily(log []Interaction, f patterns.Family) []Interaction {
	var out []Interaction
	for _, ix := range log {
		if ix.Family == f {
			out = append(out, ix)
		}
	}
	return out
}

func TestInitializeLayout(t *testing.T) {
	s, err := Initialize(workedChart(t))
	require.NoError(t, err)

	assert.Equal(t, 10.0, s.Points(stemID(g.Year)))
	assert.Equal(t, 8.0, s.Points(branchID(g.Year)))
	assert.Equal(t, 3.0, s.Points(NodeID{Pos: g.Year, Slot: SlotHidden1}))
	assert.Equal(t, 1.0, s.Points(NodeID{Pos: g.Year, Slot: SlotHidden2}))

	// 亥 holds two qi only.
	assert.Equal(t, 8.0, s.Points(branchID(g.Month)))
	assert.Equal(t, 3.0, s.Points(NodeID{Pos: g.Month, Slot: SlotHidden1}))
	assert.Nil(t, s.node(NodeID{Pos: g.Month, Slot: SlotHidden2}))

	assert.Nil(t, s.node(stemID(g.Luck)))
	assert.Empty(t, s.Log)
	assert.Empty(t, s.Bonus)
}

func TestInitializeMissingPillar(t *testing.T) {
	c := chart(t, 30, "丙寅", "己亥")
	_, err := Initialize(c)
	require.ErrorIs(t, err, g.ErrMissingPillar)

	_, err = Evaluate(c, Options{})
	require.ErrorIs(t, err, g.ErrMissingPillar)
}

func TestPillarPriority(t *testing.T) {
	tests := []struct {
		name string
		c    g.Chart
		want []g.Position
	}{
		{"child", chart(t, 10, "丙寅", "己亥", "丁丑", "丁未"), []g.Position{g.Year, g.Month, g.Day, g.Hour}},
		{"young adult", chart(t, 20, "丙寅", "己亥", "丁丑", "丁未"), []g.Position{g.Month, g.Year, g.Day, g.Hour}},
		{"adult", chart(t, 40, "丙寅", "己亥", "丁丑", "丁未"), []g.Position{g.Day, g.Month, g.Hour, g.Year}},
		{"elder", chart(t, 60, "丙寅", "己亥", "丁丑", "丁未"), []g.Position{g.Hour, g.Day, g.Month, g.Year}},
		{"elder without hour", chart(t, 60, "丙寅", "己亥", "丁丑"), []g.Position{g.Day, g.Month, g.Year}},
		{"overlays last", chart(t, 10, "丙寅", "己亥", "丁丑", "", "甲子", "乙丑"), []g.Position{g.Year, g.Month, g.Day, g.Luck, g.Annual}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PillarPriority(tt.c))
		})
	}
}

func TestSamePillarWorkedExample(t *testing.T) {
	s, err := Initialize(workedChart(t))
	require.NoError(t, err)
	s = ResolveSamePillar(s)

	// 丙寅: Wood branch produces the Fire stem.
	assert.InDelta(t, 12.4, s.Points(stemID(g.Year)), 1e-9)
	assert.InDelta(t, 6.4, s.Points(branchID(g.Year)), 1e-9)

	// 己亥: Earth stem controls the Water branch.
	assert.InDelta(t, 8.4, s.Points(stemID(g.Month)), 1e-9)
	assert.InDelta(t, 5.6, s.Points(branchID(g.Month)), 1e-9)

	// 丁丑: Fire stem produces the Earth branch.
	assert.InDelta(t, 8.4, s.Points(stemID(g.Day)), 1e-9)
	assert.InDelta(t, 10.4, s.Points(branchID(g.Day)), 1e-9)

	assert.Len(t, s.Log, 4)
	for _, ix := range s.Log {
		assert.Equal(t, "same_pillar", ix.Stage)
	}
}

func TestSamePillarSameElementIsLogOnly(t *testing.T) {
	// 甲寅: Wood over Wood.
	s, err := Initialize(chart(t, 30, "甲寅", "丙寅", "戊辰"))
	require.NoError(t, err)
	s = ResolveSamePillar(s)

	ix := s.Log[0]
	require.Equal(t, []NodeID{stemID(g.Month), branchID(g.Month)}, ix.Nodes)
	assert.Equal(t, []float64{0, 0}, byYear(s.Log).Deltas)
	assert.True(t, byYear(s.Log).LogOnly)
	assert.Equal(t, 10.0, s.Points(stemID(g.Year)))
}

func byYear(log []Interaction) Interaction {
	for _, ix := range log {
		if ix.Nodes[0].Pos == g.Year {
			return ix
		}
	}
	return Interaction{}
}

func TestStagesDoNotMutateInput(t *testing.T) {
	s, err := Initialize(workedChart(t))
	require.NoError(t, err)

	next := ResolveSamePillar(s)
	next = CombineBranches(next)

	assert.Equal(t, 10.0, s.Points(stemID(g.Year)))
	assert.Empty(t, s.Log)
	assert.Empty(t, s.Bonus)
	assert.NotEmpty(t, next.Log)
	assert.NotEmpty(t, next.Bonus)
}

func TestWorkedExampleInteractions(t *testing.T) {
	res, err := Evaluate(workedChart(t), Options{})
	require.NoError(t, err)

	harmonies := byFamily(res.Interactions, patterns.SixHarmony)
	require.Len(t, harmonies, 1)
	require.NotNil(t, harmonies[0].Result)
	assert.Equal(t, g.Wood, *harmonies[0].Result)
	assert.False(t, harmonies[0].Transformed, "no Wood stem stands in the chart")
	assert.ElementsMatch(t, []NodeID{branchID(g.Year), branchID(g.Month)}, harmonies[0].Nodes[:2])

	arched := byFamily(res.Interactions, patterns.ArchedCombination)
	require.Len(t, arched, 1)
	assert.ElementsMatch(t, []NodeID{branchID(g.Month), branchID(g.Hour)}, arched[0].Nodes[:2])
	assert.Equal(t, 1, arched[0].Gap)

	clashes := byFamily(res.Interactions, patterns.SixClash)
	require.Len(t, clashes, 1)
	assert.True(t, clashes[0].LogOnly, "丑未 are both Earth")
	assert.Equal(t, []float64{0, 0}, clashes[0].Deltas)

	destructions := byFamily(res.Interactions, patterns.Destruction)
	require.Len(t, destructions, 1)
	for _, d := range destructions[0].Deltas {
		assert.LessOrEqual(t, d, 0.0)
	}

	for _, b := range res.Bonus {
		assert.Equal(t, g.Wood, b.Element)
	}
}

func bonusAt(s State, f patterns.Family, pos g.Position) []BonusNode {
	var out []BonusNode
	for _, b := range s.Bonus {
		if b.Family == f && b.ID.Pos == pos {
			out = append(out, b)
		}
	}
	return out
}

func TestTransformedCombinationYield(t *testing.T) {
	// 甲寅 己亥 丁丑 丁未: the 甲 stem carries Wood, so 寅亥 transforms.
	s, err := Initialize(chart(t, 30, "甲寅", "己亥", "丁丑", "丁未"))
	require.NoError(t, err)

	weights := attention(detectAll(s))
	assert.Equal(t, 3.0, weights[branchID(g.Year)])
	assert.Equal(t, 4.0, weights[branchID(g.Month)])

	s = CombineBranches(s)
	harmonies := byFamily(s.Log, patterns.SixHarmony)
	require.Len(t, harmonies, 1)
	assert.True(t, harmonies[0].Transformed)
	assert.Equal(t, 8.0, harmonies[0].Basis)

	// yield 8 × 0.3 × 1.5 = 3.6, split by each branch's attention share.
	year := bonusAt(s, patterns.SixHarmony, g.Year)
	require.Len(t, year, 1)
	assert.InDelta(t, 2.4, year[0].Points, 1e-9)
	assert.Equal(t, g.Jia, year[0].Stem, "寅 is yang")

	month := bonusAt(s, patterns.SixHarmony, g.Month)
	require.Len(t, month, 1)
	assert.InDelta(t, 1.8, month[0].Points, 1e-9)
	assert.Equal(t, g.Yi, month[0].Stem, "亥 is yin")

	for i, id := range harmonies[0].Nodes {
		switch id {
		case branchID(g.Year):
			assert.Zero(t, harmonies[0].Deltas[i], "寅 is already Wood")
		case branchID(g.Month):
			assert.InDelta(t, -0.45, harmonies[0].Deltas[i], 1e-9)
		}
	}

	s = CombineStems(s)
	stems := byFamily(s.Log, patterns.StemCombination)
	require.Len(t, stems, 1)
	assert.True(t, stems[0].Transformed, "丑 and 未 carry Earth")
	require.NotNil(t, stems[0].Result)
	assert.Equal(t, g.Earth, *stems[0].Result)
	assert.InDelta(t, 10-1.125, s.Points(stemID(g.Year)), 1e-9)
	assert.Equal(t, 10.0, s.Points(stemID(g.Month)), "己 is already Earth")

	yb := bonusAt(s, patterns.StemCombination, g.Year)
	mb := bonusAt(s, patterns.StemCombination, g.Month)
	require.Len(t, yb, 1)
	require.Len(t, mb, 1)
	assert.InDelta(t, 4.5, yb[0].Points, 1e-9)
	assert.InDelta(t, 4.5, mb[0].Points, 1e-9)
	assert.Equal(t, g.Wu, yb[0].Stem)
	assert.Equal(t, g.Ji, mb[0].Stem)
}

func TestThreeBranchPatternNullifiesPairs(t *testing.T) {
	// 申子辰 forms a three combination; its half meetings and arched pair must not fire.
	s, err := Initialize(chart(t, 20, "庚申", "甲子", "戊辰"))
	require.NoError(t, err)

	cands := detectBranchCombinations(s)
	require.Len(t, cands, 1)
	assert.Equal(t, patterns.ThreeCombination, cands[0].family)
	assert.Equal(t, g.Water, cands[0].result)
	assert.Len(t, cands[0].nodes, 3)
}

func TestSixHarmOnlyBetweenAdjacentPillars(t *testing.T) {
	adjacent, err := Initialize(chart(t, 30, "甲子", "癸未", "丙寅"))
	require.NoError(t, err)
	apart, err := Initialize(chart(t, 30, "甲子", "丙寅", "丁未"))
	require.NoError(t, err)

	count := func(cands []candidate) int {
		n := 0
		for _, c := range cands {
			if c.family == patterns.SixHarm {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, count(detectBranchConflicts(adjacent)))
	assert.Equal(t, 0, count(detectBranchConflicts(apart)))
}

func TestBranchClashAggressorLosesLess(t *testing.T) {
	// 子 (Water, 10) clashes 午 (Fire, 8); Water controls Fire.
	s, err := Initialize(chart(t, 30, "甲子", "庚午", "丙寅"))
	require.NoError(t, err)
	s = ClashBranches(s)

	clashes := byFamily(s.Log, patterns.SixClash)
	require.Len(t, clashes, 1)
	ix := clashes[0]
	assert.Equal(t, []NodeID{branchID(g.Year), branchID(g.Month)}, ix.Nodes)
	assert.InDelta(t, 8.0, ix.Basis, 1e-9)
	assert.InDelta(t, -1.6, ix.Deltas[0], 1e-9)
	assert.InDelta(t, -3.2, ix.Deltas[1], 1e-9)
}

func TestStemClashControllerFirst(t *testing.T) {
	s, err := Initialize(chart(t, 30, "甲子", "庚午", "丙寅"))
	require.NoError(t, err)
	s = ClashStems(s)

	clashes := byFamily(s.Log, patterns.StemClash)
	require.Len(t, clashes, 1)
	ix := clashes[0]
	assert.Equal(t, []NodeID{stemID(g.Month), stemID(g.Year)}, ix.Nodes)
	assert.InDelta(t, -2.5, ix.Deltas[0], 1e-9)
	assert.InDelta(t, -5.0, ix.Deltas[1], 1e-9)
}

func TestUngratefulPunishmentIsDirected(t *testing.T) {
	// 寅 punishes 巳.
	s, err := Initialize(chart(t, 30, "丁巳", "丙寅", "戊辰"))
	require.NoError(t, err)

	var found bool
	for _, c := range detectBranchConflicts(s) {
		if c.family != patterns.Punishment {
			continue
		}
		found = true
		assert.Equal(t, patterns.Ungrateful, c.kind)
		assert.Equal(t, branchID(g.Month), c.nodes[0])
	}
	assert.True(t, found)
}

func TestSeasonMatrixFollowsCycles(t *testing.T) {
	want := map[g.Relation]SeasonalState{
		g.RelationSame:         Prosperous,
		g.RelationProduces:     Assisting,
		g.RelationProducedBy:   Resting,
		g.RelationControlledBy: Trapped,
		g.RelationControls:     Dead,
	}
	for _, season := range g.Elements {
		for _, e := range g.Elements {
			assert.Equal(t, want[g.RelationOf(season, e)], StateIn(season, e), "%s in %s", e, season)
		}
	}
}

func TestAdjustSeasonLeavesBonusAlone(t *testing.T) {
	s, err := Initialize(workedChart(t))
	require.NoError(t, err)
	s = CombineBranches(s)
	require.NotEmpty(t, s.Bonus)

	adjusted := AdjustSeason(s)
	for i := range s.Bonus {
		assert.Equal(t, s.Bonus[i].Points, adjusted.Bonus[i].Points)
	}

	// Month 亥 is Water: Fire is dead, Wood assisting.
	assert.InDelta(t, s.Points(stemID(g.Year))*0.70, adjusted.Points(stemID(g.Year)), 1e-9)
	assert.InDelta(t, s.Points(branchID(g.Year))*1.15, adjusted.Points(branchID(g.Year)), 1e-9)
	assert.Len(t, adjusted.Log, len(s.Log))
}

func TestFlowSkipsSamePillarPairs(t *testing.T) {
	s, err := Initialize(workedChart(t))
	require.NoError(t, err)
	s = Flow(s)

	for _, ix := range s.Log {
		require.Len(t, ix.Nodes, 2)
		assert.NotEqual(t, ix.Nodes[0].Pos, ix.Nodes[1].Pos, ix.Pattern)
		for _, id := range ix.Nodes {
			assert.NotContains(t, []Slot{SlotHidden1, SlotHidden2}, id.Slot)
		}
	}
}

func TestEvaluateInvariants(t *testing.T) {
	charts := []g.Chart{
		workedChart(t),
		chart(t, 20, "庚申", "甲子", "戊辰"),
		chart(t, 5, "甲子", "庚午", "丙寅", "辛卯"),
		chart(t, 70, "丙午", "甲午", "戊午", "庚午", "壬午"),
		chart(t, 33, "乙丑", "丁未", "己丑", "辛未", "", "癸丑", "", "", "乙亥"),
	}
	for _, c := range charts {
		res, err := Evaluate(c, Options{})
		require.NoError(t, err)

		var total float64
		for _, r := range res.Elements {
			total += r.Percent
		}
		assert.InDelta(t, 100, total, 1e-9)

		for _, n := range res.Nodes {
			assert.GreaterOrEqual(t, n.Final, 0.0, n.ID.String())
		}
		for _, b := range res.Bonus {
			assert.GreaterOrEqual(t, b.Final, 0.0, b.ID.String())
		}
		for i, ix := range res.Interactions {
			assert.Equal(t, i, ix.Seq)
		}
		assertPartition(t, res.Gods)
	}
}

func TestParallelBalanceMatchesSequential(t *testing.T) {
	c := chart(t, 33, "乙丑", "丁未", "己丑", "辛未", "甲子")
	seq, err := Evaluate(c, Options{})
	require.NoError(t, err)
	par, err := Evaluate(c, Options{ParallelBalance: true})
	require.NoError(t, err)

	if diff := cmp.Diff(seq, par); diff != "" {
		t.Fatalf("parallel result differs (-seq +par):\n%s", diff)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	first, err := Evaluate(workedChart(t), Options{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Evaluate(workedChart(t), Options{ParallelBalance: i%2 == 0})
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(first, again))
	}
}

func TestOnStageSeesEveryStage(t *testing.T) {
	var seen []string
	_, err := Evaluate(workedChart(t), Options{OnStage: func(stage string, _ State) {
		seen = append(seen, stage)
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"initialize", "same_pillar", "branch_combination", "stem_combination",
		"branch_conflict", "stem_conflict", "season", "natural_flow",
	}, seen)
}

func TestBalanceStartsAfterSeason(t *testing.T) {
	var seasonal State
	res, err := Evaluate(workedChart(t), Options{OnStage: func(stage string, s State) {
		if stage == "season" {
			seasonal = s
		}
	}})
	require.NoError(t, err)
	require.NotEmpty(t, seasonal.Log)

	scores, gods := Balance(seasonal, false)
	assert.Equal(t, scores, res.Balance)
	assert.Equal(t, gods, res.Gods)
}

func TestBalanceAveragesStemPairs(t *testing.T) {
	s, err := Initialize(workedChart(t))
	require.NoError(t, err)
	scores, gods := Balance(AdjustSeason(s), false)

	for _, e := range g.Elements {
		sc := scores[e]
		assert.Equal(t, e, sc.Element)
		assert.Equal(t, g.StemOf(e, g.Yang), sc.Stems[0].Stem)
		assert.Equal(t, g.StemOf(e, g.Yin), sc.Stems[1].Stem)
		assert.InDelta(t, (sc.Stems[0].Sigma+sc.Stems[1].Sigma)/2, sc.Sigma, 1e-12)
		for _, st := range sc.Stems {
			assert.Equal(t, st.Penalized, st.DayMasterPercent < 10 || st.DayMasterPercent > 40)
		}
	}
	for _, e := range g.Elements {
		assert.LessOrEqual(t, scores[gods.Useful].Sigma, scores[e].Sigma)
	}
}

func assertPartition(t *testing.T, gods FiveGods) {
	t.Helper()
	seen := make(map[g.Element]bool)
	for _, e := range gods.Elements() {
		seen[e] = true
	}
	assert.Len(t, seen, g.NumElements, "%+v", gods)
	assert.Equal(t, gods.Useful.ProducedBy(), gods.Favorable)
	assert.Equal(t, gods.Unfavorable.ProducedBy(), gods.Enemy)
}

func TestChooseGodsPartition(t *testing.T) {
	// Walk a deterministic spread of σ vectors, ties included.
	values := []float64{0, 1.5, 3, 3, 7.25}
	var sigma [g.NumElements]float64
	for seed := 0; seed < 3125; seed++ {
		n := seed
		for i := range sigma {
			sigma[i] = values[n%len(values)]
			n /= len(values)
		}
		gods := ChooseGods(sigma)
		assertPartition(t, gods)
		for _, e := range g.Elements {
			require.LessOrEqual(t, sigma[gods.Useful], sigma[e])
		}
	}
}

func TestChooseGodsTiesGoToCanonicalOrder(t *testing.T) {
	gods := ChooseGods([g.NumElements]float64{})
	assert.Equal(t, FiveGods{
		Useful:      g.Wood,
		Favorable:   g.Water,
		Unfavorable: g.Earth,
		Enemy:       g.Fire,
		Idle:        g.Metal,
	}, gods)
}

func TestClassifyStrength(t *testing.T) {
	tests := []struct {
		percent float64
		want    Strength
	}{
		{0, VeryWeak},
		{9.99, VeryWeak},
		{10, Weak},
		{18, Balanced},
		{27.9, Balanced},
		{28, Strong},
		{40, Dominant},
		{100, Dominant},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStrength(tt.percent), "%v%%", tt.percent)
	}
}

func TestAggregateEmptyStateSplitsEvenly(t *testing.T) {
	r := Aggregate(State{})
	for i, e := range g.Elements {
		assert.Equal(t, 20.0, r[e].Percent)
		assert.Equal(t, i+1, r[e].Rank)
	}
}
