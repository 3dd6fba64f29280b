package engine

import (
	"log/slog"
	"time"

	g "github.com/talgya/wuxing/internal/ganzhi"
)

// Stage is one step of the pipeline.
type Stage struct {
	Name string
	Run  func(State) State
}

// seasonalStages run in order after initialization. The balance simulator
// starts from their output.
var seasonalStages = []Stage{
	{"same_pillar", ResolveSamePillar},
	{"branch_combination", CombineBranches},
	{"stem_combination", CombineStems},
	{"branch_conflict", ClashBranches},
	{"stem_conflict", ClashStems},
	{"season", AdjustSeason},
}

// flowStage closes the pipeline.
var flowStage = Stage{"natural_flow", Flow}

// Options tunes an evaluation without changing its numbers.
type Options struct {
	// ParallelBalance fans the ten balance simulations out across goroutines.
	ParallelBalance bool
	// OnStage, when set, sees the state after every stage.
	OnStage func(stage string, s State)
}

// NodeResult reports one node's journey through the pipeline.
type NodeResult struct {
	ID       NodeID     `json:"id"`
	Stem     g.Stem     `json:"stem"`
	Element  g.Element  `json:"element"`
	Polarity g.Polarity `json:"polarity"`
	Initial  float64    `json:"initial"`
	Final    float64    `json:"final"`
	Delta    float64    `json:"delta"`
}

// BonusResult is a bonus node with its provenance.
type BonusResult struct {
	NodeResult
	Family  string   `json:"family"`
	Pattern string   `json:"pattern"`
	Funders []NodeID `json:"funders"`
}

// Result is everything downstream layers need from one evaluation.
type Result struct {
	Chart        g.ChartInput                `json:"chart"`
	Season       g.Element                   `json:"season"`
	Nodes        []NodeResult                `json:"nodes"`
	Bonus        []BonusResult               `json:"bonus"`
	Elements     Report                      `json:"elements"`
	DayMaster    DayMaster                   `json:"day_master"`
	Gods         FiveGods                    `json:"five_gods"`
	Balance      [g.NumElements]BalanceScore `json:"balance"`
	Interactions []Interaction               `json:"interactions"`
}

// Evaluate runs the full pipeline over a chart.
func Evaluate(c g.Chart, opts Options) (*Result, error) {
	start := time.Now()

	s, err := Initialize(c)
	if err != nil {
		return nil, err
	}
	if opts.OnStage != nil {
		opts.OnStage("initialize", s)
	}

	run := func(st Stage) {
		before := len(s.Log)
		s = st.Run(s)
		slog.Debug("stage complete",
			"stage", st.Name,
			"interactions", len(s.Log)-before,
			"bonus", len(s.Bonus),
		)
		if opts.OnStage != nil {
			opts.OnStage(st.Name, s)
		}
	}
	for _, st := range seasonalStages {
		run(st)
	}
	seasonal := s
	run(flowStage)

	report := Aggregate(s)
	scores, gods := Balance(seasonal, opts.ParallelBalance)

	res := &Result{
		Chart:        c.Input(),
		Season:       Season(c),
		Elements:     report,
		DayMaster:    SummarizeDayMaster(c, report),
		Gods:         gods,
		Balance:      scores,
		Interactions: s.Log,
	}
	for _, n := range s.pillarNodes() {
		res.Nodes = append(res.Nodes, nodeResult(n))
	}
	for _, b := range s.Bonus {
		res.Bonus = append(res.Bonus, BonusResult{
			NodeResult: nodeResult(b.Node),
			Family:     b.Family.String(),
			Pattern:    b.Pattern,
			Funders:    b.Funders,
		})
	}

	slog.Debug("evaluation complete",
		"day_master", res.DayMaster.Stem,
		"strength", res.DayMaster.Strength,
		"useful", res.Gods.Useful,
		"elapsed", time.Since(start),
	)
	return res, nil
}

func nodeResult(n Node) NodeResult {
	return NodeResult{
		ID:       n.ID,
		Stem:     n.Stem,
		Element:  n.Element,
		Polarity: n.Polarity,
		Initial:  n.Initial,
		Final:    n.Points,
		Delta:    n.Points - n.Initial,
	}
}
