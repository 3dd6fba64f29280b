package engine

import (
	"math"
	"sync"

	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/rates"
)

// StemScore is the outcome of hovering one hypothetical stem over the chart.
type StemScore struct {
	Stem             g.Stem  `json:"stem"`
	Sigma            float64 `json:"sigma"`
	DayMasterPercent float64 `json:"day_master_percent"`
	Penalized        bool    `json:"penalized"`
}

// BalanceScore averages the two stems of one element.
type BalanceScore struct {
	Element g.Element    `json:"element"`
	Sigma   float64      `json:"sigma"`
	Stems   [2]StemScore `json:"stems"`
}

// FiveGods partitions the elements by what the chart needs.
type FiveGods struct {
	Useful      g.Element `json:"useful"`
	Favorable   g.Element `json:"favorable"`
	Unfavorable g.Element `json:"unfavorable"`
	Enemy       g.Element `json:"enemy"`
	Idle        g.Element `json:"idle"`
}

// Elements returns the five roles in order useful, favorable, unfavorable, enemy, idle.
func (f FiveGods) Elements() [g.NumElements]g.Element {
	return [g.NumElements]g.Element{f.Useful, f.Favorable, f.Unfavorable, f.Enemy, f.Idle}
}

// Balance hovers each of the ten stems over the post-seasonal state, reruns
// natural flow, and scores how evenly the elements then sit. The ten runs are
// independent; with parallel set they fan out, and each writes only its own slot.
func Balance(s State, parallel bool) ([g.NumElements]BalanceScore, FiveGods) {
	var stems [g.NumStems]StemScore

	if parallel {
		var wg sync.WaitGroup
		for i, stem := range g.Stems {
			wg.Add(1)
			go func() {
				defer wg.Done()
				stems[i] = simulate(s, stem)
			}()
		}
		wg.Wait()
	} else {
		for i, stem := range g.Stems {
			stems[i] = simulate(s, stem)
		}
	}

	var scores [g.NumElements]BalanceScore
	var sigmas [g.NumElements]float64
	for _, e := range g.Elements {
		yang := stems[g.StemOf(e, g.Yang)]
		yin := stems[g.StemOf(e, g.Yin)]
		scores[e] = BalanceScore{
			Element: e,
			Sigma:   (yang.Sigma + yin.Sigma) / 2,
			Stems:   [2]StemScore{yang, yin},
		}
		sigmas[e] = scores[e].Sigma
	}
	return scores, ChooseGods(sigmas)
}

// simulate adds a hover node of the given stem and measures the spread of the
// resulting percentages around an even share.
func simulate(s State, stem g.Stem) StemScore {
	trial := s.clone()
	trial.hover = &Node{
		ID:       NodeID{Slot: SlotHover},
		Stem:     stem,
		Element:  stem.Element(),
		Polarity: stem.Polarity(),
		Initial:  rates.HoverPoints,
		Points:   rates.HoverPoints,
		Present:  true,
	}
	report := Aggregate(Flow(trial))

	var sum float64
	for _, e := range g.Elements {
		d := report[e].Percent - rates.EvenShare
		sum += d * d
	}
	score := StemScore{
		Stem:             stem,
		Sigma:            math.Sqrt(sum / g.NumElements),
		DayMasterPercent: report.Percent(s.Chart.DayMaster().Element()),
	}
	if score.DayMasterPercent < rates.ExtremeLow || score.DayMasterPercent > rates.ExtremeHigh {
		score.Sigma += rates.ExtremePenalty
		score.Penalized = true
	}
	return score
}

// ChooseGods assigns the five roles from per-element σ. Useful is the lowest σ.
// Unfavorable is the highest σ among the two elements that neither produce nor
// are produced by useful, which keeps favorable, useful, unfavorable and enemy
// distinct. Ties go to the earlier element.
func ChooseGods(sigma [g.NumElements]float64) FiveGods {
	useful := g.Wood
	for _, e := range g.Elements {
		if sigma[e] < sigma[useful] {
			useful = e
		}
	}

	candidates := [2]g.Element{useful.Controls(), useful.ControlledBy()}
	if candidates[1] < candidates[0] {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	unfavorable := candidates[0]
	if sigma[candidates[1]] > sigma[candidates[0]] {
		unfavorable = candidates[1]
	}

	gods := FiveGods{
		Useful:      useful,
		Favorable:   useful.ProducedBy(),
		Unfavorable: unfavorable,
		Enemy:       unfavorable.ProducedBy(),
	}
	taken := map[g.Element]bool{gods.Useful: true, gods.Favorable: true, gods.Unfavorable: true, gods.Enemy: true}
	for _, e := range g.Elements {
		if !taken[e] {
			gods.Idle = e
			break
		}
	}
	return gods
}
