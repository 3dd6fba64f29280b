package engine

import (
	"golang.org/x/exp/slices"

	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/rates"
)

// ElementReport is one element's share of the chart.
type ElementReport struct {
	Element g.Element `json:"element"`
	Points  float64   `json:"points"`
	Percent float64   `json:"percent"`
	Rank    int       `json:"rank"`
}

// Report holds the five element reports in canonical element order.
type Report [g.NumElements]ElementReport

// Percent returns e's share of the grand total.
func (r Report) Percent(e g.Element) float64 {
	return r[e].Percent
}

// Ranked returns the reports from rank 1 to rank 5.
func (r Report) Ranked() []ElementReport {
	out := append([]ElementReport(nil), r[:]...)
	slices.SortFunc(out, func(a, b ElementReport) int { return a.Rank - b.Rank })
	return out
}

// Aggregate sums every node by element: stems, main and hidden qi, bonus nodes,
// and the hover node when simulating. An all-zero chart splits evenly.
func Aggregate(s State) Report {
	var r Report
	var total float64
	for _, n := range s.AllNodes() {
		r[n.Element].Points += n.Points
		total += n.Points
	}

	for _, e := range g.Elements {
		r[e].Element = e
		if total > 0 {
			r[e].Percent = r[e].Points / total * 100
		} else {
			r[e].Percent = 100.0 / g.NumElements
		}
	}

	order := append([]g.Element(nil), g.Elements[:]...)
	slices.SortStableFunc(order, func(a, b g.Element) int {
		switch {
		case r[a].Points > r[b].Points:
			return -1
		case r[a].Points < r[b].Points:
			return 1
		}
		return 0
	})
	for i, e := range order {
		r[e].Rank = i + 1
	}
	return r
}

// Strength is the day master's verdict.
type Strength uint8

const (
	VeryWeak Strength = iota
	Weak
	Balanced
	Strong
	Dominant
)

var strengthNames = [...]string{"very_weak", "weak", "balanced", "strong", "dominant"}

// String returns the strength label.
func (st Strength) String() string {
	if int(st) < len(strengthNames) {
		return strengthNames[st]
	}
	return "unknown"
}

// MarshalText renders the label in JSON output.
func (st Strength) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}

// ClassifyStrength maps the day element's percentage onto the five bands.
func ClassifyStrength(percent float64) Strength {
	switch {
	case percent >= rates.DominantThreshold:
		return Dominant
	case percent >= rates.StrongThreshold:
		return Strong
	case percent >= rates.BalancedThreshold:
		return Balanced
	case percent >= rates.WeakThreshold:
		return Weak
	default:
		return VeryWeak
	}
}

// DayMaster summarises the day stem's standing.
type DayMaster struct {
	Stem     g.Stem    `json:"stem"`
	Element  g.Element `json:"element"`
	Percent  float64   `json:"percent"`
	Strength Strength  `json:"strength"`
}

// SummarizeDayMaster reads the day stem's element share from a report.
func SummarizeDayMaster(c g.Chart, r Report) DayMaster {
	stem := c.DayMaster()
	pct := r.Percent(stem.Element())
	return DayMaster{
		Stem:     stem,
		Element:  stem.Element(),
		Percent:  pct,
		Strength: ClassifyStrength(pct),
	}
}
