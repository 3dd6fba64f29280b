package engine

import (
	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/rates"
)

// Age bands that decide which natal pillar leads the priority order.
const (
	yearPillarUntil  = 16
	monthPillarUntil = 31
	dayPillarUntil   = 46
)

// Initialize validates the chart and lays out its nodes: one stem node per pillar
// and one node per hidden qi of each branch.
func Initialize(c g.Chart) (State, error) {
	if err := c.Validate(); err != nil {
		return State{}, err
	}

	s := State{Chart: c, Priority: PillarPriority(c)}
	for _, pos := range c.Positions() {
		p := c.Pillars[pos]
		s.Nodes[pos][SlotStem] = Node{
			ID:       stemID(pos),
			Stem:     p.Stem,
			Element:  p.Stem.Element(),
			Polarity: p.Stem.Polarity(),
			Initial:  rates.StemPoints,
			Points:   rates.StemPoints,
			Present:  true,
		}
		for i, h := range p.Branch.Hidden() {
			slot := SlotBranch + Slot(i)
			s.Nodes[pos][slot] = Node{
				ID:       NodeID{Pos: pos, Slot: slot},
				Stem:     h.Stem,
				Element:  h.Stem.Element(),
				Polarity: h.Stem.Polarity(),
				Initial:  h.Points,
				Points:   h.Points,
				Present:  true,
			}
		}
	}
	return s, nil
}

// PillarPriority orders the chart's pillars for contested interactions. The natal
// pillar governing the subject's age leads, the other natal pillars follow by
// distance from it (earlier pillar on ties), and overlays come last in
// declaration order.
func PillarPriority(c g.Chart) []g.Position {
	primary := primaryPillar(c)

	var natal, overlay []g.Position
	for _, pos := range c.Positions() {
		if pos.Natal() {
			natal = append(natal, pos)
		} else {
			overlay = append(overlay, pos)
		}
	}

	out := make([]g.Position, 0, len(natal)+len(overlay))
	for dist := 0; dist < g.NumNatal; dist++ {
		for _, pos := range natal {
			d := int(pos) - int(primary)
			if d < 0 {
				d = -d
			}
			if d == dist {
				out = append(out, pos)
			}
		}
	}
	return append(out, overlay...)
}

func primaryPillar(c g.Chart) g.Position {
	switch {
	case c.Age < yearPillarUntil:
		return g.Year
	case c.Age < monthPillarUntil:
		return g.Month
	case c.Age < dayPillarUntil:
		return g.Day
	case c.Present[g.Hour]:
		return g.Hour
	default:
		return g.Day
	}
}
