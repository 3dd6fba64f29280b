// Seasonal scaling of qi by the month branch.
package engine

import (
	"log/slog"

	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/rates"
)

// SeasonalState is an element's vitality in the current season.
type SeasonalState uint8

const (
	Prosperous SeasonalState = iota // same element as the season
	Assisting                       // produced by the season
	Resting                         // produces the season
	Trapped                         // controls the season
	Dead                            // controlled by the season
)

// String returns a human-readable state name.
func (st SeasonalState) String() string {
	switch st {
	case Prosperous:
		return "prosperous"
	case Assisting:
		return "assisting"
	case Resting:
		return "resting"
	case Trapped:
		return "trapped"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (st SeasonalState) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}

// Multiplier returns the scalar applied to a node in this state.
func (st SeasonalState) Multiplier() float64 {
	switch st {
	case Prosperous:
		return rates.ProsperousMultiplier
	case Assisting:
		return rates.AssistingMultiplier
	case Resting:
		return rates.RestingMultiplier
	case Trapped:
		return rates.TrappedMultiplier
	case Dead:
		return rates.DeadMultiplier
	}
	return 1.0
}

// seasonMatrix[season][element] is the element's state in that season.
var seasonMatrix = [g.NumElements][g.NumElements]SeasonalState{
	//            Wood        Fire        Earth       Metal       Water
	g.Wood:  {Prosperous, Assisting, Dead, Trapped, Resting},
	g.Fire:  {Resting, Prosperous, Assisting, Dead, Trapped},
	g.Earth: {Trapped, Resting, Prosperous, Assisting, Dead},
	g.Metal: {Dead, Trapped, Resting, Prosperous, Assisting},
	g.Water: {Assisting, Dead, Trapped, Resting, Prosperous},
}

// StateIn returns element e's seasonal state when the season is season.
func StateIn(season, e g.Element) SeasonalState {
	return seasonMatrix[season][e]
}

// Season is the element of the month branch.
func Season(c g.Chart) g.Element {
	return c.Pillars[g.Month].Branch.Element()
}

// AdjustSeason multiplies every pillar node by its element's seasonal
// multiplier. Bonus nodes keep their value. Nothing moves between nodes.
func AdjustSeason(s State) State {
	s = s.clone()
	season := Season(s.Chart)
	for _, pos := range s.Priority {
		for slot := 0; slot < numPillarSlots; slot++ {
			n := &s.Nodes[pos][slot]
			if !n.Present {
				continue
			}
			n.Points *= StateIn(season, n.Element).Multiplier()
		}
	}

	slog.Debug("seasonal adjustment",
		"season", season,
		"month", s.Chart.Pillars[g.Month].Branch,
	)
	return s
}
