// Package patterns holds the canonical combination and conflict tables
// for stems and branches, plus the interaction families that index them.
package patterns

import "github.com/talgya/wuxing/internal/rates"

// Family tags an interaction pattern family.
type Family uint8

const (
	SamePillar Family = iota
	ThreeMeeting
	ThreeCombination
	SixHarmony
	HalfMeeting
	ArchedCombination
	StemCombination
	SixClash
	Punishment
	SixHarm
	Destruction
	StemClash
	NaturalFlow
)

var familyNames = [...]string{
	SamePillar:        "same_pillar",
	ThreeMeeting:      "three_meeting",
	ThreeCombination:  "three_combination",
	SixHarmony:        "six_harmony",
	HalfMeeting:       "half_meeting",
	ArchedCombination: "arched_combination",
	StemCombination:   "stem_combination",
	SixClash:          "six_clash",
	Punishment:        "punishment",
	SixHarm:           "six_harm",
	Destruction:       "destruction",
	StemClash:         "stem_clash",
	NaturalFlow:       "natural_flow",
}

// String returns the snake_case family name.
func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return "unknown"
}

// MarshalText keeps families readable in JSON output.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Positive reports whether the family merges qi rather than damaging it.
func (f Family) Positive() bool {
	switch f {
	case ThreeMeeting, ThreeCombination, SixHarmony, HalfMeeting, ArchedCombination, StemCombination:
		return true
	}
	return false
}

// ThreeBranch reports whether the family needs three branches.
func (f Family) ThreeBranch() bool {
	return f == ThreeMeeting || f == ThreeCombination
}

// Weight is the attention a single interaction of this family occupies on each participant.
func (f Family) Weight() float64 {
	switch f {
	case ThreeMeeting:
		return rates.ThreeMeetingWeight
	case ThreeCombination:
		return rates.ThreeCombinationWeight
	case SixHarmony:
		return rates.SixHarmonyWeight
	case HalfMeeting:
		return rates.HalfMeetingWeight
	case ArchedCombination:
		return rates.ArchedCombinationWeight
	case StemCombination:
		return rates.StemCombinationWeight
	case SixClash:
		return rates.SixClashWeight
	case Punishment:
		return rates.PunishmentWeight
	case SixHarm:
		return rates.SixHarmWeight
	case Destruction:
		return rates.DestructionWeight
	case StemClash:
		return rates.StemClashWeight
	}
	return 0
}

// CombineRate is the yield fraction of a positive family.
func (f Family) CombineRate() float64 {
	switch f {
	case ThreeMeeting:
		return rates.ThreeMeetingRate
	case ThreeCombination:
		return rates.ThreeCombinationRate
	case SixHarmony:
		return rates.SixHarmonyRate
	case HalfMeeting:
		return rates.HalfMeetingRate
	case ArchedCombination:
		return rates.ArchedCombinationRate
	case StemCombination:
		return rates.StemCombinationRate
	}
	return 0
}

// ConflictRates returns the aggressor and victim loss fractions of a negative family.
func (f Family) ConflictRates() (aggressor, victim float64) {
	switch f {
	case SixClash:
		return rates.ClashAggressor, rates.ClashVictim
	case Punishment:
		return rates.PunishmentAggressor, rates.PunishmentVictim
	case SixHarm:
		return rates.HarmAggressor, rates.HarmVictim
	case Destruction:
		return rates.DestructionAggressor, rates.DestructionVictim
	case StemClash:
		return rates.StemClashController, rates.StemClashControlled
	}
	return 0, 0
}
