// Package rates holds every tunable ratio the engine applies.
// No stage hard-codes a number; each one traces back to a constant here.
package rates

// Initial points for a heavenly stem node.
const StemPoints = 10.0

// Same-pillar stem↔branch resolution, as fractions of basis.
const (
	// ProduceSource is what the producing side spends.
	ProduceSource = 0.20
	// ProduceTarget is what the produced side gains.
	ProduceTarget = 0.30
	// ControlController is what the controlling side spends.
	ControlController = 0.20
	// ControlControlled is what the controlled side loses.
	ControlControlled = 0.30
)

// Natural flow runs at half the same-pillar rates.
const (
	FlowProduceSource     = ProduceSource / 2     // 0.10
	FlowProduceTarget     = ProduceTarget / 2     // 0.15
	FlowControlController = ControlController / 2 // 0.10
	FlowControlControlled = ControlControlled / 2 // 0.15
)

// gapMultipliers damp any cross-pillar interaction by how many pillars stand between.
var gapMultipliers = [...]float64{1.00, 0.75, 0.50, 0.25}

// GapMultiplier returns the damping factor for a gap. Gaps past the table reuse its last entry.
func GapMultiplier(gap int) float64 {
	if gap < 0 {
		gap = 0
	}
	if gap >= len(gapMultipliers) {
		return gapMultipliers[len(gapMultipliers)-1]
	}
	return gapMultipliers[gap]
}

// Combination yields, as fractions of basis.
const (
	ThreeMeetingRate      = 0.50
	ThreeCombinationRate  = 0.40
	SixHarmonyRate        = 0.30
	HalfMeetingRate       = 0.25
	ArchedCombinationRate = 0.15
	StemCombinationRate   = 0.30
)

// Transformation scaling of a combination's yield.
const (
	// TransformMultiplier applies when the result element already stands elsewhere in the chart.
	TransformMultiplier = 1.5
	// PartialMultiplier applies otherwise.
	PartialMultiplier = 0.5
	// CombineDrain is the share of its contribution a participant of another element gives up.
	CombineDrain = 0.25
)

// Attention weights: how much of a node's attention each interaction family occupies.
const (
	ThreeMeetingWeight      = 3.0
	ThreeCombinationWeight  = 3.0
	SixHarmonyWeight        = 2.0
	HalfMeetingWeight       = 1.5
	ArchedCombinationWeight = 1.0
	StemCombinationWeight   = 2.0
	SixClashWeight          = 2.0
	PunishmentWeight        = 1.5
	SixHarmWeight           = 1.0
	DestructionWeight       = 1.0
	StemClashWeight         = 2.0
)

// Conflict losses as fractions of basis: aggressor (smaller) and victim (larger).
const (
	ClashAggressor       = 0.20
	ClashVictim          = 0.40
	PunishmentAggressor  = 0.15
	PunishmentVictim     = 0.30
	HarmAggressor        = 0.10
	HarmVictim           = 0.20
	DestructionAggressor = 0.10
	DestructionVictim    = 0.15
	StemClashController  = 0.25
	StemClashControlled  = 0.50
)

// Seasonal multipliers by state.
const (
	ProsperousMultiplier = 1.30
	AssistingMultiplier  = 1.15
	RestingMultiplier    = 1.00
	TrappedMultiplier    = 0.85
	DeadMultiplier       = 0.70
)

// Day-master strength thresholds on the day element's share, in percent.
const (
	DominantThreshold = 40.0
	StrongThreshold   = 28.0
	BalancedThreshold = 18.0
	WeakThreshold     = 10.0
)

// Balance simulator.
const (
	// HoverPoints is the size of the hypothetical stem node.
	HoverPoints = 10.0
	// HoverGap is its distance to every node of the chart.
	HoverGap = 1
	// EvenShare is the ideal per-element percentage.
	EvenShare = 20.0
	// ExtremePenalty is added to σ when the day master stays out of band.
	ExtremePenalty = 10.0
	// ExtremeLow and ExtremeHigh bound the day-master band in percent.
	ExtremeLow  = 10.0
	ExtremeHigh = 40.0
)
