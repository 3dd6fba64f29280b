package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGapMultiplierNonIncreasing(t *testing.T) {
	prev := GapMultiplier(0)
	assert.Equal(t, 1.0, prev)
	for gap := 1; gap <= 8; gap++ {
		m := GapMultiplier(gap)
		assert.LessOrEqual(t, m, prev, "gap %d", gap)
		assert.Greater(t, m, 0.0, "gap %d", gap)
		prev = m
	}
	assert.Equal(t, GapMultiplier(0), GapMultiplier(-1))
}

func TestFlowRatesAreHalfSamePillar(t *testing.T) {
	assert.InDelta(t, 0.10, FlowProduceSource, 1e-12)
	assert.InDelta(t, 0.15, FlowProduceTarget, 1e-12)
	assert.InDelta(t, 0.10, FlowControlController, 1e-12)
	assert.InDelta(t, 0.15, FlowControlControlled, 1e-12)
}

func TestConflictRatesAsymmetric(t *testing.T) {
	pairs := [][2]float64{
		{ClashAggressor, ClashVictim},
		{PunishmentAggressor, PunishmentVictim},
		{HarmAggressor, HarmVictim},
		{DestructionAggressor, DestructionVictim},
		{StemClashController, StemClashControlled},
	}
	for _, p := range pairs {
		assert.Less(t, p[0], p[1])
	}
	assert.Greater(t, TransformMultiplier, 1.0)
	assert.Less(t, PartialMultiplier, 1.0)
}
