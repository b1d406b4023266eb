package pedestrian_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencity-sim/simcore/pedestrian"
	"github.com/opencity-sim/simcore/units"
)

func TestIdealFrontDuringWalkingInterpolatesLinearly(t *testing.T) {
	p := &pedestrian.Pedestrian{}
	p.BeginWalking(0, 0, 40, 20)

	assert.Equal(t, units.Meters(0), p.IdealFront(0))
	assert.Equal(t, units.Meters(20), p.IdealFront(10))
	assert.Equal(t, units.Meters(40), p.IdealFront(20))
	assert.Equal(t, units.Meters(40), p.IdealFront(30)) // clamped past the end
}

func TestIdealFrontWhileWaitingIsFixed(t *testing.T) {
	p := &pedestrian.Pedestrian{}
	p.BeginWaiting(5, 12)
	assert.Equal(t, units.Meters(12), p.IdealFront(5))
	assert.Equal(t, units.Meters(12), p.IdealFront(500))
}

func TestLengthIsNominalShoulderWidth(t *testing.T) {
	p := &pedestrian.Pedestrian{}
	assert.Equal(t, units.Meters(0.5), p.Length())
}

func TestPedestrianPathStepNavigation(t *testing.T) {
	p := &pedestrian.Pedestrian{
		Current: 1,
		Path:    []pedestrian.Step{{IsCrosswalk: true, Turn: 7}, {Lane: 2}},
	}
	assert.False(t, p.AtFinalStep())

	peeked, ok := p.PeekNextStep()
	require.True(t, ok)
	assert.True(t, peeked.IsCrosswalk)

	popped, ok := p.PopNextStep()
	require.True(t, ok)
	assert.Equal(t, peeked, popped)

	_, ok = p.PopNextStep()
	require.True(t, ok)
	assert.True(t, p.AtFinalStep())
}
