package vehicle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
	"github.com/opencity-sim/simcore/vehicle"
)

func TestIdealFrontDuringCrossingInterpolatesLinearly(t *testing.T) {
	v := &vehicle.Vehicle{}
	v.BeginCrossing(10, 0, 100, 10)

	assert.Equal(t, units.Meters(0), v.IdealFront(10))
	assert.Equal(t, units.Meters(50), v.IdealFront(15))
	assert.Equal(t, units.Meters(100), v.IdealFront(20))
	// clamped past the window's edges
	assert.Equal(t, units.Meters(0), v.IdealFront(5))
	assert.Equal(t, units.Meters(100), v.IdealFront(25))
}

func TestIdealFrontOutsideCrossingReportsFixedFront(t *testing.T) {
	v := &vehicle.Vehicle{}
	v.BeginQueued(0, 42)
	assert.Equal(t, units.Meters(42), v.IdealFront(100))

	v.BeginParking(0, 7, 10, 99)
	assert.Equal(t, units.Meters(7), v.IdealFront(5))
	assert.True(t, v.HasTarget)
	assert.Equal(t, mapiface.ParkingSpotID(99), v.TargetSpot)
}

func TestIdealSpeedAppliesCapAndIncline(t *testing.T) {
	assert.Equal(t, units.MetersPerSecond(10), vehicle.IdealSpeed(14, 10, 1))
	assert.Equal(t, units.MetersPerSecond(7), vehicle.IdealSpeed(14, 0, 0.5))
}

func TestPathStepNavigation(t *testing.T) {
	v := &vehicle.Vehicle{
		Current: vehicle.LaneStep(1),
		Path:    []vehicle.Step{vehicle.TurnStep(10), vehicle.LaneStep(2)},
	}
	assert.False(t, v.AtFinalStep())

	peeked, ok := v.PeekNextStep()
	require.True(t, ok)
	assert.Equal(t, vehicle.TurnStep(10), peeked)

	popped, ok := v.PopNextStep()
	require.True(t, ok)
	assert.Equal(t, peeked, popped)
	assert.Len(t, v.Path, 1)

	_, ok = v.PopNextStep()
	require.True(t, ok)
	assert.True(t, v.AtFinalStep())

	_, ok = v.PopNextStep()
	assert.False(t, ok)
}
