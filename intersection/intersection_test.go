package intersection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencity-sim/simcore/intersection"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
)

func twoConflictingTurns() map[mapiface.TurnID]mapiface.Turn {
	return map[mapiface.TurnID]mapiface.Turn{
		1: {ID: 1, Src: 1, Dst: 2, IntersectionID: 1, Kind: mapiface.TurnStraight, Conflicts: map[mapiface.TurnID]bool{2: true}},
		2: {ID: 2, Src: 3, Dst: 4, IntersectionID: 1, Kind: mapiface.TurnStraight, Conflicts: map[mapiface.TurnID]bool{1: true}},
	}
}

func TestSignalAdmitsOnlyTheCurrentStageTurns(t *testing.T) {
	turns := twoConflictingTurns()
	stages := []mapiface.Stage{
		{Protected: map[mapiface.TurnID]bool{1: true}, Duration: 10},
		{Protected: map[mapiface.TurnID]bool{2: true}, Duration: 10},
	}
	s := intersection.NewSignal(1, turns, stages, 0, 2)

	dec := s.Admit(0, intersection.Request{Turn: 1, VehicleID: 100})
	assert.True(t, dec.Admitted)

	dec = s.Admit(0, intersection.Request{Turn: 2, VehicleID: 101})
	assert.False(t, dec.Admitted)
}

func TestSignalTickAdvancesFixedStageAndResetsAccepted(t *testing.T) {
	turns := twoConflictingTurns()
	stages := []mapiface.Stage{
		{Protected: map[mapiface.TurnID]bool{1: true}, Duration: 10},
		{Protected: map[mapiface.TurnID]bool{2: true}, Duration: 10},
	}
	s := intersection.NewSignal(1, turns, stages, 0, 2)
	require.Equal(t, 0, s.CurrentStageIndex())

	s.Admit(0, intersection.Request{Turn: 1, VehicleID: 100})

	changed := s.Tick(5, func(mapiface.TurnID) bool { return false })
	assert.False(t, changed, "fixed stage must not end before its duration")

	changed = s.Tick(10, func(mapiface.TurnID) bool { return false })
	assert.True(t, changed)
	assert.Equal(t, 1, s.CurrentStageIndex())

	// the new stage's turn must be freely admittable: the prior
	// stage's acceptance bookkeeping should not leak across a Tick.
	dec := s.Admit(10, intersection.Request{Turn: 2, VehicleID: 200})
	assert.True(t, dec.Admitted)
}

func TestSignalVariableStageEndsAtMinimumWithoutDemand(t *testing.T) {
	turns := twoConflictingTurns()
	stages := []mapiface.Stage{
		{Protected: map[mapiface.TurnID]bool{1: true}, Permitted: map[mapiface.TurnID]bool{2: true}, Duration: 10, MaxDuration: 20},
	}
	s := intersection.NewSignal(1, turns, stages, 0, 2)

	// no one waiting past the minimum: the stage ends immediately.
	assert.True(t, s.Tick(10, func(mapiface.TurnID) bool { return false }))
}

func TestStopSignReleasesConflictOnClear(t *testing.T) {
	turns := twoConflictingTurns()
	s := intersection.NewStopSign(1, turns, units.Seconds(1.5))

	dec := s.Admit(0, intersection.Request{Turn: 1, VehicleID: 1})
	require.True(t, dec.Admitted)

	dec = s.Admit(0, intersection.Request{Turn: 2, VehicleID: 2})
	assert.False(t, dec.Admitted, "conflicting turn must be blocked while turn 1 is occupied")

	s.Clear(1, 1)
	dec = s.Admit(0, intersection.Request{Turn: 2, VehicleID: 2})
	assert.True(t, dec.Admitted)
}

func TestMaxPressureTicksTowardHigherPressureStage(t *testing.T) {
	turns := twoConflictingTurns()
	stages := []mapiface.Stage{
		{Protected: map[mapiface.TurnID]bool{1: true}, Duration: 10},
		{Protected: map[mapiface.TurnID]bool{2: true}, Duration: 10},
	}
	m := intersection.NewMaxPressure(1, turns, stages, units.Seconds(5))

	// turn 2 has much heavier incoming pressure than turn 1.
	incoming := func(id mapiface.TurnID) int {
		if id == 2 {
			return 10
		}
		return 0
	}
	room := func(mapiface.TurnID) int { return 100 }

	changed := m.Tick(3, incoming, room)
	assert.False(t, changed, "must not switch before minHold elapses")

	changed = m.Tick(5, incoming, room)
	assert.True(t, changed)
}
