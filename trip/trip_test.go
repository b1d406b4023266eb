package trip

import (
	"testing"

	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/simerr"
	"github.com/opencity-sim/simcore/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sidewalk(d units.Meters) Endpoint {
	return Endpoint{Kind: EndpointSidewalk, Pos: mapiface.Position{Lane: 1, Distance: d}}
}

func TestTripValidateComposable(t *testing.T) {
	tr := Trip{
		ID: 1,
		Legs: []Leg{
			{Mode: ModeWalk, Start: sidewalk(0), End: sidewalk(10)},
			{Mode: ModeDrive, Start: sidewalk(10), End: sidewalk(20)},
		},
	}
	require.NoError(t, tr.Validate())
}

func TestTripValidateRejectsGap(t *testing.T) {
	tr := Trip{
		ID: 2,
		Legs: []Leg{
			{Mode: ModeWalk, Start: sidewalk(0), End: sidewalk(10)},
			{Mode: ModeDrive, Start: sidewalk(11), End: sidewalk(20)},
		},
	}
	err := tr.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, simerr.ErrInvalidLegTransition)
}

func TestNextActionTable(t *testing.T) {
	assert.Equal(t, ActionSpawnVehicle, NextAction(Leg{Mode: ModeWalk}, Leg{Mode: ModeDrive}))
	assert.Equal(t, ActionSpawnVehicle, NextAction(Leg{Mode: ModeWalk}, Leg{Mode: ModeBike}))
	assert.Equal(t, ActionSpawnPedAtParkingEquivalent, NextAction(Leg{Mode: ModeDrive}, Leg{Mode: ModeWalk}))
	assert.Equal(t, ActionAttachToBus, NextAction(Leg{Mode: ModeWalk}, Leg{Mode: ModeTransit}))
	assert.Equal(t, ActionDetachFromBus, NextAction(Leg{Mode: ModeTransit}, Leg{Mode: ModeWalk}))
	assert.Equal(t, ActionNone, NextAction(Leg{Mode: ModeDrive}, Leg{Mode: ModeBike}))
}

func TestScheduleLoopsUntilLoopCount(t *testing.T) {
	trips := []Trip{{ID: 1}, {ID: 2}}
	sched := NewSchedule(trips)
	sched.LoopCount = 2

	cur, ok := sched.Current()
	require.True(t, ok)
	assert.EqualValues(t, 1, cur.ID)

	require.True(t, sched.Advance(0))
	cur, ok = sched.Current()
	require.True(t, ok)
	assert.EqualValues(t, 2, cur.ID)

	require.True(t, sched.Advance(10)) // wraps to loop 2
	cur, ok = sched.Current()
	require.True(t, ok)
	assert.EqualValues(t, 1, cur.ID)

	require.True(t, sched.Advance(20))
	require.False(t, sched.Advance(30)) // loop 2 exhausted
	assert.True(t, sched.Empty())
}

func TestCursorCancelStopsAdvance(t *testing.T) {
	tr := Trip{Legs: []Leg{{Mode: ModeWalk}, {Mode: ModeDrive}}}
	c := NewCursor(7)
	_, ok := c.CurrentLeg(tr)
	require.True(t, ok)

	c.Cancel(simerr.ReasonNoParking)
	_, ok = c.CurrentLeg(tr)
	assert.False(t, ok)

	c.Reset()
	_, ok = c.CurrentLeg(tr)
	assert.True(t, ok)
}
