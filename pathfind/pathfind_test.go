package pathfind

import (
	"testing"

	"github.com/opencity-sim/simcore/config"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLinearMap builds three driving lanes A->B->C->D joined by two
// plain intersections, enough to exercise a multi-hop pathfind.
func buildLinearMap(t *testing.T) mapiface.Map {
	t.Helper()
	b := mapiface.NewBuilder()

	b.AddLane(mapiface.Lane{ID: 1, Length: 100, Class: mapiface.LaneDriving, RoadID: 1, SrcIntersection: 1, DstIntersection: 2, SpeedLimit: 10, InclineFactor: 1})
	b.AddLane(mapiface.Lane{ID: 2, Length: 100, Class: mapiface.LaneDriving, RoadID: 2, SrcIntersection: 2, DstIntersection: 3, SpeedLimit: 10, InclineFactor: 1})
	b.AddLane(mapiface.Lane{ID: 3, Length: 100, Class: mapiface.LaneDriving, RoadID: 3, SrcIntersection: 3, DstIntersection: 4, SpeedLimit: 10, InclineFactor: 1})

	b.AddTurn(mapiface.Turn{ID: 10, Src: 1, Dst: 2, IntersectionID: 2, Kind: mapiface.TurnStraight, Conflicts: map[mapiface.TurnID]bool{}})
	b.AddTurn(mapiface.Turn{ID: 11, Src: 2, Dst: 3, IntersectionID: 3, Kind: mapiface.TurnStraight, Conflicts: map[mapiface.TurnID]bool{}})

	b.AddIntersection(mapiface.Intersection{ID: 2, Kind: mapiface.IntersectionStopSign, Turns: []mapiface.TurnID{10}})
	b.AddIntersection(mapiface.Intersection{ID: 3, Kind: mapiface.IntersectionStopSign, Turns: []mapiface.TurnID{11}})

	return b.Build()
}

func TestPathfindMultiHop(t *testing.T) {
	m := buildLinearMap(t)
	pf := New(m, config.DefaultRoutingParams())

	path, err := pf.Pathfind(
		mapiface.Position{Lane: 1, Distance: 0},
		mapiface.Position{Lane: 3, Distance: 50},
		mapiface.ClassCar,
	)
	require.NoError(t, err)
	require.NotEmpty(t, path.Steps)
	assert.Equal(t, mapiface.LaneID(1), path.Steps[0].Lane)
	assert.Equal(t, mapiface.LaneID(3), path.Steps[len(path.Steps)-1].Lane)
}

func TestPathfindSameLaneIsTrivial(t *testing.T) {
	m := buildLinearMap(t)
	pf := New(m, config.DefaultRoutingParams())

	path, err := pf.Pathfind(
		mapiface.Position{Lane: 2, Distance: 5},
		mapiface.Position{Lane: 2, Distance: 90},
		mapiface.ClassCar,
	)
	require.NoError(t, err)
	require.Len(t, path.Steps, 1)
	assert.Equal(t, mapiface.LaneID(2), path.Steps[0].Lane)
}

func TestPathfindUnreachableReturnsErrPathfind(t *testing.T) {
	b := mapiface.NewBuilder()
	b.AddLane(mapiface.Lane{ID: 1, Length: 50, Class: mapiface.LaneDriving, RoadID: 1, SrcIntersection: 1, DstIntersection: 2, SpeedLimit: 10, InclineFactor: 1})
	b.AddLane(mapiface.Lane{ID: 2, Length: 50, Class: mapiface.LaneDriving, RoadID: 2, SrcIntersection: 3, DstIntersection: 4, SpeedLimit: 10, InclineFactor: 1})
	m := b.Build()

	pf := New(m, config.DefaultRoutingParams())
	_, err := pf.Pathfind(
		mapiface.Position{Lane: 1, Distance: 0},
		mapiface.Position{Lane: 2, Distance: 0},
		mapiface.ClassCar,
	)
	require.Error(t, err)
}
