package mapiface

import "github.com/opencity-sim/simcore/simerr"

// Map is the read-only query surface spec.md §4.1 describes. The core
// never mutates a Map; replacing it wholesale with a newly built one is
// how map edits are applied.
type Map interface {
	Lane(id LaneID) (Lane, error)
	Turn(id TurnID) (Turn, error)
	Intersection(id IntersectionID) (Intersection, error)
	ParkingSpot(id ParkingSpotID) (ParkingSpot, error)

	TurnsFrom(lane LaneID) []Turn
	TurnBetween(from, to LaneID) (Turn, bool)
	// Successors returns the lanes reachable from lane through one turn.
	Successors(lane LaneID) []LaneID

	// LanesOfRoad returns every lane belonging to a road, ordered by
	// lane class, used by the pathfinder to aggregate turns into
	// road-to-road movements.
	LanesOfRoad(road RoadID) []LaneID

	// NearestFreeSpot returns a free parking spot for a building, or
	// ok=false if none is free. StaticMap returns the lowest-id free
	// off-street spot attached to that building; distance is not
	// considered.
	NearestFreeSpot(building BuildingID) (ParkingSpotID, bool)
	// SidewalkEquivalent returns the walking position that corresponds
	// to a driving parking position (used when a Drive leg hands off
	// to the following Walk leg).
	SidewalkEquivalent(spot ParkingSpotID) Position

	// AllLaneIDs enumerates every lane, used by precomputation passes
	// (pathfinder contraction hierarchy, intersection conflict matrices).
	AllLaneIDs() []LaneID
	AllIntersectionIDs() []IntersectionID
}

// MustLane panics via simerr.Abort-style semantics if id doesn't exist;
// reserved for call sites where an unknown id can only mean a
// programmer error (e.g. dereferencing a path step just computed by
// the pathfinder from this same map).
func MustLane(m Map, id LaneID) Lane {
	l, err := m.Lane(id)
	if err != nil {
		panic(err)
	}
	return l
}

func errLane(id LaneID) error         { return &simerr.MapQueryError{Kind: "lane", ID: int64(id)} }
func errTurn(id TurnID) error         { return &simerr.MapQueryError{Kind: "turn", ID: int64(id)} }
func errIntersection(id IntersectionID) error {
	return &simerr.MapQueryError{Kind: "intersection", ID: int64(id)}
}
func errSpot(id ParkingSpotID) error { return &simerr.MapQueryError{Kind: "parking_spot", ID: int64(id)} }
