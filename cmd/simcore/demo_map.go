package main

import "github.com/opencity-sim/simcore/mapiface"

// buildDemoMap assembles a small four-way intersection with a
// stop-sign controller, the same shape spec.md §8's scenario 2
// describes, for cmd/simcore's standalone smoke run. A real deployment
// loads its map from whatever format its map-import pipeline produces
// (out of scope per spec.md §1, "importing a map from OSM or any other
// external format"); this core takes only the already-built mapiface.Map.
func buildDemoMap() mapiface.Map {
	b := mapiface.NewBuilder()

	b.AddLane(mapiface.Lane{ID: 1, Length: 150, Class: mapiface.LaneDriving, RoadID: 1, SrcIntersection: 10, DstIntersection: 1, SpeedLimit: 14})
	b.AddLane(mapiface.Lane{ID: 2, Length: 150, Class: mapiface.LaneDriving, RoadID: 2, SrcIntersection: 1, DstIntersection: 11, SpeedLimit: 14})
	b.AddLane(mapiface.Lane{ID: 3, Length: 150, Class: mapiface.LaneDriving, RoadID: 3, SrcIntersection: 12, DstIntersection: 1, SpeedLimit: 14})
	b.AddLane(mapiface.Lane{ID: 4, Length: 150, Class: mapiface.LaneDriving, RoadID: 4, SrcIntersection: 1, DstIntersection: 13, SpeedLimit: 14})

	b.AddTurn(mapiface.Turn{ID: 100, Src: 1, Dst: 2, IntersectionID: 1, Kind: mapiface.TurnStraight, Conflicts: map[mapiface.TurnID]bool{101: true}})
	b.AddTurn(mapiface.Turn{ID: 101, Src: 3, Dst: 4, IntersectionID: 1, Kind: mapiface.TurnStraight, Conflicts: map[mapiface.TurnID]bool{100: true}})

	b.AddIntersection(mapiface.Intersection{ID: 1, Kind: mapiface.IntersectionStopSign, Turns: []mapiface.TurnID{100, 101}})

	b.AddParkingSpot(
		mapiface.ParkingSpot{
			ID:              1000,
			Kind:            mapiface.SpotOnStreet,
			Lane:            2,
			DrivingPosition: mapiface.Position{Lane: 2, Distance: 140},
		},
		mapiface.Position{Lane: 2, Distance: 140},
	)

	return b.Build()
}
