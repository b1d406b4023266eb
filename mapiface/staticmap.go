package mapiface

import (
	"sort"

	"github.com/samber/lo"
)

// StaticMap is an in-memory Map built once from a Builder and never
// mutated afterwards, mirroring the teacher's manager-of-entities
// pattern (entity/lane/manager.go) collapsed into a single read-only
// aggregate since the core treats the whole map as one unit of
// replacement on edit.
type StaticMap struct {
	lanes         map[LaneID]Lane
	turns         map[TurnID]Turn
	intersections map[IntersectionID]Intersection
	spots         map[ParkingSpotID]ParkingSpot

	turnsFromLane map[LaneID][]TurnID
	laneOccupancy map[ParkingSpotID]bool // true = occupied
	roadLanes     map[RoadID][]LaneID
	sidewalkEquiv map[ParkingSpotID]Position

	laneIDsSorted         []LaneID
	intersectionIDsSorted []IntersectionID
}

// Builder accumulates map entities before freezing them into a StaticMap.
// Grounded on the teacher's two-phase Init (create then wire
// predecessor/successor relations).
type Builder struct {
	lanes         map[LaneID]Lane
	turns         map[TurnID]Turn
	intersections map[IntersectionID]Intersection
	spots         map[ParkingSpotID]ParkingSpot
	sidewalkEquiv map[ParkingSpotID]Position
}

func NewBuilder() *Builder {
	return &Builder{
		lanes:         make(map[LaneID]Lane),
		turns:         make(map[TurnID]Turn),
		intersections: make(map[IntersectionID]Intersection),
		spots:         make(map[ParkingSpotID]ParkingSpot),
		sidewalkEquiv: make(map[ParkingSpotID]Position),
	}
}

func (b *Builder) AddLane(l Lane) *Builder {
	if l.InclineFactor == 0 {
		l.InclineFactor = 1
	}
	b.lanes[l.ID] = l
	return b
}

func (b *Builder) AddTurn(t Turn) *Builder {
	if t.Conflicts == nil {
		t.Conflicts = map[TurnID]bool{}
	}
	b.turns[t.ID] = t
	return b
}

func (b *Builder) AddIntersection(i Intersection) *Builder {
	b.intersections[i.ID] = i
	return b
}

// AddParkingSpot registers a spot and its sidewalk-equivalent walking
// position (used when a Drive leg ends and the next Walk leg departs
// from "the sidewalk next to where I parked").
func (b *Builder) AddParkingSpot(s ParkingSpot, sidewalk Position) *Builder {
	b.spots[s.ID] = s
	b.sidewalkEquiv[s.ID] = sidewalk
	return b
}

// Build derives the lookup indices (turns-from-lane, road->lanes) and
// freezes the map.
func (b *Builder) Build() *StaticMap {
	m := &StaticMap{
		lanes:         b.lanes,
		turns:         b.turns,
		intersections: b.intersections,
		spots:         b.spots,
		turnsFromLane: make(map[LaneID][]TurnID),
		laneOccupancy: make(map[ParkingSpotID]bool),
		roadLanes:     make(map[RoadID][]LaneID),
		sidewalkEquiv: b.sidewalkEquiv,
	}
	for _, t := range b.turns {
		m.turnsFromLane[t.Src] = append(m.turnsFromLane[t.Src], t.ID)
	}
	for _, l := range b.lanes {
		m.roadLanes[l.RoadID] = append(m.roadLanes[l.RoadID], l.ID)
	}
	for _, ids := range m.roadLanes {
		sort.Slice(ids, func(i, j int) bool {
			li, lj := m.lanes[ids[i]], m.lanes[ids[j]]
			if li.Class != lj.Class {
				return li.Class < lj.Class
			}
			return li.ID < lj.ID
		})
	}
	m.laneIDsSorted = lo.Keys(m.lanes)
	sort.Slice(m.laneIDsSorted, func(i, j int) bool { return m.laneIDsSorted[i] < m.laneIDsSorted[j] })
	m.intersectionIDsSorted = lo.Keys(m.intersections)
	sort.Slice(m.intersectionIDsSorted, func(i, j int) bool {
		return m.intersectionIDsSorted[i] < m.intersectionIDsSorted[j]
	})
	return m
}

func (m *StaticMap) Lane(id LaneID) (Lane, error) {
	l, ok := m.lanes[id]
	if !ok {
		return Lane{}, errLane(id)
	}
	return l, nil
}

func (m *StaticMap) Turn(id TurnID) (Turn, error) {
	t, ok := m.turns[id]
	if !ok {
		return Turn{}, errTurn(id)
	}
	return t, nil
}

func (m *StaticMap) Intersection(id IntersectionID) (Intersection, error) {
	i, ok := m.intersections[id]
	if !ok {
		return Intersection{}, errIntersection(id)
	}
	return i, nil
}

func (m *StaticMap) ParkingSpot(id ParkingSpotID) (ParkingSpot, error) {
	s, ok := m.spots[id]
	if !ok {
		return ParkingSpot{}, errSpot(id)
	}
	return s, nil
}

func (m *StaticMap) TurnsFrom(lane LaneID) []Turn {
	ids := m.turnsFromLane[lane]
	out := make([]Turn, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.turns[id])
	}
	return out
}

func (m *StaticMap) TurnBetween(from, to LaneID) (Turn, bool) {
	for _, id := range m.turnsFromLane[from] {
		if t := m.turns[id]; t.Dst == to {
			return t, true
		}
	}
	return Turn{}, false
}

func (m *StaticMap) Successors(lane LaneID) []LaneID {
	var out []LaneID
	for _, id := range m.turnsFromLane[lane] {
		out = append(out, m.turns[id].Dst)
	}
	return out
}

func (m *StaticMap) LanesOfRoad(road RoadID) []LaneID {
	return m.roadLanes[road]
}

// NearestFreeSpot does a simple linear scan; real deployments would
// index spots spatially, but the core only needs correctness here —
// spatial indexing is an out-of-scope map-import/editor concern.
func (m *StaticMap) NearestFreeSpot(building BuildingID) (ParkingSpotID, bool) {
	var best ParkingSpotID
	found := false
	for _, s := range m.spots {
		if s.Kind != SpotOffStreet || s.Building != building {
			continue
		}
		if m.laneOccupancy[s.ID] {
			continue
		}
		if !found || s.ID < best {
			best = s.ID
			found = true
		}
	}
	return best, found
}

func (m *StaticMap) SidewalkEquivalent(spot ParkingSpotID) Position {
	return m.sidewalkEquiv[spot]
}

func (m *StaticMap) AllLaneIDs() []LaneID                 { return m.laneIDsSorted }
func (m *StaticMap) AllIntersectionIDs() []IntersectionID { return m.intersectionIDsSorted }

// MarkOccupied/MarkFree let the parking sub-state (owned by sim, not
// by the map) keep NearestFreeSpot queries consistent with reality
// without the map needing to know about vehicles — the map index is
// advisory bookkeeping, not authoritative occupancy.
func (m *StaticMap) MarkOccupied(id ParkingSpotID) { m.laneOccupancy[id] = true }
func (m *StaticMap) MarkFree(id ParkingSpotID)     { delete(m.laneOccupancy, id) }

// OccupiedSpots lists every spot currently marked occupied, used by a
// savegame to persist parking occupancy (spec.md §6).
func (m *StaticMap) OccupiedSpots() []ParkingSpotID {
	out := make([]ParkingSpotID, 0, len(m.laneOccupancy))
	for id, occupied := range m.laneOccupancy {
		if occupied {
			out = append(out, id)
		}
	}
	return out
}
