// Package pathfind implements the pathfinder (spec.md §4.2, C2): a
// weighted directed graph over directed roads and movements, a plain
// Dijkstra that answers point-to-point queries, and a
// contraction-hierarchy precomputation whose shortcut-augmented search
// answers isochrone "all costs from one source" queries. Grounded in shape on the teacher's
// entity/person/route package (a per-class router consulted by the
// trip manager), but the actual search algorithm is written fresh:
// the teacher's router.Router lives in the unfetchable
// git.fiblab.net/sim/routing/v2 module (see DESIGN.md), so the graph,
// Dijkstra and contraction-hierarchy code here are original,
// stdlib-grounded (container/heap) implementations of spec.md's design
// as no pack example ships a routing-graph library to adopt instead.
package pathfind

import (
	"github.com/opencity-sim/simcore/config"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
)

// DirectedRoadID is a graph node: one road traversed in one direction,
// identified by its constituent lanes' shared (road, src, dst) triple.
type DirectedRoadID struct {
	Road RoadDirection
}

// RoadDirection is the (road, src intersection, dst intersection)
// triple that groups parallel lanes into one directed-road node
// (spec.md §4.2 "nodes are directed roads").
type RoadDirection struct {
	Road mapiface.RoadID
	Src  mapiface.IntersectionID
	Dst  mapiface.IntersectionID
}

// Edge is a movement: a turn (or set of parallel turns) connecting two
// directed-road nodes, carrying the representative lane ids used to
// enter/exit it.
type Edge struct {
	From       RoadDirection
	To         DirectedRoadID
	Turn       mapiface.TurnID
	FromLane   mapiface.LaneID
	ToLane     mapiface.LaneID
	Weight     units.Seconds
}

// Graph is the movement graph for one vehicle class, built once per
// (map, class, params) and reused across many Pathfind calls.
type Graph struct {
	Class  mapiface.VehicleClass
	nodes  map[RoadDirection]*nodeData
	order  []RoadDirection // stable iteration / contraction order seed
}

type nodeData struct {
	lanes []mapiface.LaneID // every lane of this class-usable directed road
	edges []Edge
}

// BuildGraph constructs the movement graph for one vehicle class,
// grouping each road's lanes by direction and aggregating turns
// between directed roads into Edges weighted per spec.md §4.2.
func BuildGraph(m mapiface.Map, class mapiface.VehicleClass, params config.RoutingParams) *Graph {
	g := &Graph{Class: class, nodes: make(map[RoadDirection]*nodeData)}

	laneToDir := make(map[mapiface.LaneID]RoadDirection)
	seenRoads := make(map[mapiface.RoadID]bool)
	for _, laneID := range m.AllLaneIDs() {
		lane, err := m.Lane(laneID)
		if err != nil || !usableByClass(lane, class) {
			continue
		}
		if seenRoads[lane.RoadID] {
			continue
		}
		seenRoads[lane.RoadID] = true
		for _, roadLaneID := range m.LanesOfRoad(lane.RoadID) {
			rl, err := m.Lane(roadLaneID)
			if err != nil || !usableByClass(rl, class) {
				continue
			}
			dir := RoadDirection{Road: rl.RoadID, Src: rl.SrcIntersection, Dst: rl.DstIntersection}
			laneToDir[roadLaneID] = dir
			nd, ok := g.nodes[dir]
			if !ok {
				nd = &nodeData{}
				g.nodes[dir] = nd
				g.order = append(g.order, dir)
			}
			nd.lanes = append(nd.lanes, roadLaneID)
		}
	}

	for dir, nd := range g.nodes {
		best := make(map[RoadDirection]*Edge) // cheapest edge per destination directed road
		for _, fromLane := range nd.lanes {
			for _, turn := range m.TurnsFrom(fromLane) {
				if !turnUsableByClass(turn, class) {
					continue
				}
				toDir, ok := laneToDir[turn.Dst]
				if !ok {
					continue
				}
				toLaneData, err := m.Lane(turn.Dst)
				if err != nil {
					continue
				}
				fromLaneData, err := m.Lane(fromLane)
				if err != nil {
					continue
				}
				w := movementWeight(fromLaneData, toLaneData, turn, class, params)
				cur, exists := best[toDir]
				if !exists || w < cur.Weight {
					best[toDir] = &Edge{From: dir, To: DirectedRoadID{Road: toDir}, Turn: turn.ID, FromLane: fromLane, ToLane: turn.Dst, Weight: w}
				}
			}
		}
		for _, e := range best {
			nd.edges = append(nd.edges, *e)
		}
	}
	return g
}

func usableByClass(lane mapiface.Lane, class mapiface.VehicleClass) bool {
	switch class {
	case mapiface.ClassPedestrian:
		return lane.Class == mapiface.LaneSidewalk
	case mapiface.ClassBike:
		return lane.Class == mapiface.LaneBiking || lane.Class == mapiface.LaneDriving || lane.Class == mapiface.LaneSharedTurn
	case mapiface.ClassBus:
		return lane.Class == mapiface.LaneBus || lane.Class == mapiface.LaneDriving || lane.Class == mapiface.LaneSharedTurn
	default: // ClassCar
		return lane.Class == mapiface.LaneDriving || lane.Class == mapiface.LaneSharedTurn
	}
}

func turnUsableByClass(turn mapiface.Turn, class mapiface.VehicleClass) bool {
	if class == mapiface.ClassPedestrian {
		return turn.Kind == mapiface.TurnCrosswalk || turn.Kind == mapiface.TurnSharedSidewalkCorner
	}
	return turn.Kind != mapiface.TurnCrosswalk && turn.Kind != mapiface.TurnSharedSidewalkCorner
}

// movementWeight is the ideal crossing time of the destination lane
// (the turn itself adds no time), scaled by class-specific lane-type
// and left-turn penalties, plus the zone-entry cost (spec.md §4.2
// "Algorithm").
func movementWeight(from, to mapiface.Lane, turn mapiface.Turn, class mapiface.VehicleClass, params config.RoutingParams) units.Seconds {
	speed := to.SpeedLimit
	if cap, ok := params.Cap(); ok {
		speed = speed.Min(units.MetersPerSecond(cap))
	}
	crossTime := to.Length.Over(speed)

	multiplier := 1.0
	switch class {
	case mapiface.ClassBike:
		switch to.Class {
		case mapiface.LaneBiking:
			multiplier *= params.BikeLaneBonus
		case mapiface.LaneDriving:
			multiplier *= params.DrivingLanePenalty
		}
	case mapiface.ClassBus:
		if to.Class == mapiface.LaneBus {
			multiplier *= params.BusLaneBonus
		}
	}
	if turn.Kind == mapiface.TurnLeft {
		multiplier *= params.UnprotectedTurnPenalty
	}
	weight := units.Seconds(float64(crossTime) * multiplier)
	if to.RestrictedZone != "" {
		weight += units.Seconds(params.ZoneEntryCost)
	}
	return weight
}

func (g *Graph) Edges(dir RoadDirection) []Edge {
	nd, ok := g.nodes[dir]
	if !ok {
		return nil
	}
	return nd.edges
}

func (g *Graph) Has(dir RoadDirection) bool {
	_, ok := g.nodes[dir]
	return ok
}

func (g *Graph) Nodes() []RoadDirection { return g.order }

// DirectionOf returns the directed-road a lane belongs to in this
// graph, or ok=false if the lane isn't usable by this graph's class.
func (g *Graph) DirectionOf(m mapiface.Map, lane mapiface.LaneID) (RoadDirection, bool) {
	l, err := m.Lane(lane)
	if err != nil || !usableByClass(l, g.Class) {
		return RoadDirection{}, false
	}
	dir := RoadDirection{Road: l.RoadID, Src: l.SrcIntersection, Dst: l.DstIntersection}
	if !g.Has(dir) {
		return RoadDirection{}, false
	}
	return dir, true
}
