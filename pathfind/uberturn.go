package pathfind

import "github.com/opencity-sim/simcore/mapiface"

// UberTurn is a sequence of turns through closely-spaced intersections
// that must be entered together — splitting it would strand a vehicle
// mid-sequence with no legal way to complete the maneuver (spec.md
// §4.2 "Uber-turns... collapsed into single composite nodes so the
// planner cannot split them").
type UberTurn struct {
	Turns []mapiface.TurnID
	// ShortRoad is the directed road strung between the two turns;
	// an uber-turn exists because this road is too short to queue on.
	ShortRoad RoadDirection
}

// shortRoadThreshold below which a directed road is treated as part of
// an uber-turn rather than a queueable hop in its own right.
const shortRoadThreshold = 12.0 // meters

// CollapseUberTurns scans g for directed roads shorter than the
// threshold with exactly one predecessor and one successor edge, and
// merges the predecessor+road+successor into a single composite edge
// so Dijkstra/CH can never plan a path that stops mid-maneuver. The
// short intermediate node is left in the graph (other turns may still
// target it) but gains a direct shortcut edge bypassing it.
func CollapseUberTurns(g *Graph, lengthOf func(RoadDirection) float64) []UberTurn {
	var found []UberTurn
	incoming := make(map[RoadDirection][]Edge)
	for _, dir := range g.order {
		for _, e := range g.Edges(dir) {
			incoming[e.To.Road] = append(incoming[e.To.Road], e)
		}
	}

	for _, dir := range g.order {
		nd := g.nodes[dir]
		if lengthOf(dir) >= shortRoadThreshold {
			continue
		}
		preds := incoming[dir]
		if len(preds) != 1 || len(nd.edges) != 1 {
			continue
		}
		pred := preds[0]
		succ := nd.edges[0]
		shortcut := Edge{
			From:     pred.From,
			To:       succ.To,
			Turn:     succ.Turn, // the composite is admitted under the final turn
			FromLane: pred.FromLane,
			ToLane:   succ.ToLane,
			Weight:   pred.Weight + succ.Weight,
		}
		predNode := g.nodes[pred.From]
		predNode.edges = append(predNode.edges, shortcut)
		found = append(found, UberTurn{Turns: []mapiface.TurnID{pred.Turn, succ.Turn}, ShortRoad: dir})
	}
	return found
}
