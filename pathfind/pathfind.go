package pathfind

import (
	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/config"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/simerr"
	"github.com/opencity-sim/simcore/units"
)

var log = logrus.WithField("module", "pathfind")

// Step is one lane or turn in a resolved path, in travel order (spec.md
// §4.2 "Path is an ordered non-empty sequence of steps").
type Step struct {
	IsTurn bool
	Lane   mapiface.LaneID
	Turn   mapiface.TurnID
}

// Path is a non-empty ordered sequence of Steps plus its total cost.
// StartDistance/EndDistance are where travel actually begins/ends along
// the first/last step's lane (spec.md §4.2 "the step's goal distance");
// every intermediate step is always crossed end to end.
type Path struct {
	Steps         []Step
	Cost          units.Seconds
	StartDistance units.Meters
	EndDistance   units.Meters
}

// Pathfinder answers pathfind queries for one Map, caching one
// contraction hierarchy per vehicle class. Rebuild (via New) after any
// map edit; the node set is stable across an edit but cached weights
// are not (spec.md §4.2 "After map edits").
type Pathfinder struct {
	m      mapiface.Map
	params config.RoutingParams
	cache  *cache
}

func New(m mapiface.Map, params config.RoutingParams) *Pathfinder {
	return &Pathfinder{m: m, params: params, cache: newCache()}
}

func (p *Pathfinder) hierarchyFor(class mapiface.VehicleClass) *Hierarchy {
	return p.cache.getOrBuild(class, func() *Hierarchy {
		g := BuildGraph(p.m, class, p.params)
		CollapseUberTurns(g, func(dir RoadDirection) float64 {
			return roadLength(p.m, dir)
		})
		return Precompute(g)
	})
}

func roadLength(m mapiface.Map, dir RoadDirection) float64 {
	for _, laneID := range m.LanesOfRoad(dir.Road) {
		l, err := m.Lane(laneID)
		if err == nil && l.SrcIntersection == dir.Src && l.DstIntersection == dir.Dst {
			return float64(l.Length)
		}
	}
	return 0
}

// Pathfind resolves start to end under class, honoring the edge cases
// of spec.md §4.2: same-lane trivial path, unreachable returns
// ErrPathfind, and a start on a sidewalk routes purely within the
// pedestrian subgraph built by the ClassPedestrian graph.
func (p *Pathfinder) Pathfind(start, end mapiface.Position, class mapiface.VehicleClass) (Path, error) {
	if _, err := p.m.Lane(start.Lane); err != nil {
		return Path{}, err
	}
	if _, err := p.m.Lane(end.Lane); err != nil {
		return Path{}, err
	}

	if start.Lane == end.Lane {
		return Path{Steps: []Step{{Lane: start.Lane}}, Cost: 0, StartDistance: start.Distance, EndDistance: end.Distance}, nil
	}

	h := p.hierarchyFor(class)
	startDir, ok := h.graph.DirectionOf(p.m, start.Lane)
	if !ok {
		log.WithField("lane", start.Lane).Debug("pathfind: start lane has no direction in graph")
		return Path{}, simerr.ErrPathfind
	}
	endDir, ok := h.graph.DirectionOf(p.m, end.Lane)
	if !ok {
		log.WithField("lane", end.Lane).Debug("pathfind: end lane has no direction in graph")
		return Path{}, simerr.ErrPathfind
	}

	edges, cost, ok := ShortestPath(h.graph, startDir, endDir)
	if !ok {
		log.WithFields(logrus.Fields{"start": start.Lane, "end": end.Lane}).Debug("pathfind: no route between lanes")
		return Path{}, simerr.ErrPathfind
	}

	steps := make([]Step, 0, len(edges)*2+2)
	steps = append(steps, Step{Lane: start.Lane})
	prevLane := start.Lane
	for _, e := range edges {
		if e.FromLane != prevLane {
			steps = append(steps, Step{Lane: e.FromLane})
		}
		steps = append(steps, Step{IsTurn: true, Turn: e.Turn})
		steps = append(steps, Step{Lane: e.ToLane})
		prevLane = e.ToLane
	}
	if prevLane != end.Lane {
		steps = append(steps, Step{Lane: end.Lane})
	}

	return Path{Steps: steps, Cost: cost, StartDistance: start.Distance, EndDistance: end.Distance}, nil
}

// Isochrone returns the reachable-cost map from a single source,
// used by external isochrone tooling (pathfind/remote) as a local
// cross-check against a remote routing service.
func (p *Pathfinder) Isochrone(from mapiface.Position, class mapiface.VehicleClass) map[RoadDirection]units.Seconds {
	h := p.hierarchyFor(class)
	dir, ok := h.graph.DirectionOf(p.m, from.Lane)
	if !ok {
		return nil
	}
	dist, _ := h.QueryAll(dir)
	return dist
}
