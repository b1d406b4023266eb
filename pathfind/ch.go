package pathfind

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
)

// Hierarchy is a contraction-hierarchy precomputation for one graph:
// a fixed node ordering (by ascending node degree, a standard cheap
// heuristic) plus shortcut edges that skip over low-importance nodes.
// Queries run plain Dijkstra over the base edges plus the shortcuts;
// there is no bidirectional or rank-restricted search and no witness
// search during contraction — this is "CH-lite".
type Hierarchy struct {
	graph       *Graph
	rank        map[RoadDirection]int // contraction order; lower contracts first
	shortcuts   map[RoadDirection][]Edge
}

// rankOf reports a node's position in the contraction order. No query
// in this package calls it; QueryAll relaxes edges regardless of rank.
func (h *Hierarchy) rankOf(dir RoadDirection) int { return h.rank[dir] }

// Precompute builds a Hierarchy for g. The node ordering (by ascending
// out-degree) and each node's shortcut computation are independent, so
// the per-node shortcut pass is parallelized across goroutines — the
// map itself is read-only on the map per spec.md §5, only the graph
// built from it is touched here.
func Precompute(g *Graph) *Hierarchy {
	nodes := append([]RoadDirection(nil), g.order...)
	sort.Slice(nodes, func(i, j int) bool {
		di, dj := len(g.Edges(nodes[i])), len(g.Edges(nodes[j]))
		if di != dj {
			return di < dj
		}
		return nodes[i].Road < nodes[j].Road || (nodes[i].Road == nodes[j].Road && nodes[i].Src < nodes[j].Src)
	})
	rank := make(map[RoadDirection]int, len(nodes))
	for i, n := range nodes {
		rank[n] = i
	}

	h := &Hierarchy{graph: g, rank: rank, shortcuts: make(map[RoadDirection][]Edge)}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, 8) // bound concurrent contraction workers
	for _, n := range nodes {
		n := n
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			sc := contractNode(g, rank, n)
			if len(sc) == 0 {
				return
			}
			mu.Lock()
			h.shortcuts[n] = sc
			mu.Unlock()
		}()
	}
	wg.Wait()
	return h
}

// contractNode computes the shortcuts needed when node is bypassed:
// for every pair (pred -> node -> succ) whose two ends both rank above
// node, add one witness-free shortcut edge. An existing pred -> succ
// edge, cheaper or not, does not prevent the shortcut.
func contractNode(g *Graph, rank map[RoadDirection]int, node RoadDirection) []Edge {
	preds := make([]Edge, 0)
	for _, dir := range g.order {
		for _, e := range g.Edges(dir) {
			if e.To.Road == node {
				preds = append(preds, e)
			}
		}
	}
	succs := g.Edges(node)
	if len(preds) == 0 || len(succs) == 0 {
		return nil
	}

	var shortcuts []Edge
	for _, p := range preds {
		for _, s := range succs {
			if rank[p.From] <= rank[node] || rank[s.To.Road] <= rank[node] {
				continue // CH invariant: shortcuts only skip strictly-lower-ranked nodes
			}
			shortcuts = append(shortcuts, Edge{
				From:     p.From,
				To:       s.To,
				Turn:     s.Turn,
				FromLane: p.FromLane,
				ToLane:   s.ToLane,
				Weight:   p.Weight + s.Weight,
			})
		}
	}
	return shortcuts
}

// cache memoizes one Hierarchy per (map generation, class) so repeated
// Pathfind calls for the same class reuse the precomputation instead
// of rebuilding it; keyed loosely since a map edit replaces the whole
// cache wholesale (spec.md §4.2 "After map edits").
type cache struct {
	m *xsync.MapOf[mapiface.VehicleClass, *Hierarchy]
}

func newCache() *cache {
	return &cache{m: xsync.NewMapOf[mapiface.VehicleClass, *Hierarchy]()}
}

func (c *cache) getOrBuild(class mapiface.VehicleClass, build func() *Hierarchy) *Hierarchy {
	h, _ := c.m.LoadOrCompute(class, build)
	return h
}

// QueryAll runs a Dijkstra pass over the graph augmented with shortcut
// edges. Each shortcut costs exactly the two edges it replaces, so the
// distances equal those of the plain graph search; the pass still
// visits every reachable node.
func (h *Hierarchy) QueryAll(src RoadDirection) (dist map[RoadDirection]units.Seconds, prev map[RoadDirection]Edge) {
	augmented := augmentedGraph(h)
	return Dijkstra(augmented, src)
}

func augmentedGraph(h *Hierarchy) *Graph {
	if len(h.shortcuts) == 0 {
		return h.graph
	}
	g2 := &Graph{Class: h.graph.Class, nodes: make(map[RoadDirection]*nodeData, len(h.graph.nodes)), order: h.graph.order}
	for dir, nd := range h.graph.nodes {
		merged := &nodeData{lanes: nd.lanes, edges: append([]Edge(nil), nd.edges...)}
		merged.edges = append(merged.edges, h.shortcuts[dir]...)
		g2.nodes[dir] = merged
	}
	return g2
}
