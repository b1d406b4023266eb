package pathfind

import (
	"container/heap"

	"github.com/opencity-sim/simcore/units"
)

type pqItem struct {
	node  RoadDirection
	dist  units.Seconds
	index int
}

type distHeap []*pqItem

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *distHeap) Push(x any) {
	it := x.(*pqItem)
	it.index = len(*h)
	*h = append(*h, it)
}
func (h *distHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Dijkstra runs a plain single-source shortest-path search over g,
// the fallback engine spec.md §4.2 requires alongside the contraction
// hierarchy, and the engine used directly for "all costs from one
// source" isochrone queries.
func Dijkstra(g *Graph, src RoadDirection) (dist map[RoadDirection]units.Seconds, prev map[RoadDirection]Edge) {
	dist = make(map[RoadDirection]units.Seconds)
	prev = make(map[RoadDirection]Edge)
	visited := make(map[RoadDirection]bool)

	h := &distHeap{}
	heap.Init(h)
	dist[src] = 0
	heap.Push(h, &pqItem{node: src, dist: 0})

	for h.Len() > 0 {
		cur := heap.Pop(h).(*pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		for _, e := range g.Edges(cur.node) {
			nd := cur.dist + e.Weight
			if old, ok := dist[e.To.Road]; !ok || nd < old {
				dist[e.To.Road] = nd
				prev[e.To.Road] = e
				heap.Push(h, &pqItem{node: e.To.Road, dist: nd})
			}
		}
	}
	return dist, prev
}

// ShortestPath resolves the lowest-cost sequence of edges from src to
// dst, or ok=false if dst is unreachable.
func ShortestPath(g *Graph, src, dst RoadDirection) (edges []Edge, cost units.Seconds, ok bool) {
	if src == dst {
		return nil, 0, true
	}
	dist, prev := Dijkstra(g, src)
	finalCost, reached := dist[dst]
	if !reached {
		return nil, 0, false
	}
	var rev []Edge
	node := dst
	for node != src {
		e, ok := prev[node]
		if !ok {
			return nil, 0, false
		}
		rev = append(rev, e)
		node = e.From
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev, finalCost, true
}
