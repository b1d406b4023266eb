// Package scheduler is the simulator's heartbeat (spec.md §4.7, C7): a
// min-heap of time-stamped commands with a deterministic tiebreaker
// and O(log n) idempotent cancellation. Grounded on the teacher's
// utils/container/priority_queue.go (a container/heap wrapper indexing
// items by a float64 priority), generalized from a bare priority value
// to the spec's (time, kind, id) tuple and extended with a
// stamped-invalidation flag so a cancelled command is a no-op at pop
// time instead of a re-entrant dispatch (spec.md §5 "a vehicle may be
// re-awakened by two distinct sources in the same instant").
package scheduler

import (
	"container/heap"

	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/units"
)

var log = logrus.WithField("module", "scheduler")

// Kind orders command kinds within the same instant: intersection
// updates before vehicle updates before spawn attempts (spec.md §4.7).
type Kind int

const (
	KindUpdateIntersection Kind = iota
	KindUpdateCar
	KindUpdatePed
	KindSpawnVehicle
	KindSpawnPed
)

// Command is one scheduler entry's polymorphic payload. EntityID
// is the vehicle/pedestrian/intersection/trip id the command concerns,
// used only for tiebreaking and for Key's identity.
type Command struct {
	Kind     Kind
	EntityID int64
	// Payload carries whatever the dispatcher needs beyond identity
	// (e.g. a trip id for SpawnVehicle/SpawnPed); the scheduler itself
	// never inspects it.
	Payload any
}

// Key identifies one scheduled command for Cancel. A Push whose Key
// matches a still-pending entry supersedes that entry, so at most one
// command per Key is ever pending and a superseded wake-up never
// fires.
type Key struct {
	Kind     Kind
	EntityID int64
}

func keyOf(c Command) Key { return Key{Kind: c.Kind, EntityID: c.EntityID} }

type entry struct {
	time      units.Seconds
	command   Command
	index     int
	cancelled bool
}

type innerHeap []*entry

func (h innerHeap) Len() int { return len(h) }

func (h innerHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	if h[i].command.Kind != h[j].command.Kind {
		return h[i].command.Kind < h[j].command.Kind
	}
	return h[i].command.EntityID < h[j].command.EntityID
}

func (h innerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *innerHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is the event queue driving the whole simulation (spec.md
// §4.7 "Main loop"). Not safe for concurrent use: spec.md §5 requires
// a single-threaded cooperative model.
type Scheduler struct {
	h       innerHeap
	pending map[Key]*entry // most recently pushed, not-yet-popped entry per key
}

func New() *Scheduler {
	return &Scheduler{pending: make(map[Key]*entry)}
}

// Push schedules command to fire at time t. If a pending entry shares
// its Key, the old one is marked cancelled (superseded) so Pop skips
// it without dispatching.
func (s *Scheduler) Push(t units.Seconds, cmd Command) {
	k := keyOf(cmd)
	if old, ok := s.pending[k]; ok {
		old.cancelled = true
		log.WithFields(logrus.Fields{"kind": k.Kind, "entity": k.EntityID}).Debug("scheduler: command superseded")
	}
	e := &entry{time: t, command: cmd}
	s.pending[k] = e
	heap.Push(&s.h, e)
}

// PeekTime returns the time of the next not-yet-cancelled command, or
// ok=false if the scheduler is empty.
func (s *Scheduler) PeekTime() (units.Seconds, bool) {
	for len(s.h) > 0 && s.h[0].cancelled {
		heap.Pop(&s.h)
	}
	if len(s.h) == 0 {
		return 0, false
	}
	return s.h[0].time, true
}

// Pop removes and returns the earliest not-yet-cancelled command.
// Cancelled entries are discarded lazily here rather than eagerly
// removed from the heap, keeping Cancel an O(log n) flag flip instead
// of an O(n) heap search.
func (s *Scheduler) Pop() (units.Seconds, Command, bool) {
	for len(s.h) > 0 {
		e := heap.Pop(&s.h).(*entry)
		if e.cancelled {
			continue
		}
		if s.pending[keyOf(e.command)] == e {
			delete(s.pending, keyOf(e.command))
		}
		return e.time, e.command, true
	}
	return 0, Command{}, false
}

// Cancel invalidates the pending command matching key, if any. Returns
// true if an entry was found and cancelled. Idempotent: cancelling an
// already-cancelled or absent key is a harmless no-op.
func (s *Scheduler) Cancel(key Key) bool {
	e, ok := s.pending[key]
	if !ok || e.cancelled {
		return false
	}
	e.cancelled = true
	delete(s.pending, key)
	return true
}

// Len reports the number of entries still in the heap, including
// lazily-uncollected cancelled ones; it is an upper bound on pending
// work, not an exact count.
func (s *Scheduler) Len() int { return len(s.h) }

// Scheduled is one still-pending (time, command) pair, the unit a
// savegame persists (spec.md §6 "the scheduler heap ... form a
// self-contained savegame").
type Scheduled struct {
	Time    units.Seconds
	Command Command
}

// Snapshot returns every not-yet-cancelled entry, in no particular
// order; Restore rebuilds an equivalent heap from it.
func (s *Scheduler) Snapshot() []Scheduled {
	out := make([]Scheduled, 0, len(s.h))
	for _, e := range s.h {
		if e.cancelled {
			continue
		}
		out = append(out, Scheduled{Time: e.time, Command: e.command})
	}
	return out
}

// Restore replaces the scheduler's contents with items, as produced by
// a prior Snapshot. Any existing entries are discarded.
func (s *Scheduler) Restore(items []Scheduled) {
	s.h = make(innerHeap, 0, len(items))
	s.pending = make(map[Key]*entry)
	for _, it := range items {
		s.Push(it.Time, it.Command)
	}
}
