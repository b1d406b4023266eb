// Package queue implements the ordered, following-distance-respecting
// occupant list of one lane or turn (spec.md §3 "Queue", §4.3).
//
// A Queue does not know about time; every query takes `now` explicitly
// and recomputes realized positions from each occupant's own idea of
// where its front currently is. All scheduling lives in the vehicle
// state machine and the scheduler, not here — mirroring the teacher's
// split between a dumb container (utils/container/list.go) and the
// managers that drive it in time.
package queue

import (
	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/units"
)

var log = logrus.WithField("module", "queue")

// Occupant is anything a Queue can hold: a vehicle or a pedestrian
// mid-crossing. IdealFront reports where the occupant would be if it
// were the head of its queue, ignoring following-distance clamping —
// the Queue applies the clamp itself when computing realized
// Positions.
type Occupant interface {
	ID() int64
	Length() units.Meters
	IdealFront(now units.Seconds) units.Meters
}

// Queued is one realized (occupant, front-distance) pair.
type Queued[T Occupant] struct {
	Occupant T
	Front    units.Meters
}

// Queue holds the occupants of one lane or turn, head-to-tail in the
// direction of travel: index 0 is the head (farthest along, closest to
// leaving), and the last index is the tail (the newest arrival,
// closest to the queue's start).
type Queue[T Occupant] struct {
	Length            units.Meters
	FollowingDistance units.Meters
	occupants         []T
}

func New[T Occupant](length units.Meters, followingDistance units.Meters) *Queue[T] {
	return &Queue[T]{Length: length, FollowingDistance: followingDistance}
}

func (q *Queue[T]) Len() int { return len(q.occupants) }

func (q *Queue[T]) Empty() bool { return len(q.occupants) == 0 }

// Head is the occupant farthest along the queue, or the zero value and
// false if the queue is empty.
func (q *Queue[T]) Head() (t T, ok bool) {
	if len(q.occupants) == 0 {
		return t, false
	}
	return q.occupants[0], true
}

func (q *Queue[T]) Tail() (t T, ok bool) {
	if len(q.occupants) == 0 {
		return t, false
	}
	return q.occupants[len(q.occupants)-1], true
}

// PushBack adds a new occupant at the tail — the point where a vehicle
// enters this queue, either by spawning or by advancing from an
// upstream step. Callers must have already checked RoomAtEnd.
func (q *Queue[T]) PushBack(t T) {
	q.occupants = append(q.occupants, t)
}

// PopFront removes the head occupant, used when a vehicle leaves this
// queue for the next step in its path.
func (q *Queue[T]) PopFront() (t T, ok bool) {
	if len(q.occupants) == 0 {
		return t, false
	}
	t = q.occupants[0]
	q.occupants = q.occupants[1:]
	return t, true
}

// Remove deletes the occupant with the given id from wherever it sits
// in the queue (used when a vehicle is cancelled or vanishes mid-queue,
// e.g. parking directly from a Queued state). Returns false if not found.
func (q *Queue[T]) Remove(id int64) bool {
	for i, occ := range q.occupants {
		if occ.ID() == id {
			q.occupants = append(q.occupants[:i], q.occupants[i+1:]...)
			return true
		}
	}
	return false
}

// RoomAtEnd reports whether a vehicle of the given length could enter
// at the tail right now: the current tail's rear bumper (front minus
// its own length) must be at least FollowingDistance past the lane
// start. An empty queue always has room, provided the queue itself is
// at least long enough for the vehicle plus the following gap against
// the (hypothetical) vehicle ahead — there is none, so only the queue
// length bound applies.
func (q *Queue[T]) RoomAtEnd(now units.Seconds, newLength units.Meters) bool {
	if newLength > q.Length {
		log.WithFields(logrus.Fields{"length": newLength, "queue": q.Length}).Debug("queue: occupant longer than queue, rejecting")
		return false
	}
	if len(q.occupants) == 0 {
		return true
	}
	tail := q.occupants[len(q.occupants)-1]
	tailFront := q.realizedFront(len(q.occupants)-1, now)
	tailRear := tailFront - tail.Length()
	return float64(tailRear) >= float64(q.FollowingDistance)
}

// InsertionIndex returns the index at which an occupant with the given
// ideal front distance and length could be spliced into the queue
// without violating the spacing invariant against both neighbours, or
// ok=false if no such index exists. Positions are evaluated at `now`.
func (q *Queue[T]) InsertionIndex(now units.Seconds, frontDistance units.Meters, length units.Meters) (index int, ok bool) {
	positions := q.positionsRaw(now)
	// Find the first occupant whose front is <= frontDistance; the new
	// occupant would sit immediately before it (descending sort).
	idx := len(positions)
	for i, p := range positions {
		if float64(p) <= float64(frontDistance) {
			idx = i
			break
		}
	}
	// Check spacing against the occupant ahead (idx-1), if any.
	if idx > 0 {
		ahead := positions[idx-1]
		aheadLen := q.occupants[idx-1].Length()
		if float64(ahead-aheadLen-q.FollowingDistance) < float64(frontDistance) {
			return 0, false
		}
	}
	// Check spacing against the occupant behind (idx), if any.
	if idx < len(positions) {
		behindFront := frontDistance - length - q.FollowingDistance
		if float64(behindFront) < float64(positions[idx]) {
			return 0, false
		}
	}
	if frontDistance > q.Length || frontDistance < 0 {
		return 0, false
	}
	return idx, true
}

// positionsRaw computes each occupant's realized front distance at
// `now`, scanning head-to-tail and clamping each successor against its
// predecessor, per spec.md §4.3.
func (q *Queue[T]) positionsRaw(now units.Seconds) []units.Meters {
	out := make([]units.Meters, len(q.occupants))
	for i, occ := range q.occupants {
		ideal := units.Clamp(occ.IdealFront(now), 0, q.Length)
		if i == 0 {
			out[i] = ideal
			continue
		}
		prevFront := out[i-1]
		prevLen := q.occupants[i-1].Length()
		ceiling := prevFront - prevLen - q.FollowingDistance
		if float64(ideal) < float64(ceiling) {
			out[i] = ideal
		} else {
			out[i] = ceiling
		}
	}
	return out
}

func (q *Queue[T]) realizedFront(index int, now units.Seconds) units.Meters {
	return q.positionsRaw(now)[index]
}

// Positions returns the realized (occupant, front) pairs head-to-tail,
// the public form of the spec.md §4.3 `positions(now)` operation.
func (q *Queue[T]) Positions(now units.Seconds) []Queued[T] {
	raw := q.positionsRaw(now)
	out := make([]Queued[T], len(q.occupants))
	for i, occ := range q.occupants {
		out[i] = Queued[T]{Occupant: occ, Front: raw[i]}
	}
	return out
}

// Occupants returns the raw occupant list head-to-tail, without
// computing positions — used by callers that only need identity/order
// (e.g. the simulation snapshot recording queue order).
func (q *Queue[T]) Occupants() []T {
	out := make([]T, len(q.occupants))
	copy(out, q.occupants)
	return out
}
