package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencity-sim/simcore/queue"
	"github.com/opencity-sim/simcore/units"
)

// fixedOccupant sits at a constant ideal front regardless of time,
// the simplest Occupant that exercises Queue's spacing invariant
// without needing a full vehicle state machine.
type fixedOccupant struct {
	id     int64
	length units.Meters
	front  units.Meters
}

func (o fixedOccupant) ID() int64                             { return o.id }
func (o fixedOccupant) Length() units.Meters                   { return o.length }
func (o fixedOccupant) IdealFront(units.Seconds) units.Meters { return o.front }

func TestQueueInit(t *testing.T) {
	q := queue.New[fixedOccupant](100, 1)
	assert.Equal(t, 0, q.Len())
	assert.True(t, q.Empty())
	_, ok := q.Head()
	assert.False(t, ok)
	_, ok = q.Tail()
	assert.False(t, ok)
}

func TestQueuePushBackHeadTailOrder(t *testing.T) {
	q := queue.New[fixedOccupant](100, 1)
	q.PushBack(fixedOccupant{id: 1, length: 4, front: 90})
	q.PushBack(fixedOccupant{id: 2, length: 4, front: 50})
	q.PushBack(fixedOccupant{id: 3, length: 4, front: 10})
	require.Equal(t, 3, q.Len())

	head, ok := q.Head()
	require.True(t, ok)
	assert.Equal(t, int64(1), head.ID())

	tail, ok := q.Tail()
	require.True(t, ok)
	assert.Equal(t, int64(3), tail.ID())
}

// TestQueuePositionsClampsAgainstPredecessor covers spec.md §4.3's
// car-following clamp: a following occupant's ideal front may exceed
// what the spacing invariant allows, and Positions must report the
// clamped value instead.
func TestQueuePositionsClampsAgainstPredecessor(t *testing.T) {
	q := queue.New[fixedOccupant](100, 2)
	q.PushBack(fixedOccupant{id: 1, length: 4, front: 50})
	// id 2's ideal front (48) would overlap id 1 (front 50, length 4,
	// following distance 2 -> ceiling 44); Positions must clamp it down.
	q.PushBack(fixedOccupant{id: 2, length: 4, front: 48})

	pos := q.Positions(0)
	require.Len(t, pos, 2)
	assert.Equal(t, units.Meters(50), pos[0].Front)
	assert.LessOrEqual(t, float64(pos[1].Front), 44.0)
}

func TestQueueRoomAtEnd(t *testing.T) {
	q := queue.New[fixedOccupant](20, 2)
	assert.True(t, q.RoomAtEnd(0, 5))
	assert.False(t, q.RoomAtEnd(0, 25)) // longer than the queue itself

	q.PushBack(fixedOccupant{id: 1, length: 4, front: 5})
	// tail rear = 5 - 4 = 1, less than the following distance of 2.
	assert.False(t, q.RoomAtEnd(0, 3))
}

func TestQueuePopFrontAndRemove(t *testing.T) {
	q := queue.New[fixedOccupant](100, 1)
	q.PushBack(fixedOccupant{id: 1, length: 4, front: 90})
	q.PushBack(fixedOccupant{id: 2, length: 4, front: 50})
	q.PushBack(fixedOccupant{id: 3, length: 4, front: 10})

	front, ok := q.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(1), front.ID())
	assert.Equal(t, 2, q.Len())

	assert.True(t, q.Remove(3))
	assert.Equal(t, 1, q.Len())
	assert.False(t, q.Remove(999))
}

func TestQueueOccupantsPreservesOrder(t *testing.T) {
	q := queue.New[fixedOccupant](100, 1)
	q.PushBack(fixedOccupant{id: 1, length: 4, front: 90})
	q.PushBack(fixedOccupant{id: 2, length: 4, front: 50})

	occs := q.Occupants()
	require.Len(t, occs, 2)
	assert.Equal(t, int64(1), occs[0].ID())
	assert.Equal(t, int64(2), occs[1].ID())
}
