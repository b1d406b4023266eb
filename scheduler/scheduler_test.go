package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopOrdersByTimeThenKindThenID(t *testing.T) {
	s := New()
	s.Push(5, Command{Kind: KindUpdateCar, EntityID: 2})
	s.Push(5, Command{Kind: KindUpdateIntersection, EntityID: 1})
	s.Push(1, Command{Kind: KindSpawnPed, EntityID: 99})
	s.Push(5, Command{Kind: KindUpdateCar, EntityID: 1})

	order := []Command{}
	for {
		_, cmd, ok := s.Pop()
		if !ok {
			break
		}
		order = append(order, cmd)
	}

	require.Len(t, order, 4)
	assert.Equal(t, KindSpawnPed, order[0].Kind)
	assert.Equal(t, KindUpdateIntersection, order[1].Kind)
	assert.Equal(t, KindUpdateCar, order[2].Kind)
	assert.EqualValues(t, 1, order[2].EntityID)
	assert.Equal(t, KindUpdateCar, order[3].Kind)
	assert.EqualValues(t, 2, order[3].EntityID)
}

func TestCancelIsIdempotentNoOp(t *testing.T) {
	s := New()
	key := Key{Kind: KindUpdateCar, EntityID: 7}
	s.Push(10, Command{Kind: KindUpdateCar, EntityID: 7})

	assert.True(t, s.Cancel(key))
	assert.False(t, s.Cancel(key)) // second cancel: no-op

	_, _, ok := s.Pop()
	assert.False(t, ok, "cancelled command must not be dispatched")
}

func TestPushSupersedesPendingEntryWithSameKey(t *testing.T) {
	s := New()
	s.Push(100, Command{Kind: KindUpdateCar, EntityID: 3, Payload: "stale"})
	s.Push(5, Command{Kind: KindUpdateCar, EntityID: 3, Payload: "fresh"})

	_, cmd, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "fresh", cmd.Payload)

	_, _, ok = s.Pop()
	assert.False(t, ok, "superseded entry must not fire a second dispatch")
}

func TestPeekTimeSkipsCancelledWithoutPopping(t *testing.T) {
	s := New()
	s.Push(1, Command{Kind: KindUpdateCar, EntityID: 1})
	s.Push(2, Command{Kind: KindUpdateCar, EntityID: 2})
	s.Cancel(Key{Kind: KindUpdateCar, EntityID: 1})

	tm, ok := s.PeekTime()
	require.True(t, ok)
	assert.EqualValues(t, 2, tm)
}
