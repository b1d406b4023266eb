package intersection

import (
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
)

// StopSign admits any non-conflicting turn immediately. Ordering
// between simultaneous requests is deterministic by construction: the
// scheduler dispatches UpdateCar commands in (kind, id) order (spec.md
// §5, §8 scenario 2), so two vehicles racing for the same instant
// always call Admit in that same order here.
type StopSign struct {
	id    mapiface.IntersectionID
	turns map[mapiface.TurnID]mapiface.Turn
	// accepted maps a turn currently being crossed to the vehicle
	// crossing it; cleared once that vehicle clears the turn queue.
	accepted   map[mapiface.TurnID]int64
	hesitation units.Seconds
}

func NewStopSign(id mapiface.IntersectionID, turns map[mapiface.TurnID]mapiface.Turn, hesitation units.Seconds) *StopSign {
	return &StopSign{id: id, turns: turns, accepted: make(map[mapiface.TurnID]int64), hesitation: hesitation}
}

func (s *StopSign) IntersectionID() mapiface.IntersectionID { return s.id }

func (s *StopSign) Admit(now units.Seconds, req Request) Decision {
	turn, ok := s.turns[req.Turn]
	if !ok {
		log.WithField("turn", req.Turn).Warn("intersection: admit requested for unregistered turn")
		return Decision{Admitted: false}
	}
	if conflictsWithAny(turn, s.accepted) {
		return Decision{Admitted: false}
	}
	s.accepted[req.Turn] = req.VehicleID
	var hesitation units.Seconds
	if isYieldTurn(turn.Kind) {
		hesitation = s.hesitation
	}
	return Decision{Admitted: true, Hesitation: hesitation}
}

func (s *StopSign) Clear(turn mapiface.TurnID, vehicleID int64) {
	if s.accepted[turn] == vehicleID {
		delete(s.accepted, turn)
	}
}
