package sim

import (
	"github.com/opencity-sim/simcore/intersection"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/pedestrian"
	"github.com/opencity-sim/simcore/scheduler"
	"github.com/opencity-sim/simcore/units"
	"github.com/opencity-sim/simcore/vehicle"
)

// intersectionPollInterval is how often a Signal or MaxPressure
// controller re-checks whether its stage is due to end. Both
// controllers are cheap to re-evaluate (spec.md §4.5 "(stage,
// time_left_in_stage) is derivable in O(stages)"), so a short fixed
// poll is simpler than threading each controller's private stage
// duration back out through the Controller interface.
const intersectionPollInterval units.Seconds = 1.0

// scheduleIntersectionPoll arranges the next UpdateIntersection
// command for a Signal or MaxPressure controller; StopSign never
// ticks on its own and is excluded.
func (s *Simulation) scheduleIntersectionPoll(id mapiface.IntersectionID, now units.Seconds) {
	s.Scheduler.Push(now+intersectionPollInterval, scheduler.Command{
		Kind:     scheduler.KindUpdateIntersection,
		EntityID: int64(id),
	})
}

// HandleUpdateIntersection re-evaluates a Signal or MaxPressure
// controller's current stage and, if it changed, wakes the head of
// every queue feeding a turn at this intersection so queued
// vehicles/pedestrians retry admission immediately (spec.md §4.5).
func (s *Simulation) HandleUpdateIntersection(id int64, now units.Seconds) {
	iid := mapiface.IntersectionID(id)
	ctrl, ok := s.intersections[iid]
	if !ok {
		return
	}

	var changed bool
	switch c := ctrl.(type) {
	case *intersection.Signal:
		changed = c.Tick(now, func(t mapiface.TurnID) bool { return s.anyQueuedForTurn(t) })
		s.scheduleIntersectionPoll(iid, now)
	case *intersection.MaxPressure:
		changed = c.Tick(now, s.incomingLenFor, s.outgoingRoomFor)
		s.scheduleIntersectionPoll(iid, now)
	default:
		return // StopSign has no stage to advance
	}

	if !changed {
		return
	}
	s.wakeIncomingQueues(iid, now)
}

// anyQueuedForTurn reports whether anything is waiting to take turn,
// inspecting the turn's source lane queue — the incoming demand before
// admission — rather than the turn's own post-admission queue, which
// only a vehicle already admitted this stage ever populates. Mirrors
// incomingLenFor's use of laneKey(t.Src).
func (s *Simulation) anyQueuedForTurn(turn mapiface.TurnID) bool {
	t, err := s.Map.Turn(turn)
	if err != nil {
		return false
	}
	if q, ok := s.vehicleQueues[laneKey(t.Src)]; ok {
		if head, ok := q.Head(); ok && head.State == vehicle.StateQueued {
			return true
		}
	}
	if q, ok := s.pedQueues[laneKey(t.Src)]; ok {
		if head, ok := q.Head(); ok && head.State == pedestrian.StateWaiting {
			return true
		}
	}
	return false
}

// incomingLenFor/outgoingRoomFor feed intersection.Pressure (spec.md
// SPEC_FULL.md §C.3): the number of vehicles queued to take a turn,
// and how much room remains at the end of the lane that turn feeds
// into, in vehicle-sized units.
func (s *Simulation) incomingLenFor(turn mapiface.TurnID) int {
	t, err := s.Map.Turn(turn)
	if err != nil {
		return 0
	}
	q, ok := s.vehicleQueues[laneKey(t.Src)]
	if !ok {
		return 0
	}
	return q.Len()
}

func (s *Simulation) outgoingRoomFor(turn mapiface.TurnID) int {
	t, err := s.Map.Turn(turn)
	if err != nil {
		return 0
	}
	q := s.vehicleQueue(laneKey(t.Dst))
	const nominalVehicle = units.Meters(5)
	room := q.Length - units.Meters(q.Len())*nominalVehicle
	if room < 0 {
		return 0
	}
	return int(float64(room) / float64(nominalVehicle))
}

// wakeIncomingQueues pushes an immediate UpdateCar/UpdatePed for the
// head occupant of the source lane queue of every turn this
// intersection governs, where queued vehicles/pedestrians wait.
func (s *Simulation) wakeIncomingQueues(id mapiface.IntersectionID, now units.Seconds) {
	isect, err := s.Map.Intersection(id)
	if err != nil {
		return
	}
	for _, turnID := range isect.Turns {
		t, err := s.Map.Turn(turnID)
		if err != nil {
			continue
		}
		key := laneKey(t.Src)
		if q, ok := s.vehicleQueues[key]; ok {
			if head, ok := q.Head(); ok && head.State == vehicle.StateQueued {
				s.pushUpdateCar(head.VehicleID, now)
			}
		}
		if q, ok := s.pedQueues[key]; ok {
			if head, ok := q.Head(); ok && head.State == pedestrian.StateWaiting {
				s.pushUpdatePed(head.PedestrianID, now)
			}
		}
	}
}
