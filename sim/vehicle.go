package sim

import (
	"github.com/opencity-sim/simcore/intersection"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/pathfind"
	"github.com/opencity-sim/simcore/queue"
	"github.com/opencity-sim/simcore/scheduler"
	"github.com/opencity-sim/simcore/simerr"
	"github.com/opencity-sim/simcore/trip"
	"github.com/opencity-sim/simcore/units"
	"github.com/opencity-sim/simcore/vehicle"
)

// toVehicleSteps converts a resolved path into vehicle steps, carrying
// the path's start/end distance onto the first/last step so a Crossing
// resumes from wherever the vehicle actually starts and stops at its
// actual goal rather than the lane's full length (spec.md §4.2/§4.4).
func toVehicleSteps(p pathfind.Path) []vehicle.Step {
	out := make([]vehicle.Step, len(p.Steps))
	for i, st := range p.Steps {
		if st.IsTurn {
			out[i] = vehicle.TurnStep(st.Turn)
		} else {
			out[i] = vehicle.LaneStep(st.Lane)
		}
	}
	if n := len(out); n > 0 {
		out[0].HasStartAt, out[0].StartAt = true, p.StartDistance
		out[n-1].HasEndAt, out[n-1].EndAt = true, p.EndDistance
	}
	return out
}

func classOf(mode trip.Mode) mapiface.VehicleClass {
	if mode == trip.ModeBike {
		return mapiface.ClassBike
	}
	return mapiface.ClassCar
}

// spawnVehicleForLeg runs spec.md §4.4 "Spawn attempt" for a Drive/Bike
// leg: pathfind from the leg's start to its end under the leg's class,
// then try to admit the new vehicle onto the first step's queue.
func (s *Simulation) spawnVehicleForLeg(personID int64, pt *personTrip, leg trip.Leg, now units.Seconds) {
	startPos, err := s.endpointToLanePosition(leg.Start)
	if err != nil {
		s.cancelTrip(personID, pt, simerr.ReasonFor(err), now)
		return
	}
	endPos, err := s.endpointToLanePosition(leg.End)
	if err != nil {
		s.cancelTrip(personID, pt, simerr.ReasonFor(err), now)
		return
	}
	class := classOf(leg.Mode)

	path, err := s.Pathfind.Pathfind(startPos, endPos, class)
	if err != nil {
		s.cancelTrip(personID, pt, simerr.ReasonFor(simerr.ErrPathfind), now)
		return
	}

	s.nextVehicleID++
	id := vehicle.ID(s.nextVehicleID)
	steps := toVehicleSteps(path)
	v := &vehicle.Vehicle{
		VehicleID:   id,
		Class:       class,
		VLength:     vehicleLengthFor(s, class),
		OwnerPerson: personID,
		Current:     steps[0],
	}
	if len(steps) > 1 {
		v.Path = steps[1:]
	}

	key := stepKey(v.Current)
	q := s.vehicleQueue(key)
	if !q.RoomAtEnd(now, v.VLength) {
		if leg.HasVehicle || pt.trip.RetryIfNoRoom {
			s.pushSpawnVehicleRetry(personID, pt, leg, now)
			return
		}
		s.cancelTrip(personID, pt, simerr.ReasonBlockedAtSpawn, now)
		return
	}

	q.PushBack(v)
	s.vehicles[id] = v
	s.vehicleAt[id] = key
	s.ownerOfVeh[id] = personID
	s.tripOfVeh[id] = pt

	if leg.SuddenAppear {
		s.beginCrossingCurrentStep(v, key, now)
	} else {
		v.BeginUnparking(now, startPos.Distance, units.Seconds(s.Control.UnparkingSeconds))
		s.pushUpdateCar(id, v.StateEnd)
	}
}

func vehicleLengthFor(s *Simulation, class mapiface.VehicleClass) units.Meters {
	base := 4.5
	if class == mapiface.ClassBike {
		base = 1.8
	}
	jitter := s.RNG.Float64Safe()*0.6 - 0.3
	return units.Meters(base + jitter)
}

func stepKey(st vehicle.Step) QueueKey {
	if st.IsTurn {
		return turnKey(st.Turn)
	}
	return laneKey(st.Lane)
}

func (s *Simulation) pushUpdateCar(id vehicle.ID, at units.Seconds) {
	s.Scheduler.Push(at, scheduler.Command{Kind: scheduler.KindUpdateCar, EntityID: int64(id)})
}

// beginCrossingCurrentStep puts v into Crossing on its Current step,
// computing the end time from the distance actually travelled and the
// vehicle's ideal speed, and schedules the UpdateCar that will fire
// when it ends. The crossing runs the step's full length unless Current
// carries an overridden start/end distance (spec.md §4.2 "the step's
// goal distance"), which only the path's first and last step ever do.
func (s *Simulation) beginCrossingCurrentStep(v *vehicle.Vehicle, key QueueKey, now units.Seconds) {
	length := s.lengthOf(key)
	limit := s.speedLimitOf(key)
	speed := vehicle.IdealSpeed(limit, v.MaxSpeedCap, s.inclineFactorOf(key))

	from := units.Meters(0)
	if v.Current.HasStartAt {
		from = v.Current.StartAt
	}
	to := length
	if v.Current.HasEndAt {
		to = v.Current.EndAt
	}

	duration := (to - from).Over(speed)
	v.BeginCrossing(now, from, to, duration)
	s.pushUpdateCar(v.VehicleID, v.StateEnd)
}

func (s *Simulation) inclineFactorOf(key QueueKey) float64 {
	if key.IsTurn {
		return 1
	}
	l, err := s.Map.Lane(key.Lane)
	if err != nil || l.InclineFactor == 0 {
		return 1
	}
	return l.InclineFactor
}

// HandleUpdateCar dispatches a scheduled UpdateCar(id) command,
// implementing whichever of the spec.md §4.4 transitions applies to
// the vehicle's current sub-state.
func (s *Simulation) HandleUpdateCar(id int64, now units.Seconds) {
	v, ok := s.vehicles[vehicle.ID(id)]
	if !ok {
		return // already removed (parked/cancelled); a stale wake-up is a no-op
	}
	switch v.State {
	case vehicle.StateUnparking:
		if now < v.StateEnd {
			return
		}
		key := s.vehicleAt[v.VehicleID]
		s.beginCrossingCurrentStep(v, key, now)
	case vehicle.StateCrossing:
		if now < v.StateEnd {
			return
		}
		s.handleCrossingEnd(v, now)
	case vehicle.StateQueued:
		s.tryAdvanceQueued(v, now)
	case vehicle.StateParking:
		if now < v.StateEnd {
			return
		}
		s.handleParkingEnd(v, now)
	}
}

// handleCrossingEnd is spec.md §4.4 "Crossing end". A vehicle at its
// final step either maneuvers into a parking spot or, for any other
// endpoint kind (a plain lane goal or a sudden-appear debug trip),
// arrives and finishes its leg immediately — mirroring
// handlePedCrossingEnd's unconditional AtFinalStep handling.
func (s *Simulation) handleCrossingEnd(v *vehicle.Vehicle, now units.Seconds) {
	if v.AtFinalStep() {
		pt := s.tripOfVeh[v.VehicleID]
		leg, _ := pt.cursor.CurrentLeg(pt.trip)
		if leg.End.Kind == trip.EndpointParkingSpot {
			s.beginParking(v, leg.End.Spot, now)
			return
		}
		s.arriveVehicle(v, now)
		return
	}
	key := s.vehicleAt[v.VehicleID]
	v.BeginQueued(now, s.lengthOf(key))
	s.pushUpdateCar(v.VehicleID, now)
}

// beginParking rests the vehicle at the target spot's driving position
// (mapiface.ParkingSpot.DrivingPosition, spec.md §4.4 "within 1 m of
// the spot's driving position"), not the lane's full length.
func (s *Simulation) beginParking(v *vehicle.Vehicle, spot mapiface.ParkingSpotID, now units.Seconds) {
	key := s.vehicleAt[v.VehicleID]
	front := s.lengthOf(key)
	if sp, err := s.Map.ParkingSpot(spot); err == nil {
		front = sp.DrivingPosition.Distance
	}
	v.BeginParking(now, front, units.Seconds(s.Control.ParkingSeconds), spot)
	s.pushUpdateCar(v.VehicleID, v.StateEnd)
}

// arriveVehicle ends a Drive/Bike leg whose destination is not a
// parking spot, removing the vehicle from its current queue and
// advancing the trip, the vehicle analogue of arrivePedestrian.
func (s *Simulation) arriveVehicle(v *vehicle.Vehicle, now units.Seconds) {
	key := s.vehicleAt[v.VehicleID]
	s.vehicleQueue(key).Remove(int64(v.VehicleID))

	pt := s.tripOfVeh[v.VehicleID]
	personID := s.ownerOfVeh[v.VehicleID]
	leg, _ := pt.cursor.CurrentLeg(pt.trip)

	delete(s.vehicles, v.VehicleID)
	delete(s.vehicleAt, v.VehicleID)
	delete(s.ownerOfVeh, v.VehicleID)
	delete(s.tripOfVeh, v.VehicleID)

	s.advanceLeg(personID, pt, leg, now)
}

// tryAdvanceQueued is spec.md §4.4 "Queued -> next step".
func (s *Simulation) tryAdvanceQueued(v *vehicle.Vehicle, now units.Seconds) {
	next, hasNext := v.PeekNextStep()
	if !hasNext {
		return // final step with no parking spot destination: nothing more to do
	}
	curKey := s.vehicleAt[v.VehicleID]
	nextKey := stepKey(next)

	if next.IsTurn {
		turn, err := s.Map.Turn(next.Turn)
		if err != nil {
			return
		}
		ctrl, ok := s.intersections[turn.IntersectionID]
		if !ok {
			return
		}
		decision := ctrl.Admit(now, intersection.Request{Turn: next.Turn, VehicleID: int64(v.VehicleID)})
		if !decision.Admitted {
			return
		}
		if !s.vehicleQueue(nextKey).RoomAtEnd(now, v.VLength) {
			ctrl.Clear(next.Turn, int64(v.VehicleID))
			return
		}
		s.moveVehicleToNextQueue(v, curKey, nextKey, now)
		if decision.Hesitation > 0 {
			v.BeginQueued(now, 0)
			s.Scheduler.Push(now+decision.Hesitation, scheduler.Command{Kind: scheduler.KindUpdateCar, EntityID: int64(v.VehicleID)})
			return
		}
	} else {
		if !s.vehicleQueue(nextKey).RoomAtEnd(now, v.VLength) {
			return
		}
		s.moveVehicleToNextQueue(v, curKey, nextKey, now)
	}
}

func (s *Simulation) moveVehicleToNextQueue(v *vehicle.Vehicle, curKey, nextKey QueueKey, now units.Seconds) {
	if curKey.IsTurn {
		if t, err := s.Map.Turn(curKey.Turn); err == nil {
			if ctrl, ok := s.intersections[t.IntersectionID]; ok {
				ctrl.Clear(curKey.Turn, int64(v.VehicleID))
			}
		}
	}
	oldQ := s.vehicleQueue(curKey)
	oldQ.Remove(int64(v.VehicleID))

	next, _ := v.PopNextStep()
	v.Current = next
	s.vehicleAt[v.VehicleID] = nextKey
	s.vehicleQueue(nextKey).PushBack(v)
	s.beginCrossingCurrentStep(v, nextKey, now)

	s.promoteFollower(oldQ, now)
}

// promoteFollower is "the old queue's newly-exposed follower is
// re-evaluated" (spec.md §4.4): if the new head was Queued only
// because the vehicle ahead of it hadn't moved, wake it so it retries
// admission immediately.
func (s *Simulation) promoteFollower(q *queue.Queue[*vehicle.Vehicle], now units.Seconds) {
	head, ok := q.Head()
	if !ok || head.State != vehicle.StateQueued {
		return
	}
	s.pushUpdateCar(head.VehicleID, now)
}

// handleParkingEnd is spec.md §4.4 "Parking end".
func (s *Simulation) handleParkingEnd(v *vehicle.Vehicle, now units.Seconds) {
	key := s.vehicleAt[v.VehicleID]
	s.vehicleQueue(key).Remove(int64(v.VehicleID))
	if sm, ok := s.Map.(occupier); ok && v.HasTarget {
		sm.MarkOccupied(v.TargetSpot)
	}

	pt := s.tripOfVeh[v.VehicleID]
	personID := s.ownerOfVeh[v.VehicleID]
	leg, _ := pt.cursor.CurrentLeg(pt.trip)

	delete(s.vehicles, v.VehicleID)
	delete(s.vehicleAt, v.VehicleID)
	delete(s.ownerOfVeh, v.VehicleID)
	delete(s.tripOfVeh, v.VehicleID)

	s.advanceLeg(personID, pt, leg, now)
}

// occupier is satisfied by mapiface.StaticMap; parking occupancy is
// advisory map bookkeeping the core updates, not part of the Map
// interface proper (see mapiface.StaticMap.MarkOccupied).
type occupier interface {
	MarkOccupied(mapiface.ParkingSpotID)
	MarkFree(mapiface.ParkingSpotID)
}
