package sim

import (
	"github.com/opencity-sim/simcore/analytics"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/scheduler"
	"github.com/opencity-sim/simcore/simerr"
	"github.com/opencity-sim/simcore/trip"
	"github.com/opencity-sim/simcore/units"
)

// startLeg materializes the given leg: a Walk leg spawns a pedestrian,
// a Drive/Bike leg spawns a vehicle (or begins Unparking first, unless
// SuddenAppear), a Transit leg attaches the rider to the boarded bus's
// occupancy list (not modelled at vehicle granularity here; riders are
// tracked only by ownerOfPed/ownerOfVeh bookkeeping once boarded).
func (s *Simulation) startLeg(personID int64, pt *personTrip, leg trip.Leg, now units.Seconds) {
	switch leg.Mode {
	case trip.ModeWalk:
		s.spawnPedestrian(personID, pt, leg, now)
	case trip.ModeDrive, trip.ModeBike:
		s.spawnVehicleForLeg(personID, pt, leg, now)
	case trip.ModeTransit:
		// Attaching to an existing bus's occupancy list is a
		// transit-operations concern layered above the core (spec.md
		// §1 Non-goals "transit line simulation itself"); the core only
		// needs the leg to occupy a cursor slot until the alight event
		// arrives from outside.
	}
}

func (s *Simulation) cancelTrip(personID int64, pt *personTrip, reason simerr.CancelReason, now units.Seconds) {
	pt.cursor.Cancel(reason)
	s.Events.Emit(analytics.Event{
		Kind: analytics.KindTripCancelled, Time: now,
		TripID: pt.trip.ID, PersonID: personID, Reason: reason,
	})
	s.advanceSchedule(personID, now)
}

func (s *Simulation) finishTrip(personID int64, pt *personTrip, now units.Seconds) {
	s.Events.Emit(analytics.Event{
		Kind: analytics.KindTripFinished, Time: now,
		TripID: pt.trip.ID, PersonID: personID, Duration: now - pt.startTime,
	})
	s.advanceSchedule(personID, now)
}

func (s *Simulation) advanceSchedule(personID int64, now units.Seconds) {
	sched, ok := s.schedules[personID]
	if !ok {
		return
	}
	if !sched.Advance(now) {
		return
	}
	s.enqueueNextTrip(personID, now)
}

// advanceLeg moves the cursor to the next leg of the same trip,
// dispatching the hand-off action spec.md §4.6's table names. If no
// leg remains, the trip is finished.
func (s *Simulation) advanceLeg(personID int64, pt *personTrip, completed trip.Leg, now units.Seconds) {
	if !pt.cursor.AdvanceLeg(pt.trip) {
		s.finishTrip(personID, pt, now)
		return
	}
	next, ok := pt.cursor.CurrentLeg(pt.trip)
	if !ok {
		s.finishTrip(personID, pt, now)
		return
	}
	_ = trip.NextAction(completed, next) // action is implicit in startLeg's per-mode dispatch
	s.startLeg(personID, pt, next, now)
}

func (s *Simulation) pushSpawnVehicleRetry(personID int64, pt *personTrip, leg trip.Leg, now units.Seconds) {
	at := now + units.Seconds(s.Control.RetryIntervalSeconds)
	cmd := scheduler.Command{Kind: scheduler.KindSpawnVehicle, EntityID: personID, Payload: spawnPayload{pt: pt, leg: leg}}
	s.Scheduler.Push(at, cmd)
}

type spawnPayload struct {
	pt  *personTrip
	leg trip.Leg
}

// dispatchSpawnVehicleRetry is invoked from the scheduler loop for a
// KindSpawnVehicle command whose payload is a retried spawn attempt.
func (s *Simulation) dispatchSpawnVehicleRetry(personID int64, payload spawnPayload, now units.Seconds) {
	s.spawnVehicleForLeg(personID, payload.pt, payload.leg, now)
}

// endpointToLanePosition resolves a leg endpoint to a concrete
// (lane, distance): sidewalk/lane endpoints carry it directly; a
// parking-spot endpoint resolves through the map's driving position.
func (s *Simulation) endpointToLanePosition(e trip.Endpoint) (mapiface.Position, error) {
	switch e.Kind {
	case trip.EndpointParkingSpot:
		spot, err := s.Map.ParkingSpot(e.Spot)
		if err != nil {
			return mapiface.Position{}, err
		}
		return spot.DrivingPosition, nil
	default:
		return e.Pos, nil
	}
}
