package sim

import (
	"fmt"

	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/pedestrian"
	"github.com/opencity-sim/simcore/queue"
	"github.com/opencity-sim/simcore/scheduler"
	"github.com/opencity-sim/simcore/trip"
	"github.com/opencity-sim/simcore/units"
	"github.com/opencity-sim/simcore/vehicle"
)

// Snapshot is the self-contained savegame spec.md §6 describes: "the
// scheduler heap, queue contents, parking occupancy, person/trip
// state, and RNG state form a self-contained savegame; restoring one
// is equivalent to having executed identical commands up to that
// time." It holds plain exported data so package persistence can
// encode it without depending on sim's internals.
type Snapshot struct {
	Now       units.Seconds
	Scheduled []scheduler.Scheduled

	VehicleQueues []QueueOccupants
	PedQueues     []PedQueueOccupants

	Vehicles    map[int64]vehicle.Vehicle
	Pedestrians map[int64]pedestrian.Pedestrian

	ActiveTrips []ActiveTrip
	Schedules   map[int64]ScheduleSnapshot

	OccupiedSpots []mapiface.ParkingSpotID

	RNGState []byte

	NextVehicleID int64
	NextPedID     int64
}

// QueueOccupants/PedQueueOccupants persist one queue's head-to-tail
// occupant id order; physical front/rear positions are recomputed from
// each occupant's own state rather than stored redundantly.
type QueueOccupants struct {
	Key        QueueKey
	VehicleIDs []int64
}

type PedQueueOccupants struct {
	Key    QueueKey
	PedIDs []int64
}

// ScheduleSnapshot persists enough of one person's trip.Schedule to
// rebuild it exactly via trip.RestoreSchedule.
type ScheduleSnapshot struct {
	Origin     []trip.Trip
	Remaining  []trip.Trip
	LoopCount  int32
	LoopsSoFar int32
}

// ActiveTrip is one person's in-flight trip execution, identified by
// whichever entity (vehicle or pedestrian) currently carries it.
type ActiveTrip struct {
	PersonID  int64
	Trip      trip.Trip
	Cursor    trip.Cursor
	StartTime units.Seconds

	IsVehicle bool
	VehicleID int64
	PedID     int64
}

// Snapshot captures the simulation's entire mutable state at its
// current Now. The Map itself is out of scope: it is immutable input,
// not state the core owns (spec.md §5 "the map itself is immutable
// for the duration of a run").
func (s *Simulation) Snapshot() (Snapshot, error) {
	snap := Snapshot{
		Now:           s.Now,
		Scheduled:     s.Scheduler.Snapshot(),
		Vehicles:      make(map[int64]vehicle.Vehicle, len(s.vehicles)),
		Pedestrians:   make(map[int64]pedestrian.Pedestrian, len(s.pedestrians)),
		Schedules:     make(map[int64]ScheduleSnapshot, len(s.schedules)),
		NextVehicleID: s.nextVehicleID,
		NextPedID:     s.nextPedID,
	}

	for key, q := range s.vehicleQueues {
		ids := make([]int64, 0, q.Len())
		for _, v := range q.Occupants() {
			ids = append(ids, int64(v.VehicleID))
		}
		snap.VehicleQueues = append(snap.VehicleQueues, QueueOccupants{Key: key, VehicleIDs: ids})
	}
	for key, q := range s.pedQueues {
		ids := make([]int64, 0, q.Len())
		for _, p := range q.Occupants() {
			ids = append(ids, int64(p.PedestrianID))
		}
		snap.PedQueues = append(snap.PedQueues, PedQueueOccupants{Key: key, PedIDs: ids})
	}

	for id, v := range s.vehicles {
		snap.Vehicles[int64(id)] = *v
	}
	for id, p := range s.pedestrians {
		snap.Pedestrians[int64(id)] = *p
	}

	for id, pt := range s.tripOfVeh {
		snap.ActiveTrips = append(snap.ActiveTrips, ActiveTrip{
			PersonID: s.ownerOfVeh[id], Trip: pt.trip, Cursor: *pt.cursor,
			StartTime: pt.startTime, IsVehicle: true, VehicleID: int64(id),
		})
	}
	for id, pt := range s.tripOfPed {
		snap.ActiveTrips = append(snap.ActiveTrips, ActiveTrip{
			PersonID: s.ownerOfPed[id], Trip: pt.trip, Cursor: *pt.cursor,
			StartTime: pt.startTime, PedID: int64(id),
		})
	}

	for personID, sched := range s.schedules {
		snap.Schedules[personID] = ScheduleSnapshot{
			Origin:     sched.Origin(),
			Remaining:  sched.Remaining(),
			LoopCount:  sched.LoopCount,
			LoopsSoFar: sched.LoopsSoFar(),
		}
	}

	if sm, ok := s.Map.(occupiedLister); ok {
		snap.OccupiedSpots = sm.OccupiedSpots()
	}

	state, err := s.RNG.MarshalBinary()
	if err != nil {
		return Snapshot{}, fmt.Errorf("sim: snapshot rng state: %w", err)
	}
	snap.RNGState = state

	return snap, nil
}

type occupiedLister interface {
	OccupiedSpots() []mapiface.ParkingSpotID
}

// Restore replaces the simulation's entire mutable state with snap, as
// produced by a prior call to Snapshot on a simulation over the same
// Map. The caller must have constructed s via New against that Map and
// registered the same intersections before calling Restore.
func (s *Simulation) Restore(snap Snapshot) error {
	s.Now = snap.Now
	s.nextVehicleID = snap.NextVehicleID
	s.nextPedID = snap.NextPedID

	s.Scheduler.Restore(snap.Scheduled)

	s.vehicles = make(map[vehicle.ID]*vehicle.Vehicle, len(snap.Vehicles))
	for id, v := range snap.Vehicles {
		cp := v
		s.vehicles[vehicle.ID(id)] = &cp
	}
	s.pedestrians = make(map[pedestrian.ID]*pedestrian.Pedestrian, len(snap.Pedestrians))
	for id, p := range snap.Pedestrians {
		cp := p
		s.pedestrians[pedestrian.ID(id)] = &cp
	}

	s.vehicleQueues = make(map[QueueKey]*queue.Queue[*vehicle.Vehicle])
	s.pedQueues = make(map[QueueKey]*queue.Queue[*pedestrian.Pedestrian])

	s.vehicleAt = make(map[vehicle.ID]QueueKey)
	for _, qo := range snap.VehicleQueues {
		q := s.vehicleQueue(qo.Key)
		for _, id := range qo.VehicleIDs {
			v := s.vehicles[vehicle.ID(id)]
			if v == nil {
				continue
			}
			q.PushBack(v)
			s.vehicleAt[vehicle.ID(id)] = qo.Key
		}
	}

	s.pedAt = make(map[pedestrian.ID]QueueKey)
	for _, qo := range snap.PedQueues {
		q := s.pedQueue(qo.Key)
		for _, id := range qo.PedIDs {
			p := s.pedestrians[pedestrian.ID(id)]
			if p == nil {
				continue
			}
			q.PushBack(p)
			s.pedAt[pedestrian.ID(id)] = qo.Key
		}
	}

	s.ownerOfVeh = make(map[vehicle.ID]int64)
	s.ownerOfPed = make(map[pedestrian.ID]int64)
	s.tripOfVeh = make(map[vehicle.ID]*personTrip)
	s.tripOfPed = make(map[pedestrian.ID]*personTrip)
	for _, at := range snap.ActiveTrips {
		cursor := at.Cursor
		pt := &personTrip{trip: at.Trip, cursor: &cursor, startTime: at.StartTime}
		if at.IsVehicle {
			s.tripOfVeh[vehicle.ID(at.VehicleID)] = pt
			s.ownerOfVeh[vehicle.ID(at.VehicleID)] = at.PersonID
		} else {
			s.tripOfPed[pedestrian.ID(at.PedID)] = pt
			s.ownerOfPed[pedestrian.ID(at.PedID)] = at.PersonID
		}
	}

	s.schedules = make(map[int64]*trip.Schedule, len(snap.Schedules))
	for personID, ss := range snap.Schedules {
		s.schedules[personID] = trip.RestoreSchedule(ss.Origin, ss.Remaining, ss.LoopCount, ss.LoopsSoFar)
	}

	if sm, ok := s.Map.(occupiedSetter); ok {
		for _, spot := range snap.OccupiedSpots {
			sm.MarkOccupied(spot)
		}
	}

	if len(snap.RNGState) > 0 {
		if err := s.RNG.UnmarshalBinary(snap.RNGState); err != nil {
			return fmt.Errorf("sim: restore rng state: %w", err)
		}
	}

	return nil
}

type occupiedSetter interface {
	MarkOccupied(mapiface.ParkingSpotID)
}
