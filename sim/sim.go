// Package sim is the top-level orchestrator (spec.md §4, the whole
// core wired together): it owns the map, the queues, every live
// vehicle/pedestrian, the per-person trip cursors, the intersection
// controllers, the pathfinder and the scheduler, and implements the
// actual state-transition logic that the vehicle/pedestrian/trip
// packages only describe data for. Grounded on the teacher's
// task/simulet.go Context (the one struct wiring every manager
// together), adapted from its fixed-DT prepare/update tick loop to the
// event-driven scheduler.Pop loop spec.md §4.7 requires.
package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/analytics"
	"github.com/opencity-sim/simcore/config"
	"github.com/opencity-sim/simcore/intersection"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/pathfind"
	"github.com/opencity-sim/simcore/pedestrian"
	"github.com/opencity-sim/simcore/queue"
	"github.com/opencity-sim/simcore/randengine"
	"github.com/opencity-sim/simcore/scheduler"
	"github.com/opencity-sim/simcore/trip"
	"github.com/opencity-sim/simcore/units"
	"github.com/opencity-sim/simcore/vehicle"
)

// QueueKey identifies one lane or turn's queue, shared between the
// vehicle and pedestrian queue maps since a crosswalk turn holds
// pedestrians the same way a driving lane holds cars.
type QueueKey struct {
	IsTurn bool
	Lane   mapiface.LaneID
	Turn   mapiface.TurnID
}

func laneKey(id mapiface.LaneID) QueueKey { return QueueKey{Lane: id} }
func turnKey(id mapiface.TurnID) QueueKey { return QueueKey{IsTurn: true, Turn: id} }

// personTrip is the running state of one person's trip execution: the
// trip itself (for validation/analytics), its leg cursor, and the
// departure time used to compute TripFinished duration.
type personTrip struct {
	trip      trip.Trip
	cursor    *trip.Cursor
	startTime units.Seconds
}

// Simulation is the full runtime aggregate. Not safe for concurrent
// use: spec.md §5 mandates a single-threaded cooperative model, the
// scheduler's Pop/dispatch loop being the only driver of mutation.
type Simulation struct {
	Map     mapiface.Map
	Control config.Control
	Routing config.RoutingParams

	Scheduler *scheduler.Scheduler
	RNG       *randengine.Engine
	Pathfind  *pathfind.Pathfinder

	vehicleQueues map[QueueKey]*queue.Queue[*vehicle.Vehicle]
	pedQueues     map[QueueKey]*queue.Queue[*pedestrian.Pedestrian]

	vehicles     map[vehicle.ID]*vehicle.Vehicle
	pedestrians  map[pedestrian.ID]*pedestrian.Pedestrian
	vehicleAt    map[vehicle.ID]QueueKey
	pedAt        map[pedestrian.ID]QueueKey
	ownerOfVeh   map[vehicle.ID]int64 // person id
	ownerOfPed   map[pedestrian.ID]int64
	tripOfVeh    map[vehicle.ID]*personTrip
	tripOfPed    map[pedestrian.ID]*personTrip

	intersections map[mapiface.IntersectionID]intersection.Controller

	schedules map[int64]*trip.Schedule // by person id

	Now units.Seconds
	Log *logrus.Entry

	Events analytics.Sink

	nextVehicleID int64
	nextPedID     int64
}

// New wires a Simulation over a built map, ready to accept Spawn
// commands. Intersection controllers must be registered afterward via
// RegisterIntersection for every signal/stop-sign the map defines.
func New(m mapiface.Map, control config.Control, routing config.RoutingParams, sink analytics.Sink) *Simulation {
	if sink == nil {
		sink = analytics.LogSink{}
	}
	return &Simulation{
		Map:           m,
		Control:       control,
		Routing:       routing,
		Scheduler:     scheduler.New(),
		RNG:           randengine.New(control.Seed),
		Pathfind:      pathfind.New(m, routing),
		vehicleQueues: make(map[QueueKey]*queue.Queue[*vehicle.Vehicle]),
		pedQueues:     make(map[QueueKey]*queue.Queue[*pedestrian.Pedestrian]),
		vehicles:      make(map[vehicle.ID]*vehicle.Vehicle),
		pedestrians:   make(map[pedestrian.ID]*pedestrian.Pedestrian),
		vehicleAt:     make(map[vehicle.ID]QueueKey),
		pedAt:         make(map[pedestrian.ID]QueueKey),
		ownerOfVeh:    make(map[vehicle.ID]int64),
		ownerOfPed:    make(map[pedestrian.ID]int64),
		tripOfVeh:     make(map[vehicle.ID]*personTrip),
		tripOfPed:     make(map[pedestrian.ID]*personTrip),
		intersections: make(map[mapiface.IntersectionID]intersection.Controller),
		schedules:     make(map[int64]*trip.Schedule),
		Log:           logrus.WithField("module", "sim"),
		Events:        sink,
	}
}

// RegisterIntersection wires one intersection's admission controller
// into the simulation. Signal and MaxPressure controllers also get
// their first poll scheduled; StopSign never ticks on its own.
func (s *Simulation) RegisterIntersection(c intersection.Controller) {
	s.intersections[c.IntersectionID()] = c
	switch c.(type) {
	case *intersection.Signal, *intersection.MaxPressure:
		s.scheduleIntersectionPoll(c.IntersectionID(), s.Now)
	}
}

// RegisterAllIntersections builds and registers the appropriate
// admission controller for every intersection the map defines,
// inferring StopSign/Signal from each mapiface.Intersection's Kind.
// Border and Construction intersections carry no controller: a border
// is a map edge (spec.md §1), and a construction closure blocks every
// turn through it rather than admitting any (handled as "no turns
// registered" by the map-building pipeline, out of this package's
// scope).
func (s *Simulation) RegisterAllIntersections() error {
	for _, id := range s.Map.AllIntersectionIDs() {
		info, err := s.Map.Intersection(id)
		if err != nil {
			return err
		}
		turns := make(map[mapiface.TurnID]mapiface.Turn, len(info.Turns))
		for _, tid := range info.Turns {
			t, err := s.Map.Turn(tid)
			if err != nil {
				return err
			}
			turns[tid] = t
		}
		switch info.Kind {
		case mapiface.IntersectionStopSign:
			s.RegisterIntersection(intersection.NewStopSign(id, turns, units.Seconds(s.Control.HesitationSeconds)))
		case mapiface.IntersectionSignal:
			s.RegisterIntersection(intersection.NewSignal(id, turns, info.Stages, info.PhaseOffset, units.Seconds(s.Control.VariableStageEpsilon)))
		}
	}
	return nil
}

// ScheduleForPerson registers (or replaces) a person's trip schedule
// and pushes a SpawnPed/SpawnVehicle for its first leg at the
// schedule's current departure time.
func (s *Simulation) ScheduleForPerson(personID int64, sched *trip.Schedule) {
	s.schedules[personID] = sched
	s.enqueueNextTrip(personID, s.Now)
}

func (s *Simulation) enqueueNextTrip(personID int64, now units.Seconds) {
	sched, ok := s.schedules[personID]
	if !ok || sched.Empty() {
		return
	}
	tr, ok := sched.Current()
	if !ok {
		return
	}
	cursor := trip.NewCursor(personID)
	pt := &personTrip{trip: tr, cursor: cursor, startTime: now}
	leg, ok := cursor.CurrentLeg(tr)
	if !ok {
		return
	}
	s.Events.Emit(analytics.Event{Kind: analytics.KindTripStarted, Time: now, TripID: tr.ID, PersonID: personID})
	s.startLeg(personID, pt, leg, now)
}

func (s *Simulation) vehicleQueue(k QueueKey) *queue.Queue[*vehicle.Vehicle] {
	q, ok := s.vehicleQueues[k]
	if !ok {
		q = queue.New[*vehicle.Vehicle](s.lengthOf(k), units.Meters(s.Control.FollowingDistance))
		s.vehicleQueues[k] = q
	}
	return q
}

func (s *Simulation) pedQueue(k QueueKey) *queue.Queue[*pedestrian.Pedestrian] {
	q, ok := s.pedQueues[k]
	if !ok {
		q = queue.New[*pedestrian.Pedestrian](s.lengthOf(k), units.Meters(s.Control.FollowingDistance))
		s.pedQueues[k] = q
	}
	return q
}

func (s *Simulation) lengthOf(k QueueKey) units.Meters {
	if k.IsTurn {
		return 5 // turns are point-like admissions; a nominal crossing length
	}
	l, err := s.Map.Lane(k.Lane)
	if err != nil {
		return 0
	}
	return l.Length
}

func (s *Simulation) speedLimitOf(k QueueKey) units.MetersPerSecond {
	if k.IsTurn {
		return 2.5 // nominal turn-crossing speed; turns don't carry their own limit
	}
	l, err := s.Map.Lane(k.Lane)
	if err != nil {
		return 1
	}
	return l.SpeedLimit
}
