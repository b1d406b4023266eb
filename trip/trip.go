// Package trip implements the per-person trip/leg manager (spec.md
// §4.6, C6): what a person is doing right now, what they do next, and
// how a leg boundary hands off to the next one. Grounded on the
// teacher's entity/person/schedule/schedule.go (ScheduleIndex/TripIndex
// cursor, NextTrip/GetTrip/loop-count bookkeeping), generalized from
// the teacher's proto-backed tripv2.Trip/tripv2.Schedule to the
// spec's Walk/Drive/Bike/Transit leg sum type.
package trip

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/simerr"
	"github.com/opencity-sim/simcore/units"
)

var log = logrus.WithField("module", "trip")

// Mode distinguishes a leg's kind.
type Mode int

const (
	ModeWalk Mode = iota
	ModeDrive
	ModeBike
	ModeTransit
)

func (m Mode) String() string {
	switch m {
	case ModeWalk:
		return "walk"
	case ModeDrive:
		return "drive"
	case ModeBike:
		return "bike"
	case ModeTransit:
		return "transit"
	default:
		return "unknown"
	}
}

// Endpoint is a leg boundary: a place a person is before/after a leg.
// Exactly one of the position forms is meaningful, selected by Kind.
type Endpoint struct {
	Kind EndpointKind
	Pos  mapiface.Position // EndpointSidewalk / EndpointLane
	Spot mapiface.ParkingSpotID
}

type EndpointKind int

const (
	EndpointSidewalk EndpointKind = iota
	EndpointParkingSpot
	EndpointBusStop
	EndpointLane // "sudden-appear": materialize directly on a lane at Pos.Distance
)

func (e Endpoint) Equal(o Endpoint) bool {
	if e.Kind != o.Kind {
		return false
	}
	switch e.Kind {
	case EndpointParkingSpot:
		return e.Spot == o.Spot
	default:
		return e.Pos == o.Pos
	}
}

// Leg is one contiguous mode of travel within a Trip (spec.md §3).
type Leg struct {
	Mode  Mode
	Start Endpoint
	End   Endpoint

	// VehicleID is set for Drive/Bike legs (the person's own vehicle)
	// and for Transit (the bus route's vehicle, not owned by the rider).
	VehicleID int64
	HasVehicle bool
	RouteID   int64 // Transit only

	// SuddenAppear skips the walk/unpark prelude and materializes the
	// vehicle directly on Start's lane (spec.md §4.6 "off-map border
	// starts and debug trips").
	SuddenAppear bool
}

// Trip is an ordered, physically-composable sequence of legs.
type Trip struct {
	ID            int64
	DepartureTime units.Seconds
	Legs          []Leg
	RetryIfNoRoom bool
}

// Validate checks that each leg's end composes with the next leg's
// start (spec.md §4 "InvalidLegTransition: fatal at scenario
// validation; never at runtime").
func (t Trip) Validate() error {
	for i := 0; i+1 < len(t.Legs); i++ {
		if !t.Legs[i].End.Equal(t.Legs[i+1].Start) {
			log.WithFields(logrus.Fields{"trip": t.ID, "leg": i}).Warn("trip: invalid leg transition")
			return fmt.Errorf("%w: trip %d leg %d end does not match leg %d start", simerr.ErrInvalidLegTransition, t.ID, i, i+1)
		}
	}
	return nil
}

// Schedule is an ordered, optionally-looping list of Trips for one
// person, plus the loop/cursor state that advances it.
type Schedule struct {
	origin []Trip // copied back into base at the start of every loop
	base   []Trip

	tripIndex int
	loopCount int32
	// LoopCount, if > 0, bounds how many times base restarts before
	// Schedule reports Empty; 0 means loop forever.
	LoopCount int32

	lastLegEndTime units.Seconds
}

func NewSchedule(trips []Trip) *Schedule {
	origin := make([]Trip, len(trips))
	copy(origin, trips)
	return &Schedule{origin: origin, base: append([]Trip(nil), trips...)}
}

func (s *Schedule) Empty() bool { return len(s.base) == 0 }

// Current returns the trip currently being executed, or ok=false if
// the schedule has been exhausted.
func (s *Schedule) Current() (Trip, bool) {
	if s.tripIndex >= len(s.base) {
		return Trip{}, false
	}
	return s.base[s.tripIndex], true
}

// Advance moves to the next trip in the schedule, looping back to the
// start once LoopCount repetitions have elapsed (0 = forever).
// Returns false once the schedule is fully exhausted.
func (s *Schedule) Advance(now units.Seconds) bool {
	if len(s.base) == 0 {
		return false
	}
	s.lastLegEndTime = now
	s.tripIndex++
	if s.tripIndex < len(s.base) {
		return true
	}
	s.tripIndex = 0
	s.loopCount++
	if s.LoopCount > 0 && s.loopCount >= s.LoopCount {
		s.base = nil
		return false
	}
	s.base = append([]Trip(nil), s.origin...)
	return true
}

func (s *Schedule) LastLegEndTime() units.Seconds { return s.lastLegEndTime }

// Remaining returns the trips still to run in the current loop,
// starting at the current trip.
func (s *Schedule) Remaining() []Trip {
	return append([]Trip(nil), s.base[s.tripIndex:]...)
}

// Origin returns the schedule's original trip list, restored at the
// start of every loop.
func (s *Schedule) Origin() []Trip {
	return append([]Trip(nil), s.origin...)
}

// LoopsSoFar reports how many times the schedule has restarted.
func (s *Schedule) LoopsSoFar() int32 { return s.loopCount }

// RestoreSchedule rebuilds a Schedule from a prior Snapshot: origin is
// the full original trip list, remaining is what's left of the
// current loop, loopCount bounds repetitions as in NewSchedule, and
// loopsSoFar is how many loops have already completed.
func RestoreSchedule(origin, remaining []Trip, loopCount, loopsSoFar int32) *Schedule {
	return &Schedule{
		origin:    append([]Trip(nil), origin...),
		base:      append([]Trip(nil), remaining...),
		LoopCount: loopCount,
		loopCount: loopsSoFar,
	}
}

// Cursor tracks, per person, where they are inside their current
// trip's leg sequence (spec.md §4.6 "current trip, current leg index,
// and a cursor into the leg").
type Cursor struct {
	PersonID int64
	LegIndex int
	// Cancelled and CancelReason are set once the trip has been
	// cancelled; while Cancelled, CurrentLeg reports no leg until Reset
	// clears both.
	Cancelled    bool
	CancelReason simerr.CancelReason
}

func NewCursor(personID int64) *Cursor { return &Cursor{PersonID: personID} }

// CurrentLeg returns the leg at LegIndex, or ok=false if the trip's
// legs are exhausted.
func (c *Cursor) CurrentLeg(t Trip) (Leg, bool) {
	if c.Cancelled || c.LegIndex >= len(t.Legs) {
		return Leg{}, false
	}
	return t.Legs[c.LegIndex], true
}

// AdvanceLeg moves to the next leg; reports whether the trip has more
// legs remaining.
func (c *Cursor) AdvanceLeg(t Trip) bool {
	c.LegIndex++
	return c.LegIndex < len(t.Legs)
}

// Cancel records a cancellation reason at the current leg boundary
// (spec.md §4.6 "A trip may be cancelled at any leg boundary").
func (c *Cursor) Cancel(reason simerr.CancelReason) {
	c.Cancelled = true
	c.CancelReason = reason
}

func (c *Cursor) Reset() {
	c.LegIndex = 0
	c.Cancelled = false
	c.CancelReason = ""
}

// NextLegAction describes what the trip manager must do at a leg
// boundary, per the table in spec.md §4.6.
type NextLegAction int

const (
	ActionNone NextLegAction = iota
	ActionSpawnVehicle                // Walk at parking spot arrived -> Drive/Bike
	ActionSpawnPedAtParkingEquivalent // Drive/Bike at goal -> Walk
	ActionAttachToBus                 // Walk at bus stop, vehicle present -> Transit
	ActionDetachFromBus               // Transit at alight stop -> Walk
)

// NextAction determines the hand-off behavior when leg `from` has just
// completed and `to` is about to start, per spec.md §4.6's table. It is
// a pure function of the two leg modes and endpoint kinds so it can be
// unit-tested without a running simulation.
func NextAction(from, to Leg) NextLegAction {
	switch {
	case from.Mode == ModeWalk && (to.Mode == ModeDrive || to.Mode == ModeBike):
		return ActionSpawnVehicle
	case (from.Mode == ModeDrive || from.Mode == ModeBike) && to.Mode == ModeWalk:
		return ActionSpawnPedAtParkingEquivalent
	case from.Mode == ModeWalk && to.Mode == ModeTransit:
		return ActionAttachToBus
	case from.Mode == ModeTransit && to.Mode == ModeWalk:
		return ActionDetachFromBus
	default:
		return ActionNone
	}
}
