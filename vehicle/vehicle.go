// Package vehicle implements the per-vehicle state machine (spec.md
// §3 "Vehicle runtime state", §4.4): the sub-states a vehicle cycles
// through on one lane or turn, and how each reports its own "ideal"
// front position to the queue that holds it. The transition wiring
// that reacts to scheduler events lives in package sim, which owns the
// queues, the map and the scheduler this package only describes data
// for — keeping this package free of a dependency on any of them,
// mirroring the teacher's separation between an entity (entity/person)
// and its manager.
package vehicle

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
)

var log = logrus.WithField("module", "vehicle")

type ID int64

// State is a vehicle's operating sub-state on its current lane/turn.
type State int

const (
	// StateUnparking: pulling out of a spot, immobile on the queue.
	StateUnparking State = iota
	// StateCrossing: sliding front distance linearly with time.
	StateCrossing
	// StateQueued: reached the end of the traversable, awaiting admission.
	StateQueued
	// StateParking: pulling into a spot, immobile.
	StateParking
	// StateIdlingAtStop: a bus dwelling at a transit stop.
	StateIdlingAtStop
)

func (s State) String() string {
	switch s {
	case StateUnparking:
		return "unparking"
	case StateCrossing:
		return "crossing"
	case StateQueued:
		return "queued"
	case StateParking:
		return "parking"
	case StateIdlingAtStop:
		return "idling_at_stop"
	default:
		return "unknown"
	}
}

// Step is one element of a vehicle's remaining path: either a lane to
// traverse or a turn to cross. HasStartAt/HasEndAt override where the
// crossing of this step's lane begins/ends (spec.md §4.2 "the step's
// goal distance"); only the path's first and last lane step ever carry
// one, since every intermediate step is crossed end to end.
type Step struct {
	IsTurn bool
	Lane   mapiface.LaneID
	Turn   mapiface.TurnID

	HasStartAt bool
	StartAt    units.Meters
	HasEndAt   bool
	EndAt      units.Meters
}

func LaneStep(id mapiface.LaneID) Step { return Step{Lane: id} }
func TurnStep(id mapiface.TurnID) Step { return Step{IsTurn: true, Turn: id} }

func (s Step) String() string {
	if s.IsTurn {
		return fmt.Sprintf("turn(%d)", s.Turn)
	}
	return fmt.Sprintf("lane(%d)", s.Lane)
}

// Vehicle is one live car/bike/bus and its current runtime state.
type Vehicle struct {
	VehicleID ID
	Class     mapiface.VehicleClass
	VLength   units.Meters
	// MaxSpeedCap is the vehicle's own speed ceiling; 0 means uncapped.
	MaxSpeedCap units.MetersPerSecond
	OwnerPerson int64

	// Current is the lane or turn the vehicle currently occupies.
	Current Step
	// Path is the ordered remainder of the route, not including Current.
	Path []Step

	State      State
	StateStart units.Seconds
	StateEnd   units.Seconds // meaningful for Crossing/Unparking/Parking/IdlingAtStop

	// CrossFrom/CrossTo bound the Crossing sub-state's linear slide.
	CrossFrom, CrossTo units.Meters
	// FixedFront is the resting front position reported during
	// Unparking/Parking/IdlingAtStop/Queued.
	FixedFront units.Meters

	TargetSpot mapiface.ParkingSpotID
	HasTarget  bool
}

func (v *Vehicle) ID() int64            { return int64(v.VehicleID) }
func (v *Vehicle) Length() units.Meters { return v.VLength }

// IdealFront reports where this vehicle's front would sit at `now` if
// it were unconstrained by a follower, per spec.md §4.3.
func (v *Vehicle) IdealFront(now units.Seconds) units.Meters {
	if v.State != StateCrossing {
		return v.FixedFront
	}
	if now <= v.StateStart {
		return v.CrossFrom
	}
	if now >= v.StateEnd {
		return v.CrossTo
	}
	frac := float64(now-v.StateStart) / float64(v.StateEnd-v.StateStart)
	return v.CrossFrom + units.Meters(frac)*(v.CrossTo-v.CrossFrom)
}

// IdealSpeed is min(lane/turn speed limit, vehicle cap), further
// scaled by the class-specific incline factor (spec.md §3 "Vehicle").
func IdealSpeed(limit units.MetersPerSecond, cap units.MetersPerSecond, inclineFactor float64) units.MetersPerSecond {
	v := limit
	if cap > 0 {
		v = v.Min(cap)
	}
	return units.MetersPerSecond(float64(v) * inclineFactor)
}

// BeginCrossing switches the vehicle into StateCrossing over [now, now+duration)
// sliding from `from` to `to`.
func (v *Vehicle) BeginCrossing(now units.Seconds, from, to units.Meters, duration units.Seconds) {
	log.Debugf("vehicle %d crossing %v -> %v over %v", v.VehicleID, from, to, duration)
	v.State = StateCrossing
	v.StateStart = now
	v.StateEnd = now + duration
	v.CrossFrom = from
	v.CrossTo = to
}

// BeginQueued switches the vehicle into StateQueued, resting at its
// current front position.
func (v *Vehicle) BeginQueued(now units.Seconds, restingFront units.Meters) {
	v.State = StateQueued
	v.StateStart = now
	v.FixedFront = restingFront
}

// BeginUnparking/BeginParking switch to an immobile sub-state resting
// at restingFront for `duration`.
func (v *Vehicle) BeginUnparking(now units.Seconds, restingFront units.Meters, duration units.Seconds) {
	v.State = StateUnparking
	v.StateStart = now
	v.StateEnd = now + duration
	v.FixedFront = restingFront
}

func (v *Vehicle) BeginParking(now units.Seconds, restingFront units.Meters, duration units.Seconds, spot mapiface.ParkingSpotID) {
	log.Debugf("vehicle %d parking at spot %d, front %v", v.VehicleID, spot, restingFront)
	v.State = StateParking
	v.StateStart = now
	v.StateEnd = now + duration
	v.FixedFront = restingFront
	v.TargetSpot = spot
	v.HasTarget = true
}

func (v *Vehicle) BeginIdlingAtStop(now units.Seconds, restingFront units.Meters, duration units.Seconds) {
	v.State = StateIdlingAtStop
	v.StateStart = now
	v.StateEnd = now + duration
	v.FixedFront = restingFront
}

// PopNextStep removes and returns the next step in the path, or
// ok=false if the vehicle has reached the end of its route.
func (v *Vehicle) PopNextStep() (Step, bool) {
	if len(v.Path) == 0 {
		return Step{}, false
	}
	next := v.Path[0]
	v.Path = v.Path[1:]
	return next, true
}

// PeekNextStep reports the next step without consuming it.
func (v *Vehicle) PeekNextStep() (Step, bool) {
	if len(v.Path) == 0 {
		return Step{}, false
	}
	return v.Path[0], true
}

// AtFinalStep reports whether Current is the last step of the route
// (no more path remains).
func (v *Vehicle) AtFinalStep() bool { return len(v.Path) == 0 }
