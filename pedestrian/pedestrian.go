// Package pedestrian is the walking-leg analogue of package vehicle:
// a person on foot occupies a sidewalk queue the same way a vehicle
// occupies a driving lane's, just without the Unparking/Parking
// sub-states (spec.md §3, "a vehicle or pedestrian" both produce
// Positions). Kept as its own small type rather than reusing
// vehicle.Vehicle because a pedestrian has no vehicle class, length
// cap, or parking target — folding it into Vehicle would mean most
// fields are meaningless for foot traffic, the same reason the
// teacher keeps entity/person/pedestrian.go separate from
// entity/person/vehicle.go.
package pedestrian

import (
	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
)

var log = logrus.WithField("module", "pedestrian")

type ID int64

type State int

const (
	StateWalking State = iota
	StateWaiting           // waiting for admission at a crosswalk/intersection
)

// Pedestrian is a person's foot-leg runtime state.
type Pedestrian struct {
	PedestrianID ID
	OwnerPerson  int64
	WalkSpeed    units.MetersPerSecond

	Current mapiface.LaneID // sidewalks only; crosswalk turns pass through here too
	Path    []Step

	State      State
	StateStart units.Seconds
	StateEnd   units.Seconds
	CrossFrom, CrossTo units.Meters
	FixedFront         units.Meters
}

type Step struct {
	IsCrosswalk bool
	Lane        mapiface.LaneID
	Turn        mapiface.TurnID
}

func (p *Pedestrian) ID() int64            { return int64(p.PedestrianID) }
func (p *Pedestrian) Length() units.Meters { return 0.5 } // nominal shoulder width

func (p *Pedestrian) IdealFront(now units.Seconds) units.Meters {
	if p.State != StateWalking {
		return p.FixedFront
	}
	if now <= p.StateStart {
		return p.CrossFrom
	}
	if now >= p.StateEnd {
		return p.CrossTo
	}
	frac := float64(now-p.StateStart) / float64(p.StateEnd-p.StateStart)
	return p.CrossFrom + units.Meters(frac)*(p.CrossTo-p.CrossFrom)
}

func (p *Pedestrian) BeginWalking(now units.Seconds, from, to units.Meters, duration units.Seconds) {
	log.Debugf("pedestrian %d walking %v -> %v over %v", p.PedestrianID, from, to, duration)
	p.State = StateWalking
	p.StateStart = now
	p.StateEnd = now + duration
	p.CrossFrom, p.CrossTo = from, to
}

func (p *Pedestrian) BeginWaiting(now units.Seconds, restingFront units.Meters) {
	p.State = StateWaiting
	p.StateStart = now
	p.FixedFront = restingFront
}

func (p *Pedestrian) PopNextStep() (Step, bool) {
	if len(p.Path) == 0 {
		return Step{}, false
	}
	next := p.Path[0]
	p.Path = p.Path[1:]
	return next, true
}

// PeekNextStep reports the next step without consuming it.
func (p *Pedestrian) PeekNextStep() (Step, bool) {
	if len(p.Path) == 0 {
		return Step{}, false
	}
	return p.Path[0], true
}

// AtFinalStep reports whether Current is the last step of the route.
func (p *Pedestrian) AtFinalStep() bool { return len(p.Path) == 0 }
