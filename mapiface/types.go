// Package mapiface defines the read-only map query surface the rest
// of the simulation core depends on (spec.md §4.1, "Map interface").
// The core never mutates a Map; a map edit builds a new Map value and
// asks the core to rebuild its caches (principally the pathfinder's).
package mapiface

import "github.com/opencity-sim/simcore/units"

type (
	LaneID         int64
	TurnID         int64
	IntersectionID int64
	RoadID         int64
	BuildingID     int64
	LotID          int64
	ParkingSpotID  int64
)

// VehicleClass distinguishes the travel modes the pathfinder and
// admission controllers reason about.
type VehicleClass int

const (
	ClassCar VehicleClass = iota
	ClassBike
	ClassBus
	ClassPedestrian
)

func (c VehicleClass) String() string {
	switch c {
	case ClassCar:
		return "car"
	case ClassBike:
		return "bike"
	case ClassBus:
		return "bus"
	case ClassPedestrian:
		return "pedestrian"
	default:
		return "unknown"
	}
}

// LaneClass is the travel-strip kind, immutable for the lifetime of a run.
type LaneClass int

const (
	LaneDriving LaneClass = iota
	LaneBiking
	LaneBus
	LaneParking
	LaneSidewalk
	LaneShoulder
	LaneConstruction
	LaneSharedTurn
)

// TurnKind is the geometric shape of a movement through an intersection.
type TurnKind int

const (
	TurnStraight TurnKind = iota
	TurnLeft
	TurnRight
	TurnUTurn
	TurnCrosswalk
	TurnSharedSidewalkCorner
)

// IntersectionKind selects which admission-controller variant governs
// turns through an intersection (spec.md §4.5).
type IntersectionKind int

const (
	IntersectionStopSign IntersectionKind = iota
	IntersectionSignal
	IntersectionBorder
	IntersectionConstruction
)

// Position is a (lane, distance-from-start) pair, the universal
// location type for vehicles and pedestrians.
type Position struct {
	Lane     LaneID
	Distance units.Meters
}

// Lane is a directed travel strip belonging to one road.
type Lane struct {
	ID             LaneID
	Length         units.Meters
	Class          LaneClass
	RoadID         RoadID
	SrcIntersection IntersectionID
	DstIntersection IntersectionID
	SpeedLimit     units.MetersPerSecond
	// InclineFactor multiplies ideal crossing speed for bikes/pedestrians
	// (>1 downhill assist, <1 uphill penalty); 1 for flat/driving lanes.
	InclineFactor float64
	// RestrictedZone, if non-empty, names an access-restricted zone a
	// route pays RoutingParams.ZoneEntryCost to enter.
	RestrictedZone string
}

// Turn is a directed movement from one lane's end into another lane's
// start, inside one intersection.
type Turn struct {
	ID             TurnID
	Src, Dst       LaneID
	IntersectionID IntersectionID
	Kind           TurnKind
	// Conflicts lists turns whose geometry crosses this one's (spec.md
	// §4.5 "Conflict matrix"); precomputed per intersection on map load.
	Conflicts map[TurnID]bool
}

// Stage is one indivisible phase of a traffic signal.
type Stage struct {
	Protected map[TurnID]bool
	Permitted map[TurnID]bool
	// Duration is the fixed stage length; for a variable-duration stage
	// Duration is the minimum and MaxDuration bounds it above.
	Duration    units.Seconds
	MaxDuration units.Seconds // 0 means fixed-duration (no variable bound)
}

func (s Stage) Variable() bool { return s.MaxDuration > 0 }

// Intersection is the admission-control unit: a polygon, a kind, and
// (for traffic-signal kinds) an ordered, cyclic sequence of stages.
type Intersection struct {
	ID     IntersectionID
	Kind   IntersectionKind
	Turns  []TurnID
	Stages []Stage // only meaningful when Kind == IntersectionSignal
	// PhaseOffset shifts the cycle start, spec.md §3 "offset by a fixed phase".
	PhaseOffset units.Seconds
}

// ParkingSpotKind distinguishes where a spot physically lives.
type ParkingSpotKind int

const (
	SpotOnStreet ParkingSpotKind = iota
	SpotOffStreet
	SpotLot
)

// ParkingSpot is either on-street (lane+index), off-street (building+index)
// or a lot (lot+index).
type ParkingSpot struct {
	ID    ParkingSpotID
	Kind  ParkingSpotKind
	Lane  LaneID     // set when Kind == SpotOnStreet
	Building BuildingID // set when Kind == SpotOffStreet
	Lot   LotID      // set when Kind == SpotLot
	Index int
	// DrivingPosition is where a vehicle physically sits while parked.
	DrivingPosition Position
}
