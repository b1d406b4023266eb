// Package intersection implements the per-intersection admission
// controllers of spec.md §4.5: stop-sign, fixed-stage traffic-signal,
// and (as a supplemented feature, see SPEC_FULL.md §C.3) max-pressure
// signal control. Grounded on the teacher's
// entity/junction/trafficlight/{local,max_pressure}.go split between a
// fixed-phase controller and a pressure-driven one, generalized to the
// spec's protected/permitted admission semantics.
//
// A controller never touches a Queue directly — it is handed small
// callback functions by its caller (package sim) so that it can ask
// "is anything waiting on this turn" without depending on the
// concrete vehicle/queue types, avoiding an import cycle.
package intersection

import (
	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
)

var log = logrus.WithField("module", "intersection")

// Request is one vehicle's ask to cross a turn.
type Request struct {
	Turn      mapiface.TurnID
	VehicleID int64
}

// Decision is a controller's answer to a Request.
type Decision struct {
	Admitted   bool
	Hesitation units.Seconds // imposed post-admission pause, e.g. a stop-sign yield turn
}

// Controller is the common admission interface; StopSign, Signal and
// MaxPressure all satisfy it (spec.md §9 "best expressed as a tagged
// variant with a common admission trait, not inheritance").
type Controller interface {
	IntersectionID() mapiface.IntersectionID
	// Admit decides whether req may proceed right now. Callers must
	// call Clear once the admitted vehicle has physically left the
	// turn, releasing the conflict-matrix bookkeeping.
	Admit(now units.Seconds, req Request) Decision
	Clear(turn mapiface.TurnID, vehicleID int64)
}

// isYieldTurn reports whether a turn kind requires a stop-sign
// hesitation after admission — left turns and U-turns cross opposing
// traffic and so are treated as yield movements; straight and right
// turns are not.
func isYieldTurn(kind mapiface.TurnKind) bool {
	return kind == mapiface.TurnLeft || kind == mapiface.TurnUTurn
}

// conflictsWithAny reports whether turn conflicts with any currently
// accepted turn, per the precomputed conflict matrix on each Turn
// (spec.md §4.5 "Conflict matrix" — computed by the map-building
// pipeline, out of this package's scope per spec.md §1).
func conflictsWithAny(turn mapiface.Turn, accepted map[mapiface.TurnID]int64) bool {
	for t := range accepted {
		if turn.Conflicts[t] {
			return true
		}
	}
	return false
}
