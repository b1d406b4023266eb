// Package simerr defines the closed error taxonomy at the simulation
// core's boundary. MapQueryError and InvalidLegTransition indicate a
// programmer or scenario-authoring mistake; Abort is the helper for
// unrecoverable errors, and no caller in the core uses it. Package sim
// recovers a MapQueryError met while resolving a trip leg's endpoint by
// cancelling that trip, with the error text as the reason. The rest are
// expected runtime outcomes that the trip manager turns into a recorded
// cancellation reason.
package simerr

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPathfind is returned when no route exists for a vehicle class
	// between a start and end position.
	ErrPathfind = errors.New("no route for requested class")
	// ErrSpawnBlocked is returned when a vehicle cannot be admitted to
	// its first queue at departure time.
	ErrSpawnBlocked = errors.New("no room on queue at spawn time")
	// ErrParkingFull is returned when no reachable parking spot exists
	// near the requested building.
	ErrParkingFull = errors.New("no parking spot reachable")
	// ErrInvalidLegTransition is returned by scenario validation when
	// leg k's end position doesn't match leg k+1's start.
	ErrInvalidLegTransition = errors.New("leg endpoints do not compose")
)

// MapQueryError reports a reference to an id the map doesn't contain.
// It is always a programmer error: the core never invents ids on its
// own, so a miss means a caller passed a stale or foreign id.
type MapQueryError struct {
	Kind string // "lane", "turn", "intersection", ...
	ID   int64
}

func (e *MapQueryError) Error() string {
	return fmt.Sprintf("map query: no such %s %d", e.Kind, e.ID)
}

// Abort logs the error and panics with it. Use for invariant violations
// that must never happen in a correctly constructed scenario/map;
// recovered errors (PathfindError, SpawnBlocked, ParkingFull) must
// never reach here.
func Abort(log *logrus.Entry, err error) {
	log.WithError(err).Error("aborting: unrecoverable simulation error")
	panic(err)
}

// CancelReason is a short machine-stable string recorded on a
// TripCancelled analytics event; see spec.md §7 and §6.
type CancelReason string

const (
	ReasonNoRoute         CancelReason = "no_route"
	ReasonBlockedAtSpawn  CancelReason = "blocked_at_spawn"
	ReasonNoParking       CancelReason = "no_parking"
	ReasonPathInvalidated CancelReason = "path_invalidated"
)

// ReasonFor maps a recoverable error to its analytics cancellation
// reason, defaulting to the error's own text for anything unforeseen.
func ReasonFor(err error) CancelReason {
	switch {
	case errors.Is(err, ErrPathfind):
		return ReasonNoRoute
	case errors.Is(err, ErrSpawnBlocked):
		return ReasonBlockedAtSpawn
	case errors.Is(err, ErrParkingFull):
		return ReasonNoParking
	default:
		return CancelReason(err.Error())
	}
}
