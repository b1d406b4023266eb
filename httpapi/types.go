package httpapi

import (
	"github.com/opencity-sim/simcore/pedestrian"
	"github.com/opencity-sim/simcore/vehicle"
)

// vehicleView/pedView pair a snapshot entry with its id for JSON
// array responses; sim.Snapshot keeps them keyed by id in a map, which
// encodes fine but is awkward for API consumers expecting a list.
type vehicleView struct {
	ID int64 `json:"id"`
	vehicle.Vehicle
}

type pedView struct {
	ID int64 `json:"id"`
	pedestrian.Pedestrian
}

// vehiclePathView is the current step plus remaining route for one
// vehicle, served by GET /api/v1/vehicles/{id}/path.
type vehiclePathView struct {
	Current vehicle.Step   `json:"current"`
	Path    []vehicle.Step `json:"path"`
}
