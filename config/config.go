// Package config loads the YAML configuration that parameterizes a
// simulation run: scheduling tunables, routing params, and the
// optional persistence/HTTP surfaces. Mirrors the teacher's
// utils/config package (nested YAML structs, strict decoding).
package config

import (
	"fmt"
	"os"

	"github.com/gotidy/ptr"
	"gopkg.in/yaml.v2"
)

// Control holds the tunables spec.md §9 Open Question (a) leaves to
// implementations.
type Control struct {
	// FollowingDistance is the minimum gap, in meters, between the
	// tail of one queue occupant and the front of the next.
	FollowingDistance float64 `yaml:"following_distance"`
	// UnparkingSeconds and ParkingSeconds are the fixed durations of
	// the Unparking/Parking sub-states.
	UnparkingSeconds float64 `yaml:"unparking_seconds"`
	ParkingSeconds   float64 `yaml:"parking_seconds"`
	// HesitationSeconds is the pause a stop-sign imposes on an
	// admitted yield turn.
	HesitationSeconds float64 `yaml:"hesitation_seconds"`
	// RetryIntervalSeconds is how long a retry_if_no_room spawn waits
	// before trying again.
	RetryIntervalSeconds float64 `yaml:"retry_interval_seconds"`
	// VariableStageEpsilon is the epsilon added to a variable traffic
	// signal stage's minimum duration when only permitted (yield)
	// demand is waiting (spec.md §9 Open Question (b)).
	VariableStageEpsilon float64 `yaml:"variable_stage_epsilon"`
	// Seed is the RNG seed for the whole run (spec.md §6).
	Seed uint64 `yaml:"seed"`
}

// DefaultControl returns the teacher-style defaults used when a
// scenario doesn't override them.
func DefaultControl() Control {
	return Control{
		FollowingDistance:    1.0,
		UnparkingSeconds:     10,
		ParkingSeconds:       10,
		HesitationSeconds:    1.5,
		RetryIntervalSeconds: 5,
		VariableStageEpsilon: 2,
		Seed:                 42,
	}
}

// RoutingParams is the per-class weighting the pathfinder consults
// (spec.md §4.2, §6).
type RoutingParams struct {
	BikeLaneBonus         float64  `yaml:"bike_lane_bonus"`
	BusLaneBonus          float64  `yaml:"bus_lane_bonus"`
	DrivingLanePenalty    float64  `yaml:"driving_lane_penalty"`
	UnprotectedTurnPenalty float64 `yaml:"unprotected_turn_penalty"`
	ZoneEntryCost         float64  `yaml:"zone_entry_cost"`
	// MaxSpeedCapMPS optionally caps every class's speed, in addition
	// to per-vehicle caps; nil means "no extra cap".
	MaxSpeedCapMPS *float64 `yaml:"max_speed_cap_mps,omitempty"`
}

// DefaultRoutingParams mirrors a conservative real-world weighting:
// mild bonuses for matching lane types, a real penalty for left turns.
// UnprotectedTurnPenalty applies to every left turn, whatever control
// its intersection has; it is not limited to stop signs.
func DefaultRoutingParams() RoutingParams {
	return RoutingParams{
		BikeLaneBonus:          0.8,
		BusLaneBonus:           0.8,
		DrivingLanePenalty:     1.5,
		UnprotectedTurnPenalty: 8,
		ZoneEntryCost:          5,
		MaxSpeedCapMPS:         ptr.Of(0.0), // 0 means "unset"; see RoutingParams.Cap
	}
}

// Cap returns the configured max-speed cap, or ok=false if unset.
func (p RoutingParams) Cap() (v float64, ok bool) {
	if p.MaxSpeedCapMPS == nil || *p.MaxSpeedCapMPS <= 0 {
		return 0, false
	}
	return *p.MaxSpeedCapMPS, true
}

// Persistence configures the optional pgx-backed savegame/analytics sink.
type Persistence struct {
	Enabled    bool   `yaml:"enabled"`
	DSN        string `yaml:"dsn,omitempty"`
	SnapshotEvery float64 `yaml:"snapshot_every_seconds,omitempty"`
}

// HTTP configures the optional chi+cors read-only snapshot server.
type HTTP struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// Config is the YAML root for a simulation run.
type Config struct {
	Control     Control       `yaml:"control"`
	Routing     RoutingParams `yaml:"routing"`
	Persistence Persistence   `yaml:"persistence,omitempty"`
	HTTP        HTTP          `yaml:"http,omitempty"`
}

// Load reads and strictly decodes a YAML config file, filling in
// teacher-style defaults for anything the file omits.
func Load(path string) (Config, error) {
	c := Config{Control: DefaultControl(), Routing: DefaultRoutingParams()}
	file, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return c, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}
