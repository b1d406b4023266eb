package intersection

import (
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
)

// Signal is a fixed-order, cyclic traffic-signal controller (spec.md
// §3 "stages", §4.5 "Traffic-signal"). Grounded on the teacher's
// entity/junction/trafficlight/local.go (a runtime stage index + a
// countdown, advanced by Tick), adapted from the teacher's per-tick
// Update(dt) into an event-driven Tick(now, ...) that the caller
// invokes only when a wake-up event says the stage might be over.
type Signal struct {
	id      mapiface.IntersectionID
	turns   map[mapiface.TurnID]mapiface.Turn
	stages  []mapiface.Stage
	epsilon units.Seconds // Open Question (b): "keep serving until min+epsilon"

	stageIndex int
	stageStart units.Seconds
	accepted   map[mapiface.TurnID]int64
}

func NewSignal(id mapiface.IntersectionID, turns map[mapiface.TurnID]mapiface.Turn, stages []mapiface.Stage, phaseOffset, epsilon units.Seconds) *Signal {
	s := &Signal{
		id:       id,
		turns:    turns,
		stages:   stages,
		epsilon:  epsilon,
		accepted: make(map[mapiface.TurnID]int64),
	}
	// Seed the initial stage/offset by walking the fixed-duration
	// cycle forward from time zero, mirroring StageAt's pure
	// computation; variable stages contribute their minimum here,
	// matching the teacher's Set() which seeds runtime.tlRemainingT
	// from Phases[phaseIndex].Duration.
	idx, elapsed := stageAtFixed(stages, phaseOffset)
	s.stageIndex = idx
	s.stageStart = -elapsed
	return s
}

func (s *Signal) IntersectionID() mapiface.IntersectionID { return s.id }

func (s *Signal) CurrentStageIndex() int { return s.stageIndex }

// StageAt is a pure, O(stages) query of the naive fixed-duration cycle
// position at `now`, per spec.md §4.5 ("(stage, time_left_in_stage) is
// derivable in O(stages)"). It ignores any variable-stage extension
// actually granted at runtime — for that, use CurrentStageIndex/Tick.
func (s *Signal) StageAt(now units.Seconds) (stageIndex int, timeLeftInStage units.Seconds) {
	idx, elapsed := stageAtFixed(s.stages, now)
	return idx, s.stages[idx].Duration - elapsed
}

func stageAtFixed(stages []mapiface.Stage, t units.Seconds) (index int, elapsedInStage units.Seconds) {
	total := units.Seconds(0)
	for _, st := range stages {
		total += st.Duration
	}
	if total <= 0 {
		return 0, 0
	}
	// Wrap t into [0, total).
	wrapped := units.Seconds(float64(t) - float64(total)*float64(int64(float64(t)/float64(total))))
	if wrapped < 0 {
		wrapped += total
	}
	acc := units.Seconds(0)
	for i, st := range stages {
		if wrapped < acc+st.Duration {
			return i, wrapped - acc
		}
		acc += st.Duration
	}
	return len(stages) - 1, wrapped - acc
}

// Admit grants a turn request iff it is protected in the current
// stage, or permitted and non-conflicting with any currently-accepted
// turn.
func (s *Signal) Admit(now units.Seconds, req Request) Decision {
	stage := s.stages[s.stageIndex]
	turn, ok := s.turns[req.Turn]
	if !ok {
		log.WithField("turn", req.Turn).Warn("intersection: admit requested for unregistered turn")
		return Decision{Admitted: false}
	}
	if stage.Protected[req.Turn] {
		s.accepted[req.Turn] = req.VehicleID
		return Decision{Admitted: true}
	}
	if stage.Permitted[req.Turn] {
		if conflictsWithAny(turn, s.accepted) {
			return Decision{Admitted: false}
		}
		s.accepted[req.Turn] = req.VehicleID
		return Decision{Admitted: true}
	}
	return Decision{Admitted: false}
}

func (s *Signal) Clear(turn mapiface.TurnID, vehicleID int64) {
	if s.accepted[turn] == vehicleID {
		delete(s.accepted, turn)
	}
}

// Tick advances the stage if it is due to end, consulting hasWaiting
// to decide whether a variable-duration stage should extend. Returns
// true if the stage changed, which the caller (sim) turns into an
// UpdateIntersection event waking every incoming queue's head vehicle
// (spec.md §4.5).
func (s *Signal) Tick(now units.Seconds, hasWaiting func(mapiface.TurnID) bool) bool {
	stage := s.stages[s.stageIndex]
	elapsed := now - s.stageStart

	var end bool
	switch {
	case !stage.Variable():
		end = elapsed >= stage.Duration
	case elapsed < stage.Duration:
		end = false
	case elapsed >= stage.MaxDuration:
		end = true
	default:
		if anyWaiting(stage.Protected, hasWaiting) {
			end = false
		} else if anyWaiting(stage.Permitted, hasWaiting) {
			end = elapsed >= stage.Duration+s.epsilon
		} else {
			end = true
		}
	}
	if !end {
		return false
	}
	s.stageIndex = (s.stageIndex + 1) % len(s.stages)
	s.stageStart = now
	s.accepted = make(map[mapiface.TurnID]int64)
	return true
}

func anyWaiting(set map[mapiface.TurnID]bool, hasWaiting func(mapiface.TurnID) bool) bool {
	for t := range set {
		if hasWaiting(t) {
			return true
		}
	}
	return false
}
