package intersection

import (
	"sort"

	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/units"
)

// MaxPressure is the supplemented signal variant of SPEC_FULL.md §C.3:
// rather than cycling a fixed stage order, it serves whichever stage
// currently has the highest "pressure" — incoming queue length minus
// outgoing queue room, summed over that stage's protected turns — and
// holds it for at least minHold before re-evaluating. Grounded on the
// teacher's entity/junction/trafficlight/max_pressure.go, which picks
// the next phase by the same pressure sum rather than advancing a
// cursor.
type MaxPressure struct {
	id      mapiface.IntersectionID
	turns   map[mapiface.TurnID]mapiface.Turn
	stages  []mapiface.Stage
	minHold units.Seconds

	stageIndex int
	stageStart units.Seconds
	accepted   map[mapiface.TurnID]int64
}

func NewMaxPressure(id mapiface.IntersectionID, turns map[mapiface.TurnID]mapiface.Turn, stages []mapiface.Stage, minHold units.Seconds) *MaxPressure {
	return &MaxPressure{
		id:       id,
		turns:    turns,
		stages:   stages,
		minHold:  minHold,
		accepted: make(map[mapiface.TurnID]int64),
	}
}

func (m *MaxPressure) IntersectionID() mapiface.IntersectionID { return m.id }

func (m *MaxPressure) CurrentStageIndex() int { return m.stageIndex }

func (m *MaxPressure) Admit(now units.Seconds, req Request) Decision {
	stage := m.stages[m.stageIndex]
	turn, ok := m.turns[req.Turn]
	if !ok {
		log.WithField("turn", req.Turn).Warn("intersection: admit requested for unregistered turn")
		return Decision{Admitted: false}
	}
	if !stage.Protected[req.Turn] {
		return Decision{Admitted: false}
	}
	if conflictsWithAny(turn, m.accepted) {
		return Decision{Admitted: false}
	}
	m.accepted[req.Turn] = req.VehicleID
	return Decision{Admitted: true}
}

func (m *MaxPressure) Clear(turn mapiface.TurnID, vehicleID int64) {
	if m.accepted[turn] == vehicleID {
		delete(m.accepted, turn)
	}
}

// Pressure sums, over one stage's protected turns, incomingLen(turn) -
// outgoingRoom(turn). The caller supplies both as small closures over
// its own queue state, the same callback pattern Signal.Tick uses.
func Pressure(stage mapiface.Stage, incomingLen func(mapiface.TurnID) int, outgoingRoom func(mapiface.TurnID) int) int {
	total := 0
	for t := range stage.Protected {
		total += incomingLen(t) - outgoingRoom(t)
	}
	return total
}

// Tick re-evaluates the served stage once minHold has elapsed,
// switching to whichever stage has the greatest Pressure. A tie with
// the current stage keeps the current stage; among other tied stages
// the lowest index wins. Returns true if the stage changed.
func (m *MaxPressure) Tick(now units.Seconds, incomingLen func(mapiface.TurnID) int, outgoingRoom func(mapiface.TurnID) int) bool {
	if now-m.stageStart < m.minHold {
		return false
	}
	best := m.stageIndex
	bestPressure := Pressure(m.stages[m.stageIndex], incomingLen, outgoingRoom)
	indices := make([]int, len(m.stages))
	for i := range m.stages {
		indices[i] = i
	}
	sort.Ints(indices)
	for _, i := range indices {
		p := Pressure(m.stages[i], incomingLen, outgoingRoom)
		if p > bestPressure {
			bestPressure, best = p, i
		}
	}
	if best == m.stageIndex {
		return false
	}
	m.stageIndex = best
	m.stageStart = now
	m.accepted = make(map[mapiface.TurnID]int64)
	return true
}
