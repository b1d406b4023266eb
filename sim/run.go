package sim

import (
	"github.com/opencity-sim/simcore/scheduler"
	"github.com/opencity-sim/simcore/units"
)

// dispatch routes one popped command to its handler, implementing
// spec.md §4.7's main loop body: "while let Some((t, cmd)) =
// scheduler.pop(): now <- t; dispatch(cmd)".
func (s *Simulation) dispatch(cmd scheduler.Command, now units.Seconds) {
	switch cmd.Kind {
	case scheduler.KindUpdateIntersection:
		s.HandleUpdateIntersection(cmd.EntityID, now)
	case scheduler.KindUpdateCar:
		s.HandleUpdateCar(cmd.EntityID, now)
	case scheduler.KindUpdatePed:
		s.HandleUpdatePed(cmd.EntityID, now)
	case scheduler.KindSpawnVehicle:
		if payload, ok := cmd.Payload.(spawnPayload); ok {
			s.dispatchSpawnVehicleRetry(cmd.EntityID, payload, now)
		}
	case scheduler.KindSpawnPed:
		// Reserved for a future retry-if-no-room pedestrian spawn path;
		// spec.md §4.4's spawn-blocked retry only names vehicles today.
	}
}

// Run drains the scheduler until it is empty, advancing Now to each
// popped command's time before dispatching it.
func (s *Simulation) Run() {
	for {
		t, cmd, ok := s.Scheduler.Pop()
		if !ok {
			return
		}
		s.Now = t
		s.dispatch(cmd, t)
	}
}

// StepUntil drains the scheduler up to and including horizon, leaving
// any later commands in place for a subsequent call. Returns the
// number of commands dispatched.
func (s *Simulation) StepUntil(horizon units.Seconds) int {
	n := 0
	for {
		t, ok := s.Scheduler.PeekTime()
		if !ok || t > horizon {
			return n
		}
		_, cmd, ok := s.Scheduler.Pop()
		if !ok {
			return n
		}
		s.Now = t
		s.dispatch(cmd, t)
		n++
	}
}

// StepCount dispatches up to n commands, stopping early if the
// scheduler empties. Returns the number actually dispatched.
func (s *Simulation) StepCount(n int) int {
	for i := 0; i < n; i++ {
		t, cmd, ok := s.Scheduler.Pop()
		if !ok {
			return i
		}
		s.Now = t
		s.dispatch(cmd, t)
	}
	return n
}
