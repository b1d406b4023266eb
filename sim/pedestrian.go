package sim

import (
	"github.com/opencity-sim/simcore/intersection"
	"github.com/opencity-sim/simcore/mapiface"
	"github.com/opencity-sim/simcore/pathfind"
	"github.com/opencity-sim/simcore/pedestrian"
	"github.com/opencity-sim/simcore/queue"
	"github.com/opencity-sim/simcore/scheduler"
	"github.com/opencity-sim/simcore/simerr"
	"github.com/opencity-sim/simcore/trip"
	"github.com/opencity-sim/simcore/units"
)

// walkSpeedBase is the nominal foot speed; spec.md leaves the exact
// figure to implementations (§9 Open Question (a) covers vehicle
// tunables, and foot speed is its pedestrian analogue).
const walkSpeedBase = 1.4

func toPedestrianSteps(p pathfind.Path) []pedestrian.Step {
	out := make([]pedestrian.Step, len(p.Steps))
	for i, st := range p.Steps {
		if st.IsTurn {
			out[i] = pedestrian.Step{IsCrosswalk: true, Turn: st.Turn}
		} else {
			out[i] = pedestrian.Step{Lane: st.Lane}
		}
	}
	return out
}

// spawnPedestrian runs spec.md §4.4's pedestrian analogue for a Walk
// leg: pathfind under ClassPedestrian, then try to admit onto the
// first step's sidewalk queue.
func (s *Simulation) spawnPedestrian(personID int64, pt *personTrip, leg trip.Leg, now units.Seconds) {
	startPos, err := s.endpointToLanePosition(leg.Start)
	if err != nil {
		s.cancelTrip(personID, pt, simerr.ReasonFor(err), now)
		return
	}
	endPos, err := s.endpointToLanePosition(leg.End)
	if err != nil {
		s.cancelTrip(personID, pt, simerr.ReasonFor(err), now)
		return
	}

	path, err := s.Pathfind.Pathfind(startPos, endPos, mapiface.ClassPedestrian)
	if err != nil {
		s.cancelTrip(personID, pt, simerr.ReasonFor(simerr.ErrPathfind), now)
		return
	}

	s.nextPedID++
	id := pedestrian.ID(s.nextPedID)
	steps := toPedestrianSteps(path)
	p := &pedestrian.Pedestrian{
		PedestrianID: id,
		OwnerPerson:  personID,
		WalkSpeed:    pedestrianSpeedFor(s),
		Current:      startPos.Lane,
	}
	if len(steps) > 0 {
		p.Path = steps
	}

	key := laneKey(startPos.Lane)
	q := s.pedQueue(key)
	if !q.RoomAtEnd(now, p.Length()) {
		s.cancelTrip(personID, pt, simerr.ReasonBlockedAtSpawn, now)
		return
	}

	q.PushBack(p)
	s.pedestrians[id] = p
	s.pedAt[id] = key
	s.ownerOfPed[id] = personID
	s.tripOfPed[id] = pt

	s.beginWalkingCurrentLane(p, key, now)
}

func pedestrianSpeedFor(s *Simulation) units.MetersPerSecond {
	jitter := s.RNG.Float64Safe()*0.4 - 0.2
	return units.MetersPerSecond(walkSpeedBase + jitter)
}

func (s *Simulation) pushUpdatePed(id pedestrian.ID, at units.Seconds) {
	s.Scheduler.Push(at, scheduler.Command{Kind: scheduler.KindUpdatePed, EntityID: int64(id)})
}

// beginWalkingCurrentLane puts p into StateWalking along its current
// lane, computing the crossing end time from the lane's length and
// the pedestrian's own walk speed (no lane speed limit applies to a
// sidewalk; only the incline factor does).
func (s *Simulation) beginWalkingCurrentLane(p *pedestrian.Pedestrian, key QueueKey, now units.Seconds) {
	length := s.lengthOf(key)
	incline := s.inclineFactorOf(key)
	speed := units.MetersPerSecond(float64(p.WalkSpeed) * incline)
	duration := length.Over(speed)
	p.BeginWalking(now, 0, length, duration)
	s.pushUpdatePed(p.PedestrianID, p.StateEnd)
}

// HandleUpdatePed dispatches a scheduled UpdatePed(id) command.
func (s *Simulation) HandleUpdatePed(id int64, now units.Seconds) {
	p, ok := s.pedestrians[pedestrian.ID(id)]
	if !ok {
		return
	}
	switch p.State {
	case pedestrian.StateWalking:
		if now < p.StateEnd {
			return
		}
		s.handlePedCrossingEnd(p, now)
	case pedestrian.StateWaiting:
		s.tryAdvancePed(p, now)
	}
}

func (s *Simulation) handlePedCrossingEnd(p *pedestrian.Pedestrian, now units.Seconds) {
	if p.AtFinalStep() {
		s.arrivePedestrian(p, now)
		return
	}
	key := s.pedAt[p.PedestrianID]
	p.BeginWaiting(now, s.lengthOf(key))
	s.pushUpdatePed(p.PedestrianID, now)
}

// tryAdvancePed is the pedestrian analogue of tryAdvanceQueued: a
// crosswalk step requires intersection admission, a sidewalk step only
// requires room at the next queue's tail.
func (s *Simulation) tryAdvancePed(p *pedestrian.Pedestrian, now units.Seconds) {
	next, hasNext := p.PeekNextStep()
	if !hasNext {
		s.arrivePedestrian(p, now)
		return
	}
	curKey := s.pedAt[p.PedestrianID]
	nextKey := pedStepKey(next)

	if next.IsCrosswalk {
		turn, err := s.Map.Turn(next.Turn)
		if err != nil {
			return
		}
		ctrl, ok := s.intersections[turn.IntersectionID]
		if !ok {
			return
		}
		decision := ctrl.Admit(now, intersection.Request{Turn: next.Turn, VehicleID: int64(p.PedestrianID)})
		if !decision.Admitted {
			return
		}
		if !s.pedQueue(nextKey).RoomAtEnd(now, p.Length()) {
			ctrl.Clear(next.Turn, int64(p.PedestrianID))
			return
		}
		s.movePedToNextQueue(p, curKey, nextKey, now)
	} else {
		if !s.pedQueue(nextKey).RoomAtEnd(now, p.Length()) {
			return
		}
		s.movePedToNextQueue(p, curKey, nextKey, now)
	}
}

func pedStepKey(st pedestrian.Step) QueueKey {
	if st.IsCrosswalk {
		return turnKey(st.Turn)
	}
	return laneKey(st.Lane)
}

func (s *Simulation) movePedToNextQueue(p *pedestrian.Pedestrian, curKey, nextKey QueueKey, now units.Seconds) {
	if curKey.IsTurn {
		if t, err := s.Map.Turn(curKey.Turn); err == nil {
			if ctrl, ok := s.intersections[t.IntersectionID]; ok {
				ctrl.Clear(curKey.Turn, int64(p.PedestrianID))
			}
		}
	}
	oldQ := s.pedQueue(curKey)
	oldQ.Remove(int64(p.PedestrianID))

	p.PopNextStep()
	if !nextKey.IsTurn {
		p.Current = nextKey.Lane
	}
	s.pedAt[p.PedestrianID] = nextKey
	s.pedQueue(nextKey).PushBack(p)
	s.beginWalkingCurrentLane(p, nextKey, now)

	s.promotePedFollower(oldQ, now)
}

func (s *Simulation) promotePedFollower(q *queue.Queue[*pedestrian.Pedestrian], now units.Seconds) {
	head, ok := q.Head()
	if !ok || head.State != pedestrian.StateWaiting {
		return
	}
	s.pushUpdatePed(head.PedestrianID, now)
}

// arrivePedestrian ends the Walk leg, handing off to whatever
// spec.md §4.6 names next (unparking into the person's own vehicle,
// boarding a bus, or simply finishing the trip).
func (s *Simulation) arrivePedestrian(p *pedestrian.Pedestrian, now units.Seconds) {
	key := s.pedAt[p.PedestrianID]
	s.pedQueue(key).Remove(int64(p.PedestrianID))

	pt := s.tripOfPed[p.PedestrianID]
	personID := s.ownerOfPed[p.PedestrianID]
	leg, _ := pt.cursor.CurrentLeg(pt.trip)

	delete(s.pedestrians, p.PedestrianID)
	delete(s.pedAt, p.PedestrianID)
	delete(s.ownerOfPed, p.PedestrianID)
	delete(s.tripOfPed, p.PedestrianID)

	s.advanceLeg(personID, pt, leg, now)
}
