package main

import (
	"math"
	"math/rand"

	"github.com/gorustyt/gorvo/common"
	"github.com/gorustyt/gorvo/demo/config"
	"github.com/gorustyt/gorvo/rvo"
)

// walker is an agent that moves and has somewhere to go.
type walker struct {
	agent *rvo.Agent
	goal  common.Vec2
}

type scenario struct {
	walkers []walker
	pillars []*rvo.Agent
}

// to3D places a plane point in world space, the inverse of the simulator's projection.
func to3D(plane rvo.MovementPlane, p common.Vec2) common.Vec3 {
	if plane == rvo.PlaneXY {
		return common.Vec3{p[0], p[1], 0}
	}
	return common.Vec3{p[0], 0, p[1]}
}

// box returns the corners of an axis aligned box wound so that agents avoid it from outside.
func box(plane rvo.MovementPlane, lo, hi common.Vec2) []common.Vec3 {
	return []common.Vec3{
		to3D(plane, common.Vec2{lo[0], lo[1]}),
		to3D(plane, common.Vec2{hi[0], lo[1]}),
		to3D(plane, common.Vec2{hi[0], hi[1]}),
		to3D(plane, common.Vec2{lo[0], hi[1]}),
	}
}

func (sc *scenario) addWalker(s *rvo.Simulator, cfg *config.SimConfig, pos, goal common.Vec2) error {
	a, err := s.NewAgent(pos, 0)
	if err != nil {
		return err
	}
	a.SetRadius(float32(cfg.Radius))
	a.SetHeight(2)
	a.SetTarget(goal, float32(cfg.Speed), float32(cfg.MaxSpeed))
	sc.walkers = append(sc.walkers, walker{agent: a, goal: goal})
	return nil
}

func buildScenario(s *rvo.Simulator, cfg *config.SimConfig) (*scenario, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	jitter := func() common.Vec2 {
		return common.Vec2{rng.Float32() - 0.5, rng.Float32() - 0.5}.Mul(float32(cfg.Radius) * 0.2)
	}
	sc := &scenario{}
	plane := cfg.GetPlane()
	r := float32(cfg.Radius)

	switch cfg.GetScenario() {
	case config.SCENARIO_CIRCLE:
		// Leave a little more than a diameter between neighbours on the circle.
		ring := max(10, float32(cfg.Agents)*r*2.5/(2*math.Pi))
		for i := 0; i < cfg.Agents; i++ {
			angle := 2 * math.Pi * float64(i) / float64(cfg.Agents)
			p := common.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}.Mul(ring)
			if err := sc.addWalker(s, cfg, p.Add(jitter()), p.Mul(-1)); err != nil {
				return nil, err
			}
		}

	case config.SCENARIO_CORRIDOR:
		gap := 6 * r
		if _, err := s.AddObstacle(box(plane, common.Vec2{-0.5, gap / 2}, common.Vec2{0.5, 40}), 3); err != nil {
			return nil, err
		}
		if _, err := s.AddObstacle(box(plane, common.Vec2{-0.5, -40}, common.Vec2{0.5, -gap / 2}), 3); err != nil {
			return nil, err
		}
		for i := 0; i < cfg.Agents; i++ {
			side := float32(1 - 2*(i%2))
			row := float32(i/2) * 3 * r
			p := common.Vec2{-15 * side, row - float32(cfg.Agents/2)*1.5*r}
			goal := common.Vec2{15 * side, p[1]}
			if err := sc.addWalker(s, cfg, p.Add(jitter()), goal); err != nil {
				return nil, err
			}
		}

	case config.SCENARIO_PILLARS:
		for x := -4; x <= 4; x += 4 {
			for y := -6; y <= 6; y += 4 {
				pillar, err := s.NewAgent(common.Vec2{float32(x), float32(y)}, 0)
				if err != nil {
					return nil, err
				}
				pillar.SetRadius(1)
				pillar.SetHeight(2)
				pillar.SetLocked(true)
				sc.pillars = append(sc.pillars, pillar)
			}
		}
		for i := 0; i < cfg.Agents; i++ {
			y := (rng.Float32()*2 - 1) * 8
			p := common.Vec2{-15 - float32(i/8)*3*r, y}
			if err := sc.addWalker(s, cfg, p, common.Vec2{15, y}); err != nil {
				return nil, err
			}
		}
	}
	return sc, nil
}

// advance moves the walkers along their calculated velocity and reports how many arrived.
func (sc *scenario) advance(dt float32) (arrived int) {
	for _, w := range sc.walkers {
		a := w.agent
		p := a.Position().Add(a.CalculatedVelocity().Mul(dt))
		a.SetPosition(p)
		if p.Sub(w.goal).Len() <= a.Radius() {
			arrived++
		}
	}
	return arrived
}

// minClearance is the smallest gap between any two agents, negative when some overlap.
func (sc *scenario) minClearance() float32 {
	all := make([]*rvo.Agent, 0, len(sc.walkers)+len(sc.pillars))
	for _, w := range sc.walkers {
		all = append(all, w.agent)
	}
	all = append(all, sc.pillars...)

	best := float32(math.Inf(1))
	for i, a := range all {
		for _, b := range all[i+1:] {
			gap := a.Position().Sub(b.Position()).Len() - a.Radius() - b.Radius()
			best = min(best, gap)
		}
	}
	return best
}
