package rvo

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/gorvo/common"
	"github.com/gorustyt/gorvo/common/message"
	"github.com/gorustyt/gorvo/debug_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testDeltaTime = 0.05

func newTestSimulator(t *testing.T, mutate func(*Config)) *Simulator {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s := NewSimulator(cfg)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addTestAgent(t *testing.T, s *Simulator, pos, target common.Vec2, speed, maxSpeed, radius float32) *Agent {
	t.Helper()
	a, err := s.NewAgent(pos, 0)
	require.NoError(t, err)
	a.SetRadius(radius)
	a.SetTarget(target, speed, maxSpeed)
	return a
}

// advance moves every agent along its calculated velocity.
func advance(s *Simulator, dt float32) {
	for _, a := range s.Agents() {
		a.SetPosition(a.Position().Add(a.CalculatedVelocity().Mul(dt)))
	}
}

func TestSingleAgentMovesStraight(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 2, 0.5)

	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
	assert.Equal(t, float32(1), a.CalculatedSpeed())
	assert.Equal(t, common.Vec2{1, 0}, a.CalculatedVelocity())
	assert.Zero(t, a.NeighbourCount())
	assert.Equal(t, uint64(1), s.Tick())
}

func TestHeadOnSymmetry(t *testing.T) {
	// Both agents are placed point symmetric about the origin, so their results must be too.
	for _, tc := range []struct {
		name    string
		offsetY float32
	}{
		{"collinear", 0},
		{"offset", 0.1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSimulator(t, func(c *Config) { c.SymmetryBreakingBias = 0 })
			a := addTestAgent(t, s, common.Vec2{-2, tc.offsetY}, common.Vec2{10, tc.offsetY}, 2, 2, 0.5)
			b := addTestAgent(t, s, common.Vec2{2, -tc.offsetY}, common.Vec2{-10, -tc.offsetY}, 2, 2, 0.5)

			for i := 0; i < 5; i++ {
				require.NoError(t, s.Step(testDeltaTime))
				assert.Equal(t, 1, a.NeighbourCount())
				assert.Equal(t, 1, b.NeighbourCount())

				va, vb := a.CalculatedVelocity(), b.CalculatedVelocity()
				assert.InDelta(t, va[0], -vb[0], 1e-5, "tick %d", i)
				assert.InDelta(t, va[1], -vb[1], 1e-5, "tick %d", i)
				assert.LessOrEqual(t, a.CalculatedSpeed(), float32(2))
				if tc.offsetY != 0 {
					// Each agent steps away from the side the other one is on.
					assert.Greater(t, va[1], float32(1e-3), "tick %d", i)
				}
			}
		})
	}
}

func TestAvoidLockedAgent(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.2)
	b := addTestAgent(t, s, common.Vec2{0.5, 0}, common.Vec2{0.5, 10}, 1, 1, 0.2)
	b.SetLocked(true)

	require.NoError(t, s.Step(testDeltaTime))

	v := a.CalculatedVelocity()
	assert.Greater(t, float64(common.Abs(v[1])), 1e-3)
	assert.LessOrEqual(t, a.CalculatedSpeed(), float32(1))

	// Locked agents stay where they are.
	assert.Equal(t, b.Position(), b.CalculatedTargetPoint())
	assert.Zero(t, b.CalculatedSpeed())
	assert.Zero(t, b.NeighbourCount())
}

func TestForceSetVelocity(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)
	other := addTestAgent(t, s, common.Vec2{3, 0.5}, common.Vec2{-10, 0.5}, 1, 1, 0.5)

	a.ForceSetVelocity(common.Vec2{0, 2})
	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, float32(2), a.CalculatedSpeed())
	assert.InDelta(t, 2, a.CalculatedVelocity()[1], 1e-4)
	assert.Equal(t, 1, other.NeighbourCount())

	// Back to normal avoidance once a new target is given.
	require.NoError(t, s.RemoveAgent(other))
	a.SetTarget(common.Vec2{0, -10}, 1, 1)
	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, common.Vec2{0, -10}, a.CalculatedTargetPoint())
	assert.Equal(t, float32(1), a.CalculatedSpeed())
}

func TestForcedVelocityHandsBackToAvoidance(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{0, 10}, 1, 1, 0.5)
	pillar := addTestAgent(t, s, common.Vec2{0.6, 2}, common.Vec2{0.6, 2}, 0, 0, 0.5)
	pillar.SetLocked(true)

	a.ForceSetVelocity(common.Vec2{0, 3})
	forcedTarget := a.CalculatedTargetPoint()
	require.NoError(t, s.Step(testDeltaTime))
	assert.True(t, a.w.manual)
	assert.Equal(t, float32(3), a.CalculatedSpeed())
	assert.Equal(t, forcedTarget, a.CalculatedTargetPoint())

	// No new target: the next tick avoids the pillar on its own.
	require.NoError(t, s.Step(testDeltaTime))
	assert.False(t, a.w.manual)
	assert.Equal(t, 1, a.NeighbourCount())
	assert.LessOrEqual(t, a.CalculatedSpeed(), float32(1))
	assert.NotEqual(t, forcedTarget, a.CalculatedTargetPoint())
	assert.Greater(t, float64(common.Abs(a.CalculatedVelocity()[0])), 1e-3)
}

func TestForcedSpeedAboveMaxIsClamped(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)

	a.ForceSetVelocity(common.Vec2{0, 3})
	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, float32(3), a.CalculatedSpeed())

	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, float32(1), a.CalculatedSpeed())
	assert.InDelta(t, 1, a.CalculatedVelocity()[1], 1e-4)
}

func TestZeroTimeHorizonStaysFinite(t *testing.T) {
	s := newTestSimulator(t, nil)
	// The larger agent still finds the smaller one without overlapping it.
	a := addTestAgent(t, s, common.Vec2{-0.75, 0}, common.Vec2{10, 0}, 1, 1, 1)
	b := addTestAgent(t, s, common.Vec2{0.75, 0.1}, common.Vec2{-10, 0.1}, 1, 1, 0.2)
	for _, ag := range []*Agent{a, b} {
		ag.SetAgentTimeHorizon(0)
		ag.SetObstacleTimeHorizon(-1)
	}

	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, 1, a.NeighbourCount())
	for _, ag := range []*Agent{a, b} {
		v := ag.CalculatedVelocity()
		assert.True(t, common.IsFinite3(common.Vec3{v[0], v[1], ag.CalculatedSpeed()}), "velocity %v", v)
		assert.LessOrEqual(t, ag.CalculatedSpeed(), float32(1))
	}
}

func TestPreCalculationCallback(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)
	calls := 0
	a.SetPreCalculationCallback(func() {
		calls++
		a.SetTarget(common.Vec2{0, 10}, 1, 1)
	})

	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, 1, calls)
	assert.Equal(t, common.Vec2{0, 10}, a.CalculatedTargetPoint())
}

func TestLayersAndElevation(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{-1, 0}, common.Vec2{10, 0}, 1, 1, 0.5)
	b := addTestAgent(t, s, common.Vec2{1, 0}, common.Vec2{-10, 0}, 1, 1, 0.5)
	a.SetCollidesWith(DefaultAgent)
	b.SetLayer(Layer2)

	require.NoError(t, s.Step(testDeltaTime))
	assert.Zero(t, a.NeighbourCount())
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
	assert.Equal(t, 1, b.NeighbourCount())
	assert.NotEqual(t, common.Vec2{-10, 0}, b.CalculatedTargetPoint())

	// Agents on different floors do not avoid each other.
	b.SetElevation(20)
	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, 1, b.NeighbourCount())
	assert.Equal(t, common.Vec2{-10, 0}, b.CalculatedTargetPoint())
}

func TestMaxNeighboursZero(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{-1, 0}, common.Vec2{10, 0}, 1, 1, 0.5)
	addTestAgent(t, s, common.Vec2{1, 0}, common.Vec2{-10, 0}, 1, 1, 0.5)
	a.SetMaxNeighbours(0)

	require.NoError(t, s.Step(testDeltaTime))
	assert.Zero(t, a.NeighbourCount())
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
}

func TestObstacleBlocksAndIsRemoved(t *testing.T) {
	s := newTestSimulator(t, func(c *Config) { c.MovementPlane = PlaneXY })
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)

	wall, err := s.AddLineObstacle(common.Vec3{1, 5, 0}, common.Vec3{1, -5, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, s.Obstacles(), "obstacles are added on the next tick")

	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, []*ObstacleVertex{wall}, s.Obstacles())
	assert.Less(t, a.CalculatedVelocity()[0], float32(0.9))
	assert.LessOrEqual(t, a.CalculatedSpeed(), float32(1))

	require.NoError(t, s.RemoveObstacle(wall))
	require.NoError(t, s.Step(testDeltaTime))
	assert.Empty(t, s.Obstacles())
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
	assert.Equal(t, float32(1), a.CalculatedSpeed())
}

func TestObstacleBackSideIgnored(t *testing.T) {
	s := newTestSimulator(t, func(c *Config) { c.MovementPlane = PlaneXY })
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)

	_, err := s.AddLineObstacle(common.Vec3{1, -5, 0}, common.Vec3{1, 5, 0}, 1)
	require.NoError(t, err)
	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
}

func TestObstacleParallelSegment(t *testing.T) {
	s := newTestSimulator(t, func(c *Config) { c.MovementPlane = PlaneXY })
	// Max speed 2 puts the wall inside the obstacle horizon.
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 2, 0.5)

	_, err := s.AddObstacle([]common.Vec3{{-5, 2, 0}, {5, 2, 0}}, 1, WithClosed(false))
	require.NoError(t, err)
	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
	assert.Equal(t, float32(1), a.CalculatedSpeed())
}

func TestObstacleLayerMask(t *testing.T) {
	s := newTestSimulator(t, func(c *Config) { c.MovementPlane = PlaneXY })
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)
	a.SetCollidesWith(DefaultAgent | DefaultObstacle)

	_, err := s.AddObstacle([]common.Vec3{{1, 5, 0}, {1, -5, 0}}, 1, WithClosed(false), WithLayer(Layer3))
	require.NoError(t, err)
	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
}

func TestObstacleElevation(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)
	a.SetHeight(2)

	// XZ plane: the wall at x=1 spans elevations 0 to 1.
	wall, err := s.AddObstacle([]common.Vec3{{1, 0, 5}, {1, 0, -5}}, 1, WithClosed(false))
	require.NoError(t, err)
	require.NoError(t, s.Step(testDeltaTime))
	assert.NotEqual(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())

	// Lifting the wall above the agent makes it irrelevant.
	require.NoError(t, s.UpdateObstacle(wall, []common.Vec3{{1, 10, 5}, {1, 10, -5}}, mgl32.Ident4()))
	require.NoError(t, s.Step(testDeltaTime))
	assert.Equal(t, common.Vec3{1, 10, 5}, wall.Position())
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
}

func TestObstacleErrors(t *testing.T) {
	s := newTestSimulator(t, nil)

	_, err := s.AddObstacle([]common.Vec3{{0, 0, 0}}, 1)
	assert.ErrorIs(t, err, ErrDegenerateObstacle)
	_, err = s.AddLineObstacle(common.Vec3{float32(math.NaN()), 0, 0}, common.Vec3{}, 1)
	assert.ErrorIs(t, err, ErrDegenerateObstacle)

	head, err := s.AddObstacle(square(), 1)
	require.NoError(t, err)
	err = s.UpdateObstacle(head, square()[:3], mgl32.Ident4())
	assert.ErrorIs(t, err, ErrVertexCountMismatch)
	assert.ErrorIs(t, s.UpdateObstacle(nil, square(), mgl32.Ident4()), ErrNilObstacle)
	assert.ErrorIs(t, s.RemoveObstacle(nil), ErrNilObstacle)

	require.NoError(t, s.RemoveObstacle(head))
	assert.ErrorIs(t, s.RemoveObstacle(head), ErrUnknownObstacle)
	assert.ErrorIs(t, s.UpdateObstacle(head, square(), mgl32.Ident4()), ErrUnknownObstacle)

	// Added and removed before any tick.
	require.NoError(t, s.Step(testDeltaTime))
	assert.Empty(t, s.Obstacles())
}

func TestAgentRegistration(t *testing.T) {
	s1 := newTestSimulator(t, nil)
	s2 := newTestSimulator(t, nil)
	a := NewAgent(common.Vec2{}, 0)

	assert.ErrorIs(t, s1.AddAgent(nil), ErrNilAgent)
	assert.ErrorIs(t, s1.RemoveAgent(nil), ErrNilAgent)
	assert.ErrorIs(t, s1.RemoveAgent(a), ErrAgentNotInSimulation)

	require.NoError(t, s1.AddAgent(a))
	assert.ErrorIs(t, s1.AddAgent(a), ErrAgentInSimulation)
	assert.ErrorIs(t, s2.AddAgent(a), ErrAgentInOtherSimulation)
	assert.ErrorIs(t, s2.RemoveAgent(a), ErrAgentNotInSimulation)
	assert.Equal(t, []*Agent{a}, s1.Agents())

	require.NoError(t, s1.RemoveAgent(a))
	assert.Empty(t, s1.Agents())
	require.NoError(t, s2.AddAgent(a))

	b, err := s2.NewAgent(common.Vec2{1, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, []*Agent{a, b}, s2.Agents())

	s2.ClearAgents()
	assert.Empty(t, s2.Agents())
	require.NoError(t, s1.AddAgent(b))
}

func TestUpdateThrottle(t *testing.T) {
	clock := NewManualClock(time.Unix(100, 0))
	s := newTestSimulator(t, func(c *Config) { c.Clock = clock })
	addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)

	require.NoError(t, s.Update())
	assert.Zero(t, s.Tick())
	assert.InDelta(t, testDeltaTime, s.DeltaTime(), 1e-6)

	clock.Advance(20 * time.Millisecond)
	require.NoError(t, s.Update())
	assert.Zero(t, s.Tick())

	clock.Advance(40 * time.Millisecond)
	require.NoError(t, s.Update())
	assert.Equal(t, uint64(1), s.Tick())
	assert.InDelta(t, 0.06, s.DeltaTime(), 1e-5)

	clock.Advance(10 * time.Millisecond)
	require.NoError(t, s.Update())
	assert.Equal(t, uint64(1), s.Tick())

	// Step ignores the clock and is clamped to a minimum length.
	require.NoError(t, s.Step(0))
	assert.Equal(t, uint64(2), s.Tick())
	assert.InDelta(t, MinDeltaTime, s.DeltaTime(), 1e-9)
}

func TestClose(t *testing.T) {
	s := newTestSimulator(t, func(c *Config) {
		c.Workers = 2
		c.DoubleBuffering = true
	})
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)

	require.NoError(t, s.Step(testDeltaTime))
	require.NoError(t, s.Close())
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
	assert.NoError(t, s.Close())

	assert.ErrorIs(t, s.Step(testDeltaTime), ErrSimulatorClosed)
	assert.ErrorIs(t, s.Update(), ErrSimulatorClosed)
	assert.ErrorIs(t, s.AddAgent(NewAgent(common.Vec2{}, 0)), ErrSimulatorClosed)
	_, err := s.AddObstacle(square(), 1)
	assert.ErrorIs(t, err, ErrSimulatorClosed)
}

func TestDoubleBufferingCommitsNextTick(t *testing.T) {
	s := newTestSimulator(t, func(c *Config) {
		c.Workers = 3
		c.DoubleBuffering = true
	})
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)

	require.NoError(t, s.Step(testDeltaTime))
	a.SetTarget(common.Vec2{0, 10}, 2, 2)
	require.NoError(t, s.Step(testDeltaTime))
	// Only the first tick is visible until the second one is joined.
	assert.Equal(t, common.Vec2{10, 0}, a.CalculatedTargetPoint())
	assert.Equal(t, float32(1), a.CalculatedSpeed())

	require.NoError(t, s.Close())
	assert.Equal(t, common.Vec2{0, 10}, a.CalculatedTargetPoint())
	assert.Equal(t, float32(2), a.CalculatedSpeed())
}

func circleScenario(t *testing.T, workers int) []common.Vec2 {
	s := newTestSimulator(t, func(c *Config) { c.Workers = workers })
	const n = 24
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / n
		p := common.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}.Mul(20)
		a := addTestAgent(t, s, p, p.Mul(-1), 2, 3, 1)
		a.SetMaxNeighbours(6)
		a.SetPriority(float32(i%3) * 0.4)
	}
	for i := 0; i < 40; i++ {
		require.NoError(t, s.Step(testDeltaTime))
		advance(s, testDeltaTime)
	}

	var out []common.Vec2
	for _, a := range s.Agents() {
		out = append(out, a.Position())
	}
	return out
}

func TestWorkersMatchSequential(t *testing.T) {
	sequential := circleScenario(t, 0)
	for _, workers := range []int{1, 4, 7} {
		assert.Equal(t, sequential, circleScenario(t, workers), "workers=%d", workers)
	}
}

func TestWorkerFaultKeepsPreviousResults(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := newTestSimulator(t, func(c *Config) {
		c.Workers = 2
		c.Logger = zap.New(core)
	})
	var agents []*Agent
	for i := 0; i < 4; i++ {
		p := common.Vec2{float32(i) * 100, 0}
		agents = append(agents, addTestAgent(t, s, p, p.Add(common.Vec2{0, 10}), 1, 1, 0.5))
	}

	testHookCalculate = func(a *Agent) {
		if a == agents[0] {
			panic("broken agent")
		}
	}
	t.Cleanup(func() { testHookCalculate = nil })

	require.NoError(t, s.Step(testDeltaTime))
	// The first worker owns agents 0 and 1.
	for _, a := range agents[:2] {
		assert.Equal(t, a.Position(), a.CalculatedTargetPoint())
		assert.Zero(t, a.CalculatedSpeed())
	}
	for _, a := range agents[2:] {
		assert.Equal(t, a.Position().Add(common.Vec2{0, 10}), a.CalculatedTargetPoint())
	}
	require.Equal(t, 1, logs.FilterMessage("worker fault").Len())

	testHookCalculate = nil
	require.NoError(t, s.Step(testDeltaTime))
	for _, a := range agents {
		assert.Equal(t, float32(1), a.CalculatedSpeed())
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestSimulator(t, nil)
	a := addTestAgent(t, s, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)
	addTestAgent(t, s, common.Vec2{0, 50}, common.Vec2{0, 60}, 2, 2, 0.5)
	require.NoError(t, s.Step(testDeltaTime))

	f := s.Snapshot()
	assert.Equal(t, uint64(1), f.Tick)
	assert.InDelta(t, testDeltaTime, f.DeltaTime, 1e-6)
	require.Len(t, f.Agents, 2)
	assert.Equal(t, a.ID(), f.Agents[0].ID)
	assert.Equal(t, common.Vec2{1, 0}, f.Agents[0].Velocity())
	assert.Equal(t, float32(2), f.Agents[1].CalculatedSpeed)

	decoded, err := message.Decode(message.Encode(nil, &f))
	require.NoError(t, err)
	assert.Equal(t, f, decoded)
}

func TestDebugDraw(t *testing.T) {
	dl := debug_utils.NewDuDisplayList(0)
	s := newTestSimulator(t, func(c *Config) { c.DebugDraw = dl })
	a := addTestAgent(t, s, common.Vec2{-2, 0}, common.Vec2{10, 0}, 2, 2, 0.5)
	addTestAgent(t, s, common.Vec2{2, 0}, common.Vec2{-10, 0}, 2, 2, 0.5)

	require.NoError(t, s.Step(testDeltaTime))
	assert.Zero(t, dl.Size())

	a.SetDebugDraw(true)
	require.NoError(t, s.Step(testDeltaTime))
	assert.Greater(t, dl.Size(), 0)
	assert.Greater(t, dl.CountColor(debug_utils.ColorBlack), 0)
	assert.Greater(t, dl.CountColor(debug_utils.ColorWhite), 0)
	assert.Equal(t, dl.CountColor(debug_utils.ColorMaxSpeed), dl.CountColor(debug_utils.ColorDesiredSpeed))
	assert.Greater(t, dl.CountColor(debug_utils.ColorMaxSpeed), 0)

	// Drawing is skipped when the tick runs on workers.
	parallel := debug_utils.NewDuDisplayList(0)
	sp := newTestSimulator(t, func(c *Config) {
		c.Workers = 2
		c.DebugDraw = parallel
	})
	b := addTestAgent(t, sp, common.Vec2{}, common.Vec2{10, 0}, 1, 1, 0.5)
	b.SetDebugDraw(true)
	require.NoError(t, sp.Step(testDeltaTime))
	assert.Zero(t, parallel.Size())
}
