package rvo

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/gorvo/common"
	"github.com/gorustyt/gorvo/common/message"
	"github.com/gorustyt/gorvo/quadtree"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MinDeltaTime is the smallest tick length, it keeps 1/deltaTime finite.
const MinDeltaTime = 1.0 / 2000

// Simulator computes avoidance velocities for a set of agents.
//
// A tick runs these phases: pre calculation callbacks, queued obstacle changes,
// quadtree rebuild, buffer switch, neighbour query and velocity calculation, commit.
// With workers the last two agent phases are split over the workers, each owning a
// contiguous range of agents. With double buffering the velocity phase keeps running
// after Update returns and is committed at the start of the next tick.
type Simulator struct {
	cfg   Config
	log   *zap.Logger
	clock Clock

	mu          sync.Mutex
	agents      []*Agent
	obstacles   []*ObstacleVertex
	obstacleSet map[*ObstacleVertex]struct{}
	requests    []obstacleRequest
	tree        *quadtree.Tree
	points      []common.Vec2
	workers     []*workerContext
	inFlight    *errgroup.Group
	tick        tickState
	started     bool
	lastStep    time.Time
	closed      bool

	ticks     atomic.Uint64
	deltaTime atomic.Uint32
}

func NewSimulator(cfg Config) *Simulator {
	cfg.Workers = max(cfg.Workers, 0)
	cfg.SetDesiredDeltaTime(cfg.DesiredDeltaTime)
	s := &Simulator{
		cfg:         cfg,
		log:         cfg.Logger,
		clock:       cfg.Clock,
		obstacleSet: make(map[*ObstacleVertex]struct{}),
		tree:        quadtree.New(),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("rvo")
	if s.clock == nil {
		s.clock = SystemClock()
	}
	n := max(cfg.Workers, 1)
	s.workers = make([]*workerContext, n)
	for i := range s.workers {
		s.workers[i] = &workerContext{}
	}
	s.setDeltaTime(cfg.DesiredDeltaTime)
	s.log.Debug("simulator created",
		zap.Int("workers", cfg.Workers),
		zap.Bool("double_buffering", cfg.DoubleBuffering),
		zap.Stringer("plane", cfg.MovementPlane))
	return s
}

// Multithreading reports whether ticks run on worker goroutines.
func (s *Simulator) Multithreading() bool {
	return s.cfg.Workers > 0
}

func (s *Simulator) doubleBuffered() bool {
	return s.Multithreading() && s.cfg.DoubleBuffering
}

func (s *Simulator) Config() Config {
	return s.cfg
}

// DeltaTime is the length in seconds of the last tick.
func (s *Simulator) DeltaTime() float32 {
	return math.Float32frombits(s.deltaTime.Load())
}

func (s *Simulator) setDeltaTime(dt float32) {
	s.deltaTime.Store(math.Float32bits(dt))
}

// Tick is the number of ticks run so far.
func (s *Simulator) Tick() uint64 {
	return s.ticks.Load()
}

// blockUntilIdle waits for a deferred velocity phase and commits it.
func (s *Simulator) blockUntilIdle() error {
	if s.inFlight == nil {
		return nil
	}
	err := s.inFlight.Wait()
	s.inFlight = nil
	s.commit()
	return err
}

// AddAgent adds an agent that is not part of any simulator.
func (s *Simulator) AddAgent(a *Agent) error {
	if a == nil {
		return ErrNilAgent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSimulatorClosed
	}

	a.mu.Lock()
	owner := a.sim
	if owner == nil {
		a.sim = s
	}
	a.mu.Unlock()
	switch {
	case owner == s:
		return fmt.Errorf("%w: agent %d", ErrAgentInSimulation, a.id)
	case owner != nil:
		return fmt.Errorf("%w: agent %d", ErrAgentInOtherSimulation, a.id)
	}

	if err := s.blockUntilIdle(); err != nil {
		s.log.Warn("deferred tick failed", zap.Error(err))
	}
	s.agents = append(s.agents, a)
	s.log.Debug("agent added", zap.Uint64("id", a.id), zap.Int("agents", len(s.agents)))
	return nil
}

// NewAgent creates an agent at pos and adds it.
func (s *Simulator) NewAgent(pos common.Vec2, elevation float32) (*Agent, error) {
	a := NewAgent(pos, elevation)
	if err := s.AddAgent(a); err != nil {
		return nil, err
	}
	return a, nil
}

// RemoveAgent removes an agent. It can be added again later.
func (s *Simulator) RemoveAgent(a *Agent) error {
	if a == nil {
		return ErrNilAgent
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a.mu.Lock()
	owner := a.sim
	a.mu.Unlock()
	if owner != s {
		return fmt.Errorf("%w: agent %d", ErrAgentNotInSimulation, a.id)
	}

	if err := s.blockUntilIdle(); err != nil {
		s.log.Warn("deferred tick failed", zap.Error(err))
	}
	s.agents = slices.DeleteFunc(s.agents, func(other *Agent) bool { return other == a })
	a.mu.Lock()
	a.sim = nil
	a.mu.Unlock()
	s.log.Debug("agent removed", zap.Uint64("id", a.id), zap.Int("agents", len(s.agents)))
	return nil
}

// ClearAgents removes every agent.
func (s *Simulator) ClearAgents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.blockUntilIdle(); err != nil {
		s.log.Warn("deferred tick failed", zap.Error(err))
	}
	for _, a := range s.agents {
		a.mu.Lock()
		a.sim = nil
		a.mu.Unlock()
	}
	s.log.Debug("agents cleared", zap.Int("agents", len(s.agents)))
	s.agents = nil
}

// Agents returns the agents in the order they are simulated.
func (s *Simulator) Agents() []*Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.agents)
}

// AddObstacle adds a polygon obstacle of the given height and returns its first vertex.
// The obstacle takes part from the next tick on.
func (s *Simulator) AddObstacle(vertices []common.Vec3, height float32, opts ...ObstacleOption) (*ObstacleVertex, error) {
	o := defaultObstacleOptions()
	for _, opt := range opts {
		opt(&o)
	}
	positions, err := transformVertices(vertices, o.matrix)
	if err != nil {
		return nil, err
	}
	return s.queueAdd(newObstacle(positions, height, o, s.cfg.MovementPlane))
}

// AddLineObstacle adds a one sided wall from a to b. Agents avoid it from its left side only.
func (s *Simulator) AddLineObstacle(a, b common.Vec3, height float32) (*ObstacleVertex, error) {
	if _, err := transformVertices([]common.Vec3{a, b}, mgl32.Ident4()); err != nil {
		return nil, err
	}
	return s.queueAdd(newLineObstacle(a, b, height, s.cfg.MovementPlane))
}

func (s *Simulator) queueAdd(head *ObstacleVertex) (*ObstacleVertex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSimulatorClosed
	}
	s.obstacleSet[head] = struct{}{}
	s.requests = append(s.requests, obstacleRequest{kind: obstacleAdd, head: head})
	return head, nil
}

// UpdateObstacle moves the vertices of an obstacle. The number of vertices must
// equal the number the obstacle was created with.
func (s *Simulator) UpdateObstacle(obstacle *ObstacleVertex, vertices []common.Vec3, matrix mgl32.Mat4) error {
	if obstacle == nil {
		return ErrNilObstacle
	}
	positions, err := transformVertices(vertices, matrix)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSimulatorClosed
	}
	if _, ok := s.obstacleSet[obstacle]; !ok {
		return ErrUnknownObstacle
	}
	if n := obstacle.vertexCount(); n != len(positions) {
		return fmt.Errorf("%w: obstacle has %d vertices, got %d", ErrVertexCountMismatch, n, len(positions))
	}
	s.requests = append(s.requests, obstacleRequest{kind: obstacleUpdate, head: obstacle, positions: positions})
	return nil
}

// RemoveObstacle removes the obstacle identified by the vertex returned when it was added.
func (s *Simulator) RemoveObstacle(obstacle *ObstacleVertex) error {
	if obstacle == nil {
		return ErrNilObstacle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSimulatorClosed
	}
	if _, ok := s.obstacleSet[obstacle]; !ok {
		return ErrUnknownObstacle
	}
	delete(s.obstacleSet, obstacle)
	s.requests = append(s.requests, obstacleRequest{kind: obstacleRemove, head: obstacle})
	return nil
}

// Obstacles returns the first vertex of every obstacle used by the last tick.
func (s *Simulator) Obstacles() []*ObstacleVertex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.obstacles)
}

func (s *Simulator) applyObstacleRequests() {
	if len(s.requests) == 0 {
		return
	}
	for _, r := range s.requests {
		switch r.kind {
		case obstacleAdd:
			s.obstacles = append(s.obstacles, r.head)
		case obstacleUpdate:
			r.head.setPositions(r.positions, s.cfg.MovementPlane)
		case obstacleRemove:
			s.obstacles = slices.DeleteFunc(s.obstacles, func(v *ObstacleVertex) bool { return v == r.head })
		}
		s.log.Debug("obstacle request applied", zap.Stringer("kind", r.kind), zap.Int("vertices", r.head.vertexCount()))
	}
	clear(s.requests)
	s.requests = s.requests[:0]
}

// Update runs a tick when at least DesiredDeltaTime has passed since the last one.
// Call it once per host frame.
func (s *Simulator) Update() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSimulatorClosed
	}

	now := s.clock.Now()
	if !s.started {
		s.started = true
		s.lastStep = now
		s.setDeltaTime(s.cfg.DesiredDeltaTime)
	}
	elapsed := float32(now.Sub(s.lastStep).Seconds())
	if elapsed < s.cfg.DesiredDeltaTime {
		return nil
	}
	s.lastStep = now
	return s.step(elapsed)
}

// Step runs a tick of deltaTime seconds right away, ignoring the clock.
func (s *Simulator) Step(deltaTime float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSimulatorClosed
	}
	s.lastStep = s.clock.Now()
	s.started = true
	return s.step(deltaTime)
}

func (s *Simulator) step(deltaTime float32) error {
	deltaTime = max(deltaTime, MinDeltaTime)
	s.setDeltaTime(deltaTime)

	err := s.blockUntilIdle()

	for _, a := range s.agents {
		a.runPreCalculation()
	}
	s.applyObstacleRequests()
	s.buildQuadtree()

	s.tick = tickState{
		deltaTime:            deltaTime,
		plane:                s.cfg.MovementPlane,
		symmetryBreakingBias: s.cfg.SymmetryBreakingBias,
		agents:               s.agents,
		obstacles:            s.obstacles,
		tree:                 s.tree,
	}
	if !s.Multithreading() {
		s.tick.debugDraw = s.cfg.DebugDraw
	}
	s.partition(len(s.agents))

	if !s.Multithreading() {
		ctx := s.workers[0]
		s.runPartition(phaseBufferSwitch, ctx)
		s.runPartition(phaseCalculate, ctx)
		s.commit()
	} else {
		err = multierr.Append(err, s.fork(phaseBufferSwitch).Wait())
		g := s.fork(phaseCalculate)
		if s.cfg.DoubleBuffering {
			s.inFlight = g
		} else {
			err = multierr.Append(err, g.Wait())
			s.commit()
		}
	}
	s.ticks.Add(1)
	return err
}

func (s *Simulator) commit() {
	for _, a := range s.tick.agents {
		a.postCalculation()
	}
}

// buildQuadtree indexes the agents by their current public position and speed.
func (s *Simulator) buildQuadtree() {
	s.tree.Clear()
	if len(s.agents) > 0 {
		s.points = s.points[:0]
		speeds := make([]float32, 0, len(s.agents))
		for _, a := range s.agents {
			a.mu.Lock()
			s.points = append(s.points, a.position)
			speeds = append(speeds, a.calculatedSpeed)
			a.mu.Unlock()
		}

		p := s.points[0]
		bounds := common.MinMaxRect(p[0], p[1], p[0], p[1])
		for _, p := range s.points[1:] {
			bounds = bounds.Encapsulate(p)
		}
		s.tree.SetBounds(bounds)
		for i, p := range s.points {
			s.tree.Insert(i, p, speeds[i])
		}
	}
	s.tree.CalculateSpeeds()
}

// Snapshot returns the committed results of every agent.
func (s *Simulator) Snapshot() message.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := message.Frame{
		Tick:      s.ticks.Load(),
		DeltaTime: s.DeltaTime(),
		Agents:    make([]message.AgentState, 0, len(s.agents)),
	}
	for _, a := range s.agents {
		a.mu.Lock()
		f.Agents = append(f.Agents, message.AgentState{
			ID:                    a.id,
			Position:              a.position,
			CalculatedTargetPoint: a.calculatedTargetPoint,
			CalculatedSpeed:       a.calculatedSpeed,
			NeighbourCount:        int32(a.neighbourCount),
		})
		a.mu.Unlock()
	}
	return f
}

// Close waits for running work and commits it. Later ticks and changes fail with
// ErrSimulatorClosed. Agents stay readable.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	err := s.blockUntilIdle()
	s.closed = true
	s.log.Debug("simulator closed", zap.Uint64("ticks", s.ticks.Load()), zap.Int("agents", len(s.agents)))
	return err
}
