package rvo

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/gorustyt/gorvo/common"
)

var agentIDs atomic.Uint64

// MinTimeHorizon is the smallest time horizon, it keeps 1/horizon finite.
const MinTimeHorizon = 0.001

// Agent is a circular entity steered by the simulator.
//
// The exported methods may be called from any goroutine at any time. The tick reads a
// private copy of the state taken once per tick, so changes become visible on the next
// tick. Results are read through CalculatedTargetPoint and CalculatedSpeed.
type Agent struct {
	id  uint64
	sim *Simulator // guarded by mu

	mu                    sync.Mutex
	position              common.Vec2
	elevation             float32
	radius                float32
	height                float32
	agentTimeHorizon      float32
	obstacleTimeHorizon   float32
	maxNeighbours         int
	layer                 Layer
	collidesWith          Layer
	priority              float32
	locked                bool
	debugDraw             bool
	preCalculation        func()
	nextTargetPoint       common.Vec2
	nextDesiredSpeed      float32
	nextMaxSpeed          float32
	collisionNormal       common.Vec2
	pendingManual         bool
	calculatedTargetPoint common.Vec2
	calculatedSpeed       float32
	neighbourCount        int

	// Written by the tick only.
	w              agentState
	neighbours     []*Agent
	neighbourDists []float32
	resultTarget   common.Vec2
	resultSpeed    float32
	hasResult      bool
}

// agentState is the per tick snapshot of an agent. Other agents read it during
// the velocity phase, so it must not change after the buffer switch phase.
type agentState struct {
	position            common.Vec2
	elevation           float32
	radius              float32
	height              float32
	desiredSpeed        float32
	maxSpeed            float32
	agentTimeHorizon    float32
	obstacleTimeHorizon float32
	priority            float32
	maxNeighbours       int
	layer               Layer
	collidesWith        Layer
	locked              bool
	manual              bool
	debugDraw           bool

	currentVelocity common.Vec2
	desiredVelocity common.Vec2
	desiredTarget   common.Vec2 ///< Target relative to position.
}

// NewAgent creates an agent at pos with the default parameters. It does not move
// until it is added to a simulator and given a target.
func NewAgent(pos common.Vec2, elevation float32) *Agent {
	a := &Agent{
		id:                    agentIDs.Add(1),
		position:              pos,
		elevation:             elevation,
		radius:                5,
		height:                5,
		agentTimeHorizon:      2,
		obstacleTimeHorizon:   2,
		maxNeighbours:         10,
		layer:                 DefaultAgent,
		collidesWith:          AllLayers,
		priority:              0.5,
		calculatedTargetPoint: pos,
		nextTargetPoint:       pos,
	}
	return a
}

// ID is unique per process and orders agents that are equally far from a neighbour.
func (a *Agent) ID() uint64 { return a.id }

func (a *Agent) Position() common.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.position
}

func (a *Agent) SetPosition(p common.Vec2) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.position = p
}

// Elevation is the coordinate on the axis not in the movement plane, the bottom of the agent.
func (a *Agent) Elevation() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elevation
}

func (a *Agent) SetElevation(e float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.elevation = e
}

func (a *Agent) Radius() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.radius
}

func (a *Agent) SetRadius(r float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.radius = r
}

func (a *Agent) Height() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.height
}

func (a *Agent) SetHeight(h float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.height = h
}

// AgentTimeHorizon is how many seconds ahead collisions with other agents are avoided.
// The setter raises values below MinTimeHorizon to it.
func (a *Agent) AgentTimeHorizon() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.agentTimeHorizon
}

func (a *Agent) SetAgentTimeHorizon(t float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.agentTimeHorizon = max(t, MinTimeHorizon)
}

// ObstacleTimeHorizon is how many seconds ahead collisions with obstacles are avoided.
func (a *Agent) ObstacleTimeHorizon() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.obstacleTimeHorizon
}

func (a *Agent) SetObstacleTimeHorizon(t float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.obstacleTimeHorizon = max(t, MinTimeHorizon)
}

func (a *Agent) MaxNeighbours() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxNeighbours
}

func (a *Agent) SetMaxNeighbours(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maxNeighbours = max(n, 0)
}

// NeighbourCount is the number of neighbours found in the last committed tick.
func (a *Agent) NeighbourCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.neighbourCount
}

func (a *Agent) Layer() Layer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.layer
}

func (a *Agent) SetLayer(l Layer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.layer = l
}

// CollidesWith is the mask of agent and obstacle layers this agent avoids.
func (a *Agent) CollidesWith() Layer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.collidesWith
}

func (a *Agent) SetCollidesWith(l Layer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.collidesWith = l
}

// Priority decides how much of the avoidance each agent of a pair takes on.
// An agent with a higher priority moves out of the way less.
func (a *Agent) Priority() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.priority
}

func (a *Agent) SetPriority(p float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.priority = p
}

// Locked agents never move, other agents avoid them completely.
func (a *Agent) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked
}

func (a *Agent) SetLocked(locked bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locked = locked
}

func (a *Agent) DebugDraw() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.debugDraw
}

// SetDebugDraw makes the agent draw its obstacles and optimizer traces to the
// simulator's debug sink. It has no effect when the simulator uses workers.
func (a *Agent) SetDebugDraw(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.debugDraw = on
}

// SetPreCalculationCallback registers fn to run on the simulating goroutine at the
// start of every tick, before any state is read. It must not call Simulator methods.
func (a *Agent) SetPreCalculationCallback(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.preCalculation = fn
}

// CalculatedTargetPoint is the point the agent should move toward.
func (a *Agent) CalculatedTargetPoint() common.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calculatedTargetPoint
}

// CalculatedSpeed is the speed the agent should move with toward CalculatedTargetPoint.
func (a *Agent) CalculatedSpeed() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calculatedSpeed
}

// CalculatedVelocity is the velocity implied by the calculated target point and speed.
func (a *Agent) CalculatedVelocity() common.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return common.Normalized(a.calculatedTargetPoint.Sub(a.position)).Mul(a.calculatedSpeed)
}

// SetTarget sets the point the agent wants to reach and how fast. maxSpeed is clamped
// to be non-negative and desiredSpeed to [0, maxSpeed]. Applied on the next tick.
func (a *Agent) SetTarget(targetPoint common.Vec2, desiredSpeed, maxSpeed float32) {
	maxSpeed = max(maxSpeed, 0)
	desiredSpeed = common.Clamp(desiredSpeed, 0, maxSpeed)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextTargetPoint = targetPoint
	a.nextDesiredSpeed = desiredSpeed
	a.nextMaxSpeed = maxSpeed
}

// SetCollisionNormal tells the simulator that the agent is pushed by a wall with the
// given normal. For the next tick other agents will not see any velocity component
// going into the wall. It does not make the agent avoid the wall.
func (a *Agent) SetCollisionNormal(normal common.Vec2) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.collisionNormal = normal
}

// ForceSetVelocity overrides the output of the agent for the next tick, avoidance for
// this agent is skipped for that tick. Other agents treat it as a locked agent.
// Useful for player controlled characters.
func (a *Agent) ForceSetVelocity(velocity common.Vec2) {
	a.mu.Lock()
	defer a.mu.Unlock()
	// Assumes the agent does not move much before the next tick.
	a.calculatedTargetPoint = a.position.Add(velocity.Mul(1000))
	a.nextTargetPoint = a.calculatedTargetPoint
	a.calculatedSpeed = velocity.Len()
	a.nextDesiredSpeed = a.calculatedSpeed
	a.pendingManual = true
}

func (a *Agent) runPreCalculation() {
	a.mu.Lock()
	fn := a.preCalculation
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// bufferSwitch copies the public state into the working snapshot.
func (a *Agent) bufferSwitch() {
	a.mu.Lock()
	defer a.mu.Unlock()

	w := &a.w
	w.manual = a.pendingManual
	a.pendingManual = false

	w.position = a.position
	w.elevation = a.elevation
	w.radius = a.radius
	w.height = a.height
	w.maxSpeed = a.nextMaxSpeed
	w.desiredSpeed = a.nextDesiredSpeed
	if !w.manual {
		// ForceSetVelocity may leave a desired speed above the max speed.
		w.desiredSpeed = min(w.desiredSpeed, w.maxSpeed)
	}
	w.agentTimeHorizon = a.agentTimeHorizon
	w.obstacleTimeHorizon = a.obstacleTimeHorizon
	w.priority = a.priority
	w.maxNeighbours = a.maxNeighbours
	w.layer = a.layer
	w.collidesWith = a.collidesWith
	w.debugDraw = a.debugDraw
	// Manual control wins over locking.
	w.locked = a.locked && !w.manual

	normal := a.collisionNormal
	a.collisionNormal = common.Vec2{}
	a.hasResult = false

	if w.locked {
		w.desiredTarget = common.Vec2{}
		w.desiredVelocity = common.Vec2{}
		w.currentVelocity = common.Vec2{}
		return
	}

	w.desiredTarget = a.nextTargetPoint.Sub(w.position)
	// Other agents need to know how this one is moving.
	w.currentVelocity = common.Normalized(a.calculatedTargetPoint.Sub(w.position)).Mul(a.calculatedSpeed)
	w.desiredVelocity = common.Normalized(w.desiredTarget).Mul(w.desiredSpeed)

	if normal != (common.Vec2{}) {
		normal = common.Normalized(normal)
		// Remove the component going into the wall.
		if dot := w.currentVelocity.Dot(normal); dot < 0 {
			w.currentVelocity = w.currentVelocity.Sub(normal.Mul(dot))
		}
	}
}

// postCalculation publishes the result of the tick. Agents under manual control keep
// the values set by ForceSetVelocity, including one requested while the tick ran.
func (a *Agent) postCalculation() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hasResult && !a.w.manual && !a.pendingManual {
		a.calculatedTargetPoint = a.resultTarget
		a.calculatedSpeed = a.resultSpeed
	}
	a.neighbourCount = len(a.neighbours)
	a.hasResult = false
}

func (a *Agent) setResult(target common.Vec2, speed float32) {
	a.resultTarget = target
	a.resultSpeed = speed
	a.hasResult = true
}

// neighbourQuery adapts an agent's neighbour list to the quadtree.
type neighbourQuery struct {
	self   *Agent
	agents []*Agent
}

func (q *neighbourQuery) Offer(id int, distSq, rangeSq float32) float32 {
	return q.self.insertAgentNeighbour(q.agents[id], distSq, rangeSq)
}

func (a *Agent) calculateNeighbours(q *neighbourQuery, t *tickState) {
	a.neighbours = a.neighbours[:0]
	a.neighbourDists = a.neighbourDists[:0]
	if a.w.maxNeighbours > 0 && !a.w.locked {
		q.self = a
		q.agents = t.agents
		t.tree.Query(a.w.position, a.w.maxSpeed, a.w.agentTimeHorizon, a.w.radius, q)
	}
}

func (a *Agent) neighbourBound() float32 {
	if n := len(a.neighbours); n > 0 && n == a.w.maxNeighbours {
		return a.neighbourDists[n-1]
	}
	return float32(math.Inf(1))
}

// insertAgentNeighbour keeps the maxNeighbours closest agents sorted by distance,
// then by ID. It returns the squared distance beyond which nothing more is kept.
func (a *Agent) insertAgentNeighbour(other *Agent, distSq, rangeSq float32) float32 {
	if other == a || !other.w.layer.Overlaps(a.w.collidesWith) || distSq >= rangeSq {
		return a.neighbourBound()
	}

	n := len(a.neighbours)
	if n == a.w.maxNeighbours {
		last := n - 1
		if distSq > a.neighbourDists[last] || (distSq == a.neighbourDists[last] && other.id > a.neighbours[last].id) {
			return a.neighbourBound()
		}
		a.neighbours = a.neighbours[:last]
		a.neighbourDists = a.neighbourDists[:last]
	}

	a.neighbours = append(a.neighbours, nil)
	a.neighbourDists = append(a.neighbourDists, 0)
	i := len(a.neighbours) - 1
	for i > 0 && (distSq < a.neighbourDists[i-1] || (distSq == a.neighbourDists[i-1] && other.id < a.neighbours[i-1].id)) {
		a.neighbours[i] = a.neighbours[i-1]
		a.neighbourDists[i] = a.neighbourDists[i-1]
		i--
	}
	a.neighbours[i] = other
	a.neighbourDists[i] = distSq
	return a.neighbourBound()
}
