package rvo

import (
	"github.com/gorustyt/gorvo/common"
	"github.com/gorustyt/gorvo/debug_utils"
	"github.com/gorustyt/gorvo/quadtree"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type phase int

const (
	phaseBufferSwitch phase = iota
	phaseCalculate
)

func (p phase) String() string {
	switch p {
	case phaseBufferSwitch:
		return "buffer_switch"
	case phaseCalculate:
		return "calculate"
	}
	return "unknown"
}

// testHookCalculate runs before each agent's velocity calculation when set.
var testHookCalculate func(*Agent)

// tickState is shared read only by all workers during a tick.
type tickState struct {
	deltaTime            float32
	plane                MovementPlane
	symmetryBreakingBias float32
	agents               []*Agent
	obstacles            []*ObstacleVertex
	tree                 *quadtree.Tree
	debugDraw            debug_utils.DuDebugDraw
}

func (t *tickState) to2D(p common.Vec3) (common.Vec2, float32) {
	return to2D(t.plane, p)
}

// workerContext is the scratch memory of one worker. A worker owns the agents
// [start, end) of the agent list for the whole tick.
type workerContext struct {
	start, end int
	faulted    bool
	vos        voBuffer
	query      neighbourQuery
	debug      agentDebug
}

// partition splits n agents over the workers.
func (s *Simulator) partition(n int) {
	workers := len(s.workers)
	for i, ctx := range s.workers {
		ctx.start = i * n / workers
		ctx.end = (i + 1) * n / workers
		ctx.faulted = false
	}
}

// runPartition runs one phase over the agents owned by ctx. A panic is logged and
// leaves the agents of the partition with their previous results.
func (s *Simulator) runPartition(ph phase, ctx *workerContext) {
	agents := s.tick.agents[ctx.start:ctx.end]
	defer func() {
		if r := recover(); r != nil {
			ctx.faulted = true
			for _, a := range agents {
				a.hasResult = false
			}
			s.log.Error("worker fault",
				zap.Stringer("phase", ph),
				zap.Int("start", ctx.start),
				zap.Int("end", ctx.end),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	switch ph {
	case phaseBufferSwitch:
		for _, a := range agents {
			a.bufferSwitch()
		}
	case phaseCalculate:
		if ctx.faulted {
			return
		}
		for _, a := range agents {
			a.calculateNeighbours(&ctx.query, &s.tick)
			if testHookCalculate != nil {
				testHookCalculate(a)
			}
			a.calculateVelocity(ctx, &s.tick)
		}
	}
}

// fork starts ph on every worker and returns the group to wait on.
func (s *Simulator) fork(ph phase) *errgroup.Group {
	g := new(errgroup.Group)
	g.SetLimit(len(s.workers))
	for _, ctx := range s.workers {
		ctx := ctx
		g.Go(func() error {
			s.runPartition(ph, ctx)
			return nil
		})
	}
	return g
}
