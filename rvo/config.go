package rvo

import (
	"github.com/gorustyt/gorvo/debug_utils"
	"go.uber.org/zap"
)

// MovementPlane selects which pair of 3D axes the simulation runs in.
type MovementPlane int

const (
	// PlaneXZ maps (x, y, z) to (x, z), y is the elevation. Used by 3D hosts.
	PlaneXZ MovementPlane = iota
	// PlaneXY maps (x, y, z) to (x, y), -z is the elevation. Used by 2D hosts.
	PlaneXY
)

func (p MovementPlane) String() string {
	if p == PlaneXY {
		return "XY"
	}
	return "XZ"
}

type Config struct {
	Workers              int           ///< Worker goroutines. 0 runs every phase on the calling goroutine.
	DoubleBuffering      bool          ///< Let the velocity phase run until the next tick. Only used when Workers > 0.
	DesiredDeltaTime     float32       ///< Seconds between ticks when driven by Update.
	MovementPlane        MovementPlane ///< Plane the agents move in.
	SymmetryBreakingBias float32       ///< Radians. Positive values make agents pass each other on the right.
	Logger               *zap.Logger   ///< Nil disables logging.
	Clock                Clock         ///< Nil uses the system clock.

	// Receives debug geometry of agents with the debug flag set. Ignored when Workers > 0.
	DebugDraw debug_utils.DuDebugDraw
}

func (c *Config) Reset() {
	c.Workers = 0
	c.DoubleBuffering = false
	c.DesiredDeltaTime = 0.05
	c.MovementPlane = PlaneXZ
	c.SymmetryBreakingBias = 0.1
	c.Logger = nil
	c.Clock = nil
	c.DebugDraw = nil
}

func DefaultConfig() Config {
	var c Config
	c.Reset()
	return c
}

// SetDesiredDeltaTime clamps negative durations to zero.
func (c *Config) SetDesiredDeltaTime(dt float32) {
	c.DesiredDeltaTime = max(dt, 0)
}
