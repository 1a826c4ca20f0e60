package config

import "fmt"

type ScenarioKind int

const (
	SCENARIO_CIRCLE   ScenarioKind = iota ///< Agents on a circle walk to the opposite side.
	SCENARIO_CORRIDOR                     ///< Two groups pass each other through a gap in a wall.
	SCENARIO_PILLARS                      ///< One group walks through a field of locked agents.

	DESC_SCENARIO_CIRCLE   = "circle"
	DESC_SCENARIO_CORRIDOR = "corridor"
	DESC_SCENARIO_PILLARS  = "pillars"
)

func (k ScenarioKind) String() string {
	switch k {
	case SCENARIO_CIRCLE:
		return DESC_SCENARIO_CIRCLE
	case SCENARIO_CORRIDOR:
		return DESC_SCENARIO_CORRIDOR
	case SCENARIO_PILLARS:
		return DESC_SCENARIO_PILLARS
	}
	return "unknown"
}

func ParseScenario(desc string) (ScenarioKind, error) {
	switch desc {
	case DESC_SCENARIO_CIRCLE:
		return SCENARIO_CIRCLE, nil
	case DESC_SCENARIO_CORRIDOR:
		return SCENARIO_CORRIDOR, nil
	case DESC_SCENARIO_PILLARS:
		return SCENARIO_PILLARS, nil
	}
	return 0, fmt.Errorf("unsupported scenario %q (supported: %s, %s, %s)", desc,
		DESC_SCENARIO_CIRCLE, DESC_SCENARIO_CORRIDOR, DESC_SCENARIO_PILLARS)
}

const (
	DESC_PLANE_XZ = "xz"
	DESC_PLANE_XY = "xy"
)

// Flag usage strings.
const (
	DescScenario        = "scenario to run"
	DescAgents          = "number of moving agents"
	DescTicks           = "ticks to simulate"
	DescWorkers         = "worker goroutines, 0 runs on the main goroutine"
	DescDoubleBuffering = "let the velocity phase overlap the next tick"
	DescDeltaTime       = "seconds per tick"
	DescBias            = "symmetry breaking bias in radians"
	DescRadius          = "agent radius"
	DescSpeed           = "desired agent speed"
	DescMaxSpeed        = "maximum agent speed"
	DescSeed            = "random seed for start positions"
	DescPlane           = "movement plane, xz or xy"
	DescFrames          = "write length prefixed protobuf frames to this file"
	DescLogLevel        = "log level"
	DescLogFile         = "also write logs to this file"
	DescLogEncoding     = "log encoding, console or json"
)
