package rvo

import "errors"

var (
	ErrNilAgent               = errors.New("rvo: agent must not be nil")
	ErrAgentInSimulation      = errors.New("rvo: agent is already in the simulation")
	ErrAgentInOtherSimulation = errors.New("rvo: agent is already added to another simulation")
	ErrAgentNotInSimulation   = errors.New("rvo: agent is not added to this simulation")
	ErrNilObstacle            = errors.New("rvo: obstacle must not be nil")
	ErrDegenerateObstacle     = errors.New("rvo: degenerate obstacle")
	ErrVertexCountMismatch    = errors.New("rvo: vertex count does not match the obstacle")
	ErrUnknownObstacle        = errors.New("rvo: obstacle is not part of this simulation")
	ErrSimulatorClosed        = errors.New("rvo: simulator is closed")
)
