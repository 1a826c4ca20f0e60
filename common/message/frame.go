package message

import (
	"fmt"
	"math"

	"github.com/gorustyt/gorvo/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// Frame field numbers.
const (
	frameTick      protowire.Number = 1
	frameDeltaTime protowire.Number = 2
	frameAgents    protowire.Number = 3
)

// AgentState field numbers.
const (
	agentID             protowire.Number = 1
	agentPositionX      protowire.Number = 2
	agentPositionY      protowire.Number = 3
	agentTargetX        protowire.Number = 4
	agentTargetY        protowire.Number = 5
	agentSpeed          protowire.Number = 6
	agentNeighbourCount protowire.Number = 7
)

// / Result of one simulation tick.
type Frame struct {
	Tick      uint64
	DeltaTime float32
	Agents    []AgentState
}

// / Committed output of a single agent.
type AgentState struct {
	ID                    uint64
	Position              common.Vec2
	CalculatedTargetPoint common.Vec2
	CalculatedSpeed       float32
	NeighbourCount        int32
}

// / Velocity implied by the calculated target and speed.
func (s *AgentState) Velocity() common.Vec2 {
	return common.Normalized(s.CalculatedTargetPoint.Sub(s.Position)).Mul(s.CalculatedSpeed)
}

// Encode appends the protobuf wire form of f to b.
func Encode(b []byte, f *Frame) []byte {
	if f.Tick != 0 {
		b = protowire.AppendTag(b, frameTick, protowire.VarintType)
		b = protowire.AppendVarint(b, f.Tick)
	}
	if f.DeltaTime != 0 {
		b = appendFloat(b, frameDeltaTime, f.DeltaTime)
	}
	var scratch []byte
	for i := range f.Agents {
		scratch = encodeAgent(scratch[:0], &f.Agents[i])
		b = protowire.AppendTag(b, frameAgents, protowire.BytesType)
		b = protowire.AppendBytes(b, scratch)
	}
	return b
}

func encodeAgent(b []byte, s *AgentState) []byte {
	if s.ID != 0 {
		b = protowire.AppendTag(b, agentID, protowire.VarintType)
		b = protowire.AppendVarint(b, s.ID)
	}
	b = appendFloat(b, agentPositionX, s.Position[0])
	b = appendFloat(b, agentPositionY, s.Position[1])
	b = appendFloat(b, agentTargetX, s.CalculatedTargetPoint[0])
	b = appendFloat(b, agentTargetY, s.CalculatedTargetPoint[1])
	b = appendFloat(b, agentSpeed, s.CalculatedSpeed)
	if s.NeighbourCount != 0 {
		b = protowire.AppendTag(b, agentNeighbourCount, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(s.NeighbourCount))
	}
	return b
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

// Decode parses a frame written by Encode. Unknown fields are skipped.
func Decode(data []byte) (Frame, error) {
	var f Frame
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return f, fmt.Errorf("message: frame tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch {
		case num == frameTick && typ == protowire.VarintType:
			f.Tick, n = protowire.ConsumeVarint(data)
		case num == frameDeltaTime && typ == protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(data)
			f.DeltaTime = math.Float32frombits(v)
		case num == frameAgents && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(data)
			if n >= 0 {
				s, err := decodeAgent(raw)
				if err != nil {
					return f, err
				}
				f.Agents = append(f.Agents, s)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return f, fmt.Errorf("message: frame field %d: %w", num, protowire.ParseError(n))
		}
		data = data[n:]
	}
	return f, nil
}

func decodeAgent(data []byte) (AgentState, error) {
	var s AgentState
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return s, fmt.Errorf("message: agent tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		if typ == protowire.Fixed32Type {
			var bits uint32
			bits, n = protowire.ConsumeFixed32(data)
			v := math.Float32frombits(bits)
			switch num {
			case agentPositionX:
				s.Position[0] = v
			case agentPositionY:
				s.Position[1] = v
			case agentTargetX:
				s.CalculatedTargetPoint[0] = v
			case agentTargetY:
				s.CalculatedTargetPoint[1] = v
			case agentSpeed:
				s.CalculatedSpeed = v
			}
		} else if typ == protowire.VarintType && (num == agentID || num == agentNeighbourCount) {
			var v uint64
			v, n = protowire.ConsumeVarint(data)
			if num == agentID {
				s.ID = v
			} else {
				s.NeighbourCount = int32(v)
			}
		} else {
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return s, fmt.Errorf("message: agent field %d: %w", num, protowire.ParseError(n))
		}
		data = data[n:]
	}
	return s, nil
}
