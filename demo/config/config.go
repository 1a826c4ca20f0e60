package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/gorustyt/gorvo/common/logger"
	"github.com/gorustyt/gorvo/rvo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Config struct {
	SimConfig *SimConfig
	LogConfig *logger.Config
	FramePath string
}

func (cfg *Config) Reset() {
	cfg.SimConfig.Reset()
	cfg.LogConfig.Reset()
	cfg.FramePath = ""
}

func NewConfig() *Config {
	c := &Config{
		SimConfig: &SimConfig{},
		LogConfig: &logger.Config{},
	}
	c.Reset()
	return c
}

// RegisterFlags binds every setting to a command line flag on fs.
func (cfg *Config) RegisterFlags(fs *flag.FlagSet) {
	s := cfg.SimConfig
	fs.StringVar(&s.Scenario, "scenario", s.Scenario, DescScenario)
	fs.IntVar(&s.Agents, "agents", s.Agents, DescAgents)
	fs.IntVar(&s.Ticks, "ticks", s.Ticks, DescTicks)
	fs.IntVar(&s.Workers, "workers", s.Workers, DescWorkers)
	fs.BoolVar(&s.DoubleBuffering, "double-buffering", s.DoubleBuffering, DescDoubleBuffering)
	fs.Float64Var(&s.DeltaTime, "dt", s.DeltaTime, DescDeltaTime)
	fs.Float64Var(&s.SymmetryBreakingBias, "bias", s.SymmetryBreakingBias, DescBias)
	fs.Float64Var(&s.Radius, "radius", s.Radius, DescRadius)
	fs.Float64Var(&s.Speed, "speed", s.Speed, DescSpeed)
	fs.Float64Var(&s.MaxSpeed, "max-speed", s.MaxSpeed, DescMaxSpeed)
	fs.Int64Var(&s.Seed, "seed", s.Seed, DescSeed)
	fs.StringVar(&s.Plane, "plane", s.Plane, DescPlane)
	fs.StringVar(&cfg.FramePath, "frames", cfg.FramePath, DescFrames)

	l := cfg.LogConfig
	fs.StringVar(&l.Level, "log-level", l.Level, DescLogLevel)
	fs.StringVar(&l.Filename, "log-file", l.Filename, DescLogFile)
	fs.StringVar(&l.Encoding, "log-encoding", l.Encoding, DescLogEncoding)
}

// Validate reports every invalid setting at once.
func (cfg *Config) Validate() error {
	s := cfg.SimConfig
	var err error
	if _, e := ParseScenario(s.Scenario); e != nil {
		err = multierr.Append(err, e)
	}
	if s.Plane != DESC_PLANE_XZ && s.Plane != DESC_PLANE_XY {
		err = multierr.Append(err, fmt.Errorf("unsupported plane %q", s.Plane))
	}
	if s.Agents <= 0 {
		err = multierr.Append(err, errors.New("-agents must be > 0"))
	}
	if s.Ticks <= 0 {
		err = multierr.Append(err, errors.New("-ticks must be > 0"))
	}
	if s.Workers < 0 {
		err = multierr.Append(err, errors.New("-workers must be >= 0"))
	}
	if s.DeltaTime <= 0 {
		err = multierr.Append(err, errors.New("-dt must be > 0"))
	}
	if s.Radius <= 0 {
		err = multierr.Append(err, errors.New("-radius must be > 0"))
	}
	if s.Speed < 0 || s.MaxSpeed < s.Speed {
		err = multierr.Append(err, errors.New("need 0 <= -speed <= -max-speed"))
	}
	return err
}

type SimConfig struct {
	Scenario             string
	Agents               int
	Ticks                int
	Workers              int
	DoubleBuffering      bool
	DeltaTime            float64
	SymmetryBreakingBias float64
	Radius               float64
	Speed                float64
	MaxSpeed             float64
	Seed                 int64
	Plane                string
}

func (cfg *SimConfig) Reset() {
	def := rvo.DefaultConfig()
	cfg.Scenario = DESC_SCENARIO_CIRCLE
	cfg.Agents = 32
	cfg.Ticks = 400
	cfg.Workers = 0
	cfg.DoubleBuffering = def.DoubleBuffering
	cfg.DeltaTime = float64(def.DesiredDeltaTime)
	cfg.SymmetryBreakingBias = float64(def.SymmetryBreakingBias)
	cfg.Radius = 0.5
	cfg.Speed = 1.5
	cfg.MaxSpeed = 2
	cfg.Seed = 42
	cfg.Plane = DESC_PLANE_XZ
}

func (cfg *SimConfig) GetScenario() ScenarioKind {
	k, _ := ParseScenario(cfg.Scenario)
	return k
}

func (cfg *SimConfig) GetPlane() rvo.MovementPlane {
	if cfg.Plane == DESC_PLANE_XY {
		return rvo.PlaneXY
	}
	return rvo.PlaneXZ
}

// RvoConfig is the simulator configuration for these settings.
func (cfg *SimConfig) RvoConfig(log *zap.Logger) rvo.Config {
	c := rvo.DefaultConfig()
	c.Workers = cfg.Workers
	c.DoubleBuffering = cfg.DoubleBuffering
	c.SetDesiredDeltaTime(float32(cfg.DeltaTime))
	c.SymmetryBreakingBias = float32(cfg.SymmetryBreakingBias)
	c.MovementPlane = cfg.GetPlane()
	c.Logger = log
	return c
}
