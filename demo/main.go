package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gorustyt/gorvo/common/logger"
	"github.com/gorustyt/gorvo/common/message"
	"github.com/gorustyt/gorvo/demo/config"
	"github.com/gorustyt/gorvo/rvo"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protowire"
)

func main() {
	cfg := config.NewConfig()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(*cfg.LogConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) (err error) {
	simCfg := cfg.SimConfig
	clock := rvo.NewManualClock(time.Unix(0, 0))
	rc := simCfg.RvoConfig(log)
	rc.Clock = clock
	s := rvo.NewSimulator(rc)
	defer func() {
		if closeErr := s.Close(); err == nil {
			err = closeErr
		}
	}()

	sc, err := buildScenario(s, simCfg)
	if err != nil {
		return err
	}

	var frames *bufio.Writer
	if cfg.FramePath != "" {
		f, err := os.Create(cfg.FramePath)
		if err != nil {
			return err
		}
		defer f.Close()
		frames = bufio.NewWriter(f)
		defer frames.Flush()
	}

	log.Info("scenario ready",
		zap.Stringer("scenario", simCfg.GetScenario()),
		zap.Int("walkers", len(sc.walkers)),
		zap.Int("pillars", len(sc.pillars)),
		zap.Int("obstacles", len(s.Obstacles())),
		zap.Int("workers", simCfg.Workers))

	dt := time.Duration(simCfg.DeltaTime * float64(time.Second))
	start := time.Now()
	clearance := sc.minClearance()
	arrived := 0
	var buf []byte
	for s.Tick() < uint64(simCfg.Ticks) {
		clock.Advance(dt)
		before := s.Tick()
		if err := s.Update(); err != nil {
			return err
		}
		if s.Tick() == before {
			continue
		}

		arrived = sc.advance(s.DeltaTime())
		clearance = min(clearance, sc.minClearance())

		if frames != nil {
			f := s.Snapshot()
			buf = protowire.AppendBytes(buf[:0], message.Encode(nil, &f))
			if _, err := frames.Write(buf); err != nil {
				return err
			}
		}
		if s.Tick()%100 == 0 {
			log.Debug("progress", zap.Uint64("tick", s.Tick()), zap.Int("arrived", arrived), zap.Float32("clearance", clearance))
		}
		if arrived == len(sc.walkers) {
			break
		}
	}

	elapsed := time.Since(start)
	log.Info("run finished",
		zap.Uint64("ticks", s.Tick()),
		zap.Duration("elapsed", elapsed),
		zap.Int("arrived", arrived),
		zap.Float32("min_clearance", clearance))

	fmt.Printf("=== Avoidance Report ===\n")
	fmt.Printf("scenario=%s agents=%d workers=%d double_buffering=%v\n",
		simCfg.GetScenario(), len(sc.walkers), simCfg.Workers, simCfg.DoubleBuffering)
	fmt.Printf("ticks=%d simulated=%.2fs wall=%s\n", s.Tick(), float64(s.Tick())*simCfg.DeltaTime, elapsed.Round(time.Millisecond))
	fmt.Printf("arrived=%d/%d min_clearance=%.3f\n", arrived, len(sc.walkers), clearance)
	return nil
}
