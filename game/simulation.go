// Package game drives the ecosystem: it owns the environment, steps it at
// a target tick rate and routes its events to telemetry sinks.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/ecosystem"
	"github.com/pthm-cable/biosphere/telemetry"
)

// ErrRunning is returned by Start when the simulation is already running.
var ErrRunning = errors.New("game: simulation already running")

// Options configures a Simulation beyond its config file.
type Options struct {
	Seed      int64  // 0 = config seed, then time-based
	OutputDir string // CSV output directory, overrides telemetry.output_dir
	EventLog  string // zstd JSONL event log path, overrides telemetry.event_log
	LogStats  bool   // log window and perf stats through slog

	Logger   *slog.Logger       // event logger, nil = slog.Default()
	Recorder telemetry.Recorder // extra event sink

	// StatsCallback, if set, receives every closed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Simulation is the tick driver. Step, Reset and the accessors may be
// called from any goroutine; they are serialized by an internal mutex.
type Simulation struct {
	mu   sync.Mutex
	cfg  *config.Config
	opts Options
	seed int64

	env       *ecosystem.Environment
	collector *telemetry.Collector
	bookmarks *telemetry.BookmarkDetector
	output    *telemetry.OutputManager
	eventLog  *telemetry.EventLog

	// Background run started by Start
	cancel context.CancelFunc
	done   chan struct{}
	runErr error
}

// New builds a simulation and seeds its initial population.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = cfg.Telemetry.OutputDir
	}
	if opts.EventLog == "" {
		opts.EventLog = cfg.Telemetry.EventLog
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Simulation{cfg: cfg, opts: opts, seed: seed}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	s.output = output
	if err := s.output.WriteConfig(cfg); err != nil {
		s.closeSinks()
		return nil, err
	}
	if opts.EventLog != "" {
		if s.eventLog, err = telemetry.NewEventLog(opts.EventLog); err != nil {
			s.closeSinks()
			return nil, err
		}
	}

	if err := s.build(); err != nil {
		s.closeSinks()
		return nil, err
	}
	return s, nil
}

// build creates a fresh environment and window collectors.
func (s *Simulation) build() error {
	s.collector = telemetry.NewCollector(s.cfg.Telemetry.StatsWindow)
	s.bookmarks = telemetry.NewBookmarkDetector(10)

	var eventLog telemetry.Recorder
	if s.eventLog != nil {
		eventLog = s.eventLog
	}
	rec := telemetry.Multi(
		s.collector,
		telemetry.NewSlogRecorder(s.opts.Logger),
		eventLog,
		s.opts.Recorder,
	)

	env, err := ecosystem.New(s.cfg, ecosystem.WithSeed(s.seed), ecosystem.WithRecorder(rec))
	if err != nil {
		return fmt.Errorf("creating environment: %w", err)
	}
	env.SeedPopulation(s.cfg.Simulation.InitialPopulation)
	s.env = env
	return nil
}

// Seed returns the seed of the current run.
func (s *Simulation) Seed() int64 { return s.seed }

// Config returns the simulation config.
func (s *Simulation) Config() *config.Config { return s.cfg }

// Step advances the simulation by one tick.
func (s *Simulation) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env.Update()
	s.flushTelemetry()
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env.Tick()
}

// Stats returns the environment stats after the last tick.
func (s *Simulation) Stats() ecosystem.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env.Stats()
}

// Environment calls fn with the environment while holding the simulation
// lock. fn must not retain the environment.
func (s *Simulation) Environment(fn func(env *ecosystem.Environment)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.env)
}

// Reset discards the world and starts over with the same seed.
func (s *Simulation) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.build()
}

// Run steps the simulation until ctx is done or max_ticks is reached.
// With a positive target tick rate, ticks are paced by a ticker; otherwise
// the loop runs as fast as it can. Cancellation returns ctx.Err().
func (s *Simulation) Run(ctx context.Context) error {
	var pace <-chan time.Time
	if rate := s.cfg.Simulation.TargetTickRate; rate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()
		pace = ticker.C
	}

	maxTicks := s.cfg.Simulation.MaxTicks
	for {
		if maxTicks > 0 && s.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return nil
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		s.Step()
	}
}

// Start runs the simulation in a background goroutine.
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func() {
		defer close(done)
		err := s.Run(ctx)
		s.mu.Lock()
		s.runErr = err
		s.mu.Unlock()
	}()
	return nil
}

// Stop halts a background run and waits for it to exit. It returns the
// run's error, if any, other than cancellation.
func (s *Simulation) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.runErr
	s.cancel, s.done, s.runErr = nil, nil, nil
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops any background run and flushes the output sinks.
func (s *Simulation) Close() error {
	return errors.Join(s.Stop(), s.closeSinks())
}

func (s *Simulation) closeSinks() error {
	var errs []error
	if s.eventLog != nil {
		errs = append(errs, s.eventLog.Close())
	}
	errs = append(errs, s.output.Close())
	return errors.Join(errs...)
}
