// Package scheduler runs background agents on a cron schedule and reports
// each run to a monitoring.Monitor.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"comment-analyzer/shared/monitoring"
)

// Metrics is whatever an agent reports about a successful run.
type Metrics interface {
	GetSummary() string
}

// AgentEvents lets an agent report outcomes that do not end the run.
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent is a unit of background work. An error returned from RunOnce is
// recorded as a critical failure.
type Agent interface {
	Name() string
	Initialize() error
	RunOnce(ctx context.Context, events *AgentEvents) error
}

type Scheduler struct {
	schedule string
	monitor  *monitoring.Monitor
	agent    Agent
	clock    clockwork.Clock
	cron     *cron.Cron
	entry    cron.EntryID
}

type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// New builds a scheduler for agent. schedule uses six fields with seconds
// first, or a descriptor such as "@every 6h".
func New(schedule string, agent Agent, monitor *monitoring.Monitor, opts ...Option) *Scheduler {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))
	s := &Scheduler{
		schedule: schedule,
		monitor:  monitor,
		agent:    agent,
		clock:    clockwork.NewRealClock(),
		// overlapping runs are skipped
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(logger))),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the agent and blocks running it on schedule until ctx is
// cancelled. A run in progress is allowed to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	id, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			slog.Error("Scheduled run failed", "agent", s.agent.Name(), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entry = id

	s.cron.Start()
	slog.Info("Scheduler started", "agent", s.agent.Name(), "schedule", s.schedule, "next_run", s.Next())

	<-ctx.Done()
	slog.Info("Scheduler stopping", "agent", s.agent.Name())
	<-s.cron.Stop().Done()
	return ctx.Err()
}

// Next returns when the agent runs next, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// RunOnce runs the agent a single time, wiring its events to the monitor.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := s.clock.Now()
	name := s.agent.Name()
	log := slog.With("agent", name)

	log.Info("Starting agent run")

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", name, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", name, err), duration)
		},
	}

	err := s.agent.RunOnce(ctx, events)
	duration := s.clock.Since(start)
	if err != nil {
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", name, err), duration)
		return fmt.Errorf("%s run failed: %w", name, err)
	}

	log.Info("Agent run finished", "duration", duration, "status", s.monitor.GetStatusSummary())
	return nil
}
