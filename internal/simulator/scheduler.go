package simulator

import (
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/network-monitor/backend/internal/monitor"
)

// Settings are the simulator knobs. They can be changed while running.
type Settings struct {
	Probability      float64       `json:"probability"`
	Interval         time.Duration `json:"interval"`
	SpeedInterval    time.Duration `json:"speed_interval"`
	ActivityInterval time.Duration `json:"activity_interval"`
}

// DefaultSettings mirrors the dashboard's stock behaviour.
func DefaultSettings() Settings {
	return Settings{
		Probability:      0.3,
		Interval:         8 * time.Second,
		SpeedInterval:    2 * time.Second,
		ActivityInterval: 3 * time.Second,
	}
}

// Validate rejects probabilities outside [0,1] and non-positive intervals.
func (s Settings) Validate() error {
	if s.Probability < 0 || s.Probability > 1 {
		return errors.New("probability must be between 0 and 1")
	}
	if s.Interval <= 0 || s.SpeedInterval <= 0 || s.ActivityInterval <= 0 {
		return errors.New("intervals must be positive")
	}
	return nil
}

const (
	jobConnections = "connections"
	jobSpeed       = "speed"
	jobActivity    = "activity"
)

// Scheduler drives the dashboard from periodic cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	dashboard *monitor.Dashboard
	gen       *Generator
	log       zerolog.Logger

	mu       sync.RWMutex
	settings Settings
	jobs     map[string]cron.EntryID
}

// cronLogger routes cron's own messages into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// NewScheduler creates a scheduler. Call Start to begin ticking.
func NewScheduler(log zerolog.Logger, dashboard *monitor.Dashboard, gen *Generator, settings Settings) *Scheduler {
	log = log.With().Str("component", "simulator").Logger()
	clog := cronLogger{log: log}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithLogger(clog), cron.WithChain(cron.Recover(clog))),
		dashboard: dashboard,
		gen:       gen,
		log:       log,
		settings:  settings,
		jobs:      make(map[string]cron.EntryID),
	}
}

// Start schedules the connection, speed and activity jobs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scheduleLocked(); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().
		Float64("probability", s.settings.Probability).
		Dur("interval", s.settings.Interval).
		Msg("simulator started")
	return nil
}

// Stop tears down the periodic jobs and waits for running ones to finish.
func (s *Scheduler) Stop() {
	s.log.Info().Msg("stopping simulator")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("simulator stopped")
}

// Reconfigure applies new settings and reschedules the jobs.
func (s *Scheduler) Reconfigure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	if err := s.scheduleLocked(); err != nil {
		return err
	}
	s.log.Info().
		Float64("probability", settings.Probability).
		Dur("interval", settings.Interval).
		Dur("speed_interval", settings.SpeedInterval).
		Msg("simulator rescheduled")
	return nil
}

func (s *Scheduler) scheduleLocked() error {
	for name, id := range s.jobs {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}

	jobs := []struct {
		name     string
		interval time.Duration
		fn       func()
	}{
		{jobConnections, s.settings.Interval, func() { s.Tick() }},
		{jobSpeed, s.settings.SpeedInterval, func() { s.SampleSpeed() }},
		{jobActivity, s.settings.ActivityInterval, func() { s.SampleActivity() }},
	}

	for _, job := range jobs {
		id, err := s.cron.AddFunc(everySpec(job.interval), job.fn)
		if err != nil {
			return err
		}
		s.jobs[job.name] = id
	}
	return nil
}

// Tick is one connection attempt. With the configured probability it
// fabricates a device and hands it to the dashboard; blocked ids are dropped.
func (s *Scheduler) Tick() (monitor.Device, bool) {
	s.mu.RLock()
	p := s.settings.Probability
	s.mu.RUnlock()

	if !s.gen.Roll(p) {
		return monitor.Device{}, false
	}

	dev := s.gen.Device()
	if !s.dashboard.Incoming(dev) {
		return monitor.Device{}, false
	}
	return dev, true
}

// SampleSpeed records one fabricated bandwidth sample.
func (s *Scheduler) SampleSpeed() monitor.SpeedSample {
	down, up := s.gen.Speed()
	return s.dashboard.RecordSpeed(down, up)
}

// SampleActivity records one link-type activity refresh.
func (s *Scheduler) SampleActivity() map[monitor.DeviceType]bool {
	activity := s.gen.Activity()
	s.dashboard.RecordActivity(activity)
	return activity
}

// Settings returns the active settings.
func (s *Scheduler) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// NextRun returns the next scheduled connection attempt.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.jobs[jobConnections]; ok {
		entry := s.cron.Entry(id)
		if !entry.Next.IsZero() {
			return &entry.Next
		}
	}
	return nil
}

// everySpec converts an interval to a cron spec. Cron rounds sub-second
// delays up to one second.
func everySpec(d time.Duration) string {
	return "@every " + d.String()
}
