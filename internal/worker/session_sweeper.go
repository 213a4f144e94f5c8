package worker

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// SessionReaper is the part of the exam host the sweeper drives.
type SessionReaper interface {
	Sweep(now time.Time) int
	Active() int
}

// SessionSweeper periodically evicts finished and idle exam sessions.
type SessionSweeper struct {
	scheduler *gocron.Scheduler
	reaper    SessionReaper
	interval  time.Duration
	log       zerolog.Logger
}

// NewSessionSweeper creates a sweeper running every interval.
func NewSessionSweeper(reaper SessionReaper, interval time.Duration, log zerolog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionSweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		reaper:    reaper,
		interval:  interval,
		log:       log.With().Str("component", "session_sweeper").Logger(),
	}
}

// Start schedules the sweep and returns immediately.
func (s *SessionSweeper) Start() error {
	if _, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.sweep); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info().Dur("interval", s.interval).Msg("SessionSweeper started")
	return nil
}

// Stop halts the schedule.
func (s *SessionSweeper) Stop() {
	s.scheduler.Stop()
	s.log.Info().Msg("SessionSweeper stopped")
}

func (s *SessionSweeper) sweep() {
	evicted := s.reaper.Sweep(time.Now())
	if evicted == 0 {
		return
	}
	s.log.Info().
		Int("evicted", evicted).
		Int("active", s.reaper.Active()).
		Msg("Exam sessions swept")
}
