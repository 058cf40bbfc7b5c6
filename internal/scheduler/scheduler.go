package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked when a trigger minute comes due.
type TickFunc func(ctx context.Context) error

// Options define the two independent trigger sets, both as minutes-of-hour.
type Options struct {
	// CollectMinute fires data collection and persistence once per hour.
	CollectMinute int
	// AlertMinutes fire alert composition and dispatch from stored data.
	AlertMinutes []int
}

// Scheduler evaluates a wall-clock tick once per minute and fires the
// collection and alert hooks on their configured minutes. Each trigger fires
// at most once per matching minute, so a tick landing a few seconds late
// cannot double-fire.
type Scheduler struct {
	opts     Options
	alertSet map[int]struct{}
	logger   zerolog.Logger
	now      func() time.Time

	lastCollect time.Time
	lastAlert   time.Time
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	alertSet := make(map[int]struct{}, len(opts.AlertMinutes))
	for _, m := range opts.AlertMinutes {
		if m >= 0 && m <= 59 {
			alertSet[m] = struct{}{}
		}
	}
	return &Scheduler{
		opts:     opts,
		alertSet: alertSet,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
	}
}

// Run blocks, waking at every wall-clock minute boundary until ctx is
// cancelled. Hook errors are logged and never stop the loop; collection and
// alerting stay independent of each other.
func (s *Scheduler) Run(ctx context.Context, onCollect, onAlert TickFunc) error {
	for {
		now := s.now()
		next := now.Truncate(time.Minute).Add(time.Minute)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		collect, alert := s.due(s.now())

		if collect && onCollect != nil {
			s.logger.Info().Int("minute", s.opts.CollectMinute).Msg("collection trigger fired")
			if err := onCollect(ctx); err != nil {
				s.logger.Error().Err(err).Msg("collection pass failed")
			}
		}

		if alert && onAlert != nil {
			s.logger.Info().Int("minute", s.now().Minute()).Msg("alert trigger fired")
			if err := onAlert(ctx); err != nil {
				s.logger.Error().Err(err).Msg("alert dispatch failed")
			}
		}
	}
}

// due reports which triggers fire for this tick, remembering the minute each
// trigger last acted upon.
func (s *Scheduler) due(now time.Time) (collect, alert bool) {
	minute := now.Minute()
	bucket := now.Truncate(time.Minute)

	if minute == s.opts.CollectMinute && !bucket.Equal(s.lastCollect) {
		s.lastCollect = bucket
		collect = true
	}
	if _, ok := s.alertSet[minute]; ok && !bucket.Equal(s.lastAlert) {
		s.lastAlert = bucket
		alert = true
	}
	return collect, alert
}
