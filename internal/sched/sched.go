// Package sched runs a cooperative app on a single goroutine: periodic
// foreground or background ticks plus asynchronous callbacks posted from
// other goroutines, executed strictly between ticks. Apps never see two
// callbacks at once.
package sched

import (
	"context"
	"log/slog"
	"time"
)

// Default duty cycles: interactive apps tick fast, invisible apps only as
// often as their data changes.
const (
	DefaultForegroundTick = 10 * time.Millisecond
	DefaultBackgroundTick = 5 * time.Second
)

// App is a cooperative application. Every method must return quickly and
// never block; the scheduler invokes them all from one goroutine.
type App interface {
	EnterForeground()
	ExitForeground()
	// TickForeground runs one interactive step and reports whether the app
	// dismissed itself.
	TickForeground(now time.Time) (done bool)
	TickBackground(now time.Time)
}

// Options tunes the scheduler cadence.
type Options struct {
	ForegroundTick  time.Duration
	BackgroundTick  time.Duration
	StartForeground bool
}

// Scheduler drives one App.
type Scheduler struct {
	app     App
	opts    Options
	logger  *slog.Logger
	posts   chan func()
	control chan bool
}

func New(app App, opts Options, logger *slog.Logger) *Scheduler {
	if opts.ForegroundTick <= 0 {
		opts.ForegroundTick = DefaultForegroundTick
	}
	if opts.BackgroundTick <= 0 {
		opts.BackgroundTick = DefaultBackgroundTick
	}
	return &Scheduler{
		app:     app,
		opts:    opts,
		logger:  logger,
		posts:   make(chan func(), 64),
		control: make(chan bool, 4),
	}
}

// Post queues fn to run on the scheduler goroutine between ticks. Safe to
// call from any goroutine. When the queue is full the callback is dropped;
// producers of posted work (e.g. the radio) are lossy by design.
func (s *Scheduler) Post(fn func()) {
	select {
	case s.posts <- fn:
	default:
		s.logger.Warn("scheduler post queue full, callback dropped")
	}
}

// SetForeground requests a lifecycle transition, as when an app switcher
// selects or dismisses the app externally.
func (s *Scheduler) SetForeground(v bool) {
	select {
	case s.control <- v:
	default:
		s.logger.Warn("scheduler control queue full, transition dropped")
	}
}

// Run executes the loop until ctx is canceled. On exit a foregrounded app
// is backgrounded first so render resources are released.
func (s *Scheduler) Run(ctx context.Context) error {
	foreground := false
	if s.opts.StartForeground {
		foreground = true
		s.app.EnterForeground()
	}

	cadence := func() time.Duration {
		if foreground {
			return s.opts.ForegroundTick
		}
		return s.opts.BackgroundTick
	}

	timer := time.NewTimer(cadence())
	defer timer.Stop()

	resetTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(cadence())
	}

	for {
		select {
		case <-ctx.Done():
			if foreground {
				s.app.ExitForeground()
			}
			s.logger.Debug("scheduler stopped")
			return nil

		case fn := <-s.posts:
			fn()

		case want := <-s.control:
			if want == foreground {
				continue
			}
			foreground = want
			if foreground {
				s.app.EnterForeground()
			} else {
				s.app.ExitForeground()
			}
			resetTimer()

		case now := <-timer.C:
			if foreground {
				if done := s.app.TickForeground(now); done {
					s.app.ExitForeground()
					foreground = false
				}
			} else {
				s.app.TickBackground(now)
			}
			timer.Reset(cadence())
		}
	}
}
