package sched

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordApp logs lifecycle events under a lock; assertions poll snapshots.
type recordApp struct {
	mu     sync.Mutex
	events []string

	doneOnce bool // make the next foreground tick report done
}

func (a *recordApp) add(e string) {
	a.mu.Lock()
	a.events = append(a.events, e)
	a.mu.Unlock()
}

func (a *recordApp) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.events...)
}

func (a *recordApp) EnterForeground() { a.add("enter") }
func (a *recordApp) ExitForeground()  { a.add("exit") }

func (a *recordApp) TickForeground(now time.Time) bool {
	a.add("fg")
	a.mu.Lock()
	done := a.doneOnce
	a.doneOnce = false
	a.mu.Unlock()
	return done
}

func (a *recordApp) TickBackground(now time.Time) { a.add("bg") }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

func countOf(events []string, kind string) int {
	n := 0
	for _, e := range events {
		if e == kind {
			n++
		}
	}
	return n
}

func runScheduler(t *testing.T, app App, opts Options) *Scheduler {
	t.Helper()
	s := New(app, opts, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return s
}

func TestRun_StartForegroundEntersBeforeTicking(t *testing.T) {
	app := &recordApp{}
	runScheduler(t, app, Options{ForegroundTick: time.Millisecond, StartForeground: true})

	waitFor(t, func() bool { return countOf(app.snapshot(), "fg") >= 2 })

	events := app.snapshot()
	if events[0] != "enter" {
		t.Errorf("first event = %q; want \"enter\"", events[0])
	}
}

func TestRun_DoneTickBackgroundsTheApp(t *testing.T) {
	app := &recordApp{}
	runScheduler(t, app, Options{
		ForegroundTick:  time.Millisecond,
		BackgroundTick:  time.Millisecond,
		StartForeground: true,
	})

	waitFor(t, func() bool { return countOf(app.snapshot(), "fg") >= 1 })
	app.mu.Lock()
	app.doneOnce = true
	app.mu.Unlock()

	waitFor(t, func() bool { return countOf(app.snapshot(), "bg") >= 2 })
	events := app.snapshot()
	if countOf(events, "exit") != 1 {
		t.Errorf("exit count = %d; want 1", countOf(events, "exit"))
	}
	// No foreground tick after the exit.
	lastFg, lastExit := -1, -1
	for i, e := range events {
		switch e {
		case "fg":
			lastFg = i
		case "exit":
			lastExit = i
		}
	}
	if lastFg > lastExit {
		t.Error("foreground tick observed after exit")
	}
}

func TestSetForeground_TransitionsFromBackground(t *testing.T) {
	app := &recordApp{}
	s := runScheduler(t, app, Options{
		ForegroundTick: time.Millisecond,
		BackgroundTick: time.Millisecond,
	})

	waitFor(t, func() bool { return countOf(app.snapshot(), "bg") >= 1 })
	s.SetForeground(true)
	waitFor(t, func() bool { return countOf(app.snapshot(), "enter") >= 1 })
	waitFor(t, func() bool { return countOf(app.snapshot(), "fg") >= 1 })
}

func TestPost_RunsBetweenTicksOnSchedulerGoroutine(t *testing.T) {
	app := &recordApp{}
	s := runScheduler(t, app, Options{BackgroundTick: time.Millisecond})

	ran := make(chan struct{})
	s.Post(func() {
		// Runs on the loop goroutine; record like any other event to prove
		// it serializes with ticks rather than interleaving them.
		app.add("post")
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted callback never ran")
	}
}

func TestRun_CancelInForegroundReleasesApp(t *testing.T) {
	app := &recordApp{}
	s := New(app, Options{ForegroundTick: time.Millisecond, StartForeground: true}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(stopped)
	}()

	waitFor(t, func() bool { return countOf(app.snapshot(), "fg") >= 1 })
	cancel()
	<-stopped

	events := app.snapshot()
	if countOf(events, "exit") != 1 {
		t.Errorf("exit count after cancel = %d; want 1", countOf(events, "exit"))
	}
}
